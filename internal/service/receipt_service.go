package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/hakimz/duit/duit-backend/internal/repository/storage"
)

const (
	MaxReceiptSize   = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	ThumbnailWidth   = 200
	JPEGQuality      = 85

	// receiptURLExpiry bounds how long generated links stay valid
	receiptURLExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge        = errors.New("file too large. Maximum size is 5MB")
	ErrReceiptInvalidFormat   = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall        = errors.New("image too small. Minimum 50x50 pixels")
	ErrReceiptInvalidData     = errors.New("invalid image data")
	ErrReceiptStorageDisabled = errors.New("receipt storage not configured")
)

// allowedReceiptExtensions maps extensions to content types
var allowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptMetadata identifies a stored receipt and its access URLs
type ReceiptMetadata struct {
	ID           string `json:"id"`
	OriginalPath string `json:"originalPath"`
	ThumbPath    string `json:"thumbPath"`
	OriginalURL  string `json:"originalUrl"`
	ThumbURL     string `json:"thumbUrl"`
}

// ReceiptService handles receipt image processing and storage
type ReceiptService struct {
	storage storage.ReceiptRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage storage.ReceiptRepository) *ReceiptService {
	return &ReceiptService{storage: storage}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// validateAndDecode validates the receipt image and returns it decoded
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedReceiptExtensions[ext]; !ok {
		return nil, ErrReceiptInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrReceiptInvalidData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}
	return img, nil
}

// Upload validates, stores the original plus a thumbnail, and returns
// presigned URLs for both
func (s *ReceiptService) Upload(ctx context.Context, workspaceID int32, data []byte, filename string) (*ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageDisabled
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	receiptID := uuid.New().String()
	originalPath := fmt.Sprintf("%d/receipts/%s_original.jpg", workspaceID, receiptID)
	thumbPath := fmt.Sprintf("%d/receipts/%s_thumb.jpg", workspaceID, receiptID)

	var originalBuf bytes.Buffer
	if err := jpeg.Encode(&originalBuf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	if _, err := s.storage.Upload(ctx, originalPath, bytes.NewReader(originalBuf.Bytes()), "image/jpeg", int64(originalBuf.Len())); err != nil {
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}

	thumb := img
	if img.Bounds().Dx() > ThumbnailWidth {
		// Resize maintaining aspect ratio
		thumb = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	var thumbBuf bytes.Buffer
	if err := jpeg.Encode(&thumbBuf, thumb, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if _, err := s.storage.Upload(ctx, thumbPath, bytes.NewReader(thumbBuf.Bytes()), "image/jpeg", int64(thumbBuf.Len())); err != nil {
		// Best effort cleanup of the original
		_ = s.storage.Delete(ctx, originalPath)
		return nil, fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	originalURL, err := s.storage.PresignedURL(ctx, originalPath, receiptURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign receipt URL: %w", err)
	}
	thumbURL, err := s.storage.PresignedURL(ctx, thumbPath, receiptURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign thumbnail URL: %w", err)
	}

	return &ReceiptMetadata{
		ID:           receiptID,
		OriginalPath: originalPath,
		ThumbPath:    thumbPath,
		OriginalURL:  originalURL,
		ThumbURL:     thumbURL,
	}, nil
}

// Delete removes both variants of a stored receipt
func (s *ReceiptService) Delete(ctx context.Context, workspaceID int32, receiptID string) error {
	if !s.IsEnabled() {
		return ErrReceiptStorageDisabled
	}
	originalPath := fmt.Sprintf("%d/receipts/%s_original.jpg", workspaceID, receiptID)
	thumbPath := fmt.Sprintf("%d/receipts/%s_thumb.jpg", workspaceID, receiptID)

	if err := s.storage.Delete(ctx, originalPath); err != nil {
		return err
	}
	return s.storage.Delete(ctx, thumbPath)
}

// PresignReceipt generates fresh presigned URLs for an existing receipt
func (s *ReceiptService) PresignReceipt(ctx context.Context, workspaceID int32, receiptID string) (*ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageDisabled
	}
	originalPath := fmt.Sprintf("%d/receipts/%s_original.jpg", workspaceID, receiptID)
	thumbPath := fmt.Sprintf("%d/receipts/%s_thumb.jpg", workspaceID, receiptID)

	originalURL, err := s.storage.PresignedURL(ctx, originalPath, receiptURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign receipt URL: %w", err)
	}
	thumbURL, err := s.storage.PresignedURL(ctx, thumbPath, receiptURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign thumbnail URL: %w", err)
	}

	return &ReceiptMetadata{
		ID:           receiptID,
		OriginalPath: originalPath,
		ThumbPath:    thumbPath,
		OriginalURL:  originalURL,
		ThumbURL:     thumbURL,
	}, nil
}
