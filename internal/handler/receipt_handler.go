package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/hakimz/duit/duit-backend/internal/middleware"
	"github.com/hakimz/duit/duit-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReceiptHandler handles receipt upload HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// UploadReceiptResponse represents the upload response
type UploadReceiptResponse struct {
	ID           string `json:"id"`
	OriginalURL  string `json:"originalUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// UploadReceipt handles POST /api/v1/receipts
func (h *ReceiptHandler) UploadReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	// Without storage there is nothing to upload to
	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	metadata, err := h.receiptService.Upload(c.Request().Context(), workspaceID, data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReceiptTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 5MB"},
			})
		case errors.Is(err, service.ErrReceiptInvalidFormat):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case errors.Is(err, service.ErrReceiptTooSmall):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
			})
		case errors.Is(err, service.ErrReceiptInvalidData):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		default:
			log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to upload receipt")
			return NewInternalError(c, "Failed to upload receipt")
		}
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("receipt_id", metadata.ID).
		Msg("Receipt uploaded")

	return c.JSON(http.StatusCreated, UploadReceiptResponse{
		ID:           metadata.ID,
		OriginalURL:  metadata.OriginalURL,
		ThumbnailURL: metadata.ThumbURL,
	})
}

// GetReceipt handles GET /api/v1/receipts/:id, returning fresh presigned
// URLs for a previously uploaded receipt
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewUnavailableError(c, "Receipt storage is disabled (storage not configured)")
	}

	receiptID := c.Param("id")
	if receiptID == "" {
		return NewValidationError(c, "Receipt ID required", nil)
	}

	metadata, err := h.receiptService.PresignReceipt(c.Request().Context(), workspaceID, receiptID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("receipt_id", receiptID).Msg("Failed to presign receipt")
		return NewInternalError(c, "Failed to get receipt")
	}

	return c.JSON(http.StatusOK, UploadReceiptResponse{
		ID:           metadata.ID,
		OriginalURL:  metadata.OriginalURL,
		ThumbnailURL: metadata.ThumbURL,
	})
}

// DeleteReceipt handles DELETE /api/v1/receipts/:id
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewUnavailableError(c, "Receipt storage is disabled (storage not configured)")
	}

	receiptID := c.Param("id")
	if receiptID == "" {
		return NewValidationError(c, "Receipt ID required", nil)
	}

	if err := h.receiptService.Delete(c.Request().Context(), workspaceID, receiptID); err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("receipt_id", receiptID).Msg("Failed to delete receipt")
		return NewInternalError(c, "Failed to delete receipt")
	}

	return c.NoContent(http.StatusNoContent)
}
