package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
)

// ErrExtractionTextEmpty is returned when there is nothing to extract from
var ErrExtractionTextEmpty = errors.New("extraction text is required")

// ErrExtractionUnavailable is returned when the extractor cannot be reached
// or answers with an error status
var ErrExtractionUnavailable = errors.New("extraction service unavailable")

// Extractor parses free text or a receipt image into candidate loan or
// bill fields. The production implementation calls an external HTTP
// service.
type Extractor interface {
	Extract(ctx context.Context, text string) (*domain.ExtractionCandidate, error)
	ExtractImage(ctx context.Context, imageURL string) (*domain.ExtractionCandidate, error)
}

// ReceiptPresigner resolves a stored receipt into a short-lived URL the
// extractor can fetch
type ReceiptPresigner interface {
	PresignReceipt(ctx context.Context, workspaceID int32, receiptID string) (*ReceiptMetadata, error)
}

// HTTPExtractor implements Extractor against the external extraction API
type HTTPExtractor struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPExtractor creates a new HTTPExtractor
func NewHTTPExtractor(baseURL, apiKey string) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractImageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// Extract posts the text to the extraction API and decodes the candidate.
// The result is untrusted; callers validate every field before use.
func (e *HTTPExtractor) Extract(ctx context.Context, text string) (*domain.ExtractionCandidate, error) {
	return e.post(ctx, "/extract", extractRequest{Text: text})
}

// ExtractImage points the extraction API at a presigned receipt URL
func (e *HTTPExtractor) ExtractImage(ctx context.Context, imageURL string) (*domain.ExtractionCandidate, error) {
	return e.post(ctx, "/extract-image", extractImageRequest{ImageURL: imageURL})
}

func (e *HTTPExtractor) post(ctx context.Context, path string, body any) (*domain.ExtractionCandidate, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrExtractionUnavailable, resp.StatusCode)
	}

	var candidate domain.ExtractionCandidate
	if err := json.Unmarshal(respBody, &candidate); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	return &candidate, nil
}

// ExtractionService handles parsing of bank SMS, statement text, and
// stored receipts into candidate record fields
type ExtractionService struct {
	extractor Extractor
	receipts  ReceiptPresigner
}

// NewExtractionService creates a new ExtractionService. Both
// collaborators are optional; extraction reports unavailable when the
// one it needs is missing.
func NewExtractionService(extractor Extractor, receipts ReceiptPresigner) *ExtractionService {
	return &ExtractionService{extractor: extractor, receipts: receipts}
}

// ExtractFromText runs extraction over free text
func (s *ExtractionService) ExtractFromText(ctx context.Context, text string) (*domain.ExtractionCandidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrExtractionTextEmpty
	}
	if s.extractor == nil {
		return nil, ErrExtractionUnavailable
	}
	return s.extractor.Extract(ctx, text)
}

// ExtractFromReceipt runs extraction over a previously uploaded receipt.
// The extractor fetches the image through a presigned URL, so the bucket
// stays private.
func (s *ExtractionService) ExtractFromReceipt(ctx context.Context, workspaceID int32, receiptID string) (*domain.ExtractionCandidate, error) {
	receiptID = strings.TrimSpace(receiptID)
	if receiptID == "" {
		return nil, ErrExtractionTextEmpty
	}
	if s.extractor == nil || s.receipts == nil {
		return nil, ErrExtractionUnavailable
	}

	metadata, err := s.receipts.PresignReceipt(ctx, workspaceID, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to presign receipt for extraction: %w", err)
	}
	return s.extractor.ExtractImage(ctx, metadata.OriginalURL)
}
