package handler

import (
	"errors"
	"net/http"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/middleware"
	"github.com/hakimz/duit/duit-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ExtractionHandler handles text extraction HTTP requests
type ExtractionHandler struct {
	extractionService *service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler
func NewExtractionHandler(extractionService *service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// ExtractRequest represents the extraction request body. Exactly one
// source is used: a stored receipt when receiptId is present, otherwise
// the pasted text.
type ExtractRequest struct {
	Text      string  `json:"text"`
	ReceiptID *string `json:"receiptId,omitempty"`
}

// Extract handles POST /api/v1/extract. The pasted text (bank SMS or
// statement excerpt) or referenced receipt is forwarded to the
// extraction collaborator and the untrusted candidate values are
// returned for the user to confirm.
func (h *ExtractionHandler) Extract(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var candidate *domain.ExtractionCandidate
	var err error
	if req.ReceiptID != nil && *req.ReceiptID != "" {
		candidate, err = h.extractionService.ExtractFromReceipt(c.Request().Context(), workspaceID, *req.ReceiptID)
	} else {
		candidate, err = h.extractionService.ExtractFromText(c.Request().Context(), req.Text)
	}
	if err != nil {
		if errors.Is(err, service.ErrExtractionTextEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "text", Message: "Text is required"},
			})
		}
		if errors.Is(err, service.ErrExtractionUnavailable) {
			log.Warn().Err(err).Int32("workspace_id", workspaceID).Msg("Extraction service unavailable")
			return NewUnavailableError(c, "Extraction service is currently unavailable")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to extract from text")
		return NewInternalError(c, "Failed to extract from text")
	}

	return c.JSON(http.StatusOK, candidate)
}
