package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type fixedExtractor struct {
	candidate *domain.ExtractionCandidate
	err       error
}

func (f *fixedExtractor) Extract(ctx context.Context, text string) (*domain.ExtractionCandidate, error) {
	return f.candidate, f.err
}

func (f *fixedExtractor) ExtractImage(ctx context.Context, imageURL string) (*domain.ExtractionCandidate, error) {
	return f.candidate, f.err
}

func TestExtractEndpoint(t *testing.T) {
	e := echo.New()
	provider := "Maxis"
	amount := decimal.NewFromFloat(129.90)
	handler := NewExtractionHandler(service.NewExtractionService(&fixedExtractor{
		candidate: &domain.ExtractionCandidate{Provider: &provider, Amount: &amount},
	}, nil))

	body := `{"text":"Maxis Zerolution RM129.90/month for 24 months"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|extract", "x@example.com", "", "", 1)

	if err := handler.Extract(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var candidate domain.ExtractionCandidate
	if err := json.Unmarshal(rec.Body.Bytes(), &candidate); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if candidate.Provider == nil || *candidate.Provider != "Maxis" {
		t.Errorf("Expected provider 'Maxis', got %v", candidate.Provider)
	}
}

func TestExtractEndpoint_EmptyText(t *testing.T) {
	e := echo.New()
	handler := NewExtractionHandler(service.NewExtractionService(&fixedExtractor{}, nil))

	body := `{"text":"   "}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|extract", "x@example.com", "", "", 1)

	if err := handler.Extract(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestExtractEndpoint_NotConfigured(t *testing.T) {
	e := echo.New()
	handler := NewExtractionHandler(service.NewExtractionService(nil, nil))

	body := `{"text":"Maxis Zerolution RM129.90"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|extract", "x@example.com", "", "", 1)

	if err := handler.Extract(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}

type fixedPresigner struct{}

func (p *fixedPresigner) PresignReceipt(ctx context.Context, workspaceID int32, receiptID string) (*service.ReceiptMetadata, error) {
	return &service.ReceiptMetadata{ID: receiptID, OriginalURL: "https://storage.local/" + receiptID + "?signed"}, nil
}

func TestExtractEndpoint_FromReceipt(t *testing.T) {
	e := echo.New()
	provider := "Samsung"
	handler := NewExtractionHandler(service.NewExtractionService(&fixedExtractor{
		candidate: &domain.ExtractionCandidate{Provider: &provider},
	}, &fixedPresigner{}))

	body := `{"receiptId":"abc-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|extract", "x@example.com", "", "", 1)

	if err := handler.Extract(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var candidate domain.ExtractionCandidate
	if err := json.Unmarshal(rec.Body.Bytes(), &candidate); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if candidate.Provider == nil || *candidate.Provider != "Samsung" {
		t.Errorf("Expected provider 'Samsung', got %v", candidate.Provider)
	}
}
