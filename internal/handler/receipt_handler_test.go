package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type stubReceiptStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubReceiptStorage() *stubReceiptStorage {
	return &stubReceiptStorage{objects: make(map[string][]byte)}
}

func (s *stubReceiptStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath] = content
	return objectPath, nil
}

func (s *stubReceiptStorage) Delete(ctx context.Context, objectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectPath)
	return nil
}

func (s *stubReceiptStorage) PresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.local/" + objectPath + "?signed", nil
}

func receiptJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func multipartUpload(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestUploadReceiptEndpoint(t *testing.T) {
	e := echo.New()
	stub := newStubReceiptStorage()
	handler := NewReceiptHandler(service.NewReceiptService(stub))

	req := multipartUpload(t, "receipt.jpg", receiptJPEG(t, 400, 600))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|receipts", "r@example.com", "", "", 1)

	if err := handler.UploadReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response UploadReceiptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.ID == "" {
		t.Error("Expected a receipt ID")
	}
	if response.OriginalURL == "" || response.ThumbnailURL == "" {
		t.Error("Expected presigned URLs for both variants")
	}
	if len(stub.objects) != 2 {
		t.Errorf("Expected 2 stored objects, got %d", len(stub.objects))
	}
}

func TestUploadReceiptEndpoint_NoFile(t *testing.T) {
	e := echo.New()
	handler := NewReceiptHandler(service.NewReceiptService(newStubReceiptStorage()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|receipts", "r@example.com", "", "", 1)

	if err := handler.UploadReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUploadReceiptEndpoint_TooSmallImage(t *testing.T) {
	e := echo.New()
	handler := NewReceiptHandler(service.NewReceiptService(newStubReceiptStorage()))

	req := multipartUpload(t, "tiny.jpg", receiptJPEG(t, 30, 30))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|receipts", "r@example.com", "", "", 1)

	if err := handler.UploadReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUploadReceiptEndpoint_StorageDisabled(t *testing.T) {
	e := echo.New()
	handler := NewReceiptHandler(service.NewReceiptService(nil))

	req := multipartUpload(t, "receipt.jpg", receiptJPEG(t, 400, 600))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|receipts", "r@example.com", "", "", 1)

	if err := handler.UploadReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}

func TestDeleteReceiptEndpoint(t *testing.T) {
	e := echo.New()
	stub := newStubReceiptStorage()
	receiptService := service.NewReceiptService(stub)
	handler := NewReceiptHandler(receiptService)

	metadata, err := receiptService.Upload(context.Background(), 1, receiptJPEG(t, 400, 600), "receipt.jpg")
	if err != nil {
		t.Fatalf("Failed to upload receipt: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/receipts/"+metadata.ID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(metadata.ID)
	setupAuthContextWithWorkspace(c, "auth0|receipts", "r@example.com", "", "", 1)

	if err := handler.DeleteReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if len(stub.objects) != 0 {
		t.Errorf("Expected no stored objects after delete, got %d", len(stub.objects))
	}
}
