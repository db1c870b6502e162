package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/service"
	"github.com/hakimz/duit/duit-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func newLoanTestHandler() (*LoanHandler, *service.LoanService) {
	loanRepo := testutil.NewMockLoanRepository()
	loanService := service.NewLoanService(loanRepo)
	return NewLoanHandler(loanService), loanService
}

func seedLoan(t *testing.T, loanService *service.LoanService, workspaceID int32, name string) *domain.Loan {
	t.Helper()
	loan, err := loanService.CreateLoan(workspaceID, service.CreateLoanInput{
		Name:           name,
		TotalPrincipal: decimal.NewFromInt(1200),
		DurationMonths: 12,
		StartDate:      time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Policy:         domain.PolicyFlat,
	})
	if err != nil {
		t.Fatalf("Failed to seed loan: %v", err)
	}
	return loan
}

func TestCreateLoanEndpoint(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	body := `{"name":"Car Loan","totalPrincipal":"24000.00","profitRate":"4.5","durationMonths":60,"startDate":"2025-02-01","policy":"flat"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var loan domain.Loan
	if err := json.Unmarshal(rec.Body.Bytes(), &loan); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if loan.Name != "Car Loan" {
		t.Errorf("Expected name 'Car Loan', got %s", loan.Name)
	}
	if len(loan.Schedule) != 60 {
		t.Errorf("Expected 60 schedule lines, got %d", len(loan.Schedule))
	}
	if loan.Status != domain.LoanStatusActive {
		t.Errorf("Expected status active, got %s", loan.Status)
	}
}

func TestCreateLoanEndpoint_NoWorkspace(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	body := `{"name":"Car Loan","totalPrincipal":"24000.00","durationMonths":60,"startDate":"2025-02-01","policy":"flat"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|loans", "loans@example.com", "", "")

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestCreateLoanEndpoint_InvalidPrincipal(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	body := `{"name":"Car Loan","totalPrincipal":"abc","durationMonths":60,"startDate":"2025-02-01","policy":"flat"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateLoanEndpoint_EmptyName(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	body := `{"name":"  ","totalPrincipal":"1200","durationMonths":12,"startDate":"2025-01-15","policy":"flat"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "name" {
		t.Errorf("Expected a single 'name' field error, got %+v", problem.Errors)
	}
}

func TestPreviewScheduleEndpoint(t *testing.T) {
	e := echo.New()
	handler, loanService := newLoanTestHandler()

	body := `{"totalPrincipal":"1200","durationMonths":12,"startDate":"2025-01-15","policy":"flat"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/preview", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.PreviewSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result service.PreviewScheduleResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(result.Schedule) != 12 {
		t.Errorf("Expected 12 schedule lines, got %d", len(result.Schedule))
	}

	// Preview must not persist
	loans, err := loanService.GetLoans(1, domain.LoanFilterAll)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(loans) != 0 {
		t.Errorf("Expected no persisted loans, got %d", len(loans))
	}
}

func TestGetLoansEndpoint_InvalidStatus(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans?status=pending", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.GetLoans(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetLoansEndpoint(t *testing.T) {
	e := echo.New()
	handler, loanService := newLoanTestHandler()
	seedLoan(t, loanService, 1, "Phone")
	seedLoan(t, loanService, 2, "Other Workspace")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.GetLoans(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var loans []*domain.Loan
	if err := json.Unmarshal(rec.Body.Bytes(), &loans); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(loans) != 1 {
		t.Fatalf("Expected 1 loan, got %d", len(loans))
	}
	if loans[0].Name != "Phone" {
		t.Errorf("Expected loan 'Phone', got %s", loans[0].Name)
	}
}

func TestGetLoanEndpoint_NotFound(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.GetLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetLoanEndpoint_InvalidID(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.GetLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestSetLinePaidEndpoint(t *testing.T) {
	e := echo.New()
	handler, loanService := newLoanTestHandler()
	loan := seedLoan(t, loanService, 1, "Phone")
	lineID := loan.Schedule[0].ID

	body := `{"paid":true,"paidDate":"2025-01-20"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/loans/1/lines/1/paid", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id", "lineId")
	c.SetParamValues(strconv.Itoa(int(loan.ID)), strconv.Itoa(int(lineID)))
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.SetLinePaid(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var line domain.InstallmentLine
	if err := json.Unmarshal(rec.Body.Bytes(), &line); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !line.Paid {
		t.Error("Expected line to be paid")
	}
	if line.PaidDate == nil || line.PaidDate.Format("2006-01-02") != "2025-01-20" {
		t.Errorf("Expected paid date 2025-01-20, got %v", line.PaidDate)
	}
}

func TestBulkApplyAmountEndpoint(t *testing.T) {
	e := echo.New()
	handler, loanService := newLoanTestHandler()
	loan := seedLoan(t, loanService, 1, "Phone")

	body := `{"amount":"150.00"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/loans/1/amount", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(loan.ID)))
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.BulkApplyAmount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated domain.Loan
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !updated.Schedule[0].PaymentAmount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected payment 150, got %s", updated.Schedule[0].PaymentAmount)
	}
}

func TestGetSettlementQuoteEndpoint(t *testing.T) {
	e := echo.New()
	handler, loanService := newLoanTestHandler()
	loan := seedLoan(t, loanService, 1, "Phone")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/1/settlement", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(loan.ID)))
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.GetSettlementQuote(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var quote struct {
		PayoffAmount    string `json:"payoffAmount"`
		UnpaidLineCount int    `json:"unpaidLineCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if quote.UnpaidLineCount != 12 {
		t.Errorf("Expected 12 unpaid lines, got %d", quote.UnpaidLineCount)
	}
	if quote.PayoffAmount != "1200" {
		t.Errorf("Expected payoff 1200, got %s", quote.PayoffAmount)
	}
}

func TestGetPayoffOrderEndpoint_InvalidStrategy(t *testing.T) {
	e := echo.New()
	handler, _ := newLoanTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/payoff-order?strategy=tsunami", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.GetPayoffOrder(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeleteLoanEndpoint(t *testing.T) {
	e := echo.New()
	handler, loanService := newLoanTestHandler()
	loan := seedLoan(t, loanService, 1, "Phone")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/loans/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(loan.ID)))
	setupAuthContextWithWorkspace(c, "auth0|loans", "loans@example.com", "", "", 1)

	if err := handler.DeleteLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}

	if _, err := loanService.GetLoanByID(1, loan.ID); err == nil {
		t.Error("Expected loan to be gone after delete")
	}
}
