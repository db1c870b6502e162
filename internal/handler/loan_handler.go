package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/middleware"
	"github.com/hakimz/duit/duit-backend/internal/schedule"
	"github.com/hakimz/duit/duit-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	Name              string   `json:"name"`
	TotalPrincipal    string   `json:"totalPrincipal"`
	ProfitRate        *string  `json:"profitRate,omitempty"`
	FixedProfitAmount *string  `json:"fixedProfitAmount,omitempty"`
	DurationMonths    int32    `json:"durationMonths"`
	StartDate         string   `json:"startDate"`
	Policy            string   `json:"policy"`
	Notes             *string  `json:"notes,omitempty"`
	ManualAmounts     []string `json:"manualAmounts,omitempty"` // Optional custom amounts, one per month
	PaidBalance       *string  `json:"paidBalance,omitempty"`   // Cash already paid before entry
}

// UpdateLoanRequest represents the update loan request body
type UpdateLoanRequest struct {
	Name              string   `json:"name"`
	TotalPrincipal    string   `json:"totalPrincipal"`
	ProfitRate        *string  `json:"profitRate,omitempty"`
	FixedProfitAmount *string  `json:"fixedProfitAmount,omitempty"`
	DurationMonths    int32    `json:"durationMonths"`
	StartDate         string   `json:"startDate"`
	Policy            string   `json:"policy"`
	Notes             *string  `json:"notes,omitempty"`
	ManualAmounts     []string `json:"manualAmounts,omitempty"`
}

// PreviewScheduleRequest represents the preview schedule request body
type PreviewScheduleRequest struct {
	TotalPrincipal    string   `json:"totalPrincipal"`
	ProfitRate        *string  `json:"profitRate,omitempty"`
	FixedProfitAmount *string  `json:"fixedProfitAmount,omitempty"`
	DurationMonths    int32    `json:"durationMonths"`
	StartDate         string   `json:"startDate"`
	Policy            string   `json:"policy"`
	ManualAmounts     []string `json:"manualAmounts,omitempty"`
	PaidBalance       *string  `json:"paidBalance,omitempty"`
}

// SetLinePaidRequest represents the toggle-paid request body
type SetLinePaidRequest struct {
	Paid     bool    `json:"paid"`
	PaidDate *string `json:"paidDate,omitempty"` // YYYY-MM-DD, defaults to today when marking paid
}

// BulkAmountRequest represents the bulk apply amount request body
type BulkAmountRequest struct {
	Amount string `json:"amount"`
}

// parseLoanCommon parses the shared decimal and date fields of create,
// update and preview requests
func parseLoanCommon(c echo.Context, totalPrincipal string, profitRate, fixedProfit *string, startDate string, manualAmounts []string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, time.Time, []decimal.Decimal, error) {
	var zero decimal.Decimal

	principal, err := decimal.NewFromString(totalPrincipal)
	if err != nil {
		return zero, zero, zero, time.Time{}, nil, NewValidationError(c, "Invalid total principal", []ValidationError{
			{Field: "totalPrincipal", Message: "Must be a valid decimal number"},
		})
	}

	rate := decimal.Zero
	if profitRate != nil && *profitRate != "" {
		rate, err = decimal.NewFromString(*profitRate)
		if err != nil {
			return zero, zero, zero, time.Time{}, nil, NewValidationError(c, "Invalid profit rate", []ValidationError{
				{Field: "profitRate", Message: "Must be a valid decimal number"},
			})
		}
	}

	fixed := decimal.Zero
	if fixedProfit != nil && *fixedProfit != "" {
		fixed, err = decimal.NewFromString(*fixedProfit)
		if err != nil {
			return zero, zero, zero, time.Time{}, nil, NewValidationError(c, "Invalid fixed profit amount", []ValidationError{
				{Field: "fixedProfitAmount", Message: "Must be a valid decimal number"},
			})
		}
	}

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return zero, zero, zero, time.Time{}, nil, NewValidationError(c, "Invalid start date", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	var amounts []decimal.Decimal
	if len(manualAmounts) > 0 {
		amounts = make([]decimal.Decimal, len(manualAmounts))
		for i, s := range manualAmounts {
			amount, err := decimal.NewFromString(s)
			if err != nil || amount.LessThanOrEqual(decimal.Zero) {
				return zero, zero, zero, time.Time{}, nil, NewValidationError(c, "Invalid manual amounts", []ValidationError{
					{Field: "manualAmounts", Message: "All amounts must be positive decimal numbers"},
				})
			}
			amounts[i] = amount
		}
	}

	return principal, rate, fixed, start, amounts, nil
}

func parsePaidBalance(c echo.Context, raw *string) (decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return decimal.Zero, nil
	}
	balance, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, NewValidationError(c, "Invalid paid balance", []ValidationError{
			{Field: "paidBalance", Message: "Must be a valid decimal number"},
		})
	}
	return balance, nil
}

// loanValidationResponse maps loan domain errors to problem details, or
// returns false when the error is not a validation failure
func loanValidationResponse(c echo.Context, err error) (error, bool) {
	switch {
	case errors.Is(err, domain.ErrLoanNameEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		}), true
	case errors.Is(err, domain.ErrLoanNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 200 characters or less"},
		}), true
	case errors.Is(err, domain.ErrLoanPrincipalInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "totalPrincipal", Message: "Principal must not be negative"},
		}), true
	case errors.Is(err, domain.ErrLoanMonthsInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "durationMonths", Message: "Number of months must be at least 1"},
		}), true
	case errors.Is(err, domain.ErrLoanPolicyInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "policy", Message: "Policy must be 'flat' or 'decreasing'"},
		}), true
	case errors.Is(err, domain.ErrLoanPaidBalanceInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paidBalance", Message: "Paid balance must not be negative"},
		}), true
	case errors.Is(err, domain.ErrLoanManualAmountInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "manualAmounts", Message: "All amounts must be positive"},
		}), true
	case errors.Is(err, domain.ErrLoanScheduleEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "durationMonths", Message: "No schedule could be produced for the given parameters"},
		}), true
	}
	return nil, false
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	principal, rate, fixed, start, amounts, err := parseLoanCommon(c, req.TotalPrincipal, req.ProfitRate, req.FixedProfitAmount, req.StartDate, req.ManualAmounts)
	if err != nil {
		return err
	}
	paidBalance, err := parsePaidBalance(c, req.PaidBalance)
	if err != nil {
		return err
	}

	loan, err := h.loanService.CreateLoan(workspaceID, service.CreateLoanInput{
		Name:              req.Name,
		TotalPrincipal:    principal,
		ProfitRate:        rate,
		FixedProfitAmount: fixed,
		DurationMonths:    req.DurationMonths,
		StartDate:         start,
		Policy:            domain.AmortizationPolicy(req.Policy),
		Notes:             req.Notes,
		ManualAmounts:     amounts,
		PaidBalance:       paidBalance,
	})
	if err != nil {
		if resp, ok := loanValidationResponse(c, err); ok {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create loan")
		return NewInternalError(c, "Failed to create loan")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("loan_id", loan.ID).Str("name", loan.Name).Msg("Loan created")
	return c.JSON(http.StatusCreated, loan)
}

// PreviewSchedule handles POST /api/v1/loans/preview
func (h *LoanHandler) PreviewSchedule(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req PreviewScheduleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	principal, rate, fixed, start, amounts, err := parseLoanCommon(c, req.TotalPrincipal, req.ProfitRate, req.FixedProfitAmount, req.StartDate, req.ManualAmounts)
	if err != nil {
		return err
	}
	paidBalance, err := parsePaidBalance(c, req.PaidBalance)
	if err != nil {
		return err
	}

	result, err := h.loanService.PreviewSchedule(service.PreviewScheduleInput{
		TotalPrincipal:    principal,
		ProfitRate:        rate,
		FixedProfitAmount: fixed,
		DurationMonths:    req.DurationMonths,
		StartDate:         start,
		Policy:            domain.AmortizationPolicy(req.Policy),
		ManualAmounts:     amounts,
		PaidBalance:       paidBalance,
	})
	if err != nil {
		if resp, ok := loanValidationResponse(c, err); ok {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to preview schedule")
		return NewInternalError(c, "Failed to preview schedule")
	}

	return c.JSON(http.StatusOK, result)
}

// GetLoans handles GET /api/v1/loans?status=all|active|completed
func (h *LoanHandler) GetLoans(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var filter domain.LoanFilter
	switch c.QueryParam("status") {
	case "active":
		filter = domain.LoanFilterActive
	case "completed":
		filter = domain.LoanFilterCompleted
	case "all", "":
		filter = domain.LoanFilterAll
	default:
		return NewValidationError(c, "Invalid status parameter", []ValidationError{
			{Field: "status", Message: "Must be 'all', 'active', or 'completed'"},
		})
	}

	loans, err := h.loanService.GetLoans(workspaceID, filter)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get loans")
		return NewInternalError(c, "Failed to get loans")
	}

	return c.JSON(http.StatusOK, loans)
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.GetLoanByID(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("loan_id", id).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, loan)
}

// GetLoanStats handles GET /api/v1/loans/:id/stats
func (h *LoanHandler) GetLoanStats(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	stats, err := h.loanService.GetLoanStats(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("loan_id", id).Msg("Failed to get loan stats")
		return NewInternalError(c, "Failed to get loan stats")
	}

	return c.JSON(http.StatusOK, stats)
}

// UpdateLoan handles PUT /api/v1/loans/:id
func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req UpdateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	principal, rate, fixed, start, amounts, err := parseLoanCommon(c, req.TotalPrincipal, req.ProfitRate, req.FixedProfitAmount, req.StartDate, req.ManualAmounts)
	if err != nil {
		return err
	}

	loan, err := h.loanService.UpdateLoan(workspaceID, int32(id), service.UpdateLoanInput{
		Name:              req.Name,
		TotalPrincipal:    principal,
		ProfitRate:        rate,
		FixedProfitAmount: fixed,
		DurationMonths:    req.DurationMonths,
		StartDate:         start,
		Policy:            domain.AmortizationPolicy(req.Policy),
		Notes:             req.Notes,
		ManualAmounts:     amounts,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if resp, ok := loanValidationResponse(c, err); ok {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("loan_id", id).Msg("Failed to update loan")
		return NewInternalError(c, "Failed to update loan")
	}

	return c.JSON(http.StatusOK, loan)
}

// SetLinePaid handles PATCH /api/v1/loans/:id/lines/:lineId/paid
func (h *LoanHandler) SetLinePaid(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}
	lineID, err := strconv.Atoi(c.Param("lineId"))
	if err != nil {
		return NewValidationError(c, "Invalid line ID", nil)
	}

	var req SetLinePaidRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var paidDate *time.Time
	if req.PaidDate != nil && *req.PaidDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.PaidDate)
		if err != nil {
			return NewValidationError(c, "Invalid paid date", []ValidationError{
				{Field: "paidDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		paidDate = &parsed
	}

	line, err := h.loanService.SetLinePaid(workspaceID, int32(id), int32(lineID), req.Paid, paidDate)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanLineNotFound) {
			return NewNotFoundError(c, "Installment line not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("loan_id", id).Int("line_id", lineID).Msg("Failed to toggle line paid")
		return NewInternalError(c, "Failed to toggle line paid")
	}

	return c.JSON(http.StatusOK, line)
}

// BulkApplyAmount handles PATCH /api/v1/loans/:id/amount
func (h *LoanHandler) BulkApplyAmount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req BulkAmountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	loan, err := h.loanService.BulkApplyAmount(workspaceID, int32(id), amount)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if resp, ok := loanValidationResponse(c, err); ok {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("loan_id", id).Msg("Failed to apply amount")
		return NewInternalError(c, "Failed to apply amount")
	}

	return c.JSON(http.StatusOK, loan)
}

// GetSettlementQuote handles GET /api/v1/loans/:id/settlement
func (h *LoanHandler) GetSettlementQuote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	quote, err := h.loanService.GetSettlementQuote(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("loan_id", id).Msg("Failed to quote settlement")
		return NewInternalError(c, "Failed to quote settlement")
	}

	return c.JSON(http.StatusOK, quote)
}

// GetPayoffOrder handles GET /api/v1/loans/payoff-order?strategy=snowball|avalanche
func (h *LoanHandler) GetPayoffOrder(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	strategy := schedule.Strategy(c.QueryParam("strategy"))
	if strategy == "" {
		strategy = schedule.StrategySnowball
	}

	loans, err := h.loanService.GetPayoffOrder(workspaceID, strategy)
	if err != nil {
		if errors.Is(err, domain.ErrStrategyInvalid) {
			return NewValidationError(c, "Invalid strategy parameter", []ValidationError{
				{Field: "strategy", Message: "Must be 'snowball' or 'avalanche'"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to order loans")
		return NewInternalError(c, "Failed to order loans")
	}

	return c.JSON(http.StatusOK, loans)
}

// DeleteLoan handles DELETE /api/v1/loans/:id
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	if err := h.loanService.DeleteLoan(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("loan_id", id).Msg("Failed to delete loan")
		return NewInternalError(c, "Failed to delete loan")
	}

	return c.NoContent(http.StatusNoContent)
}
