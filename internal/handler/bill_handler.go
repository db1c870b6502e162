package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/middleware"
	"github.com/hakimz/duit/duit-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billService *service.BillService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *service.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// BillRequest represents the create/update bill request body
type BillRequest struct {
	Provider          string  `json:"provider"`
	Amount            string  `json:"amount"`
	StartDate         *string `json:"startDate,omitempty"`
	DurationMonths    *int32  `json:"durationMonths,omitempty"`
	DownPayment       *string `json:"downPayment,omitempty"`
	LastPaymentAmount *string `json:"lastPaymentAmount,omitempty"`
	IsSubscription    bool    `json:"isSubscription"`
	RenewalDate       *string `json:"renewalDate,omitempty"`
}

// SetDatePaidRequest represents the mark-date-paid request body
type SetDatePaidRequest struct {
	Date string `json:"date"`
	Paid bool   `json:"paid"`
}

func parseBillRequest(c echo.Context, req BillRequest) (decimal.Decimal, *time.Time, *decimal.Decimal, *decimal.Decimal, *time.Time, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return decimal.Zero, nil, nil, nil, nil, NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	parseDate := func(field string, raw *string) (*time.Time, error) {
		if raw == nil || *raw == "" {
			return nil, nil
		}
		parsed, err := time.Parse("2006-01-02", *raw)
		if err != nil {
			return nil, NewValidationError(c, "Invalid "+field, []ValidationError{
				{Field: field, Message: "Must be in YYYY-MM-DD format"},
			})
		}
		return &parsed, nil
	}
	parseDecimal := func(field string, raw *string) (*decimal.Decimal, error) {
		if raw == nil || *raw == "" {
			return nil, nil
		}
		parsed, err := decimal.NewFromString(*raw)
		if err != nil {
			return nil, NewValidationError(c, "Invalid "+field, []ValidationError{
				{Field: field, Message: "Must be a valid decimal number"},
			})
		}
		return &parsed, nil
	}

	startDate, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return decimal.Zero, nil, nil, nil, nil, err
	}
	downPayment, err := parseDecimal("downPayment", req.DownPayment)
	if err != nil {
		return decimal.Zero, nil, nil, nil, nil, err
	}
	lastAmount, err := parseDecimal("lastPaymentAmount", req.LastPaymentAmount)
	if err != nil {
		return decimal.Zero, nil, nil, nil, nil, err
	}
	renewalDate, err := parseDate("renewalDate", req.RenewalDate)
	if err != nil {
		return decimal.Zero, nil, nil, nil, nil, err
	}

	return amount, startDate, downPayment, lastAmount, renewalDate, nil
}

func billValidationResponse(c echo.Context, err error) (error, bool) {
	switch {
	case errors.Is(err, domain.ErrBillProviderEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "provider", Message: "Provider is required"},
		}), true
	case errors.Is(err, domain.ErrBillProviderTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "provider", Message: "Provider must be 200 characters or less"},
		}), true
	case errors.Is(err, domain.ErrBillAmountInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		}), true
	case errors.Is(err, domain.ErrBillShapeInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "startDate", Message: "Contract bills need a start date and duration; subscriptions need a renewal date"},
		}), true
	}
	return nil, false
}

// CreateBill handles POST /api/v1/bills
func (h *BillHandler) CreateBill(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req BillRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, startDate, downPayment, lastAmount, renewalDate, err := parseBillRequest(c, req)
	if err != nil {
		return err
	}

	bill, err := h.billService.CreateBill(workspaceID, service.CreateBillInput{
		Provider:          req.Provider,
		Amount:            amount,
		StartDate:         startDate,
		DurationMonths:    req.DurationMonths,
		DownPayment:       downPayment,
		LastPaymentAmount: lastAmount,
		IsSubscription:    req.IsSubscription,
		RenewalDate:       renewalDate,
	})
	if err != nil {
		if resp, ok := billValidationResponse(c, err); ok {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create bill")
		return NewInternalError(c, "Failed to create bill")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("bill_id", bill.ID).Str("provider", bill.Provider).Msg("Bill created")
	return c.JSON(http.StatusCreated, bill)
}

// GetBills handles GET /api/v1/bills
func (h *BillHandler) GetBills(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	bills, err := h.billService.GetBills(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get bills")
		return NewInternalError(c, "Failed to get bills")
	}

	return c.JSON(http.StatusOK, bills)
}

// GetBill handles GET /api/v1/bills/:id
func (h *BillHandler) GetBill(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid bill ID", nil)
	}

	bill, err := h.billService.GetBillByID(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("bill_id", id).Msg("Failed to get bill")
		return NewInternalError(c, "Failed to get bill")
	}

	return c.JSON(http.StatusOK, bill)
}

// GetProjection handles GET /api/v1/bills/:id/projection
func (h *BillHandler) GetProjection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid bill ID", nil)
	}

	lines, err := h.billService.GetProjection(workspaceID, int32(id), time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("bill_id", id).Msg("Failed to project bill")
		return NewInternalError(c, "Failed to project bill")
	}

	return c.JSON(http.StatusOK, lines)
}

// UpdateBill handles PUT /api/v1/bills/:id
func (h *BillHandler) UpdateBill(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid bill ID", nil)
	}

	var req BillRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, startDate, downPayment, lastAmount, renewalDate, err := parseBillRequest(c, req)
	if err != nil {
		return err
	}

	bill, err := h.billService.UpdateBill(workspaceID, int32(id), service.UpdateBillInput{
		Provider:          req.Provider,
		Amount:            amount,
		StartDate:         startDate,
		DurationMonths:    req.DurationMonths,
		DownPayment:       downPayment,
		LastPaymentAmount: lastAmount,
		IsSubscription:    req.IsSubscription,
		RenewalDate:       renewalDate,
	})
	if err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		if resp, ok := billValidationResponse(c, err); ok {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("bill_id", id).Msg("Failed to update bill")
		return NewInternalError(c, "Failed to update bill")
	}

	return c.JSON(http.StatusOK, bill)
}

// SetDatePaid handles PATCH /api/v1/bills/:id/paid
func (h *BillHandler) SetDatePaid(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid bill ID", nil)
	}

	var req SetDatePaidRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	bill, err := h.billService.SetDatePaid(workspaceID, int32(id), date, req.Paid)
	if err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("bill_id", id).Msg("Failed to mark bill date")
		return NewInternalError(c, "Failed to mark bill date")
	}

	return c.JSON(http.StatusOK, bill)
}

// DeleteBill handles DELETE /api/v1/bills/:id
func (h *BillHandler) DeleteBill(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid bill ID", nil)
	}

	if err := h.billService.DeleteBill(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("bill_id", id).Msg("Failed to delete bill")
		return NewInternalError(c, "Failed to delete bill")
	}

	return c.NoContent(http.StatusNoContent)
}
