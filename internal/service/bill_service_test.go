package service

import (
	"errors"
	"testing"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func contractBillInput() CreateBillInput {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	months := int32(12)
	return CreateBillInput{
		Provider:       "Astro",
		Amount:         decimal.NewFromInt(150),
		StartDate:      &start,
		DurationMonths: &months,
	}
}

func subscriptionBillInput() CreateBillInput {
	renewal := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	return CreateBillInput{
		Provider:       "Netflix",
		Amount:         decimal.NewFromFloat(54.90),
		IsSubscription: true,
		RenewalDate:    &renewal,
	}
}

func TestCreateBill_Contract(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	bill, err := billService.CreateBill(1, contractBillInput())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if bill.ID == 0 {
		t.Error("Expected bill to be assigned an ID")
	}
	if bill.Provider != "Astro" {
		t.Errorf("Expected provider 'Astro', got %s", bill.Provider)
	}
	if bill.Shape() != domain.BillShapeContract {
		t.Errorf("Expected contract shape, got %s", bill.Shape())
	}
}

func TestCreateBill_TrimsProvider(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	input := contractBillInput()
	input.Provider = "  Astro  "

	bill, err := billService.CreateBill(1, input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if bill.Provider != "Astro" {
		t.Errorf("Expected trimmed provider 'Astro', got %q", bill.Provider)
	}
}

func TestCreateBill_EmptyProvider(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	input := contractBillInput()
	input.Provider = " "

	_, err := billService.CreateBill(1, input)
	if !errors.Is(err, domain.ErrBillProviderEmpty) {
		t.Errorf("Expected ErrBillProviderEmpty, got %v", err)
	}
}

func TestCreateBill_NonPositiveAmount(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	input := contractBillInput()
	input.Amount = decimal.Zero

	_, err := billService.CreateBill(1, input)
	if !errors.Is(err, domain.ErrBillAmountInvalid) {
		t.Errorf("Expected ErrBillAmountInvalid, got %v", err)
	}
}

func TestCreateBill_SubscriptionWithoutRenewalDate(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	input := subscriptionBillInput()
	input.RenewalDate = nil

	// A renewal date is optional for subscriptions; projection falls
	// back to today's day of month
	bill, err := billService.CreateBill(1, input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if bill.Shape() != domain.BillShapeSubscription {
		t.Errorf("Expected subscription shape, got %s", bill.Shape())
	}

	now := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	lines, err := billService.GetProjection(1, bill.ID, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, line := range lines {
		if line.Date.Day() != 18 {
			t.Errorf("Expected due day 18, got %s", line.Date.Format("2006-01-02"))
		}
	}
}

func TestUpdateBill_KeepsPaidDates(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	created, err := billService.CreateBill(1, contractBillInput())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if _, err := billService.SetDatePaid(1, created.ID, due, true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	updated, err := billService.UpdateBill(1, created.ID, UpdateBillInput{
		Provider:       "Astro Fibre",
		Amount:         decimal.NewFromInt(180),
		StartDate:      created.StartDate,
		DurationMonths: created.DurationMonths,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if updated.Provider != "Astro Fibre" {
		t.Errorf("Expected updated provider, got %s", updated.Provider)
	}
	if !updated.IsDatePaid(due) {
		t.Error("Expected paid date to survive the update")
	}
}

func TestUpdateBill_NotFound(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	_, err := billService.UpdateBill(1, 77, UpdateBillInput{
		Provider: "Ghost",
		Amount:   decimal.NewFromInt(10),
	})
	if !errors.Is(err, domain.ErrBillNotFound) {
		t.Errorf("Expected ErrBillNotFound, got %v", err)
	}
}

func TestGetProjection_Contract(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	created, err := billService.CreateBill(1, contractBillInput())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	now := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	lines, err := billService.GetProjection(1, created.ID, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(lines) != 12 {
		t.Errorf("Expected 12 projected lines, got %d", len(lines))
	}
}

func TestSetDatePaid_Toggle(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	created, err := billService.CreateBill(1, subscriptionBillInput())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	due := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	bill, err := billService.SetDatePaid(1, created.ID, due, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bill.IsDatePaid(due) {
		t.Error("Expected date to be marked paid")
	}

	bill, err = billService.SetDatePaid(1, created.ID, due, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if bill.IsDatePaid(due) {
		t.Error("Expected date to be unmarked")
	}
}

func TestDeleteBill(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	created, err := billService.CreateBill(1, contractBillInput())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := billService.DeleteBill(1, created.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = billService.GetBillByID(1, created.ID)
	if !errors.Is(err, domain.ErrBillNotFound) {
		t.Errorf("Expected ErrBillNotFound after delete, got %v", err)
	}
}

func TestGetBillByID_WrongWorkspace(t *testing.T) {
	billRepo := testutil.NewMockBillRepository()
	billService := NewBillService(billRepo)

	created, err := billService.CreateBill(1, contractBillInput())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = billService.GetBillByID(2, created.ID)
	if !errors.Is(err, domain.ErrBillNotFound) {
		t.Errorf("Expected ErrBillNotFound for another workspace, got %v", err)
	}
}
