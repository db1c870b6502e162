package service

import (
	"strings"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/schedule"
	"github.com/hakimz/duit/duit-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// BillService handles recurring bill business logic
type BillService struct {
	billRepo       domain.BillRepository
	eventPublisher websocket.EventPublisher
}

// NewBillService creates a new BillService
func NewBillService(billRepo domain.BillRepository) *BillService {
	return &BillService{billRepo: billRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BillService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *BillService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CreateBillInput contains input for creating a bill
type CreateBillInput struct {
	Provider          string
	Amount            decimal.Decimal
	StartDate         *time.Time
	DurationMonths    *int32
	DownPayment       *decimal.Decimal
	LastPaymentAmount *decimal.Decimal
	IsSubscription    bool
	RenewalDate       *time.Time
}

// CreateBill creates a new bill
func (s *BillService) CreateBill(workspaceID int32, input CreateBillInput) (*domain.Bill, error) {
	bill := &domain.Bill{
		WorkspaceID:       workspaceID,
		Provider:          strings.TrimSpace(input.Provider),
		Amount:            input.Amount,
		StartDate:         input.StartDate,
		DurationMonths:    input.DurationMonths,
		DownPayment:       input.DownPayment,
		LastPaymentAmount: input.LastPaymentAmount,
		IsSubscription:    input.IsSubscription,
		RenewalDate:       input.RenewalDate,
	}
	if err := bill.Validate(); err != nil {
		return nil, err
	}

	created, err := s.billRepo.Create(bill)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.BillCreated(created))
	return created, nil
}

// GetBills retrieves all bills for a workspace
func (s *BillService) GetBills(workspaceID int32) ([]*domain.Bill, error) {
	return s.billRepo.ListByWorkspace(workspaceID)
}

// GetBillByID retrieves a bill by ID within a workspace
func (s *BillService) GetBillByID(workspaceID int32, id int32) (*domain.Bill, error) {
	return s.billRepo.GetByID(workspaceID, id)
}

// UpdateBillInput contains input for updating a bill
type UpdateBillInput struct {
	Provider          string
	Amount            decimal.Decimal
	StartDate         *time.Time
	DurationMonths    *int32
	DownPayment       *decimal.Decimal
	LastPaymentAmount *decimal.Decimal
	IsSubscription    bool
	RenewalDate       *time.Time
}

// UpdateBill updates a bill's fields. Paid dates are kept; the next
// projection reflects the new shape immediately since nothing derived
// is stored.
func (s *BillService) UpdateBill(workspaceID int32, id int32, input UpdateBillInput) (*domain.Bill, error) {
	existing, err := s.billRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	existing.Provider = strings.TrimSpace(input.Provider)
	existing.Amount = input.Amount
	existing.StartDate = input.StartDate
	existing.DurationMonths = input.DurationMonths
	existing.DownPayment = input.DownPayment
	existing.LastPaymentAmount = input.LastPaymentAmount
	existing.IsSubscription = input.IsSubscription
	existing.RenewalDate = input.RenewalDate
	if err := existing.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.billRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.BillUpdated(updated))
	return updated, nil
}

// GetProjection returns the bill's projected due lines as of now
func (s *BillService) GetProjection(workspaceID int32, id int32, now time.Time) ([]domain.ProjectedLine, error) {
	bill, err := s.billRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	return schedule.Project(bill, now), nil
}

// SetDatePaid marks or unmarks one projected due date as paid
func (s *BillService) SetDatePaid(workspaceID int32, id int32, date time.Time, paid bool) (*domain.Bill, error) {
	bill, err := s.billRepo.SetDatePaid(workspaceID, id, date, paid)
	if err != nil {
		return nil, err
	}
	s.publishEvent(workspaceID, websocket.BillUpdated(bill))
	return bill, nil
}

// DeleteBill soft-deletes a bill
func (s *BillService) DeleteBill(workspaceID int32, id int32) error {
	bill, err := s.billRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	if err := s.billRepo.SoftDelete(workspaceID, id); err != nil {
		return err
	}
	s.publishEvent(workspaceID, websocket.BillDeleted(bill))
	return nil
}
