package service

import (
	"strings"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/schedule"
	"github.com/hakimz/duit/duit-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// LoanService handles loan business logic
type LoanService struct {
	loanRepo       domain.LoanRepository
	eventPublisher websocket.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(loanRepo domain.LoanRepository) *LoanService {
	return &LoanService{loanRepo: loanRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *LoanService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	Name              string
	TotalPrincipal    decimal.Decimal
	ProfitRate        decimal.Decimal
	FixedProfitAmount decimal.Decimal
	DurationMonths    int32
	StartDate         time.Time
	Policy            domain.AmortizationPolicy
	Notes             *string
	// ManualAmounts, when present with one amount per month, replaces the
	// generated payment amounts (statement import). A draft whose length
	// no longer matches the duration is stale and is discarded.
	ManualAmounts []decimal.Decimal
	// PaidBalance is cash already paid before the loan was entered; it
	// settles a prefix of the schedule.
	PaidBalance decimal.Decimal
}

// CreateLoan creates a loan together with its generated schedule
func (s *LoanService) CreateLoan(workspaceID int32, input CreateLoanInput) (*domain.Loan, error) {
	loan := &domain.Loan{
		WorkspaceID:       workspaceID,
		Name:              strings.TrimSpace(input.Name),
		TotalPrincipal:    input.TotalPrincipal,
		ProfitRate:        input.ProfitRate,
		FixedProfitAmount: input.FixedProfitAmount,
		DurationMonths:    input.DurationMonths,
		StartDate:         input.StartDate,
		Policy:            input.Policy,
		Notes:             input.Notes,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	if input.PaidBalance.IsNegative() {
		return nil, domain.ErrLoanPaidBalanceInvalid
	}

	lines, err := buildSchedule(loan, input.ManualAmounts, input.PaidBalance)
	if err != nil {
		return nil, err
	}

	loan.Schedule = lines
	loan.Status = schedule.StatusOf(lines)

	created, err := s.loanRepo.Create(loan)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.LoanCreated(created))
	return created, nil
}

// buildSchedule runs the full pipeline for a loan's parameters: generate,
// overlay manual amounts, settle the prepaid prefix.
func buildSchedule(loan *domain.Loan, manualAmounts []decimal.Decimal, paidBalance decimal.Decimal) ([]*domain.InstallmentLine, error) {
	lines := schedule.Generate(schedule.GeneratorInput{
		Principal:         loan.TotalPrincipal,
		AnnualRatePercent: loan.ProfitRate,
		FixedProfitAmount: loan.FixedProfitAmount,
		Months:            int(loan.DurationMonths),
		StartDate:         loan.StartDate,
		Policy:            loan.Policy,
	})
	if len(lines) == 0 {
		return nil, domain.ErrLoanScheduleEmpty
	}

	if len(manualAmounts) == len(lines) {
		for _, amount := range manualAmounts {
			if amount.LessThanOrEqual(decimal.Zero) {
				return nil, domain.ErrLoanManualAmountInvalid
			}
		}
		schedule.ApplyManualAmounts(lines, manualAmounts, loan.TotalPrincipal, loan.FixedProfitAmount)
	}

	schedule.ReconcilePrepayment(lines, paidBalance)
	return lines, nil
}

// PreviewScheduleInput contains input for previewing a schedule
type PreviewScheduleInput struct {
	TotalPrincipal    decimal.Decimal
	ProfitRate        decimal.Decimal
	FixedProfitAmount decimal.Decimal
	DurationMonths    int32
	StartDate         time.Time
	Policy            domain.AmortizationPolicy
	ManualAmounts     []decimal.Decimal
	PaidBalance       decimal.Decimal
}

// PreviewScheduleResult carries the computed schedule without persisting it
type PreviewScheduleResult struct {
	Schedule []*domain.InstallmentLine `json:"schedule"`
	Stats    domain.LoanStats          `json:"stats"`
}

// PreviewSchedule computes a schedule for the create-loan form without
// persisting anything
func (s *LoanService) PreviewSchedule(input PreviewScheduleInput) (*PreviewScheduleResult, error) {
	loan := &domain.Loan{
		Name:              "preview",
		TotalPrincipal:    input.TotalPrincipal,
		ProfitRate:        input.ProfitRate,
		FixedProfitAmount: input.FixedProfitAmount,
		DurationMonths:    input.DurationMonths,
		StartDate:         input.StartDate,
		Policy:            input.Policy,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	if input.PaidBalance.IsNegative() {
		return nil, domain.ErrLoanPaidBalanceInvalid
	}

	lines, err := buildSchedule(loan, input.ManualAmounts, input.PaidBalance)
	if err != nil {
		return nil, err
	}

	return &PreviewScheduleResult{
		Schedule: lines,
		Stats:    schedule.Stats(lines),
	}, nil
}

// GetLoans retrieves loans for a workspace, optionally filtered by status
func (s *LoanService) GetLoans(workspaceID int32, filter domain.LoanFilter) ([]*domain.Loan, error) {
	switch filter {
	case domain.LoanFilterAll, domain.LoanFilterActive, domain.LoanFilterCompleted:
	case "":
		filter = domain.LoanFilterAll
	default:
		return nil, domain.ErrInvalidInput
	}
	return s.loanRepo.ListByWorkspace(workspaceID, filter)
}

// GetLoanByID retrieves a loan by ID within a workspace
func (s *LoanService) GetLoanByID(workspaceID int32, id int32) (*domain.Loan, error) {
	return s.loanRepo.GetByID(workspaceID, id)
}

// GetLoanStats returns payment progress for one loan
func (s *LoanService) GetLoanStats(workspaceID int32, id int32) (*domain.LoanStats, error) {
	loan, err := s.loanRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	stats := schedule.Stats(loan.Schedule)
	return &stats, nil
}

// UpdateLoanInput contains input for updating a loan
type UpdateLoanInput struct {
	Name              string
	TotalPrincipal    decimal.Decimal
	ProfitRate        decimal.Decimal
	FixedProfitAmount decimal.Decimal
	DurationMonths    int32
	StartDate         time.Time
	Policy            domain.AmortizationPolicy
	Notes             *string
	ManualAmounts     []decimal.Decimal
}

// UpdateLoan updates a loan. When any schedule-shaping parameter changed
// the schedule is regenerated and the previously paid prefix carries
// over by line count; name and notes edits leave the schedule alone.
func (s *LoanService) UpdateLoan(workspaceID int32, id int32, input UpdateLoanInput) (*domain.Loan, error) {
	existing, err := s.loanRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	// Reject bad manual amounts before persisting the new terms, so a
	// failed regeneration cannot leave updated terms with a stale schedule
	for _, amount := range input.ManualAmounts {
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrLoanManualAmountInvalid
		}
	}

	regenerate := !existing.TotalPrincipal.Equal(input.TotalPrincipal) ||
		!existing.ProfitRate.Equal(input.ProfitRate) ||
		!existing.FixedProfitAmount.Equal(input.FixedProfitAmount) ||
		existing.DurationMonths != input.DurationMonths ||
		!existing.StartDate.Equal(input.StartDate) ||
		existing.Policy != input.Policy ||
		len(input.ManualAmounts) > 0

	paidCount := 0
	for _, line := range existing.Schedule {
		if line.Paid {
			paidCount++
		}
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.TotalPrincipal = input.TotalPrincipal
	existing.ProfitRate = input.ProfitRate
	existing.FixedProfitAmount = input.FixedProfitAmount
	existing.DurationMonths = input.DurationMonths
	existing.StartDate = input.StartDate
	existing.Policy = input.Policy
	existing.Notes = input.Notes
	if err := existing.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.loanRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	if regenerate {
		lines, err := buildSchedule(existing, input.ManualAmounts, decimal.Zero)
		if err != nil {
			return nil, err
		}
		for i := 0; i < paidCount && i < len(lines); i++ {
			lines[i].Paid = true
			lines[i].RemainingBalance = decimal.Zero
		}
		status := schedule.StatusOf(lines)
		updated, err = s.loanRepo.ReplaceSchedule(workspaceID, id, lines, status)
		if err != nil {
			return nil, err
		}
	}

	s.publishEvent(workspaceID, websocket.LoanUpdated(updated))
	return updated, nil
}

// SetLinePaid toggles one installment line's paid flag and recomputes the
// derived loan status
func (s *LoanService) SetLinePaid(workspaceID int32, loanID int32, lineID int32, paid bool, paidDate *time.Time) (*domain.InstallmentLine, error) {
	loan, err := s.loanRepo.GetByID(workspaceID, loanID)
	if err != nil {
		return nil, err
	}

	var target *domain.InstallmentLine
	for _, line := range loan.Schedule {
		if line.ID == lineID {
			target = line
			break
		}
	}
	if target == nil {
		return nil, domain.ErrLoanLineNotFound
	}

	if paid && paidDate == nil {
		now := time.Now()
		paidDate = &now
	}
	if !paid {
		paidDate = nil
	}

	target.Paid = paid
	status := schedule.StatusOf(loan.Schedule)

	line, err := s.loanRepo.SetLinePaid(workspaceID, loanID, lineID, paid, paidDate, status)
	if err != nil {
		return nil, err
	}

	if paid {
		s.publishEvent(workspaceID, websocket.LoanLinePaid(line))
	} else {
		s.publishEvent(workspaceID, websocket.LoanLineUnpaid(line))
	}
	return line, nil
}

// BulkApplyAmount sets one payment amount on every unpaid line of a loan
func (s *LoanService) BulkApplyAmount(workspaceID int32, loanID int32, amount decimal.Decimal) (*domain.Loan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrLoanManualAmountInvalid
	}

	loan, err := s.loanRepo.GetByID(workspaceID, loanID)
	if err != nil {
		return nil, err
	}
	if len(loan.Schedule) == 0 {
		return nil, domain.ErrLoanScheduleEmpty
	}

	schedule.BulkApplyAmount(loan.Schedule, amount, loan.TotalPrincipal, loan.FixedProfitAmount)
	status := schedule.StatusOf(loan.Schedule)

	updated, err := s.loanRepo.ReplaceSchedule(workspaceID, loanID, loan.Schedule, status)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.LoanUpdated(updated))
	return updated, nil
}

// GetSettlementQuote computes the early settlement payoff for a loan
func (s *LoanService) GetSettlementQuote(workspaceID int32, loanID int32) (*schedule.SettlementQuote, error) {
	loan, err := s.loanRepo.GetByID(workspaceID, loanID)
	if err != nil {
		return nil, err
	}
	quote := schedule.EarlySettlement(loan.Schedule)
	return &quote, nil
}

// GetPayoffOrder returns the workspace's active loans in suggested payoff
// order under the given strategy
func (s *LoanService) GetPayoffOrder(workspaceID int32, strategy schedule.Strategy) ([]*domain.Loan, error) {
	if !schedule.ValidStrategy(strategy) {
		return nil, domain.ErrStrategyInvalid
	}
	loans, err := s.loanRepo.ListByWorkspace(workspaceID, domain.LoanFilterActive)
	if err != nil {
		return nil, err
	}
	return schedule.Prioritize(loans, strategy), nil
}

// DeleteLoan soft-deletes a loan
func (s *LoanService) DeleteLoan(workspaceID int32, id int32) error {
	loan, err := s.loanRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	if err := s.loanRepo.SoftDelete(workspaceID, id); err != nil {
		return err
	}
	s.publishEvent(workspaceID, websocket.LoanDeleted(loan))
	return nil
}
