package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound            = errors.New("loan not found")
	ErrLoanNameEmpty           = errors.New("loan name is required")
	ErrLoanNameTooLong         = errors.New("loan name must be 200 characters or less")
	ErrLoanPrincipalInvalid    = errors.New("loan principal must not be negative")
	ErrLoanMonthsInvalid       = errors.New("number of months must be at least 1")
	ErrLoanPolicyInvalid       = errors.New("amortization policy must be flat or decreasing")
	ErrLoanLineNotFound        = errors.New("installment line not found")
	ErrLoanScheduleEmpty       = errors.New("no schedule could be produced for the given parameters")
	ErrLoanPaidBalanceInvalid  = errors.New("paid balance must not be negative")
	ErrLoanManualAmountInvalid = errors.New("manual installment amounts must be positive")
	ErrStrategyInvalid         = errors.New("payoff strategy must be snowball or avalanche")
)

// AmortizationPolicy selects how profit is computed across the schedule.
type AmortizationPolicy string

const (
	PolicyFlat       AmortizationPolicy = "flat"
	PolicyDecreasing AmortizationPolicy = "decreasing"
)

// LoanStatus is derived from the schedule, never stored independently:
// a loan is completed exactly when every installment line is paid.
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
)

// InstallmentLine is one scheduled payment of a loan.
// PrincipalComponent + ProfitComponent equals PaymentAmount (within
// rounding of 0.01), and RemainingBalance is the outstanding principal
// immediately after this line, never negative.
type InstallmentLine struct {
	ID                 int32           `json:"id"`
	LoanID             int32           `json:"loanId"`
	Sequence           int32           `json:"sequence"` // 1-based position in the schedule
	DueDate            time.Time       `json:"dueDate"`
	PaymentAmount      decimal.Decimal `json:"paymentAmount"`
	PrincipalComponent decimal.Decimal `json:"principalComponent"`
	ProfitComponent    decimal.Decimal `json:"profitComponent"`
	RemainingBalance   decimal.Decimal `json:"remainingBalance"`
	Paid               bool            `json:"paid"`
	PaidDate           *time.Time      `json:"paidDate,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type Loan struct {
	ID                int32              `json:"id"`
	WorkspaceID       int32              `json:"workspaceId"`
	Name              string             `json:"name"`
	TotalPrincipal    decimal.Decimal    `json:"totalPrincipal"` // borrowed amount, excluding profit
	ProfitRate        decimal.Decimal    `json:"profitRate"`     // annual percent; ignored when FixedProfitAmount > 0
	FixedProfitAmount decimal.Decimal    `json:"fixedProfitAmount"`
	DurationMonths    int32              `json:"durationMonths"`
	StartDate         time.Time          `json:"startDate"`
	Policy            AmortizationPolicy `json:"policy"`
	Schedule          []*InstallmentLine `json:"schedule,omitempty"`
	Status            LoanStatus         `json:"status"`
	Notes             *string            `json:"notes,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	DeletedAt         *time.Time         `json:"deletedAt,omitempty"`
}

func (l *Loan) Validate() error {
	if l.Name == "" {
		return ErrLoanNameEmpty
	}
	if len(l.Name) > MaxNameLength {
		return ErrLoanNameTooLong
	}
	if l.TotalPrincipal.IsNegative() {
		return ErrLoanPrincipalInvalid
	}
	if l.DurationMonths < 1 {
		return ErrLoanMonthsInvalid
	}
	if l.Policy != PolicyFlat && l.Policy != PolicyDecreasing {
		return ErrLoanPolicyInvalid
	}
	return nil
}

// LineBySequence returns the installment line with the given 1-based
// sequence, or nil when the schedule has no such line.
func (l *Loan) LineBySequence(sequence int32) *InstallmentLine {
	for _, line := range l.Schedule {
		if line.Sequence == sequence {
			return line
		}
	}
	return nil
}

// LoanStats summarizes payment progress for list views.
type LoanStats struct {
	TotalCount       int32           `json:"totalCount"`
	PaidCount        int32           `json:"paidCount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	Progress         float64         `json:"progress"` // percent of lines paid
}

// LoanFilter selects which loans to list
type LoanFilter string

const (
	LoanFilterAll       LoanFilter = "all"
	LoanFilterActive    LoanFilter = "active"
	LoanFilterCompleted LoanFilter = "completed"
)

type LoanRepository interface {
	// Create persists the loan together with its schedule lines.
	Create(loan *Loan) (*Loan, error)
	GetByID(workspaceID int32, id int32) (*Loan, error)
	ListByWorkspace(workspaceID int32, filter LoanFilter) ([]*Loan, error)
	// Update persists loan fields only; the schedule is untouched.
	Update(loan *Loan) (*Loan, error)
	// ReplaceSchedule atomically swaps the loan's schedule lines and status.
	ReplaceSchedule(workspaceID int32, loanID int32, lines []*InstallmentLine, status LoanStatus) (*Loan, error)
	// SetLinePaid flips one line's paid flag and stores the new derived status.
	SetLinePaid(workspaceID int32, loanID int32, lineID int32, paid bool, paidDate *time.Time, status LoanStatus) (*InstallmentLine, error)
	SoftDelete(workspaceID int32, id int32) error
}
