package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBillNotFound        = errors.New("bill not found")
	ErrBillProviderEmpty   = errors.New("bill provider is required")
	ErrBillProviderTooLong = errors.New("bill provider must be 200 characters or less")
	ErrBillAmountInvalid   = errors.New("bill amount must be positive")
	ErrBillShapeInvalid    = errors.New("bill fields do not form a valid shape")
)

// BillShape discriminates the three recurring-obligation shapes. It is
// derived once from which optional fields are set, so the projector never
// branches on field presence.
type BillShape string

const (
	// BillShapeContract is a finite installment contract (device plan):
	// start date + duration, optional down payment and final amount.
	BillShapeContract BillShape = "contract"
	// BillShapeSubscription is open ended, recurring on a day of month.
	BillShapeSubscription BillShape = "subscription"
	// BillShapeMonthly is a plain ongoing monthly bill.
	BillShapeMonthly BillShape = "monthly"
)

// Bill is a recurring obligation. Bills never store a generated
// schedule; due lines are projected on demand from these fields and the
// sparse PaidDates set.
type Bill struct {
	ID                int32            `json:"id"`
	WorkspaceID       int32            `json:"workspaceId"`
	Provider          string           `json:"provider"`
	Amount            decimal.Decimal  `json:"amount"` // periodic due amount
	StartDate         *time.Time       `json:"startDate,omitempty"`
	DurationMonths    *int32           `json:"durationMonths,omitempty"`
	DownPayment       *decimal.Decimal `json:"downPayment,omitempty"`
	LastPaymentAmount *decimal.Decimal `json:"lastPaymentAmount,omitempty"`
	IsSubscription    bool             `json:"isSubscription"`
	RenewalDate       *time.Time       `json:"renewalDate,omitempty"`
	PaidDates         []time.Time      `json:"paidDates"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	DeletedAt         *time.Time       `json:"deletedAt,omitempty"`
}

// Shape classifies the bill. Contract fields win over the subscription
// flag, so a malformed record degrades to the richer shape it names.
func (b *Bill) Shape() BillShape {
	if b.StartDate != nil && b.DurationMonths != nil {
		return BillShapeContract
	}
	if b.IsSubscription {
		return BillShapeSubscription
	}
	return BillShapeMonthly
}

func (b *Bill) Validate() error {
	if b.Provider == "" {
		return ErrBillProviderEmpty
	}
	if len(b.Provider) > MaxNameLength {
		return ErrBillProviderTooLong
	}
	if b.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrBillAmountInvalid
	}
	// A contract needs both anchors; one without the other is a broken record.
	if (b.StartDate == nil) != (b.DurationMonths == nil) {
		return ErrBillShapeInvalid
	}
	if b.DurationMonths != nil && *b.DurationMonths < 1 {
		return ErrBillShapeInvalid
	}
	return nil
}

// IsDatePaid reports whether the given projected due date has been
// marked paid. Comparison is by calendar day.
func (b *Bill) IsDatePaid(date time.Time) bool {
	for _, d := range b.PaidDates {
		if SameDay(d, date) {
			return true
		}
	}
	return false
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ProjectedLineKind tags the origin of a projected bill line.
type ProjectedLineKind string

const (
	ProjectedKindDownPayment  ProjectedLineKind = "down_payment"
	ProjectedKindInstallment  ProjectedLineKind = "installment"
	ProjectedKindSubscription ProjectedLineKind = "subscription"
	ProjectedKindMonthly      ProjectedLineKind = "monthly"
)

// ProjectedLine is one due date in a bill's on-demand projection. It is
// ephemeral: recomputed on every read, never persisted.
type ProjectedLine struct {
	Date   time.Time         `json:"date"`
	Amount decimal.Decimal   `json:"amount"`
	Paid   bool              `json:"paid"`
	Kind   ProjectedLineKind `json:"kind"`
}

type BillRepository interface {
	Create(bill *Bill) (*Bill, error)
	GetByID(workspaceID int32, id int32) (*Bill, error)
	ListByWorkspace(workspaceID int32) ([]*Bill, error)
	Update(bill *Bill) (*Bill, error)
	// SetDatePaid adds or removes one due date from the bill's paid set.
	SetDatePaid(workspaceID int32, id int32, date time.Time, paid bool) (*Bill, error)
	SoftDelete(workspaceID int32, id int32) error
}
