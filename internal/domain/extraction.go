package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractionCandidate holds best-effort values parsed out of a bank SMS,
// receipt image or statement PDF by the external extraction service.
// Every field is optional and untrusted: the service may return nothing,
// partial data, or nonsense, and callers must validate before use.
type ExtractionCandidate struct {
	Provider          *string          `json:"provider,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Principal         *decimal.Decimal `json:"principal,omitempty"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	MonthlyPayment    *decimal.Decimal `json:"monthlyPayment,omitempty"`
	LastPaymentAmount *decimal.Decimal `json:"lastPaymentAmount,omitempty"`
	DurationMonths    *int32           `json:"durationMonths,omitempty"`
	StartDate         *time.Time       `json:"startDate,omitempty"`
}
