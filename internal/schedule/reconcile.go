package schedule

import (
	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// prepaymentTolerance absorbs rounding drift in historical data: a line
// counts as covered when the remaining paid balance is within one
// currency unit of its payment amount.
var prepaymentTolerance = decimal.NewFromInt(1)

// ReconcilePrepayment settles a prefix of the schedule against cash the
// borrower had already paid before the loan was entered. Lines are
// consumed in date order and are wholly paid or wholly unpaid: the walk
// stops at the first line the balance no longer covers. Settled lines
// get their remaining balance zeroed.
func ReconcilePrepayment(lines []*domain.InstallmentLine, paidBalance decimal.Decimal) {
	if paidBalance.LessThanOrEqual(decimal.Zero) {
		return
	}

	remaining := paidBalance
	for _, line := range lines {
		if remaining.LessThan(line.PaymentAmount.Sub(prepaymentTolerance)) {
			break
		}
		line.Paid = true
		line.RemainingBalance = decimal.Zero
		remaining = remaining.Sub(line.PaymentAmount)
	}
}
