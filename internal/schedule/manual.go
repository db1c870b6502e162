package schedule

import (
	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ApplyManualAmounts replaces each generated line's payment amount with
// the caller's value (typically imported from a statement), keeping the
// aggregate allocation coherent: the known total profit is spread evenly
// as each line's profit component (the final line absorbing the rounding
// remainder so components sum to the total), the principal component is
// whatever the manual amount leaves after that share, and the running
// balance is tracked by subtracting principal components in order,
// floored at zero on the final line.
//
// The amounts are assumed to align 1:1 with the schedule; callers must
// discard stale drafts when the duration changes. A short amounts slice
// leaves trailing lines untouched.
func ApplyManualAmounts(lines []*domain.InstallmentLine, amounts []decimal.Decimal, totalPrincipal, fixedProfitAmount decimal.Decimal) {
	if len(lines) == 0 || len(amounts) == 0 {
		return
	}

	months := decimal.NewFromInt(int64(len(lines)))
	profitShare := fixedProfitAmount.Div(months).Round(2)

	balance := totalPrincipal
	allocatedProfit := decimal.Zero
	for i, line := range lines {
		if i >= len(amounts) {
			break
		}
		amount := amounts[i]
		profit := profitShare
		if i == len(lines)-1 {
			// Last line takes whatever even division left over
			profit = fixedProfitAmount.Sub(allocatedProfit)
		}
		allocatedProfit = allocatedProfit.Add(profit)
		principal := amount.Sub(profit)
		balance = balance.Sub(principal)
		if i == len(lines)-1 {
			balance = clampZero(balance)
		}

		line.PaymentAmount = amount
		line.ProfitComponent = profit
		line.PrincipalComponent = principal
		line.RemainingBalance = balance
	}
}

// BulkApplyAmount sets one payment amount on every unpaid line, leaving
// settled history alone, then re-derives components and balances the
// same way ApplyManualAmounts does.
func BulkApplyAmount(lines []*domain.InstallmentLine, amount, totalPrincipal, fixedProfitAmount decimal.Decimal) {
	if len(lines) == 0 {
		return
	}

	amounts := make([]decimal.Decimal, len(lines))
	for i, line := range lines {
		if line.Paid {
			amounts[i] = line.PaymentAmount
		} else {
			amounts[i] = amount
		}
	}
	ApplyManualAmounts(lines, amounts, totalPrincipal, fixedProfitAmount)
}
