package schedule

import (
	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// settlementProfitCapMonths caps the profit charged on early settlement
// at this many average future installments' worth. Policy constant, not
// a verified statutory formula.
const settlementProfitCapMonths = 3

// SettlementQuote is the result of an early settlement calculation.
type SettlementQuote struct {
	PayoffAmount    decimal.Decimal `json:"payoffAmount"`
	PrincipalDue    decimal.Decimal `json:"principalDue"`
	ProfitDue       decimal.Decimal `json:"profitDue"`
	UnpaidLineCount int             `json:"unpaidLineCount"`
}

// EarlySettlement computes the payoff amount for settling a loan now:
// all unpaid principal, plus unpaid profit capped at three average
// unpaid installments' profit. A fully paid schedule settles for zero.
func EarlySettlement(lines []*domain.InstallmentLine) SettlementQuote {
	principalDue := decimal.Zero
	profitDue := decimal.Zero
	unpaid := 0

	for _, line := range lines {
		if line.Paid {
			continue
		}
		principalDue = principalDue.Add(line.PrincipalComponent)
		profitDue = profitDue.Add(line.ProfitComponent)
		unpaid++
	}

	if unpaid == 0 {
		return SettlementQuote{
			PayoffAmount: decimal.Zero,
			PrincipalDue: decimal.Zero,
			ProfitDue:    decimal.Zero,
		}
	}

	averageProfit := profitDue.Div(decimal.NewFromInt(int64(unpaid)))
	cappedProfit := decimal.Min(profitDue, averageProfit.Mul(decimal.NewFromInt(settlementProfitCapMonths)))

	return SettlementQuote{
		PayoffAmount:    principalDue.Add(cappedProfit).Round(2),
		PrincipalDue:    principalDue,
		ProfitDue:       cappedProfit.Round(2),
		UnpaidLineCount: unpaid,
	}
}
