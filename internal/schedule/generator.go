// Package schedule implements the installment schedule engine: schedule
// generation, manual per-line overrides, prepayment reconciliation, bill
// projection, early settlement and payoff prioritization. Everything in
// this package is pure: functions take full-value inputs and return new
// values, and callers own persistence.
package schedule

import (
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/util"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// GeneratorInput holds the financial parameters a schedule is built from.
type GeneratorInput struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal // ignored when FixedProfitAmount > 0
	FixedProfitAmount decimal.Decimal
	Months            int
	StartDate         time.Time
	Policy            domain.AmortizationPolicy
}

// Generate computes a from-scratch installment schedule. Three mutually
// exclusive modes, in priority order: fixed total profit (whenever
// FixedProfitAmount > 0, regardless of policy), flat rate, and
// decreasing-balance annuity. Line i is due StartDate plus i calendar
// months. Invalid parameters (months < 1, negative principal) yield an
// empty schedule; callers treat that as "nothing to save".
//
// Whenever a total is distributed across lines, the final line absorbs
// the rounding remainder so the stored schedule reconciles exactly to
// the requested totals.
func Generate(in GeneratorInput) []*domain.InstallmentLine {
	if in.Months < 1 || in.Principal.IsNegative() {
		return nil
	}

	if in.FixedProfitAmount.GreaterThan(decimal.Zero) {
		return generateFixedProfit(in)
	}
	if in.Policy == domain.PolicyDecreasing {
		return generateDecreasing(in)
	}
	return generateFlat(in)
}

// generateFixedProfit divides principal + FixedProfitAmount evenly,
// deriving each line's components from even profit/principal shares.
func generateFixedProfit(in GeneratorInput) []*domain.InstallmentLine {
	months := decimal.NewFromInt(int64(in.Months))
	profitShare := in.FixedProfitAmount.Div(months).Round(2)
	principalShare := in.Principal.Div(months).Round(2)

	lines := make([]*domain.InstallmentLine, 0, in.Months)
	balance := in.Principal
	allocatedProfit := decimal.Zero

	for i := 0; i < in.Months; i++ {
		profit := profitShare
		principal := principalShare
		if i == in.Months-1 {
			// Last line takes whatever even division left over
			profit = in.FixedProfitAmount.Sub(allocatedProfit)
			principal = balance
		}
		balance = clampZero(balance.Sub(principal))
		allocatedProfit = allocatedProfit.Add(profit)

		lines = append(lines, newLine(in.StartDate, i, principal, profit, balance))
	}
	return lines
}

// generateFlat spreads principal × rate/100 × months/12 evenly across
// the schedule, independent of the declining balance.
func generateFlat(in GeneratorInput) []*domain.InstallmentLine {
	months := decimal.NewFromInt(int64(in.Months))
	totalProfit := in.Principal.
		Mul(in.AnnualRatePercent).Div(hundred).
		Mul(months).Div(twelve)

	profitShare := totalProfit.Div(months).Round(2)
	principalShare := in.Principal.Div(months).Round(2)

	lines := make([]*domain.InstallmentLine, 0, in.Months)
	balance := in.Principal
	allocatedProfit := decimal.Zero

	for i := 0; i < in.Months; i++ {
		profit := profitShare
		principal := principalShare
		if i == in.Months-1 {
			profit = totalProfit.Sub(allocatedProfit).Round(2)
			principal = balance
		}
		balance = clampZero(balance.Sub(principal))
		allocatedProfit = allocatedProfit.Add(profit)

		lines = append(lines, newLine(in.StartDate, i, principal, profit, balance))
	}
	return lines
}

// generateDecreasing builds a standard level-payment annuity schedule,
// computing profit on the outstanding balance each period.
func generateDecreasing(in GeneratorInput) []*domain.InstallmentLine {
	if in.AnnualRatePercent.IsZero() {
		// Degenerate rate: straight-line principal, zero profit
		return generateFlat(in)
	}

	months := decimal.NewFromInt(int64(in.Months))
	r := in.AnnualRatePercent.Div(hundred).Div(twelve)
	// payment = P·r·(1+r)^n / ((1+r)^n − 1)
	growth := one.Add(r).Pow(months)
	payment := in.Principal.Mul(r).Mul(growth).Div(growth.Sub(one)).Round(2)

	lines := make([]*domain.InstallmentLine, 0, in.Months)
	balance := in.Principal

	for i := 0; i < in.Months; i++ {
		profit := balance.Mul(r).Round(2)
		var principal decimal.Decimal
		if i == in.Months-1 {
			// Force the schedule to land on zero
			principal = balance
		} else {
			principal = payment.Sub(profit)
		}
		balance = clampZero(balance.Sub(principal))

		lines = append(lines, newLine(in.StartDate, i, principal, profit, balance))
	}
	return lines
}

func newLine(start time.Time, i int, principal, profit, balance decimal.Decimal) *domain.InstallmentLine {
	return &domain.InstallmentLine{
		Sequence:           int32(i + 1),
		DueDate:            util.AddMonths(start, i),
		PaymentAmount:      principal.Add(profit),
		PrincipalComponent: principal,
		ProfitComponent:    profit,
		RemainingBalance:   balance,
		Paid:               false,
	}
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
