package schedule

import (
	"sort"

	"github.com/hakimz/duit/duit-backend/internal/domain"
)

// Strategy names a debt-payoff ordering heuristic.
type Strategy string

const (
	// StrategySnowball orders by smallest unpaid remaining balance first.
	StrategySnowball Strategy = "snowball"
	// StrategyAvalanche orders by highest annual profit rate first.
	StrategyAvalanche Strategy = "avalanche"
)

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s Strategy) bool {
	return s == StrategySnowball || s == StrategyAvalanche
}

// Prioritize orders active loans under the given strategy. The result
// is a new slice; completed loans are dropped. The ordering is advisory
// and is never persisted.
func Prioritize(loans []*domain.Loan, strategy Strategy) []*domain.Loan {
	active := make([]*domain.Loan, 0, len(loans))
	for _, loan := range loans {
		if loan.Status == domain.LoanStatusActive {
			active = append(active, loan)
		}
	}

	switch strategy {
	case StrategyAvalanche:
		sort.SliceStable(active, func(i, j int) bool {
			return active[i].ProfitRate.GreaterThan(active[j].ProfitRate)
		})
	default: // snowball
		sort.SliceStable(active, func(i, j int) bool {
			bi := UnpaidRemainingBalance(active[i].Schedule)
			bj := UnpaidRemainingBalance(active[j].Schedule)
			return bi.LessThan(bj)
		})
	}
	return active
}
