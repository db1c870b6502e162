package schedule

import (
	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// StatusOf folds a schedule's paid flags into the loan status: completed
// exactly when every line is paid. An empty schedule is never completed.
// Status is recomputed after every mutation that can flip a paid flag;
// it is a read-only projection, not independently owned state.
func StatusOf(lines []*domain.InstallmentLine) domain.LoanStatus {
	if len(lines) == 0 {
		return domain.LoanStatusActive
	}
	for _, line := range lines {
		if !line.Paid {
			return domain.LoanStatusActive
		}
	}
	return domain.LoanStatusCompleted
}

// UnpaidRemainingBalance sums the remaining balance over unpaid lines.
func UnpaidRemainingBalance(lines []*domain.InstallmentLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if !line.Paid {
			total = total.Add(line.RemainingBalance)
		}
	}
	return total
}

// Stats summarizes payment progress across a schedule.
func Stats(lines []*domain.InstallmentLine) domain.LoanStats {
	stats := domain.LoanStats{
		TotalCount:       int32(len(lines)),
		RemainingBalance: decimal.Zero,
	}
	for _, line := range lines {
		if line.Paid {
			stats.PaidCount++
		} else {
			stats.RemainingBalance = stats.RemainingBalance.Add(line.PaymentAmount)
		}
	}
	if stats.TotalCount > 0 {
		stats.Progress = float64(stats.PaidCount) / float64(stats.TotalCount) * 100
	}
	return stats
}
