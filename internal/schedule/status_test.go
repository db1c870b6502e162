package schedule

import (
	"testing"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		paid []bool
		want domain.LoanStatus
	}{
		{"empty schedule", nil, domain.LoanStatusActive},
		{"all unpaid", []bool{false, false}, domain.LoanStatusActive},
		{"partially paid", []bool{true, false, true}, domain.LoanStatusActive},
		{"all paid", []bool{true, true, true}, domain.LoanStatusCompleted},
		{"single paid line", []bool{true}, domain.LoanStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := make([]*domain.InstallmentLine, len(tt.paid))
			for i, paid := range tt.paid {
				lines[i] = &domain.InstallmentLine{Sequence: int32(i + 1), Paid: paid}
			}
			if got := StatusOf(lines); got != tt.want {
				t.Errorf("Expected status %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStats(t *testing.T) {
	lines := []*domain.InstallmentLine{
		{Sequence: 1, Paid: true, PaymentAmount: decimal.NewFromInt(500)},
		{Sequence: 2, Paid: false, PaymentAmount: decimal.NewFromInt(500)},
		{Sequence: 3, Paid: false, PaymentAmount: decimal.NewFromFloat(500.50)},
		{Sequence: 4, Paid: true, PaymentAmount: decimal.NewFromInt(500)},
	}

	stats := Stats(lines)

	if stats.TotalCount != 4 {
		t.Errorf("Expected total 4, got %d", stats.TotalCount)
	}
	if stats.PaidCount != 2 {
		t.Errorf("Expected paid 2, got %d", stats.PaidCount)
	}
	if !stats.RemainingBalance.Equal(decimal.NewFromFloat(1000.50)) {
		t.Errorf("Expected remaining 1000.50, got %s", stats.RemainingBalance.String())
	}
	if stats.Progress != 50 {
		t.Errorf("Expected progress 50, got %f", stats.Progress)
	}
}

func TestStats_EmptySchedule(t *testing.T) {
	stats := Stats(nil)

	if stats.TotalCount != 0 || stats.PaidCount != 0 {
		t.Errorf("Expected zero counts, got %+v", stats)
	}
	if stats.Progress != 0 {
		t.Errorf("Expected progress 0, got %f", stats.Progress)
	}
	if !stats.RemainingBalance.IsZero() {
		t.Errorf("Expected remaining 0, got %s", stats.RemainingBalance.String())
	}
}

func TestUnpaidRemainingBalance(t *testing.T) {
	lines := []*domain.InstallmentLine{
		{Sequence: 1, Paid: true, RemainingBalance: decimal.Zero},
		{Sequence: 2, Paid: false, RemainingBalance: decimal.NewFromInt(800)},
		{Sequence: 3, Paid: false, RemainingBalance: decimal.NewFromInt(400)},
	}

	total := UnpaidRemainingBalance(lines)

	if !total.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected 1200, got %s", total.String())
	}
}
