package schedule

import (
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/hakimz/duit/duit-backend/internal/util"
)

// Projection windows, in months relative to "now". Bills are open ended
// or long running, so the projector derives a bounded preview from the
// current date on every call instead of persisting a schedule that
// would need continuous regeneration.
const (
	subscriptionWindowPast   = 3
	subscriptionWindowFuture = 9
	monthlyWindowPast        = 1
	monthlyWindowFuture      = 3
)

// Project computes the due-date preview for a bill. It is pure: the
// same bill state and the same now always produce the same lines.
// Finite contracts project their whole span; subscriptions and simple
// monthly bills project a sliding window around now.
func Project(bill *domain.Bill, now time.Time) []domain.ProjectedLine {
	switch bill.Shape() {
	case domain.BillShapeContract:
		return projectContract(bill)
	case domain.BillShapeSubscription:
		return projectWindow(bill, now, subscriptionWindowPast, subscriptionWindowFuture, domain.ProjectedKindSubscription)
	default:
		return projectWindow(bill, now, monthlyWindowPast, monthlyWindowFuture, domain.ProjectedKindMonthly)
	}
}

// projectContract emits the optional down payment at the start date and
// one installment per month thereafter; the final installment uses the
// contract's distinct last payment amount when one is set. Contract
// lines are paid only when their exact date was marked paid.
func projectContract(bill *domain.Bill) []domain.ProjectedLine {
	start := util.DateOnly(*bill.StartDate)
	months := int(*bill.DurationMonths)

	lines := make([]domain.ProjectedLine, 0, months+1)
	if bill.DownPayment != nil {
		lines = append(lines, domain.ProjectedLine{
			Date:   start,
			Amount: *bill.DownPayment,
			Paid:   bill.IsDatePaid(start),
			Kind:   domain.ProjectedKindDownPayment,
		})
	}

	for i := 0; i < months; i++ {
		date := util.AddMonths(start, i+1)
		amount := bill.Amount
		if i == months-1 && bill.LastPaymentAmount != nil {
			amount = *bill.LastPaymentAmount
		}
		lines = append(lines, domain.ProjectedLine{
			Date:   date,
			Amount: amount,
			Paid:   bill.IsDatePaid(date),
			Kind:   domain.ProjectedKindInstallment,
		})
	}
	return lines
}

// projectWindow emits one line per month from pastMonths back through
// futureMonths ahead of now. Lines strictly before today default to
// paid, since the bill predates its entry into the tracker. Today and
// later follow the recorded paid dates.
func projectWindow(bill *domain.Bill, now time.Time, pastMonths, futureMonths int, kind domain.ProjectedLineKind) []domain.ProjectedLine {
	today := util.DateOnly(now)

	lines := make([]domain.ProjectedLine, 0, pastMonths+futureMonths+1)
	for off := -pastMonths; off <= futureMonths; off++ {
		date := util.AddMonths(today, off)
		if bill.RenewalDate != nil {
			date = util.ClampDay(date.Year(), date.Month(), bill.RenewalDate.Day())
		}
		lines = append(lines, domain.ProjectedLine{
			Date:   date,
			Amount: bill.Amount,
			Paid:   bill.IsDatePaid(date) || date.Before(today),
			Kind:   kind,
		})
	}
	return lines
}
