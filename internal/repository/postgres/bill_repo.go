package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BillRepository implements domain.BillRepository using PostgreSQL
type BillRepository struct {
	pool *pgxpool.Pool
}

// NewBillRepository creates a new BillRepository
func NewBillRepository(pool *pgxpool.Pool) *BillRepository {
	return &BillRepository{pool: pool}
}

const billColumns = `id, workspace_id, provider, amount, start_date, duration_months,
	down_payment, last_payment_amount, is_subscription, renewal_date, paid_dates,
	created_at, updated_at, deleted_at`

// Create creates a new bill
func (r *BillRepository) Create(bill *domain.Bill) (*domain.Bill, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(bill.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	downPayment, err := pgNumericPtr(bill.DownPayment)
	if err != nil {
		return nil, fmt.Errorf("invalid down payment: %w", err)
	}
	lastAmount, err := pgNumericPtr(bill.LastPaymentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid last payment amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bills (workspace_id, provider, amount, start_date, duration_months,
			down_payment, last_payment_amount, is_subscription, renewal_date, paid_dates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+billColumns,
		bill.WorkspaceID, bill.Provider, amount, pgDatePtr(bill.StartDate), pgInt4Ptr(bill.DurationMonths),
		downPayment, lastAmount, bill.IsSubscription, pgDatePtr(bill.RenewalDate), datesToPg(bill.PaidDates))
	return scanBill(row)
}

// GetByID retrieves a bill by its ID within a workspace
func (r *BillRepository) GetByID(workspaceID int32, id int32) (*domain.Bill, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+billColumns+` FROM bills
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	bill, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBillNotFound
		}
		return nil, err
	}
	return bill, nil
}

// ListByWorkspace retrieves all bills for a workspace
func (r *BillRepository) ListByWorkspace(workspaceID int32) ([]*domain.Bill, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+billColumns+` FROM bills
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY provider, id`,
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]*domain.Bill, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

// Update persists a bill's fields, paid dates included
func (r *BillRepository) Update(bill *domain.Bill) (*domain.Bill, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(bill.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	downPayment, err := pgNumericPtr(bill.DownPayment)
	if err != nil {
		return nil, fmt.Errorf("invalid down payment: %w", err)
	}
	lastAmount, err := pgNumericPtr(bill.LastPaymentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid last payment amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE bills
		SET provider = $3, amount = $4, start_date = $5, duration_months = $6,
			down_payment = $7, last_payment_amount = $8, is_subscription = $9,
			renewal_date = $10, paid_dates = $11, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+billColumns,
		bill.WorkspaceID, bill.ID, bill.Provider, amount, pgDatePtr(bill.StartDate), pgInt4Ptr(bill.DurationMonths),
		downPayment, lastAmount, bill.IsSubscription, pgDatePtr(bill.RenewalDate), datesToPg(bill.PaidDates))
	updated, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBillNotFound
		}
		return nil, err
	}
	return updated, nil
}

// SetDatePaid adds or removes one due date from the bill's paid set
func (r *BillRepository) SetDatePaid(workspaceID int32, id int32, date time.Time, paid bool) (*domain.Bill, error) {
	bill, err := r.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(bill.PaidDates)+1)
	for _, d := range bill.PaidDates {
		if !domain.SameDay(d, date) {
			dates = append(dates, d)
		}
	}
	if paid {
		dates = append(dates, date)
	}
	bill.PaidDates = dates

	return r.Update(bill)
}

// SoftDelete marks a bill as deleted without removing its row
func (r *BillRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE bills SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBillNotFound
	}
	return nil
}

func datesToPg(dates []time.Time) []pgtype.Date {
	out := make([]pgtype.Date, len(dates))
	for i, d := range dates {
		out[i] = pgDate(d)
	}
	return out
}

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var (
		bill           domain.Bill
		amount         pgtype.Numeric
		startDate      pgtype.Date
		durationMonths pgtype.Int4
		downPayment    pgtype.Numeric
		lastAmount     pgtype.Numeric
		renewalDate    pgtype.Date
		paidDates      []pgtype.Date
		deletedAt      pgtype.Timestamptz
	)
	err := row.Scan(&bill.ID, &bill.WorkspaceID, &bill.Provider, &amount, &startDate, &durationMonths,
		&downPayment, &lastAmount, &bill.IsSubscription, &renewalDate, &paidDates,
		&bill.CreatedAt, &bill.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	bill.Amount = pgNumericToDecimal(amount)
	bill.StartDate = pgDateToTimePtr(startDate)
	bill.DurationMonths = pgInt4ToInt32Ptr(durationMonths)
	bill.DownPayment = pgNumericToDecimalPtr(downPayment)
	bill.LastPaymentAmount = pgNumericToDecimalPtr(lastAmount)
	bill.RenewalDate = pgDateToTimePtr(renewalDate)
	bill.PaidDates = make([]time.Time, 0, len(paidDates))
	for _, d := range paidDates {
		if d.Valid {
			bill.PaidDates = append(bill.PaidDates, d.Time)
		}
	}
	bill.DeletedAt = pgTimestamptzToTimePtr(deletedAt)
	return &bill, nil
}
