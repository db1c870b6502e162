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

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, workspace_id, name, total_principal, profit_rate, fixed_profit_amount,
	duration_months, start_date, policy, status, notes, created_at, updated_at, deleted_at`

const lineColumns = `id, loan_id, sequence, due_date, payment_amount, principal_component,
	profit_component, remaining_balance, paid, paid_date, created_at, updated_at`

// Create persists the loan together with its schedule lines in one transaction
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := r.insertLoan(ctx, tx, loan)
	if err != nil {
		return nil, err
	}

	created.Schedule, err = r.insertLines(ctx, tx, created.ID, loan.Schedule)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

func (r *LoanRepository) insertLoan(ctx context.Context, tx pgx.Tx, loan *domain.Loan) (*domain.Loan, error) {
	principal, err := decimalToPgNumeric(loan.TotalPrincipal)
	if err != nil {
		return nil, fmt.Errorf("invalid principal: %w", err)
	}
	rate, err := decimalToPgNumeric(loan.ProfitRate)
	if err != nil {
		return nil, fmt.Errorf("invalid profit rate: %w", err)
	}
	fixed, err := decimalToPgNumeric(loan.FixedProfitAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid fixed profit amount: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO loans (workspace_id, name, total_principal, profit_rate, fixed_profit_amount,
			duration_months, start_date, policy, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+loanColumns,
		loan.WorkspaceID, loan.Name, principal, rate, fixed,
		loan.DurationMonths, pgDate(loan.StartDate), string(loan.Policy), string(loan.Status), pgTextPtr(loan.Notes))
	return scanLoan(row)
}

func (r *LoanRepository) insertLines(ctx context.Context, tx pgx.Tx, loanID int32, lines []*domain.InstallmentLine) ([]*domain.InstallmentLine, error) {
	inserted := make([]*domain.InstallmentLine, 0, len(lines))
	for _, line := range lines {
		payment, err := decimalToPgNumeric(line.PaymentAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid payment amount: %w", err)
		}
		principal, err := decimalToPgNumeric(line.PrincipalComponent)
		if err != nil {
			return nil, fmt.Errorf("invalid principal component: %w", err)
		}
		profit, err := decimalToPgNumeric(line.ProfitComponent)
		if err != nil {
			return nil, fmt.Errorf("invalid profit component: %w", err)
		}
		balance, err := decimalToPgNumeric(line.RemainingBalance)
		if err != nil {
			return nil, fmt.Errorf("invalid remaining balance: %w", err)
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO installment_lines (loan_id, sequence, due_date, payment_amount,
				principal_component, profit_component, remaining_balance, paid, paid_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+lineColumns,
			loanID, line.Sequence, pgDate(line.DueDate), payment,
			principal, profit, balance, line.Paid, pgDatePtr(line.PaidDate))
		scanned, err := scanLine(row)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, scanned)
	}
	return inserted, nil
}

// GetByID retrieves a loan and its schedule by ID within a workspace
func (r *LoanRepository) GetByID(workspaceID int32, id int32) (*domain.Loan, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	loan.Schedule, err = r.loadLines(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ListByWorkspace retrieves loans with their schedules, optionally filtered by status
func (r *LoanRepository) ListByWorkspace(workspaceID int32, filter domain.LoanFilter) ([]*domain.Loan, error) {
	ctx := context.Background()

	query := `SELECT ` + loanColumns + ` FROM loans
		WHERE workspace_id = $1 AND deleted_at IS NULL`
	args := []interface{}{workspaceID}
	if filter == domain.LoanFilterActive || filter == domain.LoanFilterCompleted {
		query += ` AND status = $2`
		args = append(args, string(filter))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := make([]*domain.Loan, 0)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, loan := range loans {
		loan.Schedule, err = r.loadLines(ctx, loan.ID)
		if err != nil {
			return nil, err
		}
	}
	return loans, nil
}

func (r *LoanRepository) loadLines(ctx context.Context, loanID int32) ([]*domain.InstallmentLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lineColumns+` FROM installment_lines
		WHERE loan_id = $1 ORDER BY sequence`,
		loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]*domain.InstallmentLine, 0)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Update persists loan fields only; the schedule is untouched
func (r *LoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()

	principal, err := decimalToPgNumeric(loan.TotalPrincipal)
	if err != nil {
		return nil, fmt.Errorf("invalid principal: %w", err)
	}
	rate, err := decimalToPgNumeric(loan.ProfitRate)
	if err != nil {
		return nil, fmt.Errorf("invalid profit rate: %w", err)
	}
	fixed, err := decimalToPgNumeric(loan.FixedProfitAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid fixed profit amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE loans
		SET name = $3, total_principal = $4, profit_rate = $5, fixed_profit_amount = $6,
			duration_months = $7, start_date = $8, policy = $9, notes = $10, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+loanColumns,
		loan.WorkspaceID, loan.ID, loan.Name, principal, rate, fixed,
		loan.DurationMonths, pgDate(loan.StartDate), string(loan.Policy), pgTextPtr(loan.Notes))
	updated, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	updated.Schedule, err = r.loadLines(ctx, updated.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReplaceSchedule atomically swaps the loan's schedule lines and status
func (r *LoanRepository) ReplaceSchedule(workspaceID int32, loanID int32, lines []*domain.InstallmentLine, status domain.LoanStatus) (*domain.Loan, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE loans SET status = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+loanColumns,
		workspaceID, loanID, string(status))
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM installment_lines WHERE loan_id = $1`, loanID); err != nil {
		return nil, err
	}

	loan.Schedule, err = r.insertLines(ctx, tx, loanID, lines)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return loan, nil
}

// SetLinePaid flips one line's paid flag and stores the new derived status
func (r *LoanRepository) SetLinePaid(workspaceID int32, loanID int32, lineID int32, paid bool, paidDate *time.Time, status domain.LoanStatus) (*domain.InstallmentLine, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Workspace ownership is checked through the loan row
	tag, err := tx.Exec(ctx, `
		UPDATE loans SET status = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, loanID, string(status))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrLoanNotFound
	}

	row := tx.QueryRow(ctx, `
		UPDATE installment_lines SET paid = $3, paid_date = $4, updated_at = now()
		WHERE loan_id = $1 AND id = $2
		RETURNING `+lineColumns,
		loanID, lineID, paid, pgDatePtr(paidDate))
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanLineNotFound
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return line, nil
}

// SoftDelete marks a loan as deleted without removing its rows
func (r *LoanRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE loans SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan      domain.Loan
		principal pgtype.Numeric
		rate      pgtype.Numeric
		fixed     pgtype.Numeric
		startDate pgtype.Date
		policy    string
		status    string
		notes     pgtype.Text
		deletedAt pgtype.Timestamptz
	)
	err := row.Scan(&loan.ID, &loan.WorkspaceID, &loan.Name, &principal, &rate, &fixed,
		&loan.DurationMonths, &startDate, &policy, &status, &notes,
		&loan.CreatedAt, &loan.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	loan.TotalPrincipal = pgNumericToDecimal(principal)
	loan.ProfitRate = pgNumericToDecimal(rate)
	loan.FixedProfitAmount = pgNumericToDecimal(fixed)
	loan.StartDate = startDate.Time
	loan.Policy = domain.AmortizationPolicy(policy)
	loan.Status = domain.LoanStatus(status)
	loan.Notes = pgTextToStringPtr(notes)
	loan.DeletedAt = pgTimestamptzToTimePtr(deletedAt)
	return &loan, nil
}

func scanLine(row pgx.Row) (*domain.InstallmentLine, error) {
	var (
		line      domain.InstallmentLine
		dueDate   pgtype.Date
		payment   pgtype.Numeric
		principal pgtype.Numeric
		profit    pgtype.Numeric
		balance   pgtype.Numeric
		paidDate  pgtype.Date
	)
	err := row.Scan(&line.ID, &line.LoanID, &line.Sequence, &dueDate, &payment,
		&principal, &profit, &balance, &line.Paid, &paidDate,
		&line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return nil, err
	}
	line.DueDate = dueDate.Time
	line.PaymentAmount = pgNumericToDecimal(payment)
	line.PrincipalComponent = pgNumericToDecimal(principal)
	line.ProfitComponent = pgNumericToDecimal(profit)
	line.RemainingBalance = pgNumericToDecimal(balance)
	line.PaidDate = pgDateToTimePtr(paidDate)
	return &line, nil
}
