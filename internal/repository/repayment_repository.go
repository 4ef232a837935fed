package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

type repaymentRepository struct {
	db *sqlx.DB
}

func NewRepaymentRepository(db *sqlx.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

func (r *repaymentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Repayment, error) {
	query := `
		SELECT id, loan_id, due_date, expected_amount, amount_paid, paid_date, status, created_at
		FROM repayments
		WHERE loan_id = $1
		ORDER BY due_date
	`

	var rows []*domain.Repayment
	err := r.db.SelectContext(ctx, &rows, query, loanID)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *repaymentRepository) GetEarliestUnpaid(ctx context.Context, loanID uuid.UUID) (*domain.Repayment, error) {
	query := `
		SELECT id, loan_id, due_date, expected_amount, amount_paid, paid_date, status, created_at
		FROM repayments
		WHERE loan_id = $1 AND status = 'unpaid'
		ORDER BY due_date
		LIMIT 1
	`

	var row domain.Repayment
	err := r.db.GetContext(ctx, &row, query, loanID)
	if err != nil {
		return nil, err
	}

	return &row, nil
}

// ResolveAndApply finalizes one repayment row, the loan balance, and the
// day's capital snapshot together. The row update is guarded on
// status = 'unpaid' so a concurrent resolution of the same row surfaces as a
// conflict instead of a double-apply.
func (r *repaymentRepository) ResolveAndApply(ctx context.Context, app *PaymentApplication) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rowQuery := `
		UPDATE repayments
		SET status = $2, amount_paid = $3, paid_date = $4
		WHERE id = $1 AND status = 'unpaid'
	`

	res, err := tx.ExecContext(ctx, rowQuery, app.RepaymentID, app.Status, app.AmountPaid, app.PaidAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return customError.ErrRepaymentAlreadyResolved
	}

	loanQuery := `
		UPDATE loans
		SET pending_amount = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	if _, err = tx.ExecContext(ctx, loanQuery, app.LoanID, app.NewPending, app.LoanStatus, time.Now()); err != nil {
		return err
	}

	if _, err = upsertSnapshot(ctx, tx, app.LenderID, domain.DateOf(app.SnapshotDate), decimal.Zero); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repaymentRepository) GetDueToday(ctx context.Context, lenderID string, date time.Time) ([]*domain.DueTodayItem, error) {
	query := `
		SELECT r.id AS repayment_id, r.loan_id, l.borrower_id, b.name AS borrower_name, r.due_date, r.expected_amount, l.pending_amount
		FROM repayments r
		JOIN loans l ON l.id = r.loan_id
		JOIN borrowers b ON b.id = l.borrower_id
		WHERE l.lender_id = $1 AND l.status = 'active' AND r.status = 'unpaid' AND r.due_date = $2
		ORDER BY b.name
	`

	var items []*domain.DueTodayItem
	err := r.db.SelectContext(ctx, &items, query, lenderID, domain.DateOf(date))
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repaymentRepository) GetHistory(ctx context.Context, filter *domain.HistoryFilter, start, end time.Time) ([]*domain.HistoryEntry, error) {
	query := `
		SELECT l.borrower_id, b.name AS borrower_name, r.loan_id, r.amount_paid, r.paid_date, r.status
		FROM repayments r
		JOIN loans l ON l.id = r.loan_id
		JOIN borrowers b ON b.id = l.borrower_id
		WHERE l.lender_id = $1
		  AND r.paid_date IS NOT NULL
		  AND r.paid_date >= $2 AND r.paid_date < $3
	`
	args := []interface{}{filter.LenderID, start, end}

	if filter.MinAmount != nil {
		args = append(args, *filter.MinAmount)
		query += ` AND r.amount_paid >= $4`
	}
	if filter.MaxAmount != nil {
		args = append(args, *filter.MaxAmount)
		if filter.MinAmount != nil {
			query += ` AND r.amount_paid <= $5`
		} else {
			query += ` AND r.amount_paid <= $4`
		}
	}
	query += ` ORDER BY r.paid_date`

	var entries []*domain.HistoryEntry
	err := r.db.SelectContext(ctx, &entries, query, args...)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return entries, nil
}

func (r *repaymentRepository) GetByBorrower(ctx context.Context, borrowerID uuid.UUID) ([]*domain.Repayment, error) {
	query := `
		SELECT r.id, r.loan_id, r.due_date, r.expected_amount, r.amount_paid, r.paid_date, r.status, r.created_at
		FROM repayments r
		JOIN loans l ON l.id = r.loan_id
		WHERE l.borrower_id = $1
		ORDER BY r.due_date
	`

	var rows []*domain.Repayment
	err := r.db.SelectContext(ctx, &rows, query, borrowerID)
	if err != nil {
		return nil, err
	}

	return rows, nil
}
