package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/thandalhq/thandal-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan, schedule []*domain.Repayment, idleDelta decimal.Decimal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	loanQuery := `
		INSERT INTO loans (id, lender_id, borrower_id, principal_amount, upfront_deduction, daily_amount, pending_amount, issued_at, due_date, days_to_repay, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = tx.ExecContext(ctx, loanQuery,
		loan.ID,
		loan.LenderID,
		loan.BorrowerID,
		loan.PrincipalAmount,
		loan.UpfrontDeduction,
		loan.DailyAmount,
		loan.PendingAmount,
		loan.IssuedAt,
		loan.DueDate,
		loan.DaysToRepay,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowQuery := `
		INSERT INTO repayments (id, loan_id, due_date, expected_amount, amount_paid, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, row := range schedule {
		_, err = tx.ExecContext(ctx, rowQuery,
			row.ID,
			row.LoanID,
			row.DueDate,
			row.ExpectedAmount,
			row.AmountPaid,
			row.Status,
			row.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	// The disbursed cash leaves idle capital in the same transaction, so a
	// failed snapshot write rolls the loan back too.
	if _, err = upsertSnapshot(ctx, tx, loan.LenderID, domain.DateOf(loan.IssuedAt), idleDelta); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT id, lender_id, borrower_id, principal_amount, upfront_deduction, daily_amount, pending_amount, issued_at, due_date, days_to_repay, status, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, id)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdatePending(ctx context.Context, id uuid.UUID, pending decimal.Decimal, status string) error {
	query := `
		UPDATE loans
		SET pending_amount = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, pending, status, time.Now())
	return err
}

func (r *loanRepository) ListActiveByLender(ctx context.Context, lenderID string) ([]*domain.Loan, error) {
	query := `
		SELECT id, lender_id, borrower_id, principal_amount, upfront_deduction, daily_amount, pending_amount, issued_at, due_date, days_to_repay, status, created_at, updated_at
		FROM loans
		WHERE lender_id = $1 AND status = 'active'
		ORDER BY issued_at
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, lenderID)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) CountDefaultedByBorrower(ctx context.Context, borrowerID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM loans
		WHERE borrower_id = $1 AND status = 'defaulted'
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, borrowerID)
	return count, err
}

func (r *loanRepository) SumPendingByLender(ctx context.Context, lenderID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(pending_amount), 0)
		FROM loans
		WHERE lender_id = $1 AND status = 'active'
	`

	var sum decimal.Decimal
	err := r.db.GetContext(ctx, &sum, query, lenderID)
	return sum, err
}

func (r *loanRepository) ListLendersWithActiveLoans(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT lender_id
		FROM loans
		WHERE status = 'active'
		ORDER BY lender_id
	`

	var lenders []string
	err := r.db.SelectContext(ctx, &lenders, query)
	if err != nil {
		return nil, err
	}

	return lenders, nil
}
