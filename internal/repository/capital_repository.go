package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/thandalhq/thandal-engine/internal/domain"
)

type capitalRepository struct {
	db *sqlx.DB
}

func NewCapitalRepository(db *sqlx.DB) CapitalRepository {
	return &capitalRepository{db: db}
}

const snapshotColumns = `id, user_id, date, idle_capital, pending_loan_amount, total_capital, amount_collected_today, created_at`

func (r *capitalRepository) GetLatest(ctx context.Context, userID string, date time.Time) (*domain.CapitalSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM capital_snapshots
		WHERE user_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`

	var snapshot domain.CapitalSnapshot
	err := r.db.GetContext(ctx, &snapshot, query, userID, domain.DateOf(date))
	if err != nil {
		return nil, err
	}

	return &snapshot, nil
}

func (r *capitalRepository) Initialize(ctx context.Context, snapshot *domain.CapitalSnapshot) error {
	query := `
		INSERT INTO capital_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.UserID,
		snapshot.Date,
		snapshot.IdleCapital,
		snapshot.PendingLoanAmount,
		snapshot.TotalCapital,
		snapshot.AmountCollectedToday,
		snapshot.CreatedAt,
	)

	return err
}

func (r *capitalRepository) HasAny(ctx context.Context, userID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM capital_snapshots WHERE user_id = $1`, userID)
	return count > 0, err
}

// ApplyMovement rolls the latest snapshot forward to date with an
// idle-capital delta (zero for a pure refresh after a payment).
func (r *capitalRepository) ApplyMovement(ctx context.Context, userID string, date time.Time, idleDelta decimal.Decimal) (*domain.CapitalSnapshot, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snapshot, err := upsertSnapshot(ctx, tx, userID, domain.DateOf(date), idleDelta)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// CloseDay marks every unresolved row due on or before date as missed and
// refreshes the day's capital snapshot, all in one transaction. Missed rows
// apply no amount and leave the loan's pending balance untouched; the
// obligation surfaces in risk scoring instead. Running CloseDay twice on the
// same day finds nothing left unpaid and re-derives the same snapshot.
func (r *capitalRepository) CloseDay(ctx context.Context, userID string, date time.Time) (*domain.CloseDayResult, error) {
	day := domain.DateOf(date)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	missQuery := `
		UPDATE repayments r
		SET status = 'missed'
		FROM loans l
		WHERE l.id = r.loan_id
		  AND l.lender_id = $1
		  AND r.status = 'unpaid'
		  AND r.due_date <= $2
	`

	res, err := tx.ExecContext(ctx, missQuery, userID, day)
	if err != nil {
		return nil, err
	}
	missed, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	snapshot, err := upsertSnapshot(ctx, tx, userID, day, decimal.Zero)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.CloseDayResult{
		MissedCount:    int(missed),
		CollectedTotal: snapshot.AmountCollectedToday,
	}, nil
}

// upsertSnapshot writes the (user, day) snapshot inside tx. Derived figures
// are always recomputed rather than tracked incrementally: the pending
// aggregate is summed from active loans and the day's collections from rows
// paid on the day. Idle capital absorbs idleDelta plus only the change in
// collections against what today's row already recorded, which keeps repeat
// calls idempotent.
func upsertSnapshot(ctx context.Context, tx *sqlx.Tx, userID string, day time.Time, idleDelta decimal.Decimal) (*domain.CapitalSnapshot, error) {
	var pending decimal.Decimal
	pendingQuery := `SELECT COALESCE(SUM(pending_amount), 0) FROM loans WHERE lender_id = $1 AND status = 'active'`
	if err := tx.GetContext(ctx, &pending, pendingQuery, userID); err != nil {
		return nil, err
	}

	var collected decimal.Decimal
	collectedQuery := `
		SELECT COALESCE(SUM(r.amount_paid), 0)
		FROM repayments r
		JOIN loans l ON l.id = r.loan_id
		WHERE l.lender_id = $1
		  AND r.paid_date >= $2 AND r.paid_date < $3
	`
	if err := tx.GetContext(ctx, &collected, collectedQuery, userID, day, day.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}

	var base domain.CapitalSnapshot
	baseQuery := `
		SELECT ` + snapshotColumns + `
		FROM capital_snapshots
		WHERE user_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
		FOR UPDATE
	`
	err := tx.GetContext(ctx, &base, baseQuery, userID, day)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	alreadyRecorded := decimal.Zero
	if domain.DateOf(base.Date).Equal(day) {
		alreadyRecorded = base.AmountCollectedToday
	}

	snapshot := &domain.CapitalSnapshot{
		ID:                   uuid.New(),
		UserID:               userID,
		Date:                 day,
		IdleCapital:          base.IdleCapital.Add(idleDelta).Add(collected.Sub(alreadyRecorded)),
		PendingLoanAmount:    pending,
		AmountCollectedToday: collected,
		CreatedAt:            time.Now(),
	}
	snapshot.Recalculate()

	upsert := `
		INSERT INTO capital_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, date) DO UPDATE
		SET idle_capital = EXCLUDED.idle_capital,
		    pending_loan_amount = EXCLUDED.pending_loan_amount,
		    total_capital = EXCLUDED.total_capital,
		    amount_collected_today = EXCLUDED.amount_collected_today
	`

	_, err = tx.ExecContext(ctx, upsert,
		snapshot.ID,
		snapshot.UserID,
		snapshot.Date,
		snapshot.IdleCapital,
		snapshot.PendingLoanAmount,
		snapshot.TotalCapital,
		snapshot.AmountCollectedToday,
		snapshot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}
