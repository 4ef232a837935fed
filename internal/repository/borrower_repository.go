package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thandalhq/thandal-engine/internal/domain"
)

type borrowerRepository struct {
	db *sqlx.DB
}

func NewBorrowerRepository(db *sqlx.DB) BorrowerRepository {
	return &borrowerRepository{db: db}
}

func (r *borrowerRepository) Create(ctx context.Context, borrower *domain.Borrower) error {
	query := `
		INSERT INTO borrowers (id, lender_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		borrower.ID,
		borrower.LenderID,
		borrower.Name,
		borrower.CreatedAt,
	)

	return err
}

func (r *borrowerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Borrower, error) {
	query := `
		SELECT id, lender_id, name, created_at
		FROM borrowers
		WHERE id = $1
	`

	var borrower domain.Borrower
	err := r.db.GetContext(ctx, &borrower, query, id)
	if err != nil {
		return nil, err
	}

	return &borrower, nil
}
