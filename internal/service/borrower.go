package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// CreateBorrower registers a borrower under the lender. Profile management
// beyond the name lives outside this service; the ledger only needs an
// identity to attach loans to.
func (s *LedgerService) CreateBorrower(ctx context.Context, lenderID, name string) (*domain.Borrower, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, customError.WrapValidation("name is required", nil)
	}

	borrower := &domain.Borrower{
		ID:        uuid.New(),
		LenderID:  lenderID,
		Name:      name,
		CreatedAt: s.Clock.Now(),
	}

	if err := s.BorrowerRepo.Create(ctx, borrower); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return borrower, nil
}
