package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// InitializeCapital records the lender's first capital snapshot. Rejected if
// any history already exists.
func (s *LedgerService) InitializeCapital(ctx context.Context, userID string, idleCapital decimal.Decimal) (*domain.CapitalSnapshot, error) {
	if idleCapital.IsNegative() {
		return nil, customError.WrapValidation("idle_capital must not be negative", customError.ErrInvalidLoanAmount)
	}

	exists, err := s.CapitalRepo.HasAny(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if exists {
		return nil, customError.WrapValidation("capital is already initialized", nil)
	}

	pending, err := s.LoanRepo.SumPendingByLender(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.Clock.Now()
	snapshot := &domain.CapitalSnapshot{
		ID:                   uuid.New(),
		UserID:               userID,
		Date:                 domain.DateOf(now),
		IdleCapital:          idleCapital,
		PendingLoanAmount:    pending,
		AmountCollectedToday: decimal.Zero,
		CreatedAt:            now,
	}
	snapshot.Recalculate()

	if err = s.CapitalRepo.Initialize(ctx, snapshot); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger().WithFields(logrus.Fields{
		"user_id":      userID,
		"idle_capital": idleCapital,
	}).Info("capital initialized")

	return snapshot, nil
}

// AdjustCapital applies a manual idle-capital movement (cash in or out).
func (s *LedgerService) AdjustCapital(ctx context.Context, userID string, delta decimal.Decimal) (*domain.CapitalSnapshot, error) {
	if delta.IsZero() {
		return nil, customError.WrapValidation("delta must not be zero", nil)
	}

	exists, err := s.CapitalRepo.HasAny(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !exists {
		return nil, customError.WrapCapitalNotInitialized(userID)
	}

	snapshot, err := s.CapitalRepo.ApplyMovement(ctx, userID, s.Clock.Now(), delta)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger().WithFields(logrus.Fields{
		"user_id": userID,
		"delta":   delta,
	}).Info("capital adjusted")

	return snapshot, nil
}

// GetCapital returns the lender's current position: the latest snapshot with
// the pending aggregate re-derived from active loans so reads never show
// drift.
func (s *LedgerService) GetCapital(ctx context.Context, userID string) (*domain.CapitalSnapshot, error) {
	snapshot, err := s.CapitalRepo.GetLatest(ctx, userID, s.Clock.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapCapitalNotInitialized(userID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	pending, err := s.LoanRepo.SumPendingByLender(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	snapshot.PendingLoanAmount = pending
	snapshot.Recalculate()

	return snapshot, nil
}
