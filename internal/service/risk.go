package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// GetRiskAssessment scores a borrower from their full repayment history.
// Read-only over the ledger; the result is cached briefly in redis and a
// cache failure degrades to recomputation.
func (s *LedgerService) GetRiskAssessment(ctx context.Context, lenderID string, borrowerID uuid.UUID) (*domain.RiskAssessment, error) {
	borrower, err := s.BorrowerRepo.GetByID(ctx, borrowerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapBorrowerNotFound(borrowerID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if borrower.LenderID != lenderID {
		return nil, customError.WrapBorrowerNotFound(borrowerID.String())
	}

	cacheKey := fmt.Sprintf("risk:%s", borrowerID)
	if cached := s.riskFromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	rows, err := s.RepaymentRepo.GetByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	defaulted, err := s.LoanRepo.CountDefaultedByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	assessment := domain.ScoreRisk(borrowerID, rows, defaulted, domain.RiskThresholds{
		LowMin:    s.config.Business.RiskLowMin,
		MediumMin: s.config.Business.RiskMediumMin,
	})

	s.riskToCache(ctx, cacheKey, assessment)

	return assessment, nil
}

func (s *LedgerService) riskFromCache(ctx context.Context, key string) *domain.RiskAssessment {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		s.logger().WithError(err).Warn("risk cache read failed")
		return nil
	}
	var assessment domain.RiskAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		return nil
	}
	return &assessment
}

func (s *LedgerService) riskToCache(ctx context.Context, key string, assessment *domain.RiskAssessment) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(assessment)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.config.Business.RiskCacheTTL).Err(); err != nil {
		s.logger().WithError(err).Warn("risk cache write failed")
	}
}
