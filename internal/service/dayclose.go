package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// CloseDay finalizes the lender's calendar day: every installment still
// unpaid with a due date on or before today becomes missed, and the day's
// collections fold into the capital snapshot. The sweep and the capital
// update run as one transaction and the whole operation is idempotent per
// day, so the cron trigger and a manual trigger can overlap safely.
func (s *LedgerService) CloseDay(ctx context.Context, lenderID string) (*domain.CloseDayResult, error) {
	today := s.Clock.Now()

	result, err := s.CapitalRepo.CloseDay(ctx, lenderID, today)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger().WithFields(logrus.Fields{
		"lender_id": lenderID,
		"date":      domain.DateOf(today).Format("2006-01-02"),
		"missed":    result.MissedCount,
		"collected": result.CollectedTotal,
	}).Info("day closed")

	return result, nil
}
