package service

import (
	"context"
	"time"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// GetRepaymentHistory returns collected repayments grouped by paid date.
// Relative filters are anchored on the injected clock; a custom range
// requires both bounds.
func (s *LedgerService) GetRepaymentHistory(ctx context.Context, filter *domain.HistoryFilter) (map[string][]*domain.HistoryEntry, error) {
	start, end, err := s.resolveRange(filter)
	if err != nil {
		return nil, err
	}

	entries, err := s.RepaymentRepo.GetHistory(ctx, filter, start, end)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return domain.GroupHistoryByDate(entries), nil
}

func (s *LedgerService) resolveRange(filter *domain.HistoryFilter) (time.Time, time.Time, error) {
	now := s.Clock.Now()

	switch filter.Type {
	case domain.HistoryFilter24h:
		return now.Add(-24 * time.Hour), now, nil
	case domain.HistoryFilterWeek:
		return now.AddDate(0, 0, -7), now, nil
	case domain.HistoryFilterMonth:
		return now.AddDate(0, -1, 0), now, nil
	case domain.HistoryFilterCustom:
		if filter.StartDate == nil || filter.EndDate == nil {
			return time.Time{}, time.Time{}, customError.WrapValidation("custom range requires both start_date and end_date", customError.ErrInvalidDateRange)
		}
		if filter.EndDate.Before(*filter.StartDate) {
			return time.Time{}, time.Time{}, customError.WrapValidation("end_date must not precede start_date", customError.ErrInvalidDateRange)
		}
		// End bound is exclusive; extend to cover the whole end date.
		return domain.DateOf(*filter.StartDate), domain.DateOf(*filter.EndDate).AddDate(0, 0, 1), nil
	default:
		return time.Time{}, time.Time{}, customError.WrapValidation("filter_type must be one of 24h, week, month, custom", nil)
	}
}
