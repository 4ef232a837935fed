package domain

import (
	"time"

	"github.com/shopspring/decimal"

	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// ScheduleEntry is one generated due date with the installment owed on it.
type ScheduleEntry struct {
	DueDate time.Time
	Amount  decimal.Decimal
}

// DateOf truncates t to midnight in its own location. All due-date math in
// the engine compares at date granularity.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GenerateSchedule produces the ordered due dates for a loan.
//
// Policy: collection starts the day AFTER issuance. The walk advances one
// calendar day at a time; every day whose weekday is in days emits an
// installment of daily until the accumulated total reaches principal. The
// final installment is clipped to the remainder when principal does not
// divide evenly.
func GenerateSchedule(issuedAt time.Time, principal, daily decimal.Decimal, days Weekdays) ([]ScheduleEntry, error) {
	if len(days) == 0 {
		return nil, customError.WrapValidation("days_to_repay must select at least one weekday", customError.ErrEmptyWeekdaySet)
	}
	if !principal.IsPositive() {
		return nil, customError.WrapValidation("principal_amount must be greater than zero", customError.ErrInvalidLoanAmount)
	}
	if !daily.IsPositive() {
		return nil, customError.WrapValidation("daily_amount must be greater than zero", customError.ErrInvalidLoanAmount)
	}

	entries := make([]ScheduleEntry, 0, principal.Div(daily).Ceil().IntPart())
	remaining := principal
	current := DateOf(issuedAt)

	for remaining.IsPositive() {
		current = current.AddDate(0, 0, 1)
		if !days.Contains(current.Weekday()) {
			continue
		}
		amount := daily
		if remaining.LessThan(daily) {
			amount = remaining
		}
		entries = append(entries, ScheduleEntry{DueDate: current, Amount: amount})
		remaining = remaining.Sub(amount)
	}

	return entries, nil
}
