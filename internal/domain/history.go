package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	HistoryFilter24h    = "24h"
	HistoryFilterWeek   = "week"
	HistoryFilterMonth  = "month"
	HistoryFilterCustom = "custom"
)

// HistoryFilter selects resolved repayments for the history view. Custom
// ranges require both bounds.
type HistoryFilter struct {
	LenderID  string
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

// HistoryEntry is one collected repayment joined with borrower context.
type HistoryEntry struct {
	BorrowerID   uuid.UUID       `json:"borrower_id" db:"borrower_id"`
	BorrowerName string          `json:"borrower_name" db:"borrower_name"`
	LoanID       uuid.UUID       `json:"loan_id" db:"loan_id"`
	AmountPaid   decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaidDate     time.Time       `json:"paid_date" db:"paid_date"`
	Status       string          `json:"status" db:"status"`
}

// GroupHistoryByDate buckets entries under their paid date (YYYY-MM-DD).
func GroupHistoryByDate(entries []*HistoryEntry) map[string][]*HistoryEntry {
	grouped := make(map[string][]*HistoryEntry, len(entries))
	for _, e := range entries {
		key := DateOf(e.PaidDate).Format("2006-01-02")
		grouped[key] = append(grouped[key], e)
	}
	return grouped
}
