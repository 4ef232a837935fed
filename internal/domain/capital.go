package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CapitalSnapshot is the lender's capital position on a given date. History
// is append-only keyed by (user_id, date); only today's row is ever
// upserted. TotalCapital is derived and recomputed on every write.
type CapitalSnapshot struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	UserID               string          `json:"user_id" db:"user_id"`
	Date                 time.Time       `json:"date" db:"date"`
	IdleCapital          decimal.Decimal `json:"idle_capital" db:"idle_capital"`
	PendingLoanAmount    decimal.Decimal `json:"pending_loan_amount" db:"pending_loan_amount"`
	TotalCapital         decimal.Decimal `json:"total_capital" db:"total_capital"`
	AmountCollectedToday decimal.Decimal `json:"amount_collected_today" db:"amount_collected_today"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// Recalculate restores the derived total after any mutation.
func (s *CapitalSnapshot) Recalculate() {
	s.TotalCapital = s.IdleCapital.Add(s.PendingLoanAmount)
}

type InitializeCapitalRequest struct {
	IdleCapital decimal.Decimal `json:"idle_capital" validate:"required"`
}

type AdjustCapitalRequest struct {
	Delta decimal.Decimal `json:"delta" validate:"required"`
}
