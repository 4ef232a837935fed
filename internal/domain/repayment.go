package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repayment status values. A row starts unpaid and transitions exactly once,
// either through payment classification or the day-close sweep.
const (
	RepaymentStatusUnpaid         = "unpaid"
	RepaymentStatusPaid           = "paid"
	RepaymentStatusMissed         = "missed"
	RepaymentStatusPaidLate       = "paid_late"
	RepaymentStatusPaidInAdvance  = "paid_in_advance"
	RepaymentStatusPaidPartial    = "paid_partial"
	RepaymentStatusPartialLate    = "paid_partial_late"
	RepaymentStatusPartialAdvance = "paid_partial_advance"
)

// Repayment is one scheduled installment. (LoanID, DueDate) is unique.
type Repayment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	LoanID         uuid.UUID       `json:"loan_id" db:"loan_id"`
	DueDate        time.Time       `json:"due_date" db:"due_date"`
	ExpectedAmount decimal.Decimal `json:"expected_amount" db:"expected_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaidDate       *time.Time      `json:"paid_date,omitempty" db:"paid_date"`
	Status         string          `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// IsTerminal reports whether the row can no longer be mutated.
func (r *Repayment) IsTerminal() bool {
	return r.Status != RepaymentStatusUnpaid
}

// IsPaidStatus reports whether status belongs to the paid family, i.e. some
// amount was credited toward the loan's pending balance.
func IsPaidStatus(status string) bool {
	switch status {
	case RepaymentStatusPaid, RepaymentStatusPaidLate, RepaymentStatusPaidInAdvance,
		RepaymentStatusPaidPartial, RepaymentStatusPartialLate, RepaymentStatusPartialAdvance:
		return true
	}
	return false
}

// IsLateStatus reports whether status belongs to the late family.
func IsLateStatus(status string) bool {
	return status == RepaymentStatusPaidLate || status == RepaymentStatusPartialLate
}

// DueTodayItem is a repayment joined with loan and borrower context for the
// lender's daily collection view.
type DueTodayItem struct {
	RepaymentID    uuid.UUID       `json:"repayment_id" db:"repayment_id"`
	LoanID         uuid.UUID       `json:"loan_id" db:"loan_id"`
	BorrowerID     uuid.UUID       `json:"borrower_id" db:"borrower_id"`
	BorrowerName   string          `json:"borrower_name" db:"borrower_name"`
	DueDate        time.Time       `json:"due_date" db:"due_date"`
	ExpectedAmount decimal.Decimal `json:"expected_amount" db:"expected_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount" db:"pending_amount"`
}
