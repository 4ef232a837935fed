package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusClosed    = "closed"
	LoanStatusDefaulted = "defaulted"
)

// Loan represents a thandal loan: principal disbursed minus an upfront
// deduction, repaid in fixed daily installments on the selected weekdays.
// PendingAmount is the running outstanding principal and never leaves the
// range [0, PrincipalAmount].
type Loan struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	LenderID         string          `json:"lender_id" db:"lender_id"`
	BorrowerID       uuid.UUID       `json:"borrower_id" db:"borrower_id"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	UpfrontDeduction decimal.Decimal `json:"upfront_deduction" db:"upfront_deduction"`
	DailyAmount      decimal.Decimal `json:"daily_amount" db:"daily_amount"`
	PendingAmount    decimal.Decimal `json:"pending_amount" db:"pending_amount"`
	IssuedAt         time.Time       `json:"issued_at" db:"issued_at"`
	DueDate          time.Time       `json:"due_date" db:"due_date"`
	DaysToRepay      Weekdays        `json:"days_to_repay" db:"days_to_repay"`
	Status           string          `json:"status" db:"status"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Borrower carries the minimum the ledger needs for display joins. Profile
// management lives outside this service.
type Borrower struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LenderID  string    `json:"lender_id" db:"lender_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type IssueLoanRequest struct {
	BorrowerID       uuid.UUID       `json:"borrower_id" validate:"required"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount" validate:"required"`
	UpfrontDeduction decimal.Decimal `json:"upfront_deduction"`
	DailyAmount      decimal.Decimal `json:"daily_amount" validate:"required"`
	DaysToRepay      []string        `json:"days_to_repay" validate:"required,min=1,max=7"`
}

type IssueLoanResponse struct {
	Loan     *Loan        `json:"loan"`
	Schedule []*Repayment `json:"schedule"`
}

type RecordPaymentRequest struct {
	LoanID         uuid.UUID       `json:"loan_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

type LoanDetails struct {
	Loan          *Loan                  `json:"loan"`
	StatusCounts  map[string]int         `json:"status_counts"`
	DatesByStatus map[string][]time.Time `json:"dates_by_status"`
}

type CloseDayResult struct {
	MissedCount    int             `json:"missed_count"`
	CollectedTotal decimal.Decimal `json:"collected_total"`
}
