package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thandalhq/thandal-engine/internal/domain"
)

// PaymentApplication carries everything a payment commits atomically: the
// row finalization, the loan balance update, and the refresh of the day's
// capital snapshot.
type PaymentApplication struct {
	RepaymentID  uuid.UUID
	LoanID       uuid.UUID
	LenderID     string
	Status       string
	AmountPaid   decimal.Decimal
	PaidAt       time.Time
	NewPending   decimal.Decimal
	LoanStatus   string
	SnapshotDate time.Time
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create inserts the loan, its full repayment schedule, and the capital
	// movement for the disbursed cash (idleDelta, normally negative) in one
	// transaction.
	Create(ctx context.Context, loan *domain.Loan, schedule []*domain.Repayment, idleDelta decimal.Decimal) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// UpdatePending sets the loan's pending balance and status
	UpdatePending(ctx context.Context, id uuid.UUID, pending decimal.Decimal, status string) error

	// ListActiveByLender retrieves a lender's active loans
	ListActiveByLender(ctx context.Context, lenderID string) ([]*domain.Loan, error)

	// CountDefaultedByBorrower counts a borrower's defaulted loans
	CountDefaultedByBorrower(ctx context.Context, borrowerID uuid.UUID) (int, error)

	// SumPendingByLender recomputes the outstanding-principal aggregate
	// across the lender's active loans
	SumPendingByLender(ctx context.Context, lenderID string) (decimal.Decimal, error)

	// ListLendersWithActiveLoans retrieves the distinct lenders the
	// day-close sweep must visit
	ListLendersWithActiveLoans(ctx context.Context) ([]string, error)
}

// RepaymentRepository defines the interface for repayment ledger operations
type RepaymentRepository interface {
	// GetByLoanID retrieves all repayment rows for a loan ordered by due date
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Repayment, error)

	// GetEarliestUnpaid retrieves the oldest unpaid row for a loan.
	// Payments apply FIFO against outstanding due dates.
	GetEarliestUnpaid(ctx context.Context, loanID uuid.UUID) (*domain.Repayment, error)

	// ResolveAndApply finalizes a repayment row, applies the credited amount
	// to the loan, and refreshes the lender's capital snapshot in one
	// transaction. The row update is guarded on status = unpaid; zero rows
	// affected means the row was already resolved.
	ResolveAndApply(ctx context.Context, app *PaymentApplication) error

	// GetDueToday retrieves unpaid rows due on date across the lender's
	// active loans, joined with borrower context
	GetDueToday(ctx context.Context, lenderID string, date time.Time) ([]*domain.DueTodayItem, error)

	// GetHistory retrieves resolved paid-family rows within the filter's
	// date and amount bounds
	GetHistory(ctx context.Context, filter *domain.HistoryFilter, start, end time.Time) ([]*domain.HistoryEntry, error)

	// GetByBorrower retrieves all repayment rows across a borrower's loans
	GetByBorrower(ctx context.Context, borrowerID uuid.UUID) ([]*domain.Repayment, error)
}

// CapitalRepository defines the interface for capital snapshot operations
type CapitalRepository interface {
	// GetLatest retrieves the most recent snapshot on or before date
	GetLatest(ctx context.Context, userID string, date time.Time) (*domain.CapitalSnapshot, error)

	// Initialize creates the first snapshot for a user
	Initialize(ctx context.Context, snapshot *domain.CapitalSnapshot) error

	// HasAny reports whether the user has any snapshot history
	HasAny(ctx context.Context, userID string) (bool, error)

	// ApplyMovement upserts today's snapshot, moving idle capital by
	// idleDelta and recomputing the pending aggregate from active loans
	ApplyMovement(ctx context.Context, userID string, date time.Time, idleDelta decimal.Decimal) (*domain.CapitalSnapshot, error)

	// CloseDay performs the end-of-day sweep for a lender in a single
	// transaction: unresolved rows due on or before date become missed, the
	// day's collections fold into idle capital, and today's snapshot is
	// upserted. Idempotent per calendar day.
	CloseDay(ctx context.Context, userID string, date time.Time) (*domain.CloseDayResult, error)
}

// BorrowerRepository defines the interface for borrower lookups
type BorrowerRepository interface {
	// Create inserts a borrower
	Create(ctx context.Context, borrower *domain.Borrower) error

	// GetByID retrieves a borrower by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Borrower, error)
}
