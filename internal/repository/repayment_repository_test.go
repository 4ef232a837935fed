package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

func TestRepaymentRepository_ResolveAndApply_CommitsRowLoanAndSnapshot(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	lenderID := "lender-resolve"
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	seedCapital(t, lenderID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 10000)
	borrower := seedBorrower(t, lenderID)
	loan, schedule := seedLoan(t, lenderID, borrower.ID, 1000,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 1000,
		day, day.AddDate(0, 0, 1),
	)

	repaymentRepo := NewRepaymentRepository(testDB)
	loanRepo := NewLoanRepository(testDB)
	capitalRepo := NewCapitalRepository(testDB)

	paidAt := day.Add(11 * time.Hour)
	require.NoError(t, repaymentRepo.ResolveAndApply(ctx, &PaymentApplication{
		RepaymentID:  schedule[0].ID,
		LoanID:       loan.ID,
		LenderID:     lenderID,
		Status:       domain.RepaymentStatusPaid,
		AmountPaid:   decimal.NewFromInt(500),
		PaidAt:       paidAt,
		NewPending:   decimal.NewFromInt(500),
		LoanStatus:   domain.LoanStatusActive,
		SnapshotDate: day,
	}))

	// One call made all three writes visible together.
	rows, err := repaymentRepo.GetByLoanID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RepaymentStatusPaid, rows[0].Status)
	require.NotNil(t, rows[0].PaidDate)
	assert.True(t, rows[0].AmountPaid.Equal(decimal.NewFromInt(500)))

	reloaded, err := loanRepo.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.PendingAmount.Equal(decimal.NewFromInt(500)))

	snapshot, err := capitalRepo.GetLatest(ctx, lenderID, day)
	require.NoError(t, err)
	assert.True(t, snapshot.IdleCapital.Equal(decimal.NewFromInt(9500)))
	assert.True(t, snapshot.AmountCollectedToday.Equal(decimal.NewFromInt(500)))
}

func TestRepaymentRepository_ResolveAndApply_ReplayIsRejected(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	lenderID := "lender-replay"
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	seedCapital(t, lenderID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 10000)
	borrower := seedBorrower(t, lenderID)
	loan, schedule := seedLoan(t, lenderID, borrower.ID, 1000,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 1000,
		day,
	)

	repaymentRepo := NewRepaymentRepository(testDB)
	loanRepo := NewLoanRepository(testDB)

	app := &PaymentApplication{
		RepaymentID:  schedule[0].ID,
		LoanID:       loan.ID,
		LenderID:     lenderID,
		Status:       domain.RepaymentStatusPaid,
		AmountPaid:   decimal.NewFromInt(500),
		PaidAt:       day.Add(11 * time.Hour),
		NewPending:   decimal.NewFromInt(500),
		LoanStatus:   domain.LoanStatusActive,
		SnapshotDate: day,
	}
	require.NoError(t, repaymentRepo.ResolveAndApply(ctx, app))

	// The guard on status = 'unpaid' turns a second resolution into a
	// conflict and rolls back the attempted loan update.
	replay := *app
	replay.NewPending = decimal.Zero
	replay.LoanStatus = domain.LoanStatusClosed

	err := repaymentRepo.ResolveAndApply(ctx, &replay)
	assert.ErrorIs(t, err, customError.ErrRepaymentAlreadyResolved)

	reloaded, err := loanRepo.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.PendingAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, domain.LoanStatusActive, reloaded.Status)
}
