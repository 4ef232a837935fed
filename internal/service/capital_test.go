package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

func TestInitializeCapital(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	mocks.capital.On("HasAny", mock.Anything, "lender-1").Return(false, nil)
	mocks.loans.On("SumPendingByLender", mock.Anything, "lender-1").Return(decimal.Zero, nil)
	mocks.capital.On("Initialize", mock.Anything, mock.MatchedBy(func(s *domain.CapitalSnapshot) bool {
		return s.UserID == "lender-1" &&
			s.IdleCapital.Equal(decimal.NewFromInt(100000)) &&
			s.TotalCapital.Equal(decimal.NewFromInt(100000))
	})).Return(nil)

	snapshot, err := svc.InitializeCapital(context.Background(), "lender-1", decimal.NewFromInt(100000))

	require.NoError(t, err)
	assert.True(t, snapshot.TotalCapital.Equal(snapshot.IdleCapital.Add(snapshot.PendingLoanAmount)))
	mocks.capital.AssertExpectations(t)
}

func TestInitializeCapital_AlreadyInitialized(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	mocks.capital.On("HasAny", mock.Anything, "lender-1").Return(true, nil)

	_, err := svc.InitializeCapital(context.Background(), "lender-1", decimal.NewFromInt(100000))

	assert.True(t, customError.IsValidation(err))
}

func TestAdjustCapital(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	snapshot := &domain.CapitalSnapshot{UserID: "lender-1"}
	mocks.capital.On("HasAny", mock.Anything, "lender-1").Return(true, nil)
	mocks.capital.On("ApplyMovement", mock.Anything, "lender-1", now, decimalEq(-2000)).
		Return(snapshot, nil)

	result, err := svc.AdjustCapital(context.Background(), "lender-1", decimal.NewFromInt(-2000))

	require.NoError(t, err)
	assert.Equal(t, snapshot, result)
}

func TestAdjustCapital_NotInitialized(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	mocks.capital.On("HasAny", mock.Anything, "lender-1").Return(false, nil)

	_, err := svc.AdjustCapital(context.Background(), "lender-1", decimal.NewFromInt(500))

	assert.ErrorIs(t, err, customError.ErrCapitalNotInitialized)
}

// Reads re-derive the pending aggregate from active loans so a stale
// snapshot can never show drift.
func TestGetCapital_RecomputesPendingAggregate(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	stale := &domain.CapitalSnapshot{
		UserID:            "lender-1",
		IdleCapital:       decimal.NewFromInt(60000),
		PendingLoanAmount: decimal.NewFromInt(99999),
	}
	mocks.capital.On("GetLatest", mock.Anything, "lender-1", now).Return(stale, nil)
	mocks.loans.On("SumPendingByLender", mock.Anything, "lender-1").Return(decimal.NewFromInt(40000), nil)

	snapshot, err := svc.GetCapital(context.Background(), "lender-1")

	require.NoError(t, err)
	assert.True(t, snapshot.PendingLoanAmount.Equal(decimal.NewFromInt(40000)))
	assert.True(t, snapshot.TotalCapital.Equal(decimal.NewFromInt(100000)))
}

func TestGetCapital_NotInitialized(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	mocks.capital.On("GetLatest", mock.Anything, "lender-1", now).Return(nil, sql.ErrNoRows)

	_, err := svc.GetCapital(context.Background(), "lender-1")

	assert.ErrorIs(t, err, customError.ErrCapitalNotInitialized)
}
