package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/thandalhq/thandal-engine/internal/clock"
	"github.com/thandalhq/thandal-engine/internal/config"
	"github.com/thandalhq/thandal-engine/internal/domain"
	"github.com/thandalhq/thandal-engine/internal/repository"
)

type testMocks struct {
	loans      *MockLoanRepository
	repayments *MockRepaymentRepository
	capital    *MockCapitalRepository
	borrowers  *MockBorrowerRepository
}

// newTestService wires the service against mocks with a frozen clock and no
// redis.
func newTestService(now time.Time) (*LedgerService, *testMocks) {
	mocks := &testMocks{
		loans:      &MockLoanRepository{},
		repayments: &MockRepaymentRepository{},
		capital:    &MockCapitalRepository{},
		borrowers:  &MockBorrowerRepository{},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := &LedgerService{
		LoanRepo:      mocks.loans,
		RepaymentRepo: mocks.repayments,
		CapitalRepo:   mocks.capital,
		BorrowerRepo:  mocks.borrowers,
		Clock:         clock.Fixed{T: now},
		config: &config.Config{
			Business: config.BusinessConfig{
				RiskLowMin:        70,
				RiskMediumMin:     40,
				IdempotencyKeyTTL: 24 * time.Hour,
				RiskCacheTTL:      5 * time.Minute,
			},
		},
		log: log,
	}

	return svc, mocks
}

func decimalEq(expected int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(expected))
	})
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan, schedule []*domain.Repayment, idleDelta decimal.Decimal) error {
	args := m.Called(ctx, loan, schedule, idleDelta)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if loan, ok := args.Get(0).(*domain.Loan); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) UpdatePending(ctx context.Context, id uuid.UUID, pending decimal.Decimal, status string) error {
	args := m.Called(ctx, id, pending, status)
	return args.Error(0)
}

func (m *MockLoanRepository) ListActiveByLender(ctx context.Context, lenderID string) ([]*domain.Loan, error) {
	args := m.Called(ctx, lenderID)
	if loans, ok := args.Get(0).([]*domain.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) CountDefaultedByBorrower(ctx context.Context, borrowerID uuid.UUID) (int, error) {
	args := m.Called(ctx, borrowerID)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanRepository) SumPendingByLender(ctx context.Context, lenderID string) (decimal.Decimal, error) {
	args := m.Called(ctx, lenderID)
	if sum, ok := args.Get(0).(decimal.Decimal); ok {
		return sum, args.Error(1)
	}
	return decimal.Zero, args.Error(1)
}

func (m *MockLoanRepository) ListLendersWithActiveLoans(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if lenders, ok := args.Get(0).([]string); ok {
		return lenders, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockRepaymentRepository struct {
	mock.Mock
}

func (m *MockRepaymentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Repayment, error) {
	args := m.Called(ctx, loanID)
	if rows, ok := args.Get(0).([]*domain.Repayment); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepaymentRepository) GetEarliestUnpaid(ctx context.Context, loanID uuid.UUID) (*domain.Repayment, error) {
	args := m.Called(ctx, loanID)
	if row, ok := args.Get(0).(*domain.Repayment); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepaymentRepository) ResolveAndApply(ctx context.Context, app *repository.PaymentApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockRepaymentRepository) GetDueToday(ctx context.Context, lenderID string, date time.Time) ([]*domain.DueTodayItem, error) {
	args := m.Called(ctx, lenderID, date)
	if items, ok := args.Get(0).([]*domain.DueTodayItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepaymentRepository) GetHistory(ctx context.Context, filter *domain.HistoryFilter, start, end time.Time) ([]*domain.HistoryEntry, error) {
	args := m.Called(ctx, filter, start, end)
	if entries, ok := args.Get(0).([]*domain.HistoryEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepaymentRepository) GetByBorrower(ctx context.Context, borrowerID uuid.UUID) ([]*domain.Repayment, error) {
	args := m.Called(ctx, borrowerID)
	if rows, ok := args.Get(0).([]*domain.Repayment); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCapitalRepository struct {
	mock.Mock
}

func (m *MockCapitalRepository) GetLatest(ctx context.Context, userID string, date time.Time) (*domain.CapitalSnapshot, error) {
	args := m.Called(ctx, userID, date)
	if snapshot, ok := args.Get(0).(*domain.CapitalSnapshot); ok {
		return snapshot, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCapitalRepository) Initialize(ctx context.Context, snapshot *domain.CapitalSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockCapitalRepository) HasAny(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCapitalRepository) ApplyMovement(ctx context.Context, userID string, date time.Time, idleDelta decimal.Decimal) (*domain.CapitalSnapshot, error) {
	args := m.Called(ctx, userID, date, idleDelta)
	if snapshot, ok := args.Get(0).(*domain.CapitalSnapshot); ok {
		return snapshot, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCapitalRepository) CloseDay(ctx context.Context, userID string, date time.Time) (*domain.CloseDayResult, error) {
	args := m.Called(ctx, userID, date)
	if result, ok := args.Get(0).(*domain.CloseDayResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockBorrowerRepository struct {
	mock.Mock
}

func (m *MockBorrowerRepository) Create(ctx context.Context, borrower *domain.Borrower) error {
	args := m.Called(ctx, borrower)
	return args.Error(0)
}

func (m *MockBorrowerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Borrower, error) {
	args := m.Called(ctx, id)
	if borrower, ok := args.Get(0).(*domain.Borrower); ok {
		return borrower, args.Error(1)
	}
	return nil, args.Error(1)
}
