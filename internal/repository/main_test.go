package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/thandalhq/thandal-engine/internal/domain"
)

var testDB *sqlx.DB

// Tests in this package run against a real postgres database named by
// TEST_DATABASE_URL. The schema is rebuilt from migrations on every run;
// point it at a disposable database.
func TestMain(m *testing.M) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		fmt.Println("TEST_DATABASE_URL not set; skipping repository tests")
		os.Exit(0)
	}

	var err error
	testDB, err = sqlx.Connect("postgres", url)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err := rebuildSchema(testDB); err != nil {
		panic(fmt.Sprintf("Failed to initialize database schema: %v", err))
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func rebuildSchema(db *sqlx.DB) error {
	if _, err := db.Exec(`DROP TABLE IF EXISTS capital_snapshots, repayments, loans, borrowers CASCADE`); err != nil {
		return err
	}

	schema, err := os.ReadFile("../../migrations/0001_init.sql")
	if err != nil {
		return err
	}

	_, err = db.Exec(string(schema))
	return err
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(`TRUNCATE capital_snapshots, repayments, loans, borrowers CASCADE`)
	require.NoError(t, err)
}

func seedBorrower(t *testing.T, lenderID string) *domain.Borrower {
	t.Helper()
	borrower := &domain.Borrower{
		ID:        uuid.New(),
		LenderID:  lenderID,
		Name:      "Kumar",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, NewBorrowerRepository(testDB).Create(context.Background(), borrower))
	return borrower
}

func seedCapital(t *testing.T, lenderID string, date time.Time, idle int64) {
	t.Helper()
	snapshot := &domain.CapitalSnapshot{
		ID:                   uuid.New(),
		UserID:               lenderID,
		Date:                 date,
		IdleCapital:          decimal.NewFromInt(idle),
		PendingLoanAmount:    decimal.Zero,
		AmountCollectedToday: decimal.Zero,
		CreatedAt:            time.Now().UTC(),
	}
	snapshot.Recalculate()
	require.NoError(t, NewCapitalRepository(testDB).Initialize(context.Background(), snapshot))
}

// seedLoan creates an active loan with one 500-installment row per due date,
// debiting the disbursed cash from the lender's snapshot.
func seedLoan(t *testing.T, lenderID string, borrowerID uuid.UUID, principal int64, issuedAt time.Time, disbursed int64, dueDates ...time.Time) (*domain.Loan, []*domain.Repayment) {
	t.Helper()

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:               uuid.New(),
		LenderID:         lenderID,
		BorrowerID:       borrowerID,
		PrincipalAmount:  decimal.NewFromInt(principal),
		UpfrontDeduction: decimal.NewFromInt(principal - disbursed),
		DailyAmount:      decimal.NewFromInt(500),
		PendingAmount:    decimal.NewFromInt(principal),
		IssuedAt:         issuedAt,
		DueDate:          dueDates[len(dueDates)-1],
		DaysToRepay:      domain.Weekdays{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
		Status:           domain.LoanStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	schedule := make([]*domain.Repayment, 0, len(dueDates))
	for _, due := range dueDates {
		schedule = append(schedule, &domain.Repayment{
			ID:             uuid.New(),
			LoanID:         loan.ID,
			DueDate:        due,
			ExpectedAmount: decimal.NewFromInt(500),
			Status:         domain.RepaymentStatusUnpaid,
			CreatedAt:      now,
		})
	}

	err := NewLoanRepository(testDB).Create(context.Background(), loan, schedule, decimal.NewFromInt(disbursed).Neg())
	require.NoError(t, err)

	return loan, schedule
}
