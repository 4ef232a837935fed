package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// IssueLoan creates a loan, generates its full repayment schedule in the
// same transaction, and moves the disbursed cash out of the lender's idle
// capital. Disbursed cash is principal minus the upfront deduction; the
// deduction is realized profit and stays in the idle pool.
func (s *LedgerService) IssueLoan(ctx context.Context, lenderID string, request *domain.IssueLoanRequest) (*domain.IssueLoanResponse, error) {
	if !request.PrincipalAmount.IsPositive() {
		return nil, customError.WrapValidation("principal_amount must be greater than zero", customError.ErrInvalidLoanAmount)
	}
	if !request.DailyAmount.IsPositive() {
		return nil, customError.WrapValidation("daily_amount must be greater than zero", customError.ErrInvalidLoanAmount)
	}
	if request.UpfrontDeduction.IsNegative() || request.UpfrontDeduction.GreaterThanOrEqual(request.PrincipalAmount) {
		return nil, customError.WrapValidation("upfront_deduction must be non-negative and less than principal_amount", customError.ErrInvalidLoanAmount)
	}

	days, err := domain.ParseWeekdays(request.DaysToRepay)
	if err != nil {
		return nil, customError.WrapValidation(err.Error(), customError.ErrEmptyWeekdaySet)
	}

	borrower, err := s.BorrowerRepo.GetByID(ctx, request.BorrowerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapBorrowerNotFound(request.BorrowerID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if borrower.LenderID != lenderID {
		return nil, customError.WrapBorrowerNotFound(request.BorrowerID.String())
	}

	now := s.Clock.Now()
	issuedAt := domain.DateOf(now)

	entries, err := domain.GenerateSchedule(issuedAt, request.PrincipalAmount, request.DailyAmount, days)
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ID:               uuid.New(),
		LenderID:         lenderID,
		BorrowerID:       request.BorrowerID,
		PrincipalAmount:  request.PrincipalAmount,
		UpfrontDeduction: request.UpfrontDeduction,
		DailyAmount:      request.DailyAmount,
		PendingAmount:    request.PrincipalAmount,
		IssuedAt:         issuedAt,
		DueDate:          entries[len(entries)-1].DueDate,
		DaysToRepay:      days,
		Status:           domain.LoanStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	schedule := make([]*domain.Repayment, 0, len(entries))
	for _, entry := range entries {
		schedule = append(schedule, &domain.Repayment{
			ID:             uuid.New(),
			LoanID:         loan.ID,
			DueDate:        entry.DueDate,
			ExpectedAmount: entry.Amount,
			Status:         domain.RepaymentStatusUnpaid,
			CreatedAt:      now,
		})
	}

	// Loan, schedule, and the capital debit commit together.
	disbursed := request.PrincipalAmount.Sub(request.UpfrontDeduction)
	if err = s.LoanRepo.Create(ctx, loan, schedule, disbursed.Neg()); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger().WithFields(logrus.Fields{
		"lender_id":    lenderID,
		"loan_id":      loan.ID,
		"borrower_id":  loan.BorrowerID,
		"principal":    loan.PrincipalAmount,
		"disbursed":    disbursed,
		"installments": len(schedule),
		"due_date":     loan.DueDate.Format("2006-01-02"),
	}).Info("loan issued")

	return &domain.IssueLoanResponse{Loan: loan, Schedule: schedule}, nil
}

// GetLoanDetails returns the loan with per-status counts and due dates
// grouped by status.
func (s *LedgerService) GetLoanDetails(ctx context.Context, lenderID string, loanID uuid.UUID) (*domain.LoanDetails, error) {
	loan, err := s.getLenderLoan(ctx, lenderID, loanID)
	if err != nil {
		return nil, err
	}

	rows, err := s.RepaymentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	counts := make(map[string]int, 8)
	dates := make(map[string][]time.Time, 8)
	for _, row := range rows {
		counts[row.Status]++
		dates[row.Status] = append(dates[row.Status], row.DueDate)
	}

	return &domain.LoanDetails{
		Loan:          loan,
		StatusCounts:  counts,
		DatesByStatus: dates,
	}, nil
}

// getLenderLoan fetches a loan and hides other lenders' loans behind
// not-found.
func (s *LedgerService) getLenderLoan(ctx context.Context, lenderID string, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if loan.LenderID != lenderID {
		return nil, customError.WrapLoanNotFound(loanID.String())
	}
	return loan, nil
}
