package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/thandalhq/thandal-engine/internal/domain"
	"github.com/thandalhq/thandal-engine/internal/repository"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// RecordPayment applies a payment against the loan's OLDEST unpaid
// installment. The caller names a loan, never a due date; obligations are
// settled strictly FIFO. Classification compares the payment date to the
// row's due date and the amount to the expected installment, then the row
// finalization and the loan balance update commit together.
//
// A client-supplied idempotency key makes retries safe: a replayed key is
// rejected before any state changes.
func (s *LedgerService) RecordPayment(ctx context.Context, lenderID string, request *domain.RecordPaymentRequest) (*domain.Repayment, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation("amount must be greater than zero", customError.ErrInvalidPaymentAmount)
	}

	if request.IdempotencyKey != "" {
		if err := s.claimIdempotencyKey(ctx, lenderID, request.IdempotencyKey); err != nil {
			return nil, err
		}
	}

	loan, err := s.getLenderLoan(ctx, lenderID, request.LoanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, customError.WrapLoanNotActive(loan.ID.String(), loan.Status)
	}

	row, err := s.RepaymentRepo.GetEarliestUnpaid(ctx, loan.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapNoOutstandingRepayments(loan.ID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	paidAt := s.Clock.Now()
	if request.PaidAt != nil {
		paidAt = *request.PaidAt
	}

	classification, err := domain.Classify(row, request.Amount, paidAt, loan.PendingAmount)
	if err != nil {
		return nil, err
	}

	newPending := loan.PendingAmount.Sub(classification.AmountApplied)
	if newPending.IsNegative() {
		newPending = decimal.Zero
	}
	loanStatus := loan.Status
	if newPending.IsZero() {
		loanStatus = domain.LoanStatusClosed
	}

	// Row finalization, loan balance, and the snapshot refresh commit in one
	// transaction; the snapshot tracks the payment without waiting for
	// day-close.
	err = s.RepaymentRepo.ResolveAndApply(ctx, &repository.PaymentApplication{
		RepaymentID:  row.ID,
		LoanID:       loan.ID,
		LenderID:     lenderID,
		Status:       classification.Status,
		AmountPaid:   classification.AmountApplied,
		PaidAt:       paidAt,
		NewPending:   newPending,
		LoanStatus:   loanStatus,
		SnapshotDate: s.Clock.Now(),
	})
	if errors.Is(err, customError.ErrRepaymentAlreadyResolved) {
		return nil, customError.WrapAlreadyResolved(loan.ID.String(), row.DueDate.Format("2006-01-02"))
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	row.Status = classification.Status
	row.AmountPaid = classification.AmountApplied
	row.PaidDate = &paidAt

	s.logger().WithFields(logrus.Fields{
		"lender_id":   lenderID,
		"loan_id":     loan.ID,
		"due_date":    row.DueDate.Format("2006-01-02"),
		"status":      classification.Status,
		"amount":      classification.AmountApplied,
		"new_pending": newPending,
	}).Info("payment recorded")

	return row, nil
}

// GetTodayDue lists the lender's unpaid installments due today with
// borrower context.
func (s *LedgerService) GetTodayDue(ctx context.Context, lenderID string) ([]*domain.DueTodayItem, error) {
	items, err := s.RepaymentRepo.GetDueToday(ctx, lenderID, s.Clock.Now())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}

// claimIdempotencyKey reserves the key in redis; a key seen before within
// the TTL means the payment was already submitted.
func (s *LedgerService) claimIdempotencyKey(ctx context.Context, lenderID, key string) error {
	if s.redis == nil {
		return nil
	}

	ttl := s.config.Business.IdempotencyKeyTTL
	redisKey := fmt.Sprintf("payment:idem:%s:%s", lenderID, key)

	ok, err := s.redis.SetNX(ctx, redisKey, 1, ttl).Result()
	if err != nil {
		return customError.WrapCacheError(err)
	}
	if !ok {
		return customError.WrapDuplicatePayment(key)
	}
	return nil
}
