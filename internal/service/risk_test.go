package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thandalhq/thandal-engine/internal/domain"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

func TestGetRiskAssessment(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	lenderID := "lender-1"
	borrowerID := uuid.New()
	due := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	mocks.borrowers.On("GetByID", mock.Anything, borrowerID).
		Return(&domain.Borrower{ID: borrowerID, LenderID: lenderID, Name: "Kumar"}, nil)
	mocks.repayments.On("GetByBorrower", mock.Anything, borrowerID).
		Return([]*domain.Repayment{
			{DueDate: due, PaidDate: &due, Status: domain.RepaymentStatusPaid},
			{DueDate: due.AddDate(0, 0, 1), Status: domain.RepaymentStatusMissed},
			{DueDate: due.AddDate(0, 0, 30), Status: domain.RepaymentStatusUnpaid},
		}, nil)
	mocks.loans.On("CountDefaultedByBorrower", mock.Anything, borrowerID).Return(0, nil)

	assessment, err := svc.GetRiskAssessment(context.Background(), lenderID, borrowerID)

	require.NoError(t, err)
	assert.Equal(t, borrowerID, assessment.BorrowerID)
	assert.Equal(t, 3, assessment.TotalRepayments)
	// 1 paid out of 2 resolved: 50% rate, score 50 lands in the medium band
	// with the configured cutoffs (low >= 70, medium >= 40).
	assert.InDelta(t, 0.5, assessment.RepaymentRate, 0.0001)
	assert.Equal(t, domain.RiskLevelMedium, assessment.RiskLevel)
}

func TestGetRiskAssessment_BorrowerNotFound(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	borrowerID := uuid.New()
	mocks.borrowers.On("GetByID", mock.Anything, borrowerID).Return(nil, sql.ErrNoRows)

	_, err := svc.GetRiskAssessment(context.Background(), "lender-1", borrowerID)

	assert.ErrorIs(t, err, customError.ErrBorrowerNotFound)
}

func TestGetRiskAssessment_OtherLendersBorrowerIsHidden(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	svc, mocks := newTestService(now)

	borrowerID := uuid.New()
	mocks.borrowers.On("GetByID", mock.Anything, borrowerID).
		Return(&domain.Borrower{ID: borrowerID, LenderID: "someone-else"}, nil)

	_, err := svc.GetRiskAssessment(context.Background(), "lender-1", borrowerID)

	assert.ErrorIs(t, err, customError.ErrBorrowerNotFound)
}
