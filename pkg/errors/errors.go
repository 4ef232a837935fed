package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound             = errors.New("loan not found")
	ErrBorrowerNotFound         = errors.New("borrower not found")
	ErrInvalidLoanAmount        = errors.New("invalid loan amount")
	ErrInvalidPaymentAmount     = errors.New("invalid payment amount")
	ErrEmptyWeekdaySet          = errors.New("at least one repayment weekday is required")
	ErrRepaymentAlreadyResolved = errors.New("repayment is already resolved")
	ErrNoOutstandingRepayments  = errors.New("loan has no outstanding repayments")
	ErrLoanNotActive            = errors.New("loan is not active")
	ErrDuplicatePayment         = errors.New("payment was already recorded")
	ErrInvalidDateRange         = errors.New("custom range requires both start and end dates")
	ErrCapitalNotInitialized    = errors.New("capital has not been initialized")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes. Validation codes map to 400 semantics, conflict codes to
// 404/409, the rest to 500.
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeLoanNotFound          = "LOAN_NOT_FOUND"
	ErrCodeBorrowerNotFound      = "BORROWER_NOT_FOUND"
	ErrCodeAlreadyResolved       = "REPAYMENT_ALREADY_RESOLVED"
	ErrCodeNoOutstanding         = "NO_OUTSTANDING_REPAYMENTS"
	ErrCodeLoanNotActive         = "LOAN_NOT_ACTIVE"
	ErrCodeDuplicatePayment      = "DUPLICATE_PAYMENT"
	ErrCodeCapitalNotInitialized = "CAPITAL_NOT_INITIALIZED"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeCacheError            = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapValidation(message string, err error) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, err)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapBorrowerNotFound(borrowerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBorrowerNotFound,
		fmt.Sprintf("Borrower with ID %s not found", borrowerID),
		ErrBorrowerNotFound,
	)
}

func WrapAlreadyResolved(loanID, dueDate string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyResolved,
		fmt.Sprintf("Repayment for loan %s due %s is already resolved", loanID, dueDate),
		ErrRepaymentAlreadyResolved,
	)
}

func WrapNoOutstandingRepayments(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoOutstanding,
		fmt.Sprintf("Loan with ID %s has no outstanding repayments", loanID),
		ErrNoOutstandingRepayments,
	)
}

func WrapLoanNotActive(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotActive,
		fmt.Sprintf("Loan with ID %s is %s", loanID, status),
		ErrLoanNotActive,
	)
}

func WrapDuplicatePayment(key string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicatePayment,
		fmt.Sprintf("Payment with idempotency key %s was already recorded", key),
		ErrDuplicatePayment,
	)
}

func WrapCapitalNotInitialized(userID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCapitalNotInitialized,
		fmt.Sprintf("Capital for user %s has not been initialized", userID),
		ErrCapitalNotInitialized,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}

// IsValidation reports whether err carries validation semantics (bad input,
// not retryable).
func IsValidation(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == ErrCodeValidation
	}
	return errors.Is(err, ErrInvalidPaymentAmount) ||
		errors.Is(err, ErrInvalidLoanAmount) ||
		errors.Is(err, ErrEmptyWeekdaySet) ||
		errors.Is(err, ErrInvalidDateRange)
}
