package domain

import (
	"time"

	"github.com/shopspring/decimal"

	customError "github.com/thandalhq/thandal-engine/pkg/errors"
)

// Classification is the outcome of applying a payment against a repayment
// row: the terminal status and the amount actually credited toward the
// loan's pending balance.
type Classification struct {
	Status        string
	AmountApplied decimal.Decimal
}

// Classify decides the terminal status for a repayment given the payment
// amount and timestamp. Timing is compared at date granularity against the
// row's due date; the amount is compared against the row's expected
// installment.
//
// An overpayment keeps the full-payment status for its timing band and the
// excess is credited toward pending (capped at the loan's pending balance).
// A partial payment reduces pending by only what was paid; the shortfall
// does NOT generate a follow-up due date.
func Classify(row *Repayment, amount decimal.Decimal, paidAt time.Time, pending decimal.Decimal) (Classification, error) {
	if !amount.IsPositive() {
		return Classification{}, customError.WrapValidation("payment amount must be greater than zero", customError.ErrInvalidPaymentAmount)
	}
	if row.IsTerminal() {
		return Classification{}, customError.WrapAlreadyResolved(row.LoanID.String(), row.DueDate.Format("2006-01-02"))
	}

	paidDate := DateOf(paidAt)
	dueDate := DateOf(row.DueDate)
	partial := amount.LessThan(row.ExpectedAmount)

	var status string
	switch {
	case paidDate.Equal(dueDate):
		status = RepaymentStatusPaid
		if partial {
			status = RepaymentStatusPaidPartial
		}
	case paidDate.After(dueDate):
		status = RepaymentStatusPaidLate
		if partial {
			status = RepaymentStatusPartialLate
		}
	default:
		status = RepaymentStatusPaidInAdvance
		if partial {
			status = RepaymentStatusPartialAdvance
		}
	}

	applied := amount
	if applied.GreaterThan(pending) {
		applied = pending
	}

	return Classification{Status: status, AmountApplied: applied}, nil
}
