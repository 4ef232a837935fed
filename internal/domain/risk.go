package domain

import (
	"math"

	"github.com/google/uuid"
)

const (
	RiskLevelLow    = "low_risk"
	RiskLevelMedium = "medium_risk"
	RiskLevelHigh   = "high_risk"
)

const defaultedLoanPenalty = 15.0

// RiskThresholds are the score cutoffs between bands. A score at or above
// LowMin is low risk, at or above MediumMin is medium, anything below is
// high.
type RiskThresholds struct {
	LowMin    float64
	MediumMin float64
}

// RiskAssessment is a read-only aggregate over a borrower's repayment
// history. It is recomputed on demand and never persisted in the ledger.
type RiskAssessment struct {
	BorrowerID       uuid.UUID      `json:"borrower_id"`
	TotalRepayments  int            `json:"total_repayments"`
	StatusCounts     map[string]int `json:"status_counts"`
	RepaymentRate    float64        `json:"repayment_rate"`
	AverageDelayDays float64        `json:"average_delay_days"`
	DefaultedLoans   int            `json:"defaulted_loans"`
	RiskScore        float64        `json:"risk_score"`
	RiskLevel        string         `json:"risk_level"`
}

// ScoreRisk aggregates the borrower's repayment rows into a 0-100 score and
// band. Only resolved rows count toward the rate; a borrower with no history
// yet scores as if fully reliable. The score is monotonic in the repayment
// rate and penalized per defaulted loan.
func ScoreRisk(borrowerID uuid.UUID, rows []*Repayment, defaultedLoans int, thresholds RiskThresholds) *RiskAssessment {
	counts := make(map[string]int, 8)
	resolved, paidFamily := 0, 0
	delaySum, delayCount := 0.0, 0

	for _, row := range rows {
		counts[row.Status]++
		if !row.IsTerminal() {
			continue
		}
		resolved++
		if IsPaidStatus(row.Status) {
			paidFamily++
		}
		if IsLateStatus(row.Status) && row.PaidDate != nil {
			delay := DateOf(*row.PaidDate).Sub(DateOf(row.DueDate)).Hours() / 24
			delaySum += delay
			delayCount++
		}
	}

	rate := 1.0
	if resolved > 0 {
		rate = float64(paidFamily) / float64(resolved)
	}

	avgDelay := 0.0
	if delayCount > 0 {
		avgDelay = delaySum / float64(delayCount)
	}

	score := rate*100 - float64(defaultedLoans)*defaultedLoanPenalty
	score = math.Max(0, math.Min(100, score))

	level := RiskLevelHigh
	switch {
	case score >= thresholds.LowMin:
		level = RiskLevelLow
	case score >= thresholds.MediumMin:
		level = RiskLevelMedium
	}

	return &RiskAssessment{
		BorrowerID:       borrowerID,
		TotalRepayments:  len(rows),
		StatusCounts:     counts,
		RepaymentRate:    rate,
		AverageDelayDays: avgDelay,
		DefaultedLoans:   defaultedLoans,
		RiskScore:        score,
		RiskLevel:        level,
	}
}
