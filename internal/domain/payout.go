package domain

import "time"

// PayoutStatus is the lifecycle state of a payout request.
type PayoutStatus string

// Payout request statuses.
const (
	PayoutPending  PayoutStatus = "pending"
	PayoutApproved PayoutStatus = "approved"
	PayoutPaid     PayoutStatus = "paid"
	PayoutRejected PayoutStatus = "rejected"
)

// PayoutRequest records one payout from a funded phase account.
type PayoutRequest struct {
	PayoutID       string
	PhaseAccountID string
	Amount         float64
	Status         PayoutStatus
	RequestedAt    time.Time
	PaidAt         *time.Time
}

// PayoutPolicy holds the payout rules of a funded phase.
type PayoutPolicy struct {
	MinDaysToFirstPayout int
	PayoutCycleDays      int
	MinProfitForPayout   float64 // net profit since last payout required
	ProfitSplitPercent   float64 // trader's share, whole percent

	// Balance effects after a payout is executed. ResetOnPayout wins
	// when both are set.
	ResetOnPayout         bool
	FundedResetBalance    float64
	ReduceBalanceByPayout bool
}
