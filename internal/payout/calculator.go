// Package payout decides whether a funded phase account may request a
// payout and what balance/anchor effects an executed payout triggers.
package payout

import (
	"fmt"
	"math"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
)

// Blocker is one reason a payout request is not allowed.
type Blocker struct {
	Code string
	Msg  string
}

// Eligibility is the collected payout decision. Blockers are accumulated,
// not short-circuited, so the caller can show every reason at once.
type Eligibility struct {
	IsEligible      bool
	Blockers        []Blocker
	MaxPayoutAmount float64
}

// State is the account snapshot eligibility is decided on.
type State struct {
	FundedSince              time.Time
	LastPayoutAt             *time.Time // nil when no payout was ever paid
	NetProfitSinceLastPayout float64
	UnresolvedBreaches       int
}

func (e *Eligibility) block(code, msg string) {
	e.Blockers = append(e.Blockers, Blocker{Code: code, Msg: msg})
	e.IsEligible = false
}

// CheckEligibility evaluates all payout blockers for the given state.
func CheckEligibility(policy domain.PayoutPolicy, state State, now time.Time) Eligibility {
	e := Eligibility{
		IsEligible:      true,
		MaxPayoutAmount: MaxPayoutAmount(policy, state.NetProfitSinceLastPayout),
	}

	daysFunded := wholeDaysBetween(state.FundedSince, now)
	if daysFunded < policy.MinDaysToFirstPayout {
		e.block("TOO_EARLY",
			fmt.Sprintf("%d days since funding start, minimum is %d", daysFunded, policy.MinDaysToFirstPayout))
	}

	if state.LastPayoutAt != nil {
		daysSincePayout := wholeDaysBetween(*state.LastPayoutAt, now)
		if daysSincePayout < policy.PayoutCycleDays {
			e.block("CYCLE_NOT_ELAPSED",
				fmt.Sprintf("%d days since last payout, cycle is %d", daysSincePayout, policy.PayoutCycleDays))
		}
	}

	if state.NetProfitSinceLastPayout < policy.MinProfitForPayout {
		e.block("INSUFFICIENT_PROFIT",
			fmt.Sprintf("net profit %.2f below minimum %.2f", state.NetProfitSinceLastPayout, policy.MinProfitForPayout))
	}

	if state.UnresolvedBreaches > 0 {
		e.block("UNRESOLVED_BREACH",
			fmt.Sprintf("%d unresolved breach record(s)", state.UnresolvedBreaches))
	}

	return e
}

// MaxPayoutAmount is the trader's share of net profit since the last payout,
// floored at zero for negative or non-finite profit.
func MaxPayoutAmount(policy domain.PayoutPolicy, netProfitSinceLastPayout float64) float64 {
	if math.IsNaN(netProfitSinceLastPayout) || math.IsInf(netProfitSinceLastPayout, 0) {
		return 0
	}
	if netProfitSinceLastPayout <= 0 {
		return 0
	}
	return netProfitSinceLastPayout * policy.ProfitSplitPercent / 100
}

// Effects describes the account mutations an executed payout triggers.
type Effects struct {
	NewBalance   float64
	ResetAnchors bool
}

// ApplyEffects computes the post-payout balance. A reset policy returns the
// configured funded reset balance and invalidates all daily anchors; a
// reduce policy subtracts the payout and leaves anchors untouched.
func ApplyEffects(policy domain.PayoutPolicy, currentBalance, payoutAmount float64) Effects {
	if policy.ResetOnPayout {
		return Effects{NewBalance: policy.FundedResetBalance, ResetAnchors: true}
	}
	if policy.ReduceBalanceByPayout {
		return Effects{NewBalance: currentBalance - payoutAmount}
	}
	return Effects{NewBalance: currentBalance}
}

func wholeDaysBetween(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start).Hours() / 24)
}
