// Package drawdown computes daily and maximum drawdown usage for a phase
// account and flags limit breaches.
package drawdown

import (
	"math"

	"github.com/kalabhaftu/propeval/internal/domain"
)

// Compute produces the full drawdown breakdown for one evaluation instant.
//
// The daily limit is always based on the account size; only the maximum
// drawdown base trails under trailing mode. When both limits are violated
// the daily breach is reported: daily limits are the tighter constraint in
// most prop-firm rule sets, so the daily check runs first and short-circuits.
//
// Non-finite inputs are replaced by the account size before computation and
// the result is marked Defaulted; a defaulted result never reports a breach,
// since a day of missing data must not manufacture a false violation.
func Compute(phase *domain.PhaseAccount, currentEquity, dayStartBalance, highWaterMark float64) domain.DrawdownBreakdown {
	defaulted := false
	currentEquity, defaulted = sanitize(currentEquity, phase.AccountSize, defaulted)
	dayStartBalance, defaulted = sanitize(dayStartBalance, phase.AccountSize, defaulted)
	highWaterMark, defaulted = sanitize(highWaterMark, phase.AccountSize, defaulted)

	dailyLimit := phase.DailyDrawdownLimit()
	dailyUsed := math.Max(0, dayStartBalance-currentEquity)

	maxBase := phase.AccountSize
	if phase.MaxDrawdownType == domain.DrawdownTrailing {
		maxBase = highWaterMark
	}
	maxLimit := maxBase * phase.MaxDrawdownPercent / 100
	maxUsed := math.Max(0, maxBase-currentEquity)

	b := domain.DrawdownBreakdown{
		CurrentEquity:   currentEquity,
		DayStartBalance: dayStartBalance,
		HighWaterMark:   highWaterMark,

		DailyLimit:     dailyLimit,
		DailyUsed:      dailyUsed,
		DailyRemaining: math.Max(0, dailyLimit-dailyUsed),

		MaxBase:      maxBase,
		MaxLimit:     maxLimit,
		MaxUsed:      maxUsed,
		MaxRemaining: math.Max(0, maxLimit-maxUsed),

		Defaulted: defaulted,
	}

	if defaulted {
		return b
	}

	// Daily first; a simultaneous max breach is not reported.
	if dailyUsed > dailyLimit {
		b.IsBreached = true
		b.BreachType = domain.BreachDailyDrawdown
		b.BreachAmount = dailyUsed - dailyLimit
		return b
	}

	if maxUsed > maxLimit {
		b.IsBreached = true
		b.BreachType = domain.BreachMaxDrawdown
		b.BreachAmount = maxUsed - maxLimit
	}

	return b
}

// sanitize replaces non-finite values with the fallback and tracks whether
// any replacement happened.
func sanitize(v, fallback float64, defaulted bool) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback, true
	}
	return v, defaulted
}
