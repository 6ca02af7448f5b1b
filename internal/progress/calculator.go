// Package progress computes profit-target, minimum-trading-days and
// time-limit attainment for a phase account.
package progress

import (
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/tradingday"
)

// Compute produces the progress report for a phase at the given instant.
//
// A zero profit target percent means the phase has no profit requirement
// (the funded phase); the target is considered met and the attainment
// percent reports the 100 sentinel. Trading days count distinct calendar
// days with at least one trade, not trade count.
func Compute(phase *domain.PhaseAccount, trades []*domain.Trade, now time.Time) domain.ProgressReport {
	currentPnL := 0.0
	days := make(map[string]bool)
	for _, t := range trades {
		currentPnL += t.NetPnL()
		days[tradingday.DayKey(t.BucketTime(), phase.Timezone)] = true
	}

	targetAmount := phase.ProfitTargetAmount()
	targetPercent := 100.0
	targetMet := true
	if targetAmount > 0 {
		targetPercent = currentPnL / targetAmount * 100
		targetMet = currentPnL >= targetAmount
	}

	tradingDays := len(days)
	minDaysMet := tradingDays >= phase.MinTradingDays

	elapsed := elapsedWholeDays(phase.StartDate, now)
	withinLimit := true
	if phase.TimeLimitDays != nil && *phase.TimeLimitDays > 0 {
		withinLimit = elapsed <= *phase.TimeLimitDays
	}

	return domain.ProgressReport{
		CurrentPnL:           currentPnL,
		ProfitTargetAmount:   targetAmount,
		ProfitTargetPercent:  targetPercent,
		ProfitTargetMet:      targetMet,
		TradingDaysCompleted: tradingDays,
		MinTradingDaysMet:    minDaysMet,
		ElapsedDays:          elapsed,
		WithinTimeLimit:      withinLimit,
		CanPassPhase:         targetMet && minDaysMet && withinLimit,
	}
}

func elapsedWholeDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start).Hours() / 24)
}
