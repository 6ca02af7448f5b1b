// Package history replays a phase account's full trade history day by day
// to detect daily drawdown breaches that batch-imported trades would
// otherwise hide. The scan is independent of daily anchors: day starts are
// reconstructed from the trades themselves, so a missing anchor can never
// mask a historic violation.
package history

import (
	"sort"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/tradingday"
)

// Report is the outcome of one historical scan.
type Report struct {
	IsBreached bool

	// Breach evidence, set only when IsBreached is true.
	Day             string // YYYY-MM-DD of the first breached day
	BreachTime      time.Time
	DayStartBalance float64
	DayEndBalance   float64
	DayLoss         float64
	DailyLimit      float64
	ExcessAmount    float64 // DayLoss - DailyLimit

	// FinalBalance is the running balance after the last scanned day.
	// On a breach it reflects the balance through the breached day; later
	// days are not walked, one confirmed breach fails the phase regardless
	// of what happens afterward.
	FinalBalance float64
	DaysScanned  int
}

// Scan walks the phase's trades chronologically, grouped into calendar days
// under the account timezone, and reports the first day whose loss exceeds
// the daily drawdown limit. The daily limit base is always the account size,
// even under trailing max drawdown mode.
func Scan(phase *domain.PhaseAccount, trades []*domain.Trade) Report {
	dailyLimit := phase.DailyDrawdownLimit()
	report := Report{
		DailyLimit:   dailyLimit,
		FinalBalance: phase.AccountSize,
	}

	days, keys := bucketByDay(trades, phase.Timezone)
	runningBalance := phase.AccountSize

	for _, day := range keys {
		dayTrades := days[day]
		dayStart := runningBalance

		dayPnL := 0.0
		for _, t := range dayTrades {
			dayPnL += t.NetPnL()
		}

		dayLoss := 0.0
		if dayPnL < 0 {
			dayLoss = -dayPnL
		}

		runningBalance = dayStart + dayPnL
		report.DaysScanned++
		report.FinalBalance = runningBalance

		if dayLoss > dailyLimit {
			report.IsBreached = true
			report.Day = day
			report.DayStartBalance = dayStart
			report.DayEndBalance = runningBalance
			report.DayLoss = dayLoss
			report.ExcessAmount = dayLoss - dailyLimit
			report.BreachTime = breachInstant(dayTrades, dailyLimit)
			return report
		}
	}

	return report
}

// DayLedger reconstructs the complete per-day equity curve from trades.
// Unlike Scan it never short-circuits; it exists for analytics and
// cross-checks, the breach decision never depends on it.
func DayLedger(phase *domain.PhaseAccount, trades []*domain.Trade) []*domain.EquityPoint {
	days, keys := bucketByDay(trades, phase.Timezone)

	points := make([]*domain.EquityPoint, 0, len(keys))
	runningBalance := phase.AccountSize

	for _, day := range keys {
		dayTrades := days[day]

		dayPnL := 0.0
		for _, t := range dayTrades {
			dayPnL += t.NetPnL()
		}

		dayLoss := 0.0
		if dayPnL < 0 {
			dayLoss = -dayPnL
		}

		points = append(points, &domain.EquityPoint{
			PhaseAccountID: phase.PhaseAccountID,
			Day:            day,
			StartBalance:   runningBalance,
			NetPnL:         dayPnL,
			EndBalance:     runningBalance + dayPnL,
			DayLoss:        dayLoss,
			TradeCount:     len(dayTrades),
		})
		runningBalance += dayPnL
	}

	return points
}

// bucketByDay groups trades into day keys and returns the keys sorted
// ascending. Within a day, trades are ordered by bucketing time so the
// breach instant search walks them chronologically.
func bucketByDay(trades []*domain.Trade, tz string) (map[string][]*domain.Trade, []string) {
	days := make(map[string][]*domain.Trade)
	for _, t := range trades {
		day := tradingday.DayKey(t.BucketTime(), tz)
		days[day] = append(days[day], t)
	}

	keys := make([]string, 0, len(days))
	for day := range days {
		keys = append(keys, day)
		sort.Slice(days[day], func(i, j int) bool {
			return days[day][i].BucketTime().Before(days[day][j].BucketTime())
		})
	}
	sort.Strings(keys)

	return days, keys
}

// breachInstant returns the exit time of the trade whose cumulative day
// P&L first crossed below the negative daily limit. Since the day closed
// beyond the limit, such a trade always exists.
func breachInstant(dayTrades []*domain.Trade, dailyLimit float64) time.Time {
	cumulative := 0.0
	for _, t := range dayTrades {
		cumulative += t.NetPnL()
		if cumulative < -dailyLimit {
			return t.BucketTime()
		}
	}
	return dayTrades[len(dayTrades)-1].BucketTime()
}
