package progress

import (
	"testing"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
)

func progressPhase() *domain.PhaseAccount {
	limit := 30
	return &domain.PhaseAccount{
		PhaseAccountID:      "phase-1",
		AccountSize:         10000,
		ProfitTargetPercent: 8, // 800 target
		MinTradingDays:      3,
		TimeLimitDays:       &limit,
		Timezone:            "UTC",
		StartDate:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func progressTrade(day int, pnl float64) *domain.Trade {
	exit := time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
	return &domain.Trade{
		TradeID:        exit.Format("t-2006-01-02"),
		PhaseAccountID: "phase-1",
		PnL:            &pnl,
		ExitTime:       &exit,
		CreatedAt:      exit,
	}
}

func TestCompute_AllConditionsMet(t *testing.T) {
	phase := progressPhase()
	trades := []*domain.Trade{
		progressTrade(1, 300),
		progressTrade(2, 300),
		progressTrade(3, 250),
	}
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	report := Compute(phase, trades, now)

	if report.CurrentPnL != 850 {
		t.Errorf("expected pnl 850, got %f", report.CurrentPnL)
	}
	if !report.ProfitTargetMet {
		t.Error("expected profit target met")
	}
	if report.TradingDaysCompleted != 3 {
		t.Errorf("expected 3 trading days, got %d", report.TradingDaysCompleted)
	}
	if !report.CanPassPhase {
		t.Error("expected pass")
	}
}

func TestCompute_TargetNotMetBlocksPass(t *testing.T) {
	phase := progressPhase()
	trades := []*domain.Trade{
		progressTrade(1, 300),
		progressTrade(2, 300),
		progressTrade(3, 100),
	}
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	report := Compute(phase, trades, now)

	if report.ProfitTargetMet {
		t.Error("700 of 800 must not meet the target")
	}
	if report.ProfitTargetPercent != 87.5 {
		t.Errorf("expected 87.5%% attainment, got %f", report.ProfitTargetPercent)
	}
	if report.CanPassPhase {
		t.Error("unexpected pass")
	}
}

// Several trades on one calendar day count as a single trading day.
func TestCompute_TradingDaysAreDistinctDays(t *testing.T) {
	phase := progressPhase()

	exit1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	exit2 := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	pnl := 500.0
	trades := []*domain.Trade{
		{TradeID: "t-a", PhaseAccountID: "phase-1", PnL: &pnl, ExitTime: &exit1, CreatedAt: exit1},
		{TradeID: "t-b", PhaseAccountID: "phase-1", PnL: &pnl, ExitTime: &exit2, CreatedAt: exit2},
	}
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	report := Compute(phase, trades, now)

	if report.TradingDaysCompleted != 1 {
		t.Errorf("expected 1 trading day, got %d", report.TradingDaysCompleted)
	}
	if report.MinTradingDaysMet {
		t.Error("1 of 3 trading days must not satisfy the minimum")
	}
	if report.CanPassPhase {
		t.Error("unexpected pass")
	}
}

// Zero profit target (funded phase): target is met and attainment reports
// the 100 sentinel instead of dividing by zero.
func TestCompute_ZeroTargetSentinel(t *testing.T) {
	phase := progressPhase()
	phase.ProfitTargetPercent = 0
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	report := Compute(phase, nil, now)

	if !report.ProfitTargetMet {
		t.Error("zero target must be met")
	}
	if report.ProfitTargetPercent != 100 {
		t.Errorf("expected 100 sentinel, got %f", report.ProfitTargetPercent)
	}
}

func TestCompute_TimeLimitExceeded(t *testing.T) {
	phase := progressPhase()
	trades := []*domain.Trade{
		progressTrade(1, 300),
		progressTrade(2, 300),
		progressTrade(3, 250),
	}
	// 35 whole days after start, past the 30-day limit.
	now := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)

	report := Compute(phase, trades, now)

	if report.WithinTimeLimit {
		t.Errorf("expected time limit exceeded at %d elapsed days", report.ElapsedDays)
	}
	if report.CanPassPhase {
		t.Error("unexpected pass")
	}
}

func TestCompute_NoTimeLimit(t *testing.T) {
	phase := progressPhase()
	phase.TimeLimitDays = nil
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	report := Compute(phase, nil, now)

	if !report.WithinTimeLimit {
		t.Error("nil time limit must never expire")
	}
}

func TestCompute_NowBeforeStart(t *testing.T) {
	phase := progressPhase()
	now := phase.StartDate.Add(-24 * time.Hour)

	report := Compute(phase, nil, now)

	if report.ElapsedDays != 0 {
		t.Errorf("expected 0 elapsed days, got %d", report.ElapsedDays)
	}
	if !report.WithinTimeLimit {
		t.Error("expected within limit before start")
	}
}
