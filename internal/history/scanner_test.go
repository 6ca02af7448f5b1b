package history

import (
	"testing"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
)

func scanPhase() *domain.PhaseAccount {
	return &domain.PhaseAccount{
		PhaseAccountID:       "phase-1",
		AccountSize:          10000,
		DailyDrawdownPercent: 4, // 400 limit
		MaxDrawdownPercent:   10,
		MaxDrawdownType:      domain.DrawdownStatic,
		Timezone:             "UTC",
	}
}

func tradeAt(day int, hour int, pnl float64) *domain.Trade {
	exit := time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
	return &domain.Trade{
		TradeID:        exit.Format("t-2006-01-02-15"),
		PhaseAccountID: "phase-1",
		PnL:            &pnl,
		ExitTime:       &exit,
		CreatedAt:      exit,
	}
}

// A breach buried on day 3 of a 10-day history must be found even though
// later days recovered the balance.
func TestScan_FindsBuriedBreach(t *testing.T) {
	phase := scanPhase()

	var trades []*domain.Trade
	trades = append(trades, tradeAt(1, 10, 100))
	trades = append(trades, tradeAt(2, 10, -200))
	trades = append(trades, tradeAt(3, 10, -300)) // day 3: -300
	trades = append(trades, tradeAt(3, 14, -250)) // day 3 total: -550, over 400
	for day := 4; day <= 10; day++ {
		trades = append(trades, tradeAt(day, 10, 150))
	}

	report := Scan(phase, trades)

	if !report.IsBreached {
		t.Fatal("expected breach")
	}
	if report.Day != "2024-03-03" {
		t.Errorf("expected breach day 2024-03-03, got %s", report.Day)
	}
	if report.DayStartBalance != 9900 {
		t.Errorf("expected day start 9900, got %f", report.DayStartBalance)
	}
	if report.DayLoss != 550 {
		t.Errorf("expected day loss 550, got %f", report.DayLoss)
	}
	if report.ExcessAmount != 150 {
		t.Errorf("expected excess 150, got %f", report.ExcessAmount)
	}
	if report.DaysScanned != 3 {
		t.Errorf("scan must stop at the breached day, scanned %d", report.DaysScanned)
	}
}

// The breach instant is the exit of the trade that crossed the limit, not
// the last trade of the day.
func TestScan_BreachInstantIsCrossingTrade(t *testing.T) {
	phase := scanPhase()

	trades := []*domain.Trade{
		tradeAt(3, 10, -300),
		tradeAt(3, 14, -250), // cumulative -550 crosses -400 here
		tradeAt(3, 16, -50),
	}

	report := Scan(phase, trades)

	if !report.IsBreached {
		t.Fatal("expected breach")
	}
	want := time.Date(2024, 3, 3, 14, 0, 0, 0, time.UTC)
	if !report.BreachTime.Equal(want) {
		t.Errorf("expected breach time %v, got %v", want, report.BreachTime)
	}
}

func TestScan_LossEqualToLimitIsClean(t *testing.T) {
	phase := scanPhase()

	trades := []*domain.Trade{tradeAt(1, 10, -400)}

	report := Scan(phase, trades)

	if report.IsBreached {
		t.Error("loss equal to the limit must not breach")
	}
	if report.FinalBalance != 9600 {
		t.Errorf("expected final balance 9600, got %f", report.FinalBalance)
	}
}

func TestScan_NoTrades(t *testing.T) {
	phase := scanPhase()

	report := Scan(phase, nil)

	if report.IsBreached {
		t.Error("empty history must not breach")
	}
	if report.DaysScanned != 0 {
		t.Errorf("expected 0 days scanned, got %d", report.DaysScanned)
	}
	if report.FinalBalance != phase.AccountSize {
		t.Errorf("expected final balance %f, got %f", phase.AccountSize, report.FinalBalance)
	}
}

// Missing pnl and commission are treated as zero; a nil-pnl trade cannot
// drag a day into breach.
func TestScan_MissingPnLTreatedAsZero(t *testing.T) {
	phase := scanPhase()

	exit := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		{TradeID: "t-nil", PhaseAccountID: "phase-1", ExitTime: &exit, CreatedAt: exit},
		tradeAt(1, 12, -390),
	}

	report := Scan(phase, trades)

	if report.IsBreached {
		t.Error("unexpected breach")
	}
	if report.FinalBalance != 9610 {
		t.Errorf("expected final balance 9610, got %f", report.FinalBalance)
	}
}

// Commission widens the loss: pnl -350 with commission 100 is a 450 net
// loss, over the 400 limit.
func TestScan_CommissionCountsAgainstTheDay(t *testing.T) {
	phase := scanPhase()

	pnl := -350.0
	commission := 100.0
	exit := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{{
		TradeID:        "t-comm",
		PhaseAccountID: "phase-1",
		PnL:            &pnl,
		Commission:     &commission,
		ExitTime:       &exit,
		CreatedAt:      exit,
	}}

	report := Scan(phase, trades)

	if !report.IsBreached {
		t.Fatal("expected breach")
	}
	if report.DayLoss != 450 {
		t.Errorf("expected day loss 450, got %f", report.DayLoss)
	}
}

func TestDayLedger_FullCurve(t *testing.T) {
	phase := scanPhase()

	trades := []*domain.Trade{
		tradeAt(1, 10, 200),
		tradeAt(1, 14, -50),
		tradeAt(3, 10, -100),
	}

	points := DayLedger(phase, trades)

	if len(points) != 2 {
		t.Fatalf("expected 2 days, got %d", len(points))
	}

	first := points[0]
	if first.Day != "2024-03-01" || first.StartBalance != 10000 || first.EndBalance != 10150 {
		t.Errorf("unexpected first point: %+v", first)
	}
	if first.TradeCount != 2 || first.DayLoss != 0 {
		t.Errorf("unexpected first point counts: %+v", first)
	}

	second := points[1]
	if second.Day != "2024-03-03" || second.StartBalance != 10150 || second.EndBalance != 10050 {
		t.Errorf("unexpected second point: %+v", second)
	}
	if second.DayLoss != 100 {
		t.Errorf("expected day loss 100, got %f", second.DayLoss)
	}
}

// DayLedger keeps walking past a breached day; only Scan short-circuits.
func TestDayLedger_DoesNotShortCircuit(t *testing.T) {
	phase := scanPhase()

	trades := []*domain.Trade{
		tradeAt(1, 10, -500),
		tradeAt(2, 10, 100),
	}

	points := DayLedger(phase, trades)

	if len(points) != 2 {
		t.Fatalf("expected 2 days, got %d", len(points))
	}
}
