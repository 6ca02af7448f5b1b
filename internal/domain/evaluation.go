package domain

import "time"

// NextAction is the recommendation an evaluation produces. The engine never
// commits a phase transition itself; callers persist it.
type NextAction string

// Recommended next actions.
const (
	ActionContinue NextAction = "continue"
	ActionFail     NextAction = "fail"
	ActionAdvance  NextAction = "advance"
)

// DrawdownBreakdown is the full drawdown usage picture for one evaluation.
type DrawdownBreakdown struct {
	CurrentEquity   float64
	DayStartBalance float64
	HighWaterMark   float64

	DailyLimit     float64
	DailyUsed      float64
	DailyRemaining float64

	MaxBase      float64 // account size (static) or high-water mark (trailing)
	MaxLimit     float64
	MaxUsed      float64
	MaxRemaining float64

	IsBreached   bool
	BreachType   BreachType
	BreachAmount float64 // excess over the violated limit

	// Defaulted is set when non-finite inputs had to be replaced before
	// computation. A defaulted result never reports a breach.
	Defaulted bool
}

// ProgressReport is the profit/time progress picture for one evaluation.
type ProgressReport struct {
	CurrentPnL           float64
	ProfitTargetAmount   float64
	ProfitTargetPercent  float64 // attainment, 100 when the target is zero
	ProfitTargetMet      bool
	TradingDaysCompleted int
	MinTradingDaysMet    bool
	ElapsedDays          int
	WithinTimeLimit      bool
	CanPassPhase         bool
}

// BreachDetail carries the evidence for a detected breach.
type BreachDetail struct {
	Type            BreachType
	Amount          float64
	Time            time.Time
	Day             string // YYYY-MM-DD
	DayStartBalance float64
	Equity          float64
	LimitAmount     float64
}

// EvaluationResult is the transient outcome of one evaluatePhase call.
// It is produced fresh on every call and never persisted by the engine.
type EvaluationResult struct {
	PhaseAccountID string

	Drawdown DrawdownBreakdown
	Progress ProgressReport

	IsFailed   bool
	IsPassed   bool
	CanAdvance bool
	NextAction NextAction

	// Breach is set only when IsFailed is true.
	Breach *BreachDetail

	EvaluatedAt time.Time
}
