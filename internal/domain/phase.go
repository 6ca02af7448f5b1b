package domain

import "time"

// PhaseStatus is the lifecycle state of a phase account.
type PhaseStatus string

// Phase account statuses.
const (
	PhaseStatusActive   PhaseStatus = "active"
	PhaseStatusPassed   PhaseStatus = "passed"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusPending  PhaseStatus = "pending"
	PhaseStatusArchived PhaseStatus = "archived"
)

// DrawdownType selects the accounting mode for the maximum drawdown base.
type DrawdownType string

// Maximum drawdown accounting modes.
const (
	DrawdownStatic   DrawdownType = "static"   // base fixed at account size
	DrawdownTrailing DrawdownType = "trailing" // base ratchets up with equity highs
)

// PhaseAccount represents one evaluation phase of a master account.
// Rule percentages are expressed as whole percents (5 means 5%).
type PhaseAccount struct {
	PhaseAccountID  string
	MasterAccountID string
	PhaseName       string // e.g. "Phase 1", "Funded"

	AccountSize          float64 // starting equity basis, inherited from master
	DailyDrawdownPercent float64
	MaxDrawdownPercent   float64
	MaxDrawdownType      DrawdownType
	ProfitTargetPercent  float64 // 0 means no profit requirement
	MinTradingDays       int
	TimeLimitDays        *int // nil means no time limit

	Timezone  string // IANA identifier, inherited from master account
	StartDate time.Time
	Status    PhaseStatus
	CreatedAt time.Time
}

// DailyDrawdownLimit is the dollar amount of daily loss the phase allows.
// The daily limit base never trails, even under trailing max drawdown.
func (p *PhaseAccount) DailyDrawdownLimit() float64 {
	return p.AccountSize * p.DailyDrawdownPercent / 100
}

// ProfitTargetAmount is the dollar profit required to pass the phase.
func (p *PhaseAccount) ProfitTargetAmount() float64 {
	return p.AccountSize * p.ProfitTargetPercent / 100
}
