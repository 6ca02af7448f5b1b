package domain

import "time"

// BreachType identifies which risk rule was violated.
type BreachType string

// Breach types. Daily breaches take precedence when both rules are
// violated on the same evaluation.
const (
	BreachDailyDrawdown BreachType = "daily_drawdown"
	BreachMaxDrawdown   BreachType = "max_drawdown"
)

// BreachRecord is append-only evidence of a detected rule violation.
// It is written once by the batch runner when an evaluation reports failure.
type BreachRecord struct {
	BreachID       string
	PhaseAccountID string

	BreachType   BreachType
	BreachAmount float64 // dollars over the limit
	BreachTime   time.Time

	// Equity snapshot at detection.
	Equity          float64
	DayStartBalance float64
	LimitAmount     float64
	Day             string // YYYY-MM-DD of the breached day

	Resolved  bool
	CreatedAt time.Time
}
