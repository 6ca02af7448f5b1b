package domain

import "time"

// DailyAnchor records the equity value at the start of one trading day
// for one phase account. At most one anchor exists per (phase, day);
// the first written value wins for the rest of the day.
//
// Anchors are a cache with recovery semantics, not a source of truth:
// the historical breach scanner recomputes day starts from trades directly.
type DailyAnchor struct {
	AnchorID       string
	PhaseAccountID string
	Day            string // YYYY-MM-DD in the account timezone
	AnchorEquity   float64
	CreatedAt      time.Time
}
