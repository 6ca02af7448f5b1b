package domain

import (
	"math"
	"time"
)

// Trade represents one settled trade owned by a phase account.
// Trades are immutable once settled; the evaluation engine only reads them.
type Trade struct {
	TradeID        string
	PhaseAccountID string

	PnL        *float64 // gross P&L (nullable on incomplete imports)
	Commission *float64 // cost, stored non-negative (nullable)

	ExitTime  *time.Time // authoritative instant for day bucketing (nullable)
	CreatedAt time.Time  // fallback bucketing instant
}

// NetPnL returns the trade's net contribution to equity: pnl - commission.
// Missing or non-finite fields contribute zero; the trade still counts
// for day grouping and trading-day counts.
func (t *Trade) NetPnL() float64 {
	return finiteOrZero(t.PnL) - finiteOrZero(t.Commission)
}

// BucketTime returns the instant used to assign the trade to a trading day.
func (t *Trade) BucketTime() time.Time {
	if t.ExitTime != nil && !t.ExitTime.IsZero() {
		return *t.ExitTime
	}
	return t.CreatedAt
}

func finiteOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
