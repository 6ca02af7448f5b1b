// Package ingestion consumes settled trade fills from external feeds and
// persists them for evaluation. Storage uniqueness makes ingestion
// idempotent; replaying a feed never duplicates trades.
package ingestion

import (
	"context"
	"time"
)

// Fill is one settled trade as it arrives on the wire.
type Fill struct {
	TradeID        string     `json:"trade_id"`
	PhaseAccountID string     `json:"phase_account_id"`
	PnL            *float64   `json:"pnl"`
	Commission     *float64   `json:"commission"`
	ExitTime       *time.Time `json:"exit_time"`
}

// FillSource provides a stream of settled trade fills.
type FillSource interface {
	// Subscribe returns a channel of fills. The channel is closed when the
	// source shuts down permanently.
	Subscribe(ctx context.Context) (<-chan *Fill, error)

	// Close stops the source and releases its resources.
	Close() error
}
