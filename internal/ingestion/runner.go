package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/idhash"
	"github.com/kalabhaftu/propeval/internal/observability"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// Runner consumes fills from a source and persists them as trades.
// Duplicate fills (replays, reconnect overlap) are dropped silently via
// the trade store's uniqueness contract.
type Runner struct {
	source FillSource
	trades storage.TradeStore
	clock  func() time.Time
	logger *log.Logger

	seq int // per-runner counter for fills without IDs
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source     FillSource
	TradeStore storage.TradeStore

	// Clock overrides time.Now, for tests.
	Clock  func() time.Time
	Logger *log.Logger
}

// NewRunner creates an ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Runner{
		source: opts.Source,
		trades: opts.TradeStore,
		clock:  clock,
		logger: logger,
	}
}

// Run consumes fills until the context is cancelled or the source closes
// its channel. A single bad fill never stops ingestion.
func (r *Runner) Run(ctx context.Context) error {
	fills, err := r.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to fill source: %w", err)
	}
	r.logger.Println("[ingestion] subscribed to fill source")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fill, ok := <-fills:
			if !ok {
				r.logger.Println("[ingestion] fill source closed")
				return nil
			}
			r.ingestOne(ctx, fill)
		}
	}
}

// ingestOne validates and stores a single fill.
func (r *Runner) ingestOne(ctx context.Context, fill *Fill) {
	if fill.PhaseAccountID == "" {
		r.logger.Println("[ingestion] dropping fill without phase account id")
		observability.RecordIngestionError("missing_phase_account")
		return
	}

	now := r.clock()
	trade := &domain.Trade{
		TradeID:        fill.TradeID,
		PhaseAccountID: fill.PhaseAccountID,
		PnL:            fill.PnL,
		Commission:     fill.Commission,
		ExitTime:       fill.ExitTime,
		CreatedAt:      now,
	}
	if trade.TradeID == "" {
		r.seq++
		trade.TradeID = idhash.TradeID(fill.PhaseAccountID, trade.BucketTime().UnixMilli(), r.seq)
	}

	if err := r.trades.Insert(ctx, trade); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordFillDuplicate()
			return
		}
		r.logger.Printf("[ingestion] store trade %s: %v", trade.TradeID, err)
		observability.RecordIngestionError("store_failed")
		return
	}
	observability.RecordFillStored()
}
