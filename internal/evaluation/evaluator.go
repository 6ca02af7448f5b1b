// Package evaluation composes the historical scanner, the anchor service,
// the drawdown calculator and the progress calculator into the single
// evaluatePhase decision external callers use.
package evaluation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/kalabhaftu/propeval/internal/anchor"
	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/drawdown"
	"github.com/kalabhaftu/propeval/internal/history"
	"github.com/kalabhaftu/propeval/internal/progress"
	"github.com/kalabhaftu/propeval/internal/storage"
	"github.com/kalabhaftu/propeval/internal/tradingday"
)

// Evaluator runs phase evaluations. It is read-only except for the lazy
// anchor create; it recommends transitions and never commits them.
type Evaluator struct {
	phases  storage.PhaseAccountStore
	trades  storage.TradeStore
	anchors *anchor.Service

	clock  func() time.Time
	logger *log.Logger
}

// Options for creating an Evaluator.
type Options struct {
	PhaseAccountStore storage.PhaseAccountStore
	TradeStore        storage.TradeStore
	AnchorStore       storage.AnchorStore

	// Clock overrides time.Now, for tests.
	Clock  func() time.Time
	Logger *log.Logger
}

// New creates an Evaluator.
func New(opts Options) *Evaluator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Evaluator{
		phases:  opts.PhaseAccountStore,
		trades:  opts.TradeStore,
		anchors: anchor.NewService(opts.AnchorStore, logger),
		clock:   clock,
		logger:  logger,
	}
}

// EvaluatePhase produces the evaluation decision for one phase account.
//
// Order is the engine's core invariant: the historical breach scan runs
// first and short-circuits, then the live-day drawdown check, and only a
// clean account reaches the progress check. Failure always dominates
// success; a profit target met on the same call that shows a breach still
// reports failure.
//
// A missing phase account is a fatal error. Input-data anomalies inside
// trades never are; they are normalized downstream.
func (e *Evaluator) EvaluatePhase(ctx context.Context, masterAccountID, phaseAccountID string) (*domain.EvaluationResult, error) {
	phase, err := e.phases.GetByID(ctx, phaseAccountID)
	if err != nil {
		return nil, fmt.Errorf("load phase account %s: %w", phaseAccountID, err)
	}
	if masterAccountID != "" && phase.MasterAccountID != masterAccountID {
		return nil, fmt.Errorf("phase account %s does not belong to master %s: %w",
			phaseAccountID, masterAccountID, storage.ErrNotFound)
	}

	trades, err := e.trades.GetByPhaseAccount(ctx, phaseAccountID)
	if err != nil {
		return nil, fmt.Errorf("load trades for %s: %w", phaseAccountID, err)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].BucketTime().Before(trades[j].BucketTime())
	})

	now := e.clock()
	currentEquity, highWaterMark := equityAndHighWaterMark(phase, trades)

	// Step 1: full-history daily drawdown scan, independent of anchors.
	scan := history.Scan(phase, trades)
	if scan.IsBreached {
		return failedResult(phase, now, &domain.BreachDetail{
			Type:            domain.BreachDailyDrawdown,
			Amount:          scan.ExcessAmount,
			Time:            scan.BreachTime,
			Day:             scan.Day,
			DayStartBalance: scan.DayStartBalance,
			Equity:          scan.DayEndBalance,
			LimitAmount:     scan.DailyLimit,
		}), nil
	}

	// Step 2: live-day drawdown against today's anchor.
	dayStart := e.anchors.GetOrCreateToday(ctx, phase, trades, now)
	breakdown := drawdown.Compute(phase, currentEquity, dayStart, highWaterMark)
	if breakdown.IsBreached {
		result := failedResult(phase, now, &domain.BreachDetail{
			Type:            breakdown.BreachType,
			Amount:          breakdown.BreachAmount,
			Time:            now,
			Day:             tradingday.DayKey(now, phase.Timezone),
			DayStartBalance: dayStart,
			Equity:          currentEquity,
			LimitAmount:     breachedLimit(breakdown),
		})
		result.Drawdown = breakdown
		return result, nil
	}

	// Step 3: progress, only reachable on a clean account.
	report := progress.Compute(phase, trades, now)

	result := &domain.EvaluationResult{
		PhaseAccountID: phase.PhaseAccountID,
		Drawdown:       breakdown,
		Progress:       report,
		NextAction:     domain.ActionContinue,
		EvaluatedAt:    now,
	}
	if report.CanPassPhase {
		result.IsPassed = true
		result.CanAdvance = true
		result.NextAction = domain.ActionAdvance
	}
	return result, nil
}

// equityAndHighWaterMark computes current equity and the running equity
// maximum over chronologically ordered trades, both seeded with the
// account size.
func equityAndHighWaterMark(phase *domain.PhaseAccount, trades []*domain.Trade) (float64, float64) {
	running := phase.AccountSize
	high := phase.AccountSize
	for _, t := range trades {
		running += t.NetPnL()
		if running > high {
			high = running
		}
	}
	return running, high
}

func breachedLimit(b domain.DrawdownBreakdown) float64 {
	if b.BreachType == domain.BreachMaxDrawdown {
		return b.MaxLimit
	}
	return b.DailyLimit
}

func failedResult(phase *domain.PhaseAccount, now time.Time, breach *domain.BreachDetail) *domain.EvaluationResult {
	return &domain.EvaluationResult{
		PhaseAccountID: phase.PhaseAccountID,
		IsFailed:       true,
		NextAction:     domain.ActionFail,
		Breach:         breach,
		EvaluatedAt:    now,
	}
}
