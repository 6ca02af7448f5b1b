// Package batch runs the nightly evaluation sweep over all active phase
// accounts. It is the only component that commits phase transitions and
// writes breach records; the evaluator itself only recommends.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/history"
	"github.com/kalabhaftu/propeval/internal/idhash"
	"github.com/kalabhaftu/propeval/internal/observability"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// DefaultWorkers is the evaluation concurrency when Options.Workers is unset.
const DefaultWorkers = 4

// Evaluator produces the evaluation decision for one phase account.
type Evaluator interface {
	EvaluatePhase(ctx context.Context, masterAccountID, phaseAccountID string) (*domain.EvaluationResult, error)
}

// Runner sweeps active phase accounts through the evaluator.
type Runner struct {
	phases   storage.PhaseAccountStore
	trades   storage.TradeStore
	breaches storage.BreachRecordStore
	equity   storage.EquityTimeseriesStore

	evaluator Evaluator
	workers   int
	clock     func() time.Time
	logger    *log.Logger
}

// Options for creating a Runner.
type Options struct {
	PhaseAccountStore storage.PhaseAccountStore
	TradeStore        storage.TradeStore
	BreachRecordStore storage.BreachRecordStore

	// EquityTimeseriesStore is optional; when set, the per-day equity
	// curve is written after each evaluation (best effort).
	EquityTimeseriesStore storage.EquityTimeseriesStore

	Evaluator Evaluator

	// Workers is the evaluation concurrency. Defaults to DefaultWorkers.
	Workers int

	// Clock overrides time.Now, for tests.
	Clock  func() time.Time
	Logger *log.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{
		phases:    opts.PhaseAccountStore,
		trades:    opts.TradeStore,
		breaches:  opts.BreachRecordStore,
		equity:    opts.EquityTimeseriesStore,
		evaluator: opts.Evaluator,
		workers:   workers,
		clock:     clock,
		logger:    logger,
	}
}

// Summary contains results from one batch run.
type Summary struct {
	RunID           string
	Evaluated       int
	Breached        int
	AdvanceEligible int
	Errors          []string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Run evaluates every active phase account once. One account failing never
// aborts the sweep; its error is collected in the summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := r.clock()
	summary := &Summary{
		RunID:     newRunID(started),
		StartedAt: started,
	}

	active, err := r.phases.ListByStatus(ctx, domain.PhaseStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active phase accounts: %w", err)
	}

	r.logger.Printf("[batch] run %s: evaluating %d active phase accounts with %d workers",
		summary.RunID, len(active), r.workers)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan *domain.PhaseAccount)
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for phase := range jobs {
				outcome, err := r.evaluateOne(ctx, phase)

				mu.Lock()
				summary.Evaluated++
				if err != nil {
					summary.Errors = append(summary.Errors,
						fmt.Sprintf("evaluate %s: %v", phase.PhaseAccountID, err))
				} else {
					if outcome.IsFailed {
						summary.Breached++
					}
					if outcome.CanAdvance {
						summary.AdvanceEligible++
					}
				}
				mu.Unlock()
			}
		}()
	}

	for _, phase := range active {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return summary, ctx.Err()
		case jobs <- phase:
		}
	}
	close(jobs)
	wg.Wait()

	summary.FinishedAt = r.clock()
	duration := summary.FinishedAt.Sub(summary.StartedAt)

	status := "ok"
	if len(summary.Errors) > 0 {
		status = "partial"
	}
	observability.RecordBatchRun(status, duration.Seconds())

	r.logger.Printf("[batch] run %s finished in %s: %d evaluated, %d breached, %d advance-eligible, %d errors",
		summary.RunID, duration.Round(time.Millisecond),
		summary.Evaluated, summary.Breached, summary.AdvanceEligible, len(summary.Errors))

	return summary, nil
}

// evaluateOne evaluates a single phase account and commits the outcome:
// a failed evaluation transitions the account and records the breach.
func (r *Runner) evaluateOne(ctx context.Context, phase *domain.PhaseAccount) (*domain.EvaluationResult, error) {
	start := r.clock()
	result, err := r.evaluator.EvaluatePhase(ctx, phase.MasterAccountID, phase.PhaseAccountID)
	if err != nil {
		return nil, err
	}
	observability.RecordEvaluation(string(result.NextAction), r.clock().Sub(start).Seconds())
	observability.DefaultMetrics.AccountsEvaluated.Inc()

	if result.IsFailed {
		if err := r.commitFailure(ctx, phase, result); err != nil {
			return result, err
		}
	}

	r.writeEquityCurve(ctx, phase)

	return result, nil
}

// commitFailure transitions the account to failed and records the breach.
// The breach ID is deterministic, so re-detecting the same breach on a
// later run is tolerated as a duplicate.
func (r *Runner) commitFailure(ctx context.Context, phase *domain.PhaseAccount, result *domain.EvaluationResult) error {
	breach := result.Breach
	if breach == nil {
		return fmt.Errorf("failed evaluation for %s carries no breach detail", phase.PhaseAccountID)
	}

	record := &domain.BreachRecord{
		BreachID:        idhash.BreachID(phase.PhaseAccountID, string(breach.Type), breach.Day),
		PhaseAccountID:  phase.PhaseAccountID,
		BreachType:      breach.Type,
		BreachAmount:    breach.Amount,
		BreachTime:      breach.Time,
		Equity:          breach.Equity,
		DayStartBalance: breach.DayStartBalance,
		LimitAmount:     breach.LimitAmount,
		Day:             breach.Day,
		CreatedAt:       r.clock(),
	}

	if err := r.breaches.Insert(ctx, record); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("record breach for %s: %w", phase.PhaseAccountID, err)
	}
	observability.RecordBreach(string(breach.Type))

	if err := r.phases.UpdateStatus(ctx, phase.PhaseAccountID, domain.PhaseStatusFailed); err != nil {
		return fmt.Errorf("transition %s to failed: %w", phase.PhaseAccountID, err)
	}
	observability.DefaultMetrics.AccountsFailed.Inc()

	r.logger.Printf("[batch] phase account %s failed: %s over by %.2f on %s",
		phase.PhaseAccountID, breach.Type, breach.Amount, breach.Day)
	return nil
}

// writeEquityCurve rebuilds and stores the per-day equity curve. This is
// derived analytics data; failures are logged, never propagated.
func (r *Runner) writeEquityCurve(ctx context.Context, phase *domain.PhaseAccount) {
	if r.equity == nil {
		return
	}

	trades, err := r.trades.GetByPhaseAccount(ctx, phase.PhaseAccountID)
	if err != nil {
		r.logger.Printf("[batch] load trades for equity curve of %s: %v", phase.PhaseAccountID, err)
		return
	}

	points := history.DayLedger(phase, trades)
	if len(points) == 0 {
		return
	}

	if err := r.equity.InsertBulk(ctx, points); err != nil {
		r.logger.Printf("[batch] write equity curve for %s: %v", phase.PhaseAccountID, err)
	}
}

// newRunID builds a lexically sortable run identifier.
func newRunID(now time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
