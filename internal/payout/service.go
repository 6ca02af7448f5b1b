package payout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// Service assembles the payout eligibility snapshot from storage and runs
// the eligibility check against a policy.
type Service struct {
	phases   storage.PhaseAccountStore
	trades   storage.TradeStore
	breaches storage.BreachRecordStore
	payouts  storage.PayoutStore

	clock  func() time.Time
	logger *log.Logger
}

// ServiceOptions contains the dependencies for creating a Service.
type ServiceOptions struct {
	PhaseAccountStore storage.PhaseAccountStore
	TradeStore        storage.TradeStore
	BreachRecordStore storage.BreachRecordStore
	PayoutStore       storage.PayoutStore

	// Clock overrides time.Now, for tests.
	Clock  func() time.Time
	Logger *log.Logger
}

// NewService creates a payout eligibility service.
func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		phases:   opts.PhaseAccountStore,
		trades:   opts.TradeStore,
		breaches: opts.BreachRecordStore,
		payouts:  opts.PayoutStore,
		clock:    clock,
		logger:   logger,
	}
}

// CheckAccount builds the account's payout state and evaluates the policy
// against it. The funding start is the phase account's start date; net
// profit counts trades bucketed after the last paid payout, or the whole
// history when no payout was ever paid.
func (s *Service) CheckAccount(ctx context.Context, phaseAccountID string, policy domain.PayoutPolicy) (Eligibility, error) {
	phase, err := s.phases.GetByID(ctx, phaseAccountID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("load phase account %s: %w", phaseAccountID, err)
	}

	state := State{FundedSince: phase.StartDate}

	lastPaid, err := s.payouts.LastPaidAt(ctx, phaseAccountID)
	switch {
	case err == nil:
		state.LastPayoutAt = &lastPaid
	case errors.Is(err, storage.ErrNotFound):
		// No payout ever paid.
	default:
		return Eligibility{}, fmt.Errorf("load last payout for %s: %w", phaseAccountID, err)
	}

	trades, err := s.trades.GetByPhaseAccount(ctx, phaseAccountID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("load trades for %s: %w", phaseAccountID, err)
	}
	for _, t := range trades {
		if state.LastPayoutAt != nil && !t.BucketTime().After(*state.LastPayoutAt) {
			continue
		}
		state.NetProfitSinceLastPayout += t.NetPnL()
	}

	unresolved, err := s.breaches.CountUnresolved(ctx, phaseAccountID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("count unresolved breaches for %s: %w", phaseAccountID, err)
	}
	state.UnresolvedBreaches = unresolved

	eligibility := CheckEligibility(policy, state, s.clock())

	s.logger.Printf("[payout] account %s: eligible=%t, max=%.2f, blockers=%d",
		phaseAccountID, eligibility.IsEligible, eligibility.MaxPayoutAmount, len(eligibility.Blockers))

	return eligibility, nil
}
