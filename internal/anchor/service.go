// Package anchor manages per-day equity anchors. The anchor records equity
// at the start of a trading day and is the baseline for that day's drawdown.
// Anchors are advisory: every failure path falls back to a computed value
// and evaluation always proceeds.
package anchor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/idhash"
	"github.com/kalabhaftu/propeval/internal/storage"
	"github.com/kalabhaftu/propeval/internal/tradingday"
)

// Service lazily creates and reads daily anchors.
type Service struct {
	store  storage.AnchorStore
	logger *log.Logger
}

// NewService creates an anchor service. A nil logger uses the default.
func NewService(store storage.AnchorStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, logger: logger}
}

// GetOrCreateToday returns the equity baseline for today (in the account
// timezone). A stored anchor wins; otherwise the current running equity
// (account size + net P&L of all trades) is computed, persisted best-effort,
// and returned. The first persisted value freezes the day's baseline.
//
// Two concurrent first-calls of the day race on the create; the storage
// layer's uniqueness constraint makes the first writer win and the loser
// re-reads the stored value. A create failure is logged and the computed
// value is returned; an anchor write problem never aborts evaluation.
func (s *Service) GetOrCreateToday(ctx context.Context, phase *domain.PhaseAccount, trades []*domain.Trade, now time.Time) float64 {
	day := tradingday.DayKey(now, phase.Timezone)

	existing, err := s.store.Find(ctx, phase.PhaseAccountID, day)
	if err == nil {
		return existing.AnchorEquity
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Printf("[anchor] read failed for %s/%s: %v", phase.PhaseAccountID, day, err)
	}

	equity := phase.AccountSize
	for _, t := range trades {
		equity += t.NetPnL()
	}

	created := &domain.DailyAnchor{
		AnchorID:       idhash.AnchorID(phase.PhaseAccountID, day),
		PhaseAccountID: phase.PhaseAccountID,
		Day:            day,
		AnchorEquity:   equity,
		CreatedAt:      now,
	}

	err = s.store.Create(ctx, created)
	if err == nil {
		return equity
	}

	if errors.Is(err, storage.ErrDuplicateKey) {
		// Lost the first-writer race; the stored start-of-day value wins.
		winner, readErr := s.store.Find(ctx, phase.PhaseAccountID, day)
		if readErr == nil {
			return winner.AnchorEquity
		}
		s.logger.Printf("[anchor] re-read after conflict failed for %s/%s: %v", phase.PhaseAccountID, day, readErr)
		return equity
	}

	s.logger.Printf("[anchor] create failed for %s/%s: %v", phase.PhaseAccountID, day, err)
	return equity
}
