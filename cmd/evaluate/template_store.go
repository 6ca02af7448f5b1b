package main

import (
	"context"

	"github.com/kalabhaftu/propeval/internal/config"
	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// templatedPhaseStore wraps a PhaseAccountStore and overlays template rules
// on every account it returns. Reads only; writes pass through untouched.
type templatedPhaseStore struct {
	storage.PhaseAccountStore

	template *config.Template
	rules    *config.PhaseRules
}

func (s *templatedPhaseStore) GetByID(ctx context.Context, phaseAccountID string) (*domain.PhaseAccount, error) {
	phase, err := s.PhaseAccountStore.GetByID(ctx, phaseAccountID)
	if err != nil {
		return nil, err
	}
	s.template.ApplyPhase(s.rules, phase)
	return phase, nil
}
