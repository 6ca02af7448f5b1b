package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

func makeAnchor(phaseID, day string, equity float64) *domain.DailyAnchor {
	return &domain.DailyAnchor{
		AnchorID:       phaseID + "-" + day,
		PhaseAccountID: phaseID,
		Day:            day,
		AnchorEquity:   equity,
		CreatedAt:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestAnchorStore_CreateAndFind(t *testing.T) {
	store := NewAnchorStore()
	ctx := context.Background()

	if err := store.Create(ctx, makeAnchor("phase-1", "2024-03-05", 10200)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Find(ctx, "phase-1", "2024-03-05")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.AnchorEquity != 10200 {
		t.Errorf("expected equity 10200, got %f", got.AnchorEquity)
	}
}

func TestAnchorStore_FindNotFound(t *testing.T) {
	store := NewAnchorStore()

	_, err := store.Find(context.Background(), "phase-1", "2024-03-05")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// The second writer for a day loses and the stored value stays the first
// writer's.
func TestAnchorStore_FirstWriterWins(t *testing.T) {
	store := NewAnchorStore()
	ctx := context.Background()

	if err := store.Create(ctx, makeAnchor("phase-1", "2024-03-05", 10200)); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := store.Create(ctx, makeAnchor("phase-1", "2024-03-05", 9000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, err := store.Find(ctx, "phase-1", "2024-03-05")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.AnchorEquity != 10200 {
		t.Errorf("first writer's value must survive, got %f", got.AnchorEquity)
	}
}

func TestAnchorStore_SameDayDifferentPhases(t *testing.T) {
	store := NewAnchorStore()
	ctx := context.Background()

	if err := store.Create(ctx, makeAnchor("phase-1", "2024-03-05", 10200)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, makeAnchor("phase-2", "2024-03-05", 50000)); err != nil {
		t.Fatalf("create for second phase: %v", err)
	}
}

func TestAnchorStore_DeleteByPhaseAccount(t *testing.T) {
	store := NewAnchorStore()
	ctx := context.Background()

	if err := store.Create(ctx, makeAnchor("phase-1", "2024-03-05", 10200)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, makeAnchor("phase-1", "2024-03-06", 10300)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, makeAnchor("phase-2", "2024-03-05", 50000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.DeleteByPhaseAccount(ctx, "phase-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := store.Find(ctx, "phase-1", "2024-03-05"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected phase-1 anchors gone, got %v", err)
	}
	if _, err := store.Find(ctx, "phase-2", "2024-03-05"); err != nil {
		t.Errorf("phase-2 anchors must survive: %v", err)
	}
}

func TestAnchorStore_InvalidInput(t *testing.T) {
	store := NewAnchorStore()

	err := store.Create(context.Background(), &domain.DailyAnchor{PhaseAccountID: "phase-1"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("missing day: expected ErrInvalidInput, got %v", err)
	}
}
