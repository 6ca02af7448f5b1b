package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

func makeTrade(id string, pnl float64, exit time.Time) *domain.Trade {
	return &domain.Trade{
		TradeID:        id,
		PhaseAccountID: "phase-1",
		PnL:            &pnl,
		ExitTime:       &exit,
		CreatedAt:      exit,
	}
}

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	exit := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if err := store.Insert(ctx, makeTrade("t1", 150, exit)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	trades, err := store.GetByPhaseAccount(ctx, "phase-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(trades) != 1 || trades[0].TradeID != "t1" {
		t.Errorf("unexpected trades: %+v", trades)
	}
}

func TestTradeStore_InsertDuplicate(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	exit := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if err := store.Insert(ctx, makeTrade("t1", 150, exit)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	err := store.Insert(ctx, makeTrade("t1", 999, exit))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeStore_InvalidInput(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil trade: expected ErrInvalidInput, got %v", err)
	}

	exit := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	missing := makeTrade("", 10, exit)
	if err := store.Insert(ctx, missing); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty trade id: expected ErrInvalidInput, got %v", err)
	}
}

// Results come back ordered by bucket time regardless of insert order; a
// trade without exit_time falls back to created_at.
func TestTradeStore_OrderedByBucketTime(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	late := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	early := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if err := store.Insert(ctx, makeTrade("t-late", 10, late)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, makeTrade("t-early", 10, early)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	noExit := &domain.Trade{
		TradeID:        "t-open",
		PhaseAccountID: "phase-1",
		CreatedAt:      time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Insert(ctx, noExit); err != nil {
		t.Fatalf("insert: %v", err)
	}

	trades, err := store.GetByPhaseAccount(ctx, "phase-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := []string{"t-early", "t-open", "t-late"}
	if len(trades) != len(want) {
		t.Fatalf("expected %d trades, got %d", len(want), len(trades))
	}
	for i, id := range want {
		if trades[i].TradeID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, trades[i].TradeID)
		}
	}
}

// A bulk insert containing a duplicate leaves the store untouched.
func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	exit := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if err := store.Insert(ctx, makeTrade("t1", 150, exit)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	batch := []*domain.Trade{
		makeTrade("t2", 50, exit.Add(time.Hour)),
		makeTrade("t1", 999, exit.Add(2*time.Hour)),
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	trades, err := store.GetByPhaseAccount(ctx, "phase-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("failed batch must not partially apply, got %d trades", len(trades))
	}
}

// The store hands out copies; mutating a result must not corrupt stored data.
func TestTradeStore_ReturnsCopies(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	exit := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if err := store.Insert(ctx, makeTrade("t1", 150, exit)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	first, err := store.GetByPhaseAccount(ctx, "phase-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first[0].PhaseAccountID = "tampered"

	second, err := store.GetByPhaseAccount(ctx, "phase-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(second) != 1 || second[0].PhaseAccountID != "phase-1" {
		t.Errorf("stored trade was mutated: %+v", second)
	}
}
