// Package stub provides an in-memory fill source for tests and local runs
// without a live feed.
package stub

import (
	"context"
	"sync"

	"github.com/kalabhaftu/propeval/internal/ingestion"
)

// FillSource replays a fixed set of fills and then closes its channel.
type FillSource struct {
	fills []*ingestion.Fill

	mu     sync.Mutex
	closed bool
}

// NewFillSource creates a stub source that will emit the given fills.
func NewFillSource(fills []*ingestion.Fill) *FillSource {
	return &FillSource{fills: fills}
}

// Compile-time interface check.
var _ ingestion.FillSource = (*FillSource)(nil)

// Subscribe emits all fills and closes the channel.
func (s *FillSource) Subscribe(ctx context.Context) (<-chan *ingestion.Fill, error) {
	ch := make(chan *ingestion.Fill, len(s.fills))
	for _, f := range s.fills {
		ch <- f
	}
	close(ch)
	return ch, nil
}

// Close marks the source closed.
func (s *FillSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
