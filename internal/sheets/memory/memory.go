package memory

import (
	"context"
	"fmt"
	"sync"

	"spendlens/internal/core"
)

// Store is an in-memory forecast audit log used in tests and when no
// spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items []core.ForecastPoint
}

func New() *Store {
	return &Store{}
}

// Append stores the point and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, p core.ForecastPoint) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, p)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []core.ForecastPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ForecastPoint(nil), s.items...)
}
