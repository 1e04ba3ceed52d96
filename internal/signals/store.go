package signals

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/gold-data/internal/types"
)

// Store holds the most recently generated signals. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	signals []types.Signal
}

func NewStore() *Store {
	return &Store{mu: sync.RWMutex{}, signals: nil}
}

// Replace discards the stored signals and keeps a copy of signals instead.
func (s *Store) Replace(signals []types.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signals = slices.Clone(signals)
}

// List returns the stored signals, newest first.
func (s *Store) List() []types.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.signals)
	slices.SortStableFunc(out, func(a, b types.Signal) int {
		return b.Date.Compare(a.Date)
	})

	if out == nil {
		return []types.Signal{}
	}

	return out
}
