package backtest

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/gold-data/internal/types"
)

// Store keeps every backtest run of the process. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	runs []types.BacktestResult
}

func NewStore() *Store {
	return &Store{mu: sync.RWMutex{}, runs: nil}
}

func (s *Store) Add(result types.BacktestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, result)
}

// List returns the saved runs, most recently added first.
func (s *Store) List() []types.BacktestResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.runs)
	slices.Reverse(out)

	if out == nil {
		return []types.BacktestResult{}
	}

	return out
}
