package memory

import (
	"context"
	"sort"
	"sync"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

// WindowResultStore is an in-memory implementation of storage.WindowResultStore.
type WindowResultStore struct {
	mu   sync.RWMutex
	data map[windowResultKey]*domain.WindowResult
}

type windowResultKey struct {
	configID string
	symbol   string
}

// NewWindowResultStore creates a new in-memory window result store.
func NewWindowResultStore() *WindowResultStore {
	return &WindowResultStore{
		data: make(map[windowResultKey]*domain.WindowResult),
	}
}

var _ storage.WindowResultStore = (*WindowResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if (config_id, symbol) exists.
func (s *WindowResultStore) Insert(_ context.Context, r *domain.WindowResult) error {
	if r == nil || r.ConfigID == "" || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := windowResultKey{r.ConfigID, r.Symbol}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[k] = copyWindowResult(r)
	return nil
}

// GetByConfigID retrieves the result for a configuration on a symbol.
func (s *WindowResultStore) GetByConfigID(_ context.Context, configID, symbol string) (*domain.WindowResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[windowResultKey{configID, symbol}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyWindowResult(r), nil
}

// GetBySymbol retrieves all results for a symbol, ordered by config_id ASC.
func (s *WindowResultStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.WindowResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WindowResult
	for _, r := range s.data {
		if r.Symbol == symbol {
			result = append(result, copyWindowResult(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ConfigID < result[j].ConfigID
	})

	return result, nil
}

// copyWindowResult deep-copies the metric slices so callers cannot mutate
// stored data.
func copyWindowResult(r *domain.WindowResult) *domain.WindowResult {
	out := *r
	out.WindowMetrics = append([]float64(nil), r.WindowMetrics...)
	out.TradeCounts = append([]int(nil), r.TradeCounts...)
	return &out
}
