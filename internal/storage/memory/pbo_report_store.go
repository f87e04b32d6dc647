package memory

import (
	"context"
	"sort"
	"sync"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/storage"
)

// PBOReportStore is an in-memory implementation of storage.PBOReportStore.
type PBOReportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PBOResult // keyed by run_id
}

// NewPBOReportStore creates a new in-memory PBO report store.
func NewPBOReportStore() *PBOReportStore {
	return &PBOReportStore{
		data: make(map[string]*domain.PBOResult),
	}
}

var _ storage.PBOReportStore = (*PBOReportStore)(nil)

// Insert adds a new report. Returns ErrDuplicateKey if run_id exists.
func (s *PBOReportStore) Insert(_ context.Context, r *domain.PBOResult) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyPBOResult(r)
	return nil
}

// GetByRunID retrieves a report by its run ID. Returns ErrNotFound if not exists.
func (s *PBOReportStore) GetByRunID(_ context.Context, runID string) (*domain.PBOResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyPBOResult(r), nil
}

// GetAll retrieves all reports, ordered by run_id ASC.
func (s *PBOReportStore) GetAll(_ context.Context) ([]*domain.PBOResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PBOResult, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyPBOResult(r))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

func copyPBOResult(r *domain.PBOResult) *domain.PBOResult {
	out := *r
	out.OOSRankDistribution = append([]int(nil), r.OOSRankDistribution...)
	return &out
}
