package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunResult
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.RunResult),
	}
}

// RecordRun stores or replaces a run.
func (s *RunStore) RecordRun(_ context.Context, run *domain.RunResult) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

// ListRuns returns runs most recent first. limit <= 0 returns all.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.sorted()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// PruneRuns keeps the most recent 'keep' runs.
func (s *RunStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := s.sorted()
	if keep < 0 {
		keep = 0
	}
	for i := keep; i < len(runs); i++ {
		delete(s.runs, runs[i].ID)
	}
	return nil
}

// sorted returns runs by start time descending (caller must hold lock).
func (s *RunStore) sorted() []domain.RunResult {
	out := make([]domain.RunResult, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
