package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
// Used for dry runs, where nothing may be written to the checkpoint dir.
type CheckpointStore struct {
	mu      sync.RWMutex
	batches map[int]domain.CheckpointBatch
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		batches: make(map[int]domain.CheckpointBatch),
	}
}

// LoadBatches returns copies of every batch ordered by ID.
func (s *CheckpointStore) LoadBatches(_ context.Context) ([]domain.CheckpointBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CheckpointBatch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, copyBatch(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WriteBatch stores a new batch.
func (s *CheckpointStore) WriteBatch(ctx context.Context, batch domain.CheckpointBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; ok {
		return fmt.Errorf("batch %d already exists: %w", batch.ID, domain.ErrInvalidInput)
	}
	s.batches[batch.ID] = copyBatch(batch)
	return nil
}

func copyBatch(b domain.CheckpointBatch) domain.CheckpointBatch {
	scores := make([]domain.DocumentScore, len(b.Scores))
	copy(scores, b.Scores)
	return domain.CheckpointBatch{ID: b.ID, Scores: scores}
}
