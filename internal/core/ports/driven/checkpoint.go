package driven

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// CheckpointStore persists append-only scoring batches.
// A store is written by a single engine instance at a time.
type CheckpointStore interface {
	// LoadBatches returns every stored batch ordered by ID ascending.
	LoadBatches(ctx context.Context) ([]domain.CheckpointBatch, error)

	// WriteBatch durably persists a new batch. Writing an ID that already
	// exists is an error; batches are never modified.
	WriteBatch(ctx context.Context, batch domain.CheckpointBatch) error
}
