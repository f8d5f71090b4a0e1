package driven

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// RunStore keeps the ledger of scoring runs.
type RunStore interface {
	// RecordRun stores a finished run.
	RecordRun(ctx context.Context, run *domain.RunResult) error

	// ListRuns returns recent runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunResult, error)

	// PruneRuns keeps the most recent 'keep' runs.
	PruneRuns(ctx context.Context, keep int) error
}
