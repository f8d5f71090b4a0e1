package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// ScoringService runs the resumable scoring engine.
type ScoringService interface {
	// Score scores every unprocessed document, writing one checkpoint batch
	// per batch of new files, then writes the consolidated index.
	Score(ctx context.Context, opts domain.ScoreOptions) (*domain.ScoreSummary, error)

	// Status returns the state of the current or last run.
	Status() ScoringStatus

	// Runs returns recorded runs, most recent first.
	Runs(ctx context.Context, limit int) ([]domain.RunResult, error)
}

// ScoringStatus represents the current state of a scoring run.
type ScoringStatus struct {
	// Running indicates if a run is in progress.
	Running bool

	// Batch is the ID of the batch being scored, 0 when idle.
	Batch int

	// DocumentsProcessed counts documents scored by the current run.
	DocumentsProcessed int

	// ErrorCount is the number of documents that failed in the current run.
	ErrorCount int
}
