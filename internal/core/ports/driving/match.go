package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// MatchService links top-ranked documents to patients and their data.
type MatchService interface {
	// Match processes the top n documents and persists the report.
	Match(ctx context.Context, n int) (*domain.MatchReport, error)
}
