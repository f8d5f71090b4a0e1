package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// PHIService extracts and tokenizes patient PHI.
type PHIService interface {
	// Extract walks every corpus document, or only file when set.
	Extract(ctx context.Context, file string) (*domain.PHISummary, error)

	// Tokenize normalises PHI for tokenization. sample > 0 limits the run
	// to a deterministic sample of that many documents.
	Tokenize(ctx context.Context, sample int, seed int64) (*domain.PHISummary, error)
}
