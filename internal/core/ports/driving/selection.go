package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// SelectionService answers ranking queries over the consolidated index.
type SelectionService interface {
	// TopN returns the n best documents, ties in encounter order.
	TopN(ctx context.Context, n int) ([]domain.DocumentScore, error)

	// Document returns the score of one document.
	Document(ctx context.Context, path string) (domain.DocumentScore, error)
}
