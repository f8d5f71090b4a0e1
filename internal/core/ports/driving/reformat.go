package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// ReformatService pretty-prints selected documents and verifies the output.
type ReformatService interface {
	// Reformat writes the top n documents, indented, into outDir.
	Reformat(ctx context.Context, n int, outDir string) (*domain.ReformatSummary, error)

	// Verify compares a sample of reformatted documents with their originals.
	Verify(ctx context.Context, outDir string, sample int, seed int64) (*domain.VerifyReport, error)
}
