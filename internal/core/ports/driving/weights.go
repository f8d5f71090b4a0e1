package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// WeightService derives and serves section weights.
type WeightService interface {
	// GenerateWeights derives weights from the persisted catalog and
	// persists the result.
	GenerateWeights(ctx context.Context) (*domain.WeightConfig, error)

	// Weights returns the persisted weight table.
	Weights(ctx context.Context) (*domain.WeightConfig, error)

	// Section returns one section's weight config.
	Section(ctx context.Context, key string) (*domain.SectionWeightConfig, error)
}
