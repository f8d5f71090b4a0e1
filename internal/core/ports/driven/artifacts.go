package driven

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// CatalogStore persists the section catalog.
type CatalogStore interface {
	SaveCatalog(ctx context.Context, catalog *domain.SectionCatalog) error

	// LoadCatalog returns domain.ErrNotFound when no catalog was written.
	LoadCatalog(ctx context.Context) (*domain.SectionCatalog, error)
}

// WeightStore persists the weight configuration.
type WeightStore interface {
	SaveWeights(ctx context.Context, weights *domain.WeightConfig) error

	// LoadWeights returns domain.ErrNotFound when the file does not exist
	// and an error wrapping domain.ErrInvalidConfig when it is malformed.
	LoadWeights(ctx context.Context) (*domain.WeightConfig, error)
}

// IndexStore persists the consolidated score index.
type IndexStore interface {
	// SaveIndex writes scores in the given order.
	SaveIndex(ctx context.Context, ranked []domain.DocumentScore) error

	// LoadIndex returns domain.ErrNotFound when no index was written.
	LoadIndex(ctx context.Context) (*domain.ScoreIndex, error)
}

// PHIStore persists PHI extraction and tokenization output.
type PHIStore interface {
	SavePHI(ctx context.Context, records []domain.PHIRecord) error
	SaveTokens(ctx context.Context, records []domain.TokenizationRecord, unique []domain.PHIToken) error
}

// MatchReportStore persists patient match reports.
type MatchReportStore interface {
	SaveMatchReport(ctx context.Context, report *domain.MatchReport) error
	LoadMatchReport(ctx context.Context) (*domain.MatchReport, error)
}
