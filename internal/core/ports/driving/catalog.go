package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// CatalogService builds the corpus-wide section catalog.
type CatalogService interface {
	// BuildCatalog scans the whole corpus, finalizes frequencies and
	// persists the catalog.
	BuildCatalog(ctx context.Context) (*domain.SectionCatalog, error)

	// Catalog returns the last persisted catalog.
	Catalog(ctx context.Context) (*domain.SectionCatalog, error)
}
