package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure CatalogBuilder implements the interface.
var _ driving.CatalogService = (*CatalogBuilder)(nil)

// CatalogBuilder scans the corpus into a section catalog.
type CatalogBuilder struct {
	corpus driven.Corpus
	parser driven.SectionParser
	store  driven.CatalogStore
}

// NewCatalogBuilder creates a catalog builder. store may be nil, in which
// case catalogs are built but not persisted.
func NewCatalogBuilder(corpus driven.Corpus, parser driven.SectionParser, store driven.CatalogStore) *CatalogBuilder {
	return &CatalogBuilder{corpus: corpus, parser: parser, store: store}
}

// BuildCatalog scans every document once. Unparsable documents are logged,
// counted as failures and excluded from the document total. A cancelled
// scan returns the context error and never finalizes frequencies.
func (b *CatalogBuilder) BuildCatalog(ctx context.Context) (*domain.SectionCatalog, error) {
	files, err := b.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	logger.Info("Analyzing sections in %d documents from %s", len(files), b.corpus.Root())

	catalog := domain.NewSectionCatalog()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sections, err := readSections(ctx, b.corpus, b.parser, f.Path)
		if err != nil {
			logger.Warn("Skipping %s: %v", f.Path, err)
			catalog.RecordFailure()
			continue
		}
		catalog.Observe(f.Path, sections)
	}
	catalog.Finalize()

	logger.Info("Found %d unique sections across %d documents (%d failed)",
		catalog.Len(), catalog.TotalDocuments(), catalog.FailedDocuments())

	if b.store != nil {
		if err := b.store.SaveCatalog(ctx, catalog); err != nil {
			return nil, fmt.Errorf("save catalog: %w", err)
		}
	}
	return catalog, nil
}

// Catalog returns the persisted catalog.
func (b *CatalogBuilder) Catalog(ctx context.Context) (*domain.SectionCatalog, error) {
	if b.store == nil {
		return nil, errors.New("catalog store not configured")
	}
	return b.store.LoadCatalog(ctx)
}
