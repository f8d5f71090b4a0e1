package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// readSections opens one corpus document and parses its sections.
func readSections(
	ctx context.Context,
	corpus driven.Corpus,
	parser driven.SectionParser,
	path string,
) ([]domain.SectionObservation, error) {
	rc, err := corpus.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer rc.Close()

	sections, err := parser.ParseSections(rc)
	if err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	return sections, nil
}

// readPHI opens one corpus document and extracts its patient PHI.
func readPHI(ctx context.Context, corpus driven.Corpus, parser driven.PHIParser, path string) (*domain.PHIData, error) {
	rc, err := corpus.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer rc.Close()

	data, err := parser.ParsePHI(rc)
	if err != nil {
		return nil, fmt.Errorf("parse phi: %w", err)
	}
	return data, nil
}
