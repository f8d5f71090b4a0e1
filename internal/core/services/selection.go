package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
)

// Ensure Selector implements the interface.
var _ driving.SelectionService = (*Selector)(nil)

// Selector answers ranking queries from the persisted consolidated index.
type Selector struct {
	index driven.IndexStore
}

// NewSelector creates a selector.
func NewSelector(index driven.IndexStore) *Selector {
	return &Selector{index: index}
}

// TopN returns the n best documents. n <= 0 returns the whole ranking.
func (s *Selector) TopN(ctx context.Context, n int) ([]domain.DocumentScore, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.TopN(n), nil
}

// Document returns the score of one document.
func (s *Selector) Document(ctx context.Context, path string) (domain.DocumentScore, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return domain.DocumentScore{}, err
	}
	score, ok := idx.Get(path)
	if !ok {
		return domain.DocumentScore{}, fmt.Errorf("document %q: %w", path, domain.ErrNotFound)
	}
	return score, nil
}

// TopFiles returns the file paths of the n best documents.
func (s *Selector) TopFiles(ctx context.Context, n int) ([]string, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.TopFiles(n), nil
}

func (s *Selector) load(ctx context.Context) (*domain.ScoreIndex, error) {
	if s.index == nil {
		return nil, errors.New("index store not configured")
	}
	idx, err := s.index.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return idx, nil
}
