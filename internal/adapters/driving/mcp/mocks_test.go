package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// mockSelectionService is a mock implementation of driving.SelectionService.
type mockSelectionService struct {
	ranked []domain.DocumentScore
	err    error
}

func (m *mockSelectionService) TopN(_ context.Context, n int) ([]domain.DocumentScore, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n <= 0 || n > len(m.ranked) {
		return m.ranked, nil
	}
	return m.ranked[:n], nil
}

func (m *mockSelectionService) Document(_ context.Context, path string) (domain.DocumentScore, error) {
	if m.err != nil {
		return domain.DocumentScore{}, m.err
	}
	for _, d := range m.ranked {
		if d.FilePath == path {
			return d, nil
		}
	}
	return domain.DocumentScore{}, fmt.Errorf("document %q: %w", path, domain.ErrNotFound)
}

// mockWeightService is a mock implementation of driving.WeightService.
type mockWeightService struct {
	weights *domain.WeightConfig
	err     error
}

func (m *mockWeightService) GenerateWeights(_ context.Context) (*domain.WeightConfig, error) {
	return m.weights, m.err
}

func (m *mockWeightService) Weights(_ context.Context) (*domain.WeightConfig, error) {
	return m.weights, m.err
}

func (m *mockWeightService) Section(_ context.Context, key string) (*domain.SectionWeightConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.weights.Section(key)
	if !ok {
		return nil, fmt.Errorf("section %q: %w", key, domain.ErrNotFound)
	}
	return s, nil
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	catalog *domain.SectionCatalog
	err     error
}

func (m *mockCatalogService) BuildCatalog(_ context.Context) (*domain.SectionCatalog, error) {
	return m.catalog, m.err
}

func (m *mockCatalogService) Catalog(_ context.Context) (*domain.SectionCatalog, error) {
	return m.catalog, m.err
}

func testRanking() []domain.DocumentScore {
	return []domain.DocumentScore{
		{
			FilePath:       "input/ccda/rich.xml",
			FileSize:       4096,
			SectionScores:  map[string]float64{"2.16.840.1.113883.10.20.22.2.5.1": 3.5, "2.16.840.1.113883.10.20.22.2.1.1": 2.25},
			TotalScore:     5.75,
			UniqueSections: 2,
		},
		{
			FilePath:       "input/ccda/thin.xml",
			FileSize:       1024,
			SectionScores:  map[string]float64{"2.16.840.1.113883.10.20.22.2.5.1": 1},
			TotalScore:     1,
			UniqueSections: 1,
		},
		{
			FilePath:      "input/ccda/broken.xml",
			SectionScores: map[string]float64{},
			Error:         "parse: unexpected EOF",
		},
	}
}

func testWeights() *domain.WeightConfig {
	cfg := domain.NewWeightConfig("test weights")
	cfg.Add(&domain.SectionWeightConfig{
		Key:         "2.16.840.1.113883.10.20.22.2.5.1",
		Title:       "Problem List",
		Weight:      0.9,
		Frequency:   1,
		Comment:     "Present in all documents",
		TemplateIDs: []string{"2.16.840.1.113883.10.20.22.2.5.1"},
	})
	cfg.Add(&domain.SectionWeightConfig{
		Key:       "2.16.840.1.113883.10.20.22.2.65_11506-3",
		Title:     "Progress Note",
		Weight:    0.6,
		Frequency: 0.5,
		Comment:   "Note subsection",
		LOINCCode: "11506-3",

		ParentSection: "2.16.840.1.113883.10.20.22.2.65",
	})
	return cfg
}
