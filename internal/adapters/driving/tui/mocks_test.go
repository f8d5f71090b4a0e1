package tui

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// mockSelectionService implements driving.SelectionService.
type mockSelectionService struct {
	docs  []domain.DocumentScore
	err   error
	lastN int
}

func (m *mockSelectionService) TopN(_ context.Context, n int) ([]domain.DocumentScore, error) {
	m.lastN = n
	return m.docs, m.err
}

func (m *mockSelectionService) Document(_ context.Context, path string) (domain.DocumentScore, error) {
	for _, d := range m.docs {
		if d.FilePath == path {
			return d, nil
		}
	}
	return domain.DocumentScore{}, domain.ErrNotFound
}

// mockWeightService implements driving.WeightService.
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
	s, ok := m.weights.Section(key)
	if !ok {
		return nil, fmt.Errorf("section %q: %w", key, domain.ErrNotFound)
	}
	return s, nil
}

const (
	allergiesKey   = "2.16.840.1.113883.10.20.22.2.6.1"
	medicationsKey = "2.16.840.1.113883.10.20.22.2.1.1"
)

func testRanking() []domain.DocumentScore {
	return []domain.DocumentScore{
		{
			FilePath: "input/ccda/rich.xml", FileSize: 20480, TotalScore: 4.5, UniqueSections: 2,
			SectionScores: map[string]float64{allergiesKey: 1.5, medicationsKey: 3},
		},
		{
			FilePath: "input/ccda/sparse.xml", FileSize: 1024, TotalScore: 0.8, UniqueSections: 1,
			SectionScores: map[string]float64{allergiesKey: 0.8},
		},
	}
}

func testWeights() *domain.WeightConfig {
	w := domain.NewWeightConfig("test")
	w.Add(&domain.SectionWeightConfig{Key: allergiesKey, Title: "Allergies", Weight: 0.7})
	w.Add(&domain.SectionWeightConfig{Key: medicationsKey, Title: "Medications", Weight: 0.9})
	return w
}
