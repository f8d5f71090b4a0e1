package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure WeightService implements the interface.
var _ driving.WeightService = (*WeightService)(nil)

const weightsDescription = "CCDA sections configuration generated from analysis of actual CCDA files"

// Weight formula coefficients.
const (
	baseWeight         = 0.3
	coreFrequency      = 0.95
	commonFrequency    = 0.75
	coreFrequencyBonus = 0.2
	commonFreqBonus    = 0.1
	maxContentBonus    = 0.3
	entryContent       = 0.1
	codedContent       = 0.05
	narrativeContent   = 0.001
)

// WeightService generates the weight table from a persisted catalog.
type WeightService struct {
	catalogs driven.CatalogStore
	weights  driven.WeightStore
}

// NewWeightService creates a weight service.
func NewWeightService(catalogs driven.CatalogStore, weights driven.WeightStore) *WeightService {
	return &WeightService{catalogs: catalogs, weights: weights}
}

// GenerateWeights loads the catalog, derives weights and persists them.
func (s *WeightService) GenerateWeights(ctx context.Context) (*domain.WeightConfig, error) {
	if s.catalogs == nil || s.weights == nil {
		return nil, errors.New("weight service not configured")
	}
	catalog, err := s.catalogs.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	cfg, err := DeriveWeights(catalog)
	if err != nil {
		return nil, err
	}
	if err := s.weights.SaveWeights(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save weights: %w", err)
	}

	logger.Info("Generated weights for %d sections", cfg.Len())
	return cfg, nil
}

// Weights returns the persisted weight table.
func (s *WeightService) Weights(ctx context.Context) (*domain.WeightConfig, error) {
	if s.weights == nil {
		return nil, errors.New("weight store not configured")
	}
	return s.weights.LoadWeights(ctx)
}

// Section returns the weight config of one section key.
func (s *WeightService) Section(ctx context.Context, key string) (*domain.SectionWeightConfig, error) {
	cfg, err := s.Weights(ctx)
	if err != nil {
		return nil, err
	}
	section, ok := cfg.Section(key)
	if !ok {
		return nil, fmt.Errorf("section %q: %w", key, domain.ErrNotFound)
	}
	return section, nil
}

// DeriveWeights computes a weight config for every catalog entry, plus a
// derived subsection for every note-type code tagging an entry. The output
// depends only on the catalog.
func DeriveWeights(catalog *domain.SectionCatalog) (*domain.WeightConfig, error) {
	if !catalog.Finalized() {
		return nil, domain.ErrCatalogNotFinalized
	}

	cfg := domain.NewWeightConfig(weightsDescription)
	for _, entry := range catalog.Entries() {
		metrics := entry.Metrics()
		cfg.Add(sectionWeight(entry.Key, primaryTitle(entry.Titles), entry.Frequency, metrics,
			entry.TemplateIDs, entry.Codes))

		for _, code := range noteCodes(entry.Codes) {
			title, _ := domain.NoteTypeTitle(code.Code)
			key := domain.SubsectionKey(entry.Key, code.Code)
			sub := sectionWeight(key, title, entry.Frequency, metrics, entry.TemplateIDs, []domain.CodeRef{code})
			sub.ParentSection = entry.Key
			sub.LOINCCode = code.Code
			cfg.Add(sub)
		}
	}
	return cfg, nil
}

func sectionWeight(
	key, title string,
	frequency float64,
	metrics domain.SectionMetrics,
	templateIDs []string,
	codes []domain.CodeRef,
) *domain.SectionWeightConfig {
	bonus := domain.ClinicalImportanceBonus(key, codes)
	return &domain.SectionWeightConfig{
		Key:         key,
		Title:       title,
		Weight:      CalculateWeight(frequency, metrics, bonus),
		Frequency:   frequency,
		Metrics:     metrics,
		Comment:     SectionComment(frequency, metrics),
		TemplateIDs: append([]string{}, templateIDs...),
		Codes:       append([]domain.CodeRef{}, codes...),
	}
}

// CalculateWeight applies the weight formula. The cap is applied after
// rounding, as the last step.
func CalculateWeight(frequency float64, m domain.SectionMetrics, importanceBonus float64) float64 {
	weight := baseWeight

	switch {
	case frequency >= coreFrequency:
		weight += coreFrequencyBonus
	case frequency >= commonFrequency:
		weight += commonFreqBonus
	}

	content := m.AvgEntries*entryContent + m.AvgCodedElements*codedContent + m.AvgNarrativeWords*narrativeContent
	weight += min(maxContentBonus, content)
	weight += importanceBonus

	return min(1.0, domain.Round(weight, 2))
}

// SectionComment explains a weight in frequency, density and narrative tiers.
func SectionComment(frequency float64, m domain.SectionMetrics) string {
	var parts []string

	switch {
	case frequency >= coreFrequency:
		parts = append(parts, "Core section (present in 95%+ of files)")
	case frequency >= commonFrequency:
		parts = append(parts, "Common section (present in 75%+ of files)")
	default:
		parts = append(parts, fmt.Sprintf("Present in %.1f%% of files", frequency*100))
	}

	switch {
	case m.AvgEntries > 10 || m.AvgCodedElements > 100:
		parts = append(parts, "High content density")
	case m.AvgEntries > 5 || m.AvgCodedElements > 50:
		parts = append(parts, "Moderate content density")
	}

	switch {
	case m.AvgNarrativeWords > 1000:
		parts = append(parts, "Rich narrative content")
	case m.AvgNarrativeWords > 100:
		parts = append(parts, "Moderate narrative content")
	}

	return strings.Join(parts, ". ")
}

func primaryTitle(titles []string) string {
	for _, t := range titles {
		if strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	return "Unknown Section"
}

// noteCodes returns the distinct note-type codes among codes, ordered by code.
func noteCodes(codes []domain.CodeRef) []domain.CodeRef {
	seen := make(map[string]bool)
	var out []domain.CodeRef
	for _, c := range codes {
		if _, ok := domain.NoteTypeTitle(c.Code); !ok || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
