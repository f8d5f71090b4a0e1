package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// UniqueTokensFile is written next to the tokenization output.
const UniqueTokensFile = "unique_tokens.json"

// Ensure ArtifactStore implements the interfaces.
var (
	_ driven.CatalogStore     = (*ArtifactStore)(nil)
	_ driven.WeightStore      = (*ArtifactStore)(nil)
	_ driven.IndexStore       = (*ArtifactStore)(nil)
	_ driven.PHIStore         = (*ArtifactStore)(nil)
	_ driven.MatchReportStore = (*ArtifactStore)(nil)
)

// ArtifactStore reads and writes the pipeline's output files.
type ArtifactStore struct {
	paths domain.OutputConfig
}

// NewArtifactStore creates a store writing to the configured paths.
func NewArtifactStore(paths domain.OutputConfig) *ArtifactStore {
	return &ArtifactStore{paths: paths}
}

// codePairs encodes codes as [[code, codeSystem], ...].
type codePairs []domain.CodeRef

func (c codePairs) MarshalJSON() ([]byte, error) {
	out := make([][2]string, len(c))
	for i, ref := range c {
		out[i] = [2]string{ref.Code, ref.CodeSystem}
	}
	return json.Marshal(out)
}

func (c *codePairs) UnmarshalJSON(data []byte) error {
	var raw [][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	refs := make(codePairs, 0, len(raw))
	for _, pair := range raw {
		var ref domain.CodeRef
		if len(pair) > 0 {
			ref.Code = pair[0]
		}
		if len(pair) > 1 {
			ref.CodeSystem = pair[1]
		}
		refs = append(refs, ref)
	}
	*c = refs
	return nil
}

type catalogEntry struct {
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"`
	Files     int     `json:"files"`
	Instances int     `json:"instances"`

	TemplateIDs []string  `json:"template_ids"`
	Codes       codePairs `json:"codes"`
	Titles      []string  `json:"titles"`

	AvgEntries       float64 `json:"avg_entries"`
	AvgCodedElements float64 `json:"avg_coded_elements"`
	AvgTextLength    float64 `json:"avg_text_length"`

	TotalEntries       int `json:"total_entries"`
	TotalCodedElements int `json:"total_coded_elements"`
	TotalTextLength    int `json:"total_text_length"`

	ExampleFiles []string `json:"example_files"`
}

// SaveCatalog writes the catalog keyed by section, most frequent first.
func (s *ArtifactStore) SaveCatalog(ctx context.Context, catalog *domain.SectionCatalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !catalog.Finalized() {
		return domain.ErrCatalogNotFinalized
	}

	out := orderedmap.New[string, catalogEntry]()
	for _, e := range catalog.Entries() {
		out.Set(e.Key, catalogEntry{
			Count:              e.OccurrenceCount,
			Frequency:          e.Frequency,
			Files:              e.OccurrenceCount,
			Instances:          e.InstanceCount,
			TemplateIDs:        nonNil(e.TemplateIDs),
			Codes:              codePairs(e.Codes),
			Titles:             nonNil(e.Titles),
			AvgEntries:         e.AvgEntries(),
			AvgCodedElements:   e.AvgCodedElements(),
			AvgTextLength:      e.AvgNarrativeWords(),
			TotalEntries:       e.TotalEntries,
			TotalCodedElements: e.TotalCodedElements,
			TotalTextLength:    e.TotalNarrativeWords,
			ExampleFiles:       nonNil(e.ExampleFiles),
		})
	}
	return writeJSON(s.paths.CatalogFile, out)
}

// LoadCatalog reads a finalized catalog. The scanned document count is
// recovered from the stored counts and frequencies.
func (s *ArtifactStore) LoadCatalog(ctx context.Context) (*domain.SectionCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := orderedmap.New[string, catalogEntry]()
	if err := readJSON(s.paths.CatalogFile, in); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	total := 0
	entries := make([]*domain.SectionCatalogEntry, 0, in.Len())
	for pair := in.Oldest(); pair != nil; pair = pair.Next() {
		e := pair.Value
		if total == 0 && e.Frequency > 0 {
			total = int(math.Round(float64(e.Count) / e.Frequency))
		}
		instances := e.Instances
		if instances == 0 {
			instances = e.Count
		}
		entries = append(entries, &domain.SectionCatalogEntry{
			Key:                 pair.Key,
			OccurrenceCount:     e.Count,
			InstanceCount:       instances,
			Frequency:           e.Frequency,
			TemplateIDs:         e.TemplateIDs,
			Codes:               []domain.CodeRef(e.Codes),
			Titles:              e.Titles,
			TotalEntries:        e.TotalEntries,
			TotalCodedElements:  e.TotalCodedElements,
			TotalNarrativeWords: e.TotalTextLength,
			ExampleFiles:        e.ExampleFiles,
		})
	}
	return domain.RestoreSectionCatalog(total, entries), nil
}

type weightSection struct {
	Title       string                `json:"title"`
	Weight      float64               `json:"weight"`
	Frequency   float64               `json:"frequency"`
	Metrics     domain.SectionMetrics `json:"metrics"`
	Comment     string                `json:"comment"`
	TemplateIDs []string              `json:"template_ids"`
	Codes       codePairs             `json:"codes"`

	ParentSection string `json:"parent_section,omitempty"`
	LOINCCode     string `json:"loinc_code,omitempty"`
}

type weightFile struct {
	Version     string                                        `json:"version"`
	Description string                                        `json:"description"`
	Sections    *orderedmap.OrderedMap[string, weightSection] `json:"sections"`
}

// SaveWeights writes the weight table in insertion order.
func (s *ArtifactStore) SaveWeights(ctx context.Context, weights *domain.WeightConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := weightFile{
		Version:     weights.Version,
		Description: weights.Description,
		Sections:    orderedmap.New[string, weightSection](),
	}
	for _, key := range weights.Keys() {
		sec, _ := weights.Section(key)
		out.Sections.Set(key, weightSection{
			Title:         sec.Title,
			Weight:        sec.Weight,
			Frequency:     sec.Frequency,
			Metrics:       sec.Metrics,
			Comment:       sec.Comment,
			TemplateIDs:   nonNil(sec.TemplateIDs),
			Codes:         codePairs(sec.Codes),
			ParentSection: sec.ParentSection,
			LOINCCode:     sec.LOINCCode,
		})
	}
	return writeJSON(s.paths.WeightsFile, out)
}

// LoadWeights reads the weight table. A malformed file or an out of range
// weight is domain.ErrInvalidConfig.
func (s *ArtifactStore) LoadWeights(ctx context.Context) (*domain.WeightConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := weightFile{Sections: orderedmap.New[string, weightSection]()}
	if err := readJSON(s.paths.WeightsFile, &in); err != nil {
		if errors.Is(err, domain.ErrParse) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("loading weights: %w", err)
	}

	cfg := domain.NewWeightConfig(in.Description)
	if in.Version != "" {
		cfg.Version = in.Version
	}
	if in.Sections == nil {
		return cfg, nil
	}
	for pair := in.Sections.Oldest(); pair != nil; pair = pair.Next() {
		sec := pair.Value
		if sec.Weight < 0 || sec.Weight > 1 {
			return nil, fmt.Errorf("%w: section %s weight %v outside [0, 1]",
				domain.ErrInvalidConfig, pair.Key, sec.Weight)
		}
		cfg.Add(&domain.SectionWeightConfig{
			Key:           pair.Key,
			Title:         sec.Title,
			Weight:        sec.Weight,
			Frequency:     sec.Frequency,
			Metrics:       sec.Metrics,
			Comment:       sec.Comment,
			TemplateIDs:   sec.TemplateIDs,
			Codes:         []domain.CodeRef(sec.Codes),
			ParentSection: sec.ParentSection,
			LOINCCode:     sec.LOINCCode,
		})
	}
	return cfg, nil
}

// SaveIndex writes {filePath: DocumentScore} in the given order.
func (s *ArtifactStore) SaveIndex(ctx context.Context, ranked []domain.DocumentScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := orderedmap.New[string, domain.DocumentScore]()
	for _, score := range ranked {
		out.Set(score.FilePath, score)
	}
	return writeJSON(s.paths.IndexFile, out)
}

// LoadIndex reads the consolidated index. File order becomes the index's
// encounter order.
func (s *ArtifactStore) LoadIndex(ctx context.Context) (*domain.ScoreIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := orderedmap.New[string, domain.DocumentScore]()
	if err := readJSON(s.paths.IndexFile, in); err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}

	index := domain.NewScoreIndex()
	for pair := in.Oldest(); pair != nil; pair = pair.Next() {
		score := pair.Value
		score.FilePath = pair.Key
		if score.SectionScores == nil {
			score.SectionScores = make(map[string]float64)
		}
		index.Put(score)
	}
	return index, nil
}

// SavePHI writes the extracted PHI records.
func (s *ArtifactStore) SavePHI(ctx context.Context, records []domain.PHIRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeJSON(s.paths.PHIFile, nonNil(records))
}

// SaveTokens writes per-document tokenization records and the distinct
// token set beside them.
func (s *ArtifactStore) SaveTokens(ctx context.Context, records []domain.TokenizationRecord, unique []domain.PHIToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeJSON(s.paths.TokensFile, nonNil(records)); err != nil {
		return err
	}
	return writeJSON(s.UniqueTokensPath(), nonNil(unique))
}

// UniqueTokensPath returns where the distinct token set is written.
func (s *ArtifactStore) UniqueTokensPath() string {
	return filepath.Join(filepath.Dir(s.paths.TokensFile), UniqueTokensFile)
}

// SaveMatchReport writes the patient match report.
func (s *ArtifactStore) SaveMatchReport(ctx context.Context, report *domain.MatchReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := *report
	out.Matches = nonNil(out.Matches)
	return writeJSON(s.paths.MatchReport, out)
}

// LoadMatchReport reads the patient match report.
func (s *ArtifactStore) LoadMatchReport(ctx context.Context) (*domain.MatchReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var report domain.MatchReport
	if err := readJSON(s.paths.MatchReport, &report); err != nil {
		return nil, fmt.Errorf("loading match report: %w", err)
	}
	return &report, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
