package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
)

// executeCommand runs the root command with args and returns its output.
// Flags are reset afterwards so tests do not leak values into each other.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		cfg = domain.DefaultConfig()
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	saved := Services{
		Catalog:   catalogService,
		Weights:   weightService,
		Scoring:   scoringService,
		DryRun:    dryRunService,
		Selection: selectionService,
		Reformat:  reformatService,
		PHI:       phiService,
		Match:     matchService,
		Export:    exportService,
		Watcher:   watcher,
	}
	install(s)
	t.Cleanup(func() {
		install(&saved)
		closer = nil
	})
}

func testScores() []domain.DocumentScore {
	return []domain.DocumentScore{
		{FilePath: "input/ccda/rich.xml", TotalScore: 12.5, UniqueSections: 9,
			SectionScores: map[string]float64{"a": 12.5}},
		{FilePath: "input/ccda/medium.xml", TotalScore: 6.25, UniqueSections: 5,
			SectionScores: map[string]float64{"a": 6.25}},
		{FilePath: "input/ccda/broken.xml", Error: "parse: unexpected EOF",
			SectionScores: map[string]float64{}},
	}
}

// mockCatalogService implements driving.CatalogService.
type mockCatalogService struct {
	catalog *domain.SectionCatalog
	err     error
	builds  int
}

func (m *mockCatalogService) BuildCatalog(_ context.Context) (*domain.SectionCatalog, error) {
	m.builds++
	return m.catalog, m.err
}

func (m *mockCatalogService) Catalog(_ context.Context) (*domain.SectionCatalog, error) {
	return m.catalog, m.err
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
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.weights.Section(key)
	if !ok {
		return nil, fmt.Errorf("section %q: %w", key, domain.ErrNotFound)
	}
	return s, nil
}

// mockScoringService implements driving.ScoringService.
type mockScoringService struct {
	summary *domain.ScoreSummary
	err     error
	runs    []domain.RunResult
	opts    []domain.ScoreOptions
	limit   int
}

func (m *mockScoringService) Score(_ context.Context, opts domain.ScoreOptions) (*domain.ScoreSummary, error) {
	m.opts = append(m.opts, opts)
	return m.summary, m.err
}

func (m *mockScoringService) Status() driving.ScoringStatus {
	return driving.ScoringStatus{}
}

func (m *mockScoringService) Runs(_ context.Context, limit int) ([]domain.RunResult, error) {
	m.limit = limit
	return m.runs, m.err
}

// mockSelectionService implements driving.SelectionService.
type mockSelectionService struct {
	ranked []domain.DocumentScore
	err    error
	lastN  int
}

func (m *mockSelectionService) TopN(_ context.Context, n int) ([]domain.DocumentScore, error) {
	m.lastN = n
	if m.err != nil {
		return nil, m.err
	}
	if n <= 0 || n > len(m.ranked) {
		return m.ranked, nil
	}
	return m.ranked[:n], nil
}

func (m *mockSelectionService) Document(_ context.Context, path string) (domain.DocumentScore, error) {
	for _, d := range m.ranked {
		if d.FilePath == path {
			return d, nil
		}
	}
	return domain.DocumentScore{}, domain.ErrNotFound
}

// mockReformatService implements driving.ReformatService.
type mockReformatService struct {
	summary *domain.ReformatSummary
	report  *domain.VerifyReport
	err     error

	n      int
	outDir string
	sample int
	seed   int64
}

func (m *mockReformatService) Reformat(_ context.Context, n int, outDir string) (*domain.ReformatSummary, error) {
	m.n, m.outDir = n, outDir
	return m.summary, m.err
}

func (m *mockReformatService) Verify(_ context.Context, outDir string, sample int, seed int64) (*domain.VerifyReport, error) {
	m.outDir, m.sample, m.seed = outDir, sample, seed
	return m.report, m.err
}

// mockPHIService implements driving.PHIService.
type mockPHIService struct {
	summary *domain.PHISummary
	err     error

	file   string
	sample int
	seed   int64
}

func (m *mockPHIService) Extract(_ context.Context, file string) (*domain.PHISummary, error) {
	m.file = file
	return m.summary, m.err
}

func (m *mockPHIService) Tokenize(_ context.Context, sample int, seed int64) (*domain.PHISummary, error) {
	m.sample, m.seed = sample, seed
	return m.summary, m.err
}

// mockMatchService implements driving.MatchService.
type mockMatchService struct {
	report *domain.MatchReport
	err    error
	n      int
}

func (m *mockMatchService) Match(_ context.Context, n int) (*domain.MatchReport, error) {
	m.n = n
	return m.report, m.err
}

// mockExportService implements driving.ExportService.
type mockExportService struct {
	summary *domain.UploadSummary
	err     error

	n      int
	folder string
	days   int
}

func (m *mockExportService) ExportEHR(_ context.Context, n int, folder string) (*domain.UploadSummary, error) {
	m.n, m.folder = n, folder
	return m.summary, m.err
}

func (m *mockExportService) ExportReadings(_ context.Context, days int) (*domain.UploadSummary, error) {
	m.days = days
	return m.summary, m.err
}

// mockWatcher implements driving.Watcher.
type mockWatcher struct {
	err     error
	started bool
}

func (m *mockWatcher) Start(_ context.Context) error {
	m.started = true
	return m.err
}

func (m *mockWatcher) Stop() error { return nil }

// memConfigStore implements driven.ConfigStore in memory.
type memConfigStore struct {
	cfg     *domain.Config
	saved   *domain.Config
	loadErr error
}

func (m *memConfigStore) Load() (domain.Config, error) {
	if m.loadErr != nil {
		return domain.DefaultConfig(), m.loadErr
	}
	if m.cfg == nil {
		return domain.DefaultConfig(), nil
	}
	return *m.cfg, nil
}

func (m *memConfigStore) Save(c domain.Config) error {
	m.saved = &c
	m.cfg = &c
	return nil
}

func (m *memConfigStore) Exists() bool { return m.cfg != nil }

func (m *memConfigStore) Path() string { return "/tmp/ccdarank.toml" }
