package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockCorpus implements driven.Corpus over in-memory documents.
type mockCorpus struct {
	mu      sync.Mutex
	order   []string
	docs    map[string]string
	listErr error
	opens   map[string]int
	events  chan string
}

func newMockCorpus() *mockCorpus {
	return &mockCorpus{docs: make(map[string]string), opens: make(map[string]int)}
}

func (m *mockCorpus) add(path, content string) *mockCorpus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[path]; !ok {
		m.order = append(m.order, path)
	}
	m.docs[path] = content
	return m
}

func (m *mockCorpus) openCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[path]
}

func (m *mockCorpus) Root() string { return "mem://corpus" }

func (m *mockCorpus) List(_ context.Context) ([]domain.CorpusFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.CorpusFile, len(m.order))
	for i, p := range m.order {
		out[i] = domain.CorpusFile{Path: p, Size: int64(len(m.docs[p]))}
	}
	return out, nil
}

func (m *mockCorpus) Open(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens[path]++
	content, ok := m.docs[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrNotFound)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *mockCorpus) Watch(ctx context.Context) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-m.events:
				if !ok {
					return
				}
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// mockSectionParser maps document content to observations. Content
// starting with "bad" fails to parse.
type mockSectionParser struct {
	sections map[string][]domain.SectionObservation
}

func (m *mockSectionParser) ParseSections(r io.Reader) ([]domain.SectionObservation, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := string(b)
	if strings.HasPrefix(content, "bad") {
		return nil, fmt.Errorf("%w: unexpected EOF", domain.ErrParse)
	}
	return m.sections[content], nil
}

// mockPHIParser maps document content to PHI data.
type mockPHIParser struct {
	data map[string]*domain.PHIData
}

func (m *mockPHIParser) ParsePHI(r io.Reader) (*domain.PHIData, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d, ok := m.data[string(b)]
	if !ok {
		return nil, domain.ErrNoPatient
	}
	return d, nil
}

// mockCheckpoints implements driven.CheckpointStore.
type mockCheckpoints struct {
	mu       sync.Mutex
	batches  []domain.CheckpointBatch
	writeErr error
	loadErr  error
	writes   int
}

func (m *mockCheckpoints) LoadBatches(_ context.Context) ([]domain.CheckpointBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := append([]domain.CheckpointBatch(nil), m.batches...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCheckpoints) WriteBatch(_ context.Context, b domain.CheckpointBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	for _, existing := range m.batches {
		if existing.ID == b.ID {
			return fmt.Errorf("batch %d exists", b.ID)
		}
	}
	m.batches = append(m.batches, b)
	m.writes++
	return nil
}

// mockArtifacts implements every artifact store.
type mockArtifacts struct {
	mu         sync.Mutex
	catalog    *domain.SectionCatalog
	weights    *domain.WeightConfig
	weightsErr error
	ranked     []domain.DocumentScore
	indexSaved bool
	phi        []domain.PHIRecord
	tokens     []domain.TokenizationRecord
	unique     []domain.PHIToken
	report     *domain.MatchReport
	saveErr    error
}

func (m *mockArtifacts) SaveCatalog(_ context.Context, c *domain.SectionCatalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.catalog = c
	return nil
}

func (m *mockArtifacts) LoadCatalog(_ context.Context) (*domain.SectionCatalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.catalog == nil {
		return nil, domain.ErrNotFound
	}
	return m.catalog, nil
}

func (m *mockArtifacts) SaveWeights(_ context.Context, w *domain.WeightConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.weights = w
	return nil
}

func (m *mockArtifacts) LoadWeights(_ context.Context) (*domain.WeightConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.weightsErr != nil {
		return nil, m.weightsErr
	}
	if m.weights == nil {
		return nil, domain.ErrNotFound
	}
	return m.weights, nil
}

func (m *mockArtifacts) SaveIndex(_ context.Context, ranked []domain.DocumentScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ranked = append([]domain.DocumentScore(nil), ranked...)
	m.indexSaved = true
	return nil
}

func (m *mockArtifacts) LoadIndex(_ context.Context) (*domain.ScoreIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.indexSaved {
		return nil, domain.ErrNotFound
	}
	idx := domain.NewScoreIndex()
	for _, s := range m.ranked {
		idx.Put(s)
	}
	return idx, nil
}

func (m *mockArtifacts) SavePHI(_ context.Context, records []domain.PHIRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phi = records
	return m.saveErr
}

func (m *mockArtifacts) SaveTokens(_ context.Context, records []domain.TokenizationRecord, unique []domain.PHIToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = records
	m.unique = unique
	return m.saveErr
}

func (m *mockArtifacts) SaveMatchReport(_ context.Context, r *domain.MatchReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report = r
	return m.saveErr
}

func (m *mockArtifacts) LoadMatchReport(_ context.Context) (*domain.MatchReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.report == nil {
		return nil, domain.ErrNotFound
	}
	return m.report, nil
}

// setIndex stores scores as a ranked index.
func (m *mockArtifacts) setIndex(scores ...domain.DocumentScore) {
	idx := domain.NewScoreIndex()
	for _, s := range scores {
		idx.Put(s)
	}
	m.ranked = idx.Ranked()
	m.indexSaved = true
}

// mockRuns implements driven.RunStore.
type mockRuns struct {
	mu   sync.Mutex
	runs []domain.RunResult
}

func (m *mockRuns) RecordRun(_ context.Context, r *domain.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append([]domain.RunResult{*r}, m.runs...)
	return nil
}

func (m *mockRuns) ListRuns(_ context.Context, limit int) ([]domain.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > 0 && limit < len(m.runs) {
		return append([]domain.RunResult(nil), m.runs[:limit]...), nil
	}
	return append([]domain.RunResult(nil), m.runs...), nil
}

func (m *mockRuns) PruneRuns(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if keep < len(m.runs) {
		m.runs = m.runs[:keep]
	}
	return nil
}

func (m *mockRuns) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

// mockMetrics counts metric calls.
type mockMetrics struct {
	scored, failed, written, skipped, flushed int
}

func (m *mockMetrics) DocumentScored(failed bool) {
	m.scored++
	if failed {
		m.failed++
	}
}
func (m *mockMetrics) BatchWritten(int) { m.written++ }
func (m *mockMetrics) BatchSkipped()    { m.skipped++ }
func (m *mockMetrics) Flush() error     { m.flushed++; return nil }

var _ driven.RunMetrics = (*mockMetrics)(nil)

// mockSink implements driven.DocumentSink in memory.
type mockSink struct {
	mu    sync.Mutex
	files map[string]string
}

func newMockSink() *mockSink { return &mockSink{files: make(map[string]string)} }

type sinkWriter struct {
	bytes.Buffer
	done func(string)
}

func (w *sinkWriter) Close() error {
	w.done(w.String())
	return nil
}

func (m *mockSink) Create(_ context.Context, dir, name string) (io.WriteCloser, error) {
	key := dir + "/" + name
	return &sinkWriter{done: func(s string) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.files[key] = s
	}}, nil
}

func (m *mockSink) Open(_ context.Context, dir, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.files[dir+"/"+name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

func (m *mockSink) List(_ context.Context, dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.files {
		if name, ok := strings.CutPrefix(k, dir+"/"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// mockReformatter indents by upper-casing and compares case-insensitively
// after stripping whitespace.
type mockReformatter struct{}

func (mockReformatter) Reformat(r io.Reader, w io.Writer) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if strings.HasPrefix(string(b), "bad") {
		return domain.ErrParse
	}
	_, err = io.WriteString(w, "  "+string(b)+"\n")
	return err
}

func (mockReformatter) Compare(original, reformatted io.Reader) (domain.Comparison, error) {
	a, err := io.ReadAll(original)
	if err != nil {
		return domain.Comparison{}, err
	}
	b, err := io.ReadAll(reformatted)
	if err != nil {
		return domain.Comparison{}, err
	}
	strip := func(s string) string { return strings.Join(strings.Fields(s), "") }
	if strip(string(a)) == strip(string(b)) {
		return domain.Comparison{Match: true}, nil
	}
	return domain.Comparison{Diff: "-" + strip(string(a)) + "\n+" + strip(string(b))}, nil
}

// mockSearch implements driven.PatientSearch.
type mockSearch struct {
	mu    sync.Mutex
	hits  map[string][]domain.SearchHit
	err   error
	calls int
}

func (m *mockSearch) FindPatient(_ context.Context, d domain.Demographics) ([]domain.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hits[d.DOB], nil
}

// mockSeries implements driven.TimeSeriesStore.
type mockSeries struct {
	readings map[string][]domain.Reading
	err      error
	from, to time.Time
}

func (m *mockSeries) Latest(_ context.Context, id string, limit int) ([]domain.Reading, error) {
	if m.err != nil {
		return nil, m.err
	}
	r := m.readings[id]
	if len(r) > limit {
		r = r[:limit]
	}
	return r, nil
}

func (m *mockSeries) Range(_ context.Context, id string, from, to time.Time) ([]domain.Reading, error) {
	m.from, m.to = from, to
	if m.err != nil {
		return nil, m.err
	}
	return m.readings[id], nil
}

// mockCache implements driven.MatchCache.
type mockCache struct {
	entries map[string]*domain.SearchHit
}

func (m *mockCache) Get(_ context.Context, key string) (*domain.SearchHit, bool, error) {
	hit, ok := m.entries[key]
	return hit, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, hit *domain.SearchHit) error {
	m.entries[key] = hit
	return nil
}

// mockBlobs implements driven.BlobStore.
type mockBlobs struct {
	objects map[string]string
	types   map[string]string
	failKey string
}

func newMockBlobs() *mockBlobs {
	return &mockBlobs{objects: make(map[string]string), types: make(map[string]string)}
}

func (m *mockBlobs) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == m.failKey {
		return fmt.Errorf("put %s: access denied", key)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(b), size)
	}
	m.objects[key] = string(b)
	m.types[key] = contentType
	return nil
}

func (m *mockBlobs) Location(key string) string { return "mem://bucket/" + key }

// mockEncoder writes one reading value per line.
type mockEncoder struct{}

func (mockEncoder) Extension() string   { return ".txt" }
func (mockEncoder) ContentType() string { return "text/plain" }

func (mockEncoder) Encode(w io.Writer, readings []domain.Reading) error {
	for _, r := range readings {
		if _, err := fmt.Fprintf(w, "%s %g\n", r.SystemTime.Format(time.RFC3339), r.Value); err != nil {
			return err
		}
	}
	return nil
}
