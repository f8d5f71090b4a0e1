package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure Scorer implements the interface.
var _ driving.ScoringService = (*Scorer)(nil)

const (
	// DefaultBatchSize is the number of files per checkpoint batch.
	DefaultBatchSize = 15

	// summaryTopN is the number of documents reported after a run.
	summaryTopN = 10

	// runHistoryLimit is the number of runs kept in the ledger.
	runHistoryLimit = 100
)

// MemoryProbe reports current heap usage in megabytes.
type MemoryProbe func() int

// HeapInUseMB reads heap usage from the runtime.
func HeapInUseMB() int {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int(m.HeapInuse / (1024 * 1024))
}

// Scorer runs the resumable checkpointed scoring engine.
// One run is in flight at a time; a second Score call fails with
// domain.ErrRunInProgress.
type Scorer struct {
	corpus      driven.Corpus
	parser      driven.SectionParser
	checkpoints driven.CheckpointStore
	weights     driven.WeightStore
	index       driven.IndexStore
	runs        driven.RunStore
	metrics     func() driven.RunMetrics
	memory      MemoryProbe

	run sync.Mutex

	mu     sync.RWMutex
	status driving.ScoringStatus
}

// NewScorer creates a scoring engine. runs may be nil, in which case runs
// are not recorded.
func NewScorer(
	corpus driven.Corpus,
	parser driven.SectionParser,
	checkpoints driven.CheckpointStore,
	weights driven.WeightStore,
	index driven.IndexStore,
	runs driven.RunStore,
) *Scorer {
	return &Scorer{
		corpus:      corpus,
		parser:      parser,
		checkpoints: checkpoints,
		weights:     weights,
		index:       index,
		runs:        runs,
		metrics:     func() driven.RunMetrics { return driven.NopMetrics{} },
		memory:      HeapInUseMB,
	}
}

// SetMetrics sets the factory that creates one metrics sink per run.
func (s *Scorer) SetMetrics(factory func() driven.RunMetrics) {
	if factory != nil {
		s.metrics = factory
	}
}

// SetMemoryProbe replaces the heap usage probe.
func (s *Scorer) SetMemoryProbe(probe MemoryProbe) {
	if probe != nil {
		s.memory = probe
	}
}

// Status returns the state of the current or last run.
func (s *Scorer) Status() driving.ScoringStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Runs returns recorded runs, most recent first.
func (s *Scorer) Runs(ctx context.Context, limit int) ([]domain.RunResult, error) {
	if s.runs == nil {
		return nil, errors.New("run store not configured")
	}
	return s.runs.ListRuns(ctx, limit)
}

// Score scores every document not covered by an existing checkpoint batch
// and rewrites the consolidated index from all batches.
//
// A run that stops early (cancellation or memory limit) keeps every
// completed batch and still writes the index. Cancellation returns the
// summary together with the context error; a memory stop returns the
// summary with Run.Stopped set.
//
//nolint:gocyclo // Batch loop with skip, stop and failure paths.
func (s *Scorer) Score(ctx context.Context, opts domain.ScoreOptions) (*domain.ScoreSummary, error) {
	if !s.run.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer s.run.Unlock()

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Trigger == "" {
		opts.Trigger = domain.RunTriggerCLI
	}

	result := domain.RunResult{
		ID:        uuid.New().String(),
		Trigger:   opts.Trigger,
		StartedAt: time.Now(),
	}
	metrics := s.metrics()
	log := logger.With(zap.String("run", result.ID))

	s.setStatus(driving.ScoringStatus{Running: true})
	defer s.finishStatus()

	summary, runErr := s.score(ctx, opts, &result, metrics, log)

	result.EndedAt = time.Now()
	if runErr != nil {
		result.Error = runErr.Error()
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			result.Stopped = true
		}
	}
	s.record(&result)
	if err := metrics.Flush(); err != nil {
		logger.Warn("Failed to write metrics: %v", err)
	}

	if summary != nil {
		summary.Run = result
	}
	return summary, runErr
}

func (s *Scorer) score(
	ctx context.Context,
	opts domain.ScoreOptions,
	result *domain.RunResult,
	metrics driven.RunMetrics,
	log *zap.Logger,
) (*domain.ScoreSummary, error) {
	// 1. Load weights. A missing or malformed table scores every section
	// with the default weight.
	weights := s.loadWeights(ctx)

	// 2. Load prior progress.
	batches, err := s.checkpoints.LoadBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}
	processed := domain.NewScoreIndex()
	nextID := 1
	for _, b := range batches {
		processed.Merge(b)
		if b.ID >= nextID {
			nextID = b.ID + 1
		}
	}
	logger.Info("Loaded %d checkpoint batches covering %d documents", len(batches), processed.Len())

	// 3. Enumerate the corpus.
	files, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	result.CorpusFiles = len(files)

	// 4. Score new files batch by batch.
	var stopErr error
	for start := 0; start < len(files); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(files))
		chunk := files[start:end]

		pending := make([]domain.CorpusFile, 0, len(chunk))
		for _, f := range chunk {
			if !processed.Has(f.Path) {
				pending = append(pending, f)
			}
		}
		if len(pending) == 0 {
			result.BatchesSkipped++
			metrics.BatchSkipped()
			continue
		}

		if err := ctx.Err(); err != nil {
			logger.Warn("Scoring cancelled before batch %d", nextID)
			stopErr = err
			break
		}
		if opts.MemoryLimitMB > 0 {
			if used := s.memory(); used > opts.MemoryLimitMB {
				logger.Warn("%v: %d MB in use, limit %d MB; stopping before batch %d",
					domain.ErrMemoryLimit, used, opts.MemoryLimitMB, nextID)
				result.Stopped = true
				break
			}
		}

		batch, err := s.scoreBatch(ctx, nextID, pending, weights, result, metrics)
		if err != nil {
			// The partial batch is discarded.
			stopErr = err
			break
		}

		if err := s.checkpoints.WriteBatch(context.WithoutCancel(ctx), batch); err != nil {
			return nil, fmt.Errorf("batch %d: %w: %w", batch.ID, domain.ErrCheckpointWrite, err)
		}
		processed.Merge(batch)
		result.BatchesWritten++
		metrics.BatchWritten(len(batch.Scores))
		log.Debug("batch written", zap.Int("batch", batch.ID), zap.Int("documents", len(batch.Scores)))
		logger.Info("Batch %d: scored %d documents (%d/%d processed)",
			batch.ID, len(batch.Scores), processed.Len(), len(files))

		nextID++
		runtime.GC()
	}

	// 5. Merge every stored batch into the consolidated index.
	merged, err := s.consolidate(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}

	summary := &domain.ScoreSummary{
		TotalDocuments: merged.Len(),
		Errors:         merged.Failed(),
		Top:            merged.TopN(summaryTopN),
	}
	return summary, stopErr
}

// scoreBatch scores the pending files of one batch. It returns the context
// error if cancelled part way through.
func (s *Scorer) scoreBatch(
	ctx context.Context,
	id int,
	pending []domain.CorpusFile,
	weights *domain.WeightConfig,
	result *domain.RunResult,
	metrics driven.RunMetrics,
) (domain.CheckpointBatch, error) {
	batch := domain.CheckpointBatch{ID: id, Scores: make([]domain.DocumentScore, 0, len(pending))}
	s.updateStatus(func(st *driving.ScoringStatus) { st.Batch = id })

	for _, f := range pending {
		if err := ctx.Err(); err != nil {
			logger.Warn("Scoring cancelled during batch %d, discarding %d scored documents", id, len(batch.Scores))
			return domain.CheckpointBatch{}, err
		}

		score := s.scoreDocument(ctx, f, weights)
		batch.Scores = append(batch.Scores, score)

		result.Scored++
		if score.Failed() {
			result.Failed++
		}
		metrics.DocumentScored(score.Failed())
		s.updateStatus(func(st *driving.ScoringStatus) {
			st.DocumentsProcessed++
			if score.Failed() {
				st.ErrorCount++
			}
		})
	}
	return batch, nil
}

func (s *Scorer) scoreDocument(ctx context.Context, f domain.CorpusFile, weights *domain.WeightConfig) domain.DocumentScore {
	sections, err := readSections(ctx, s.corpus, s.parser, f.Path)
	if err != nil {
		logger.Warn("Error scoring %s: %v", f.Path, err)
		return domain.FailedScore(f.Path, f.Size, err)
	}
	return domain.ScoreDocument(f.Path, f.Size, sections, weights)
}

// consolidate rereads every batch, merges them last-write-wins and writes
// the ranked index.
func (s *Scorer) consolidate(ctx context.Context) (*domain.ScoreIndex, error) {
	batches, err := s.checkpoints.LoadBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload checkpoints: %w", err)
	}
	merged := domain.NewScoreIndex()
	for _, b := range batches {
		merged.Merge(b)
	}
	if s.index != nil {
		if err := s.index.SaveIndex(ctx, merged.Ranked()); err != nil {
			return nil, fmt.Errorf("save index: %w", err)
		}
	}
	logger.Info("Consolidated index: %d documents, %d with errors", merged.Len(), merged.Failed())
	return merged, nil
}

func (s *Scorer) loadWeights(ctx context.Context) *domain.WeightConfig {
	if s.weights == nil {
		logger.Warn("No weight store configured, using default weight %.1f", domain.DefaultSectionWeight)
		return domain.NewWeightConfig("")
	}
	cfg, err := s.weights.LoadWeights(ctx)
	if err != nil {
		logger.Warn("Could not load section weights, using default weight %.1f: %v", domain.DefaultSectionWeight, err)
		return domain.NewWeightConfig("")
	}
	logger.Debug("Loaded weights for %d sections", cfg.Len())
	return cfg
}

func (s *Scorer) record(result *domain.RunResult) {
	if s.runs == nil {
		return
	}
	ctx := context.Background()
	if err := s.runs.RecordRun(ctx, result); err != nil {
		logger.Warn("Failed to record run %s: %v", result.ID, err)
	}
	if err := s.runs.PruneRuns(ctx, runHistoryLimit); err != nil {
		logger.Warn("Failed to prune run history: %v", err)
	}
}

func (s *Scorer) setStatus(st driving.ScoringStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *Scorer) updateStatus(fn func(*driving.ScoringStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

func (s *Scorer) finishStatus() {
	s.updateStatus(func(st *driving.ScoringStatus) {
		st.Running = false
		st.Batch = 0
	})
}
