package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

func section(key string, entries, coded, words int) domain.SectionObservation {
	return domain.SectionObservation{
		Key:                key,
		TemplateIDs:        []string{key},
		EntryCount:         entries,
		CodedElementCount:  coded,
		NarrativeWordCount: words,
	}
}

// newScoringFixture builds a corpus of n documents where doc i has i entries
// in one "A" section.
func newScoringFixture(n int) (*mockCorpus, *mockSectionParser) {
	corpus := newMockCorpus()
	parser := &mockSectionParser{sections: make(map[string][]domain.SectionObservation)}
	for i := range n {
		content := fmt.Sprintf("content-%02d", i)
		corpus.add(fmt.Sprintf("doc%02d.xml", i), content)
		parser.sections[content] = []domain.SectionObservation{section("A", i, 0, 0)}
	}
	return corpus, parser
}

func TestScorer_Score_FreshCorpus(t *testing.T) {
	corpus, parser := newScoringFixture(10)
	checkpoints := &mockCheckpoints{}
	artifacts := &mockArtifacts{}
	runs := &mockRuns{}
	metrics := &mockMetrics{}

	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, runs)
	scorer.SetMetrics(func() driven.RunMetrics { return metrics })

	summary, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 4})
	require.NoError(t, err)

	// 10 files in batches of 4 -> 3 batches.
	require.Len(t, checkpoints.batches, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{checkpoints.batches[0].ID, checkpoints.batches[1].ID, checkpoints.batches[2].ID})
	assert.Len(t, checkpoints.batches[0].Scores, 4)
	assert.Len(t, checkpoints.batches[2].Scores, 2)
	assert.Equal(t, []string{"doc00.xml", "doc01.xml", "doc02.xml", "doc03.xml"}, checkpoints.batches[0].Files())

	assert.Equal(t, 10, summary.TotalDocuments)
	assert.Equal(t, 10, summary.Run.Scored)
	assert.Equal(t, 3, summary.Run.BatchesWritten)
	assert.Equal(t, domain.RunTriggerCLI, summary.Run.Trigger)
	assert.True(t, summary.Run.Success())
	assert.NotEmpty(t, summary.Run.ID)

	// Default weight 0.2: doc i scores i * 0.3 * 0.2.
	require.Len(t, artifacts.ranked, 10)
	assert.Equal(t, "doc09.xml", artifacts.ranked[0].FilePath)
	assert.InDelta(t, 0.54, artifacts.ranked[0].TotalScore, 1e-9)
	assert.Equal(t, "doc00.xml", artifacts.ranked[9].FilePath)

	assert.Equal(t, 10, metrics.scored)
	assert.Equal(t, 3, metrics.written)
	assert.Equal(t, 1, metrics.flushed)
	assert.Equal(t, 1, runs.count())
}

func TestScorer_Score_ResumeIsIdempotent(t *testing.T) {
	corpus, parser := newScoringFixture(10)
	checkpoints := &mockCheckpoints{}
	artifacts := &mockArtifacts{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, nil)

	_, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 3})
	require.NoError(t, err)
	first := append([]domain.DocumentScore(nil), artifacts.ranked...)
	writes := checkpoints.writes

	summary, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 3})
	require.NoError(t, err)

	assert.Equal(t, writes, checkpoints.writes, "no new batches")
	assert.Equal(t, 0, summary.Run.Scored)
	assert.Equal(t, 4, summary.Run.BatchesSkipped)
	assert.Equal(t, first, artifacts.ranked)
	assert.Equal(t, 1, corpus.openCount("doc05.xml"), "processed documents are not reopened")
}

func TestScorer_Score_NewFilesAfterResume(t *testing.T) {
	corpus, parser := newScoringFixture(4)
	checkpoints := &mockCheckpoints{}
	artifacts := &mockArtifacts{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, nil)

	_, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, checkpoints.batches, 2)

	corpus.add("doc04.xml", "content-new")
	parser.sections["content-new"] = []domain.SectionObservation{section("A", 20, 0, 0)}

	summary, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 2})
	require.NoError(t, err)

	require.Len(t, checkpoints.batches, 3)
	assert.Equal(t, 3, checkpoints.batches[2].ID)
	assert.Equal(t, []string{"doc04.xml"}, checkpoints.batches[2].Files())
	assert.Equal(t, 2, summary.Run.BatchesSkipped)
	assert.Equal(t, 5, summary.TotalDocuments)
	assert.Equal(t, "doc04.xml", artifacts.ranked[0].FilePath)
}

func TestScorer_Score_PartiallyProcessedBatch(t *testing.T) {
	corpus, parser := newScoringFixture(4)
	checkpoints := &mockCheckpoints{batches: []domain.CheckpointBatch{{
		ID:     7,
		Scores: []domain.DocumentScore{{FilePath: "doc01.xml", SectionScores: map[string]float64{}}},
	}}}
	artifacts := &mockArtifacts{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, nil)

	summary, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 2})
	require.NoError(t, err)

	require.Len(t, checkpoints.batches, 3)
	assert.Equal(t, 8, checkpoints.batches[1].ID, "IDs continue from the highest stored")
	assert.Equal(t, []string{"doc00.xml"}, checkpoints.batches[1].Files(), "only unprocessed files are scored")
	assert.Equal(t, 9, checkpoints.batches[2].ID)
	assert.Equal(t, 3, summary.Run.Scored)
	assert.Equal(t, 0, corpus.openCount("doc01.xml"))
}

func TestScorer_Score_BadDocument(t *testing.T) {
	corpus, parser := newScoringFixture(2)
	corpus.add("broken.xml", "bad xml")
	checkpoints := &mockCheckpoints{}
	artifacts := &mockArtifacts{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, nil)

	summary, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 15})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.Run.Failed)

	idx, err := artifacts.LoadIndex(context.Background())
	require.NoError(t, err)
	broken, ok := idx.Get("broken.xml")
	require.True(t, ok)
	assert.True(t, broken.Failed())
	assert.Contains(t, broken.Error, "parse sections")
	assert.Zero(t, broken.TotalScore)
	assert.Empty(t, broken.SectionScores)
}

func TestScorer_Score_CheckpointWriteFailure(t *testing.T) {
	corpus, parser := newScoringFixture(3)
	checkpoints := &mockCheckpoints{writeErr: errors.New("disk full")}
	artifacts := &mockArtifacts{}
	runs := &mockRuns{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, runs)

	summary, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 2})
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, domain.ErrCheckpointWrite)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, artifacts.indexSaved)

	recorded, err := runs.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.False(t, recorded[0].Success())
}

func TestScorer_Score_WeightsFallback(t *testing.T) {
	tests := []struct {
		name       string
		weightsErr error
	}{
		{name: "missing", weightsErr: domain.ErrNotFound},
		{name: "malformed", weightsErr: fmt.Errorf("%w: unexpected token", domain.ErrInvalidConfig)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corpus, parser := newScoringFixture(2)
			artifacts := &mockArtifacts{weightsErr: tt.weightsErr}
			scorer := NewScorer(corpus, parser, &mockCheckpoints{}, artifacts, artifacts, nil)

			_, err := scorer.Score(context.Background(), domain.ScoreOptions{})
			require.NoError(t, err)
			// doc01 has one entry at the default weight.
			assert.InDelta(t, 0.06, artifacts.ranked[0].TotalScore, 1e-9)
		})
	}
}

func TestScorer_Score_UsesConfiguredWeights(t *testing.T) {
	corpus, parser := newScoringFixture(2)
	weights := domain.NewWeightConfig("test")
	weights.Add(&domain.SectionWeightConfig{Key: "A", Weight: 1.0})
	artifacts := &mockArtifacts{weights: weights}
	scorer := NewScorer(corpus, parser, &mockCheckpoints{}, artifacts, artifacts, nil)

	_, err := scorer.Score(context.Background(), domain.ScoreOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, artifacts.ranked[0].TotalScore, 1e-9)
}

func TestScorer_Score_MemoryLimit(t *testing.T) {
	corpus, parser := newScoringFixture(6)
	checkpoints := &mockCheckpoints{}
	artifacts := &mockArtifacts{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, nil)

	calls := 0
	scorer.SetMemoryProbe(func() int {
		calls++
		if calls > 1 {
			return 9000
		}
		return 10
	})

	summary, err := scorer.Score(context.Background(), domain.ScoreOptions{BatchSize: 2, MemoryLimitMB: 8000})
	require.NoError(t, err)

	assert.True(t, summary.Run.Stopped)
	assert.Len(t, checkpoints.batches, 1)
	assert.Equal(t, 2, summary.TotalDocuments)
	assert.True(t, artifacts.indexSaved, "index is written for completed batches")
}

func TestScorer_Score_Cancelled(t *testing.T) {
	corpus, parser := newScoringFixture(4)
	checkpoints := &mockCheckpoints{}
	artifacts := &mockArtifacts{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := scorer.Score(ctx, domain.ScoreOptions{BatchSize: 2})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Run.Stopped)
	assert.Empty(t, checkpoints.batches)
	assert.Zero(t, summary.TotalDocuments)
}

func TestScorer_Score_LoadCheckpointsError(t *testing.T) {
	corpus, parser := newScoringFixture(1)
	checkpoints := &mockCheckpoints{loadErr: errors.New("corrupt batch file")}
	artifacts := &mockArtifacts{}
	scorer := NewScorer(corpus, parser, checkpoints, artifacts, artifacts, nil)

	_, err := scorer.Score(context.Background(), domain.ScoreOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load checkpoints")
}

func TestScorer_StatusAndRuns(t *testing.T) {
	corpus, parser := newScoringFixture(3)
	artifacts := &mockArtifacts{}
	runs := &mockRuns{}
	scorer := NewScorer(corpus, parser, &mockCheckpoints{}, artifacts, artifacts, runs)

	assert.False(t, scorer.Status().Running)

	_, err := scorer.Score(context.Background(), domain.ScoreOptions{Trigger: domain.RunTriggerWatch})
	require.NoError(t, err)

	status := scorer.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 3, status.DocumentsProcessed)

	recorded, err := scorer.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, domain.RunTriggerWatch, recorded[0].Trigger)
	assert.Equal(t, 3, recorded[0].CorpusFiles)

	_, err = NewScorer(corpus, parser, &mockCheckpoints{}, artifacts, artifacts, nil).Runs(context.Background(), 1)
	assert.Error(t, err)
}

func TestHeapInUseMB(t *testing.T) {
	assert.GreaterOrEqual(t, HeapInUseMB(), 0)
}
