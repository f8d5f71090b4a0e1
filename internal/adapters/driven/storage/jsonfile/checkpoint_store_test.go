package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

func docScore(path string, total float64) domain.DocumentScore {
	return domain.DocumentScore{
		FilePath:       path,
		FileSize:       2048,
		SectionScores:  map[string]float64{"2.16.840.1.113883.10.20.22.2.5.1": total},
		TotalScore:     total,
		UniqueSections: 1,
	}
}

func TestCheckpointStore_MissingDir(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "absent"))

	batches, err := store.LoadBatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestCheckpointStore_WriteAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "analysis_checkpoints")
	store := NewCheckpointStore(dir)
	ctx := context.Background()

	require.NoError(t, store.WriteBatch(ctx, domain.CheckpointBatch{
		ID:     10,
		Scores: []domain.DocumentScore{docScore("docs/c.xml", 0.5)},
	}))
	require.NoError(t, store.WriteBatch(ctx, domain.CheckpointBatch{
		ID: 2,
		Scores: []domain.DocumentScore{
			docScore("docs/z.xml", 1),
			domain.FailedScore("docs/bad.xml", 12, domain.ErrParse),
			docScore("docs/a.xml", 2),
		},
	}))

	assert.FileExists(t, filepath.Join(dir, "analysis_batch_2.json"))
	assert.FileExists(t, filepath.Join(dir, "analysis_batch_10.json"))

	batches, err := store.LoadBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.Equal(t, 2, batches[0].ID, "numeric order, not lexical")
	assert.Equal(t, []string{"docs/z.xml", "docs/bad.xml", "docs/a.xml"}, batches[0].Files())
	assert.Equal(t, docScore("docs/a.xml", 2), batches[0].Scores[2])
	assert.True(t, batches[0].Scores[1].Failed())
	assert.Equal(t, 10, batches[1].ID)
}

func TestCheckpointStore_FileFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointStore(dir)

	require.NoError(t, store.WriteBatch(context.Background(), domain.CheckpointBatch{
		ID:     1,
		Scores: []domain.DocumentScore{docScore("b.xml", 1), docScore("a.xml", 2)},
	}))

	data, err := os.ReadFile(filepath.Join(dir, BatchFileName(1)))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `"total_score": 1`)
	assert.Contains(t, content, `"section_scores"`)
	assert.NotContains(t, content, `"error"`)
	assert.Less(t, strings.Index(content, `"b.xml"`), strings.Index(content, `"a.xml"`), "keys keep scan order")
}

func TestCheckpointStore_RefusesOverwrite(t *testing.T) {
	store := NewCheckpointStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.WriteBatch(ctx, domain.CheckpointBatch{ID: 1, Scores: []domain.DocumentScore{docScore("a.xml", 1)}}))
	err := store.WriteBatch(ctx, domain.CheckpointBatch{ID: 1, Scores: []domain.DocumentScore{docScore("b.xml", 1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	batches, err := store.LoadBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a.xml"}, batches[0].Files())
}

func TestCheckpointStore_InvalidID(t *testing.T) {
	store := NewCheckpointStore(t.TempDir())
	err := store.WriteBatch(context.Background(), domain.CheckpointBatch{ID: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCheckpointStore_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis_batch_x.json"), []byte("{}"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "analysis_batch_3.json"), 0755))

	batches, err := NewCheckpointStore(dir).LoadBatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestCheckpointStore_CorruptBatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BatchFileName(1)), []byte("{not json"), 0644))

	_, err := NewCheckpointStore(dir).LoadBatches(context.Background())
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestCheckpointStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointStore(dir)
	require.NoError(t, store.WriteBatch(context.Background(), domain.CheckpointBatch{ID: 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "analysis_batch_1.json", entries[0].Name())
}

func TestCheckpointStore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	err := NewCheckpointStore(dir).WriteBatch(ctx, domain.CheckpointBatch{ID: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, BatchFileName(1)))
}
