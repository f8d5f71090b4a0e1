package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

var batchFilePattern = regexp.MustCompile(`^analysis_batch_(\d+)\.json$`)

// BatchFileName returns the file name of batch id.
func BatchFileName(id int) string {
	return fmt.Sprintf("analysis_batch_%d.json", id)
}

// CheckpointStore keeps each batch in its own file holding
// {filePath: DocumentScore} in scan order.
type CheckpointStore struct {
	dir string
}

// NewCheckpointStore creates a store rooted at dir. The directory is
// created on the first write.
func NewCheckpointStore(dir string) *CheckpointStore {
	return &CheckpointStore{dir: dir}
}

// Dir returns the checkpoint directory.
func (s *CheckpointStore) Dir() string {
	return s.dir
}

// LoadBatches reads every batch file ordered by ID. A missing directory
// holds no batches; an unreadable batch file is an error.
func (s *CheckpointStore) LoadBatches(ctx context.Context) ([]domain.CheckpointBatch, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkpoint dir: %w", err)
	}

	type batchFile struct {
		id   int
		name string
	}
	var files []batchFile //nolint:prealloc // size unknown until filtered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := batchFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, batchFile{id: id, name: e.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].id < files[j].id })

	batches := make([]domain.CheckpointBatch, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores := orderedmap.New[string, domain.DocumentScore]()
		if err := readJSON(filepath.Join(s.dir, f.name), scores); err != nil {
			return nil, fmt.Errorf("loading batch %d: %w", f.id, err)
		}
		batch := domain.CheckpointBatch{ID: f.id, Scores: make([]domain.DocumentScore, 0, scores.Len())}
		for pair := scores.Oldest(); pair != nil; pair = pair.Next() {
			score := pair.Value
			score.FilePath = pair.Key
			batch.Scores = append(batch.Scores, score)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// WriteBatch writes a new batch file. An existing file for the same ID is
// never overwritten.
func (s *CheckpointStore) WriteBatch(ctx context.Context, batch domain.CheckpointBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if batch.ID <= 0 {
		return fmt.Errorf("%w: batch id %d", domain.ErrInvalidInput, batch.ID)
	}

	path := filepath.Join(s.dir, BatchFileName(batch.ID))
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("batch %d already exists: %w", batch.ID, domain.ErrInvalidInput)
	}

	scores := orderedmap.New[string, domain.DocumentScore]()
	for _, score := range batch.Scores {
		scores.Set(score.FilePath, score)
	}
	return writeJSON(path, scores)
}
