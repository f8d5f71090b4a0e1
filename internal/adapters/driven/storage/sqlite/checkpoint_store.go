package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// LoadBatches returns every batch ordered by ID, scores in write order.
func (s *checkpointStore) LoadBatches(ctx context.Context) ([]domain.CheckpointBatch, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT b.id, sc.file_path, sc.score
		FROM checkpoint_batches b
		LEFT JOIN checkpoint_scores sc ON sc.batch_id = b.id
		ORDER BY b.id ASC, sc.position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying checkpoint batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.CheckpointBatch //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id int
		var path, raw *string
		if err := rows.Scan(&id, &path, &raw); err != nil {
			return nil, fmt.Errorf("scanning checkpoint score: %w", err)
		}

		if n := len(batches); n == 0 || batches[n-1].ID != id {
			batches = append(batches, domain.CheckpointBatch{ID: id})
		}
		if path == nil || raw == nil {
			// Empty batch.
			continue
		}

		var score domain.DocumentScore
		if err := json.Unmarshal([]byte(*raw), &score); err != nil {
			return nil, fmt.Errorf("%w: batch %d score for %s: %w", domain.ErrParse, id, *path, err)
		}
		score.FilePath = *path
		last := &batches[len(batches)-1]
		last.Scores = append(last.Scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checkpoint batches: %w", err)
	}

	return batches, nil
}

// WriteBatch stores a batch and its scores in one transaction. Reusing a
// batch ID violates the primary key and fails.
func (s *checkpointStore) WriteBatch(ctx context.Context, batch domain.CheckpointBatch) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO checkpoint_batches (id, created_at) VALUES (?, ?)",
		batch.ID, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting batch %d: %w", batch.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO checkpoint_scores (batch_id, position, file_path, score) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing score insert: %w", err)
	}
	defer stmt.Close()

	for i, score := range batch.Scores {
		raw, err := json.Marshal(score)
		if err != nil {
			return fmt.Errorf("marshalling score for %s: %w", score.FilePath, err)
		}
		if _, err := stmt.ExecContext(ctx, batch.ID, i, score.FilePath, string(raw)); err != nil {
			return fmt.Errorf("inserting score for %s: %w", score.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch %d: %w", batch.ID, err)
	}
	return nil
}
