package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// RecordRun stores a finished run. Recording the same ID again replaces it.
func (s *runStore) RecordRun(ctx context.Context, run *domain.RunResult) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, trigger, started_at, ended_at, corpus_files, scored, failed,
			batches_written, batches_skipped, stopped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			trigger = excluded.trigger,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			corpus_files = excluded.corpus_files,
			scored = excluded.scored,
			failed = excluded.failed,
			batches_written = excluded.batches_written,
			batches_skipped = excluded.batches_skipped,
			stopped = excluded.stopped,
			error = excluded.error
	`, run.ID, string(run.Trigger),
		run.StartedAt.UTC().Format(time.RFC3339Nano), formatNullableTime(run.EndedAt),
		run.CorpusFiles, run.Scored, run.Failed,
		run.BatchesWritten, run.BatchesSkipped,
		boolToInt(run.Stopped), nullString(run.Error))

	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs ordered by start time descending.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, trigger, started_at, ended_at, corpus_files, scored, failed,
			batches_written, batches_skipped, stopped, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// PruneRuns removes runs beyond the most recent 'keep'.
func (s *runStore) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	return nil
}

// scanRun scans a run from *sql.Rows.
func scanRun(rows *sql.Rows) (*domain.RunResult, error) {
	var run domain.RunResult
	var trigger, startedAt string
	var endedAt, errMsg sql.NullString
	var stopped int

	if err := rows.Scan(&run.ID, &trigger, &startedAt, &endedAt,
		&run.CorpusFiles, &run.Scored, &run.Failed,
		&run.BatchesWritten, &run.BatchesSkipped, &stopped, &errMsg); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Trigger = domain.RunTrigger(trigger)
	run.StartedAt = parseNullableTime(sql.NullString{String: startedAt, Valid: true})
	run.EndedAt = parseNullableTime(endedAt)
	run.Stopped = stopped == 1
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return &run, nil
}
