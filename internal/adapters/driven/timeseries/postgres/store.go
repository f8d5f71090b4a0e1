// Package postgres reads glucose readings from a PostgreSQL table.
//
// The table is keyed by (user_id, system_time):
//
//	user_id          text
//	system_time      timestamptz
//	data_source      text
//	display_time     timestamptz
//	value            double precision
//	transmitter_time bigint
//	is_time_change   boolean
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TimeSeriesStore = (*Store)(nil)

// DefaultTable is the readings table name.
const DefaultTable = "glucose_readings"

// DefaultLatestLimit bounds Latest when no limit is given.
const DefaultLatestLimit = 100

// querier is the subset of *pgxpool.Pool used by the store.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store queries per-patient readings.
type Store struct {
	db    querier
	pool  *pgxpool.Pool
	table string
}

// New connects a pool to the configured database. An empty DSN means the
// time-series store is unavailable.
func New(ctx context.Context, cfg domain.TimeSeriesConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, domain.ErrTimeSeriesUnavailable
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: timeseries dsn: %v", domain.ErrInvalidConfig, err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to timeseries store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging timeseries store: %w", err)
	}

	s := newStore(pool, cfg.Table)
	s.pool = pool
	return s, nil
}

func newStore(db querier, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, table: table}
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) selectReadings() string {
	return `SELECT system_time, data_source, display_time, value, transmitter_time, is_time_change
		FROM ` + pgx.Identifier{s.table}.Sanitize() + `
		WHERE user_id = $1`
}

// Latest returns up to limit readings, newest first.
func (s *Store) Latest(ctx context.Context, patientID string, limit int) ([]domain.Reading, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	rows, err := s.db.Query(ctx, s.selectReadings()+`
		ORDER BY system_time DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying latest readings: %w", err)
	}
	return collectReadings(rows)
}

// Range returns readings with from <= system_time <= to, newest first.
func (s *Store) Range(ctx context.Context, patientID string, from, to time.Time) ([]domain.Reading, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range ends before it starts", domain.ErrInvalidInput)
	}
	rows, err := s.db.Query(ctx, s.selectReadings()+`
		AND system_time BETWEEN $2 AND $3
		ORDER BY system_time DESC`, patientID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying readings range: %w", err)
	}
	return collectReadings(rows)
}

func collectReadings(rows pgx.Rows) ([]domain.Reading, error) {
	readings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Reading, error) {
		var r domain.Reading
		err := row.Scan(&r.SystemTime, &r.DataSource, &r.DisplayTime, &r.Value, &r.TransmitterTime, &r.IsTimeChange)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning readings: %w", err)
	}
	return readings, nil
}
