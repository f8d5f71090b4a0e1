// Package app is the composition root. It turns a configuration into the
// adapters and services the CLI drives.
package app

import (
	"context"
	"errors"
	"fmt"

	blobfs "github.com/custodia-labs/ccdarank/internal/adapters/driven/blob/filesystem"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/blob/s3"
	memcache "github.com/custodia-labs/ccdarank/internal/adapters/driven/cache/memory"
	rediscache "github.com/custodia-labs/ccdarank/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/readings"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/search/opensearch"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ccdarank/internal/adapters/driven/timeseries/postgres"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/cli"
	"github.com/custodia-labs/ccdarank/internal/connectors/filesystem"
	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/services"
	"github.com/custodia-labs/ccdarank/internal/logger"
	"github.com/custodia-labs/ccdarank/internal/normalisers/ccda"
)

// Ensure App implements the interface.
var _ cli.App = (*App)(nil)

// App builds services from configuration.
type App struct{}

// New creates the composition root.
func New() *App {
	return &App{}
}

// ConfigStore opens the configuration file at path, or ccdarank.toml in the
// working directory when path is empty.
func (a *App) ConfigStore(path string) (driven.ConfigStore, error) {
	if path != "" {
		return file.NewConfigStoreAt(path), nil
	}
	store, err := file.NewConfigStore("")
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Build wires the local pipeline and, when req asks for them, the external
// collaborators. The returned Close releases every opened connection.
func (a *App) Build(ctx context.Context, cfg domain.Config, req cli.Requirement) (*cli.Services, error) {
	var closers []func() error
	release := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		closers = nil
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.Services, error) {
		_ = release()
		return nil, err
	}

	artifacts := jsonfile.NewArtifactStore(cfg.Output)
	corpus := filesystem.New(cfg.Corpus.Dir, cfg.Corpus.Pattern)
	sections := ccda.NewSectionParser()
	phiParser := ccda.NewPHIParser()

	db, err := sqlite.NewStore(cfg.Scoring.CheckpointDir)
	if err != nil {
		return fail(fmt.Errorf("opening run ledger: %w", err))
	}
	closers = append(closers, db.Close)

	checkpoints, err := checkpointStore(cfg.Scoring, db)
	if err != nil {
		return fail(err)
	}

	metrics := prometheus.Factory(cfg.Metrics.File)
	scorer := services.NewScorer(corpus, sections, checkpoints, artifacts, artifacts, db.RunStore())
	scorer.SetMetrics(metrics)

	dryRun := services.NewScorer(corpus, sections, memory.NewCheckpointStore(), artifacts, artifacts, memory.NewRunStore())
	dryRun.SetMetrics(metrics)

	debounce, err := cfg.Watch.DebounceDuration()
	if err != nil {
		return fail(err)
	}
	watchOpts := domain.ScoreOptions{
		BatchSize:     cfg.Scoring.BatchSize,
		MemoryLimitMB: cfg.Scoring.MemoryLimitMB,
	}

	s := &cli.Services{
		Catalog:   services.NewCatalogBuilder(corpus, sections, artifacts),
		Weights:   services.NewWeightService(artifacts, artifacts),
		Scoring:   scorer,
		DryRun:    dryRun,
		Selection: services.NewSelector(artifacts),
		Reformat: services.NewReformatService(artifacts, corpus, filesystem.NewSink(), ccda.NewReformatter(),
			cfg.Scoring.BatchSize, cfg.Scoring.MemoryLimitMB),
		PHI:     services.NewPHIService(corpus, phiParser, artifacts),
		Watcher: services.NewCorpusWatcher(corpus, scorer, watchOpts, debounce),
	}

	var series *postgres.Store
	if req.Has(requireSeries) {
		series, err = timeSeries(ctx, cfg.TimeSeries)
		if err != nil {
			return fail(err)
		}
		if series != nil {
			closers = append(closers, func() error {
				series.Close()
				return nil
			})
		}
	}

	if req.Has(cli.RequireMatching) {
		search, err := opensearch.New(cfg.Search)
		if err != nil {
			return fail(fmt.Errorf("patient search: %w", err))
		}
		cache, closeCache, err := matchCache(ctx, cfg.Cache)
		if err != nil {
			return fail(err)
		}
		if closeCache != nil {
			closers = append(closers, closeCache)
		}
		s.Match = services.NewMatcher(artifacts, corpus, phiParser, search, seriesPort(series), cache, artifacts,
			cfg.TimeSeries.LatestLimit)
	}

	if req.Has(cli.RequireExport) {
		blobs, err := blobStore(ctx, cfg.Blob)
		if err != nil {
			return fail(err)
		}
		encoder, err := readings.ForFormat(cfg.Export.Format)
		if err != nil {
			return fail(err)
		}
		s.Export = services.NewExporter(artifacts, corpus, artifacts, seriesPort(series), blobs, encoder)
	}

	s.Close = release
	logger.Debug("Services ready (checkpoints=%s, requirements=%d)", cfg.Scoring.CheckpointBackend, req)
	return s, nil
}

// requireSeries lists the requirements that read the time series.
const requireSeries = cli.RequireMatching | cli.RequireExport

func checkpointStore(cfg domain.ScoringConfig, db *sqlite.Store) (driven.CheckpointStore, error) {
	switch cfg.CheckpointBackend {
	case "", domain.CheckpointBackendJSON:
		return jsonfile.NewCheckpointStore(cfg.CheckpointDir), nil
	case domain.CheckpointBackendSQLite:
		return db.CheckpointStore(), nil
	default:
		return nil, fmt.Errorf("%w: checkpoint backend %q", domain.ErrUnsupportedType, cfg.CheckpointBackend)
	}
}

// timeSeries connects the readings store. An unconfigured store yields nil
// so matching still runs without readings.
func timeSeries(ctx context.Context, cfg domain.TimeSeriesConfig) (*postgres.Store, error) {
	store, err := postgres.New(ctx, cfg)
	if errors.Is(err, domain.ErrTimeSeriesUnavailable) {
		logger.Debug("No time series configured; readings are skipped")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// seriesPort avoids handing services a typed nil.
func seriesPort(store *postgres.Store) driven.TimeSeriesStore {
	if store == nil {
		return nil
	}
	return store
}

func matchCache(ctx context.Context, cfg domain.CacheConfig) (driven.MatchCache, func() error, error) {
	ttl, err := cfg.TTLDuration()
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Backend {
	case "", domain.CacheBackendMemory:
		return memcache.New(ttl), nil, nil
	case domain.CacheBackendRedis:
		c, err := rediscache.New(ctx, cfg.RedisAddr, ttl)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: cache backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}

func blobStore(ctx context.Context, cfg domain.BlobConfig) (driven.BlobStore, error) {
	switch cfg.Backend {
	case "", domain.BlobBackendFilesystem:
		return blobfs.New(cfg.Dir)
	case domain.BlobBackendS3:
		return s3.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: blob backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}
