package cli

import (
	"github.com/spf13/viper"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// overlay copies one key from viper into the configuration when set by a
// flag or the environment.
type overlay func(v *viper.Viper, c *domain.Config)

func overlayValue[T any](key string, get func(*viper.Viper, string) T, field func(*domain.Config) *T) overlay {
	return func(v *viper.Viper, c *domain.Config) {
		if v.IsSet(key) {
			*field(c) = get(v, key)
		}
	}
}

func str(key string, field func(*domain.Config) *string) overlay {
	return overlayValue(key, (*viper.Viper).GetString, field)
}

func integer(key string, field func(*domain.Config) *int) overlay {
	return overlayValue(key, (*viper.Viper).GetInt, field)
}

// overlays lists every configuration key that flags or CCDARANK_*
// environment variables may override.
var overlays = []overlay{
	str("corpus.dir", func(c *domain.Config) *string { return &c.Corpus.Dir }),
	str("corpus.pattern", func(c *domain.Config) *string { return &c.Corpus.Pattern }),

	str("output.catalog_file", func(c *domain.Config) *string { return &c.Output.CatalogFile }),
	str("output.weights_file", func(c *domain.Config) *string { return &c.Output.WeightsFile }),
	str("output.index_file", func(c *domain.Config) *string { return &c.Output.IndexFile }),
	str("output.phi_file", func(c *domain.Config) *string { return &c.Output.PHIFile }),
	str("output.tokens_file", func(c *domain.Config) *string { return &c.Output.TokensFile }),
	str("output.match_report", func(c *domain.Config) *string { return &c.Output.MatchReport }),

	integer("scoring.batch_size", func(c *domain.Config) *int { return &c.Scoring.BatchSize }),
	integer("scoring.memory_limit_mb", func(c *domain.Config) *int { return &c.Scoring.MemoryLimitMB }),
	str("scoring.checkpoint_dir", func(c *domain.Config) *string { return &c.Scoring.CheckpointDir }),
	str("scoring.checkpoint_backend", func(c *domain.Config) *string { return &c.Scoring.CheckpointBackend }),
	integer("scoring.top_n", func(c *domain.Config) *int { return &c.Scoring.TopN }),

	str("reformat.output_dir", func(c *domain.Config) *string { return &c.Reformat.OutputDir }),
	integer("reformat.verify_sample", func(c *domain.Config) *int { return &c.Reformat.VerifySample }),

	overlayValue("search.addresses", (*viper.Viper).GetStringSlice,
		func(c *domain.Config) *[]string { return &c.Search.Addresses }),
	str("search.username", func(c *domain.Config) *string { return &c.Search.Username }),
	str("search.password", func(c *domain.Config) *string { return &c.Search.Password }),
	str("search.index", func(c *domain.Config) *string { return &c.Search.Index }),
	overlayValue("search.insecure_skip_verify", (*viper.Viper).GetBool,
		func(c *domain.Config) *bool { return &c.Search.InsecureSkipVerify }),
	overlayValue("search.requests_per_second", (*viper.Viper).GetFloat64,
		func(c *domain.Config) *float64 { return &c.Search.RequestsPerSecond }),

	str("timeseries.dsn", func(c *domain.Config) *string { return &c.TimeSeries.DSN }),
	str("timeseries.table", func(c *domain.Config) *string { return &c.TimeSeries.Table }),
	integer("timeseries.latest_limit", func(c *domain.Config) *int { return &c.TimeSeries.LatestLimit }),

	str("blob.backend", func(c *domain.Config) *string { return &c.Blob.Backend }),
	str("blob.dir", func(c *domain.Config) *string { return &c.Blob.Dir }),
	str("blob.bucket", func(c *domain.Config) *string { return &c.Blob.Bucket }),
	str("blob.region", func(c *domain.Config) *string { return &c.Blob.Region }),
	str("blob.endpoint", func(c *domain.Config) *string { return &c.Blob.Endpoint }),

	str("export.ehr_folder", func(c *domain.Config) *string { return &c.Export.EHRFolder }),
	integer("export.time_range_days", func(c *domain.Config) *int { return &c.Export.TimeRangeDays }),
	str("export.format", func(c *domain.Config) *string { return &c.Export.Format }),

	str("cache.backend", func(c *domain.Config) *string { return &c.Cache.Backend }),
	str("cache.redis_addr", func(c *domain.Config) *string { return &c.Cache.RedisAddr }),
	str("cache.ttl", func(c *domain.Config) *string { return &c.Cache.TTL }),

	str("logging.file", func(c *domain.Config) *string { return &c.Logging.File }),
	str("metrics.file", func(c *domain.Config) *string { return &c.Metrics.File }),
	str("watch.debounce", func(c *domain.Config) *string { return &c.Watch.Debounce }),
}

func applyOverlay(v *viper.Viper, c *domain.Config) {
	for _, o := range overlays {
		o(v, c)
	}
}
