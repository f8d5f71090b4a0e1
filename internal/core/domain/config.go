package domain

import (
	"fmt"
	"time"
)

// Checkpoint store backends.
const (
	CheckpointBackendJSON   = "json"
	CheckpointBackendSQLite = "sqlite"
)

// Blob store backends.
const (
	BlobBackendFilesystem = "filesystem"
	BlobBackendS3         = "s3"
)

// Match cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Readings export formats.
const (
	ExportFormatCSV     = "csv"
	ExportFormatParquet = "parquet"
)

// Config is the typed configuration of every pipeline stage.
type Config struct {
	Corpus     CorpusConfig     `toml:"corpus"`
	Output     OutputConfig     `toml:"output"`
	Scoring    ScoringConfig    `toml:"scoring"`
	Reformat   ReformatConfig   `toml:"reformat"`
	Search     SearchConfig     `toml:"search"`
	TimeSeries TimeSeriesConfig `toml:"timeseries"`
	Blob       BlobConfig       `toml:"blob"`
	Export     ExportConfig     `toml:"export"`
	Cache      CacheConfig      `toml:"cache"`
	Logging    LoggingConfig    `toml:"logging"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Watch      WatchConfig      `toml:"watch"`
}

// CorpusConfig locates the input documents.
type CorpusConfig struct {
	// Dir is the directory of C-CDA XML files. Not searched recursively.
	Dir string `toml:"dir"`

	// Pattern is the glob applied inside Dir.
	Pattern string `toml:"pattern"`
}

// OutputConfig names the artifacts written by each stage.
type OutputConfig struct {
	CatalogFile string `toml:"catalog_file"`
	WeightsFile string `toml:"weights_file"`
	IndexFile   string `toml:"index_file"`
	PHIFile     string `toml:"phi_file"`
	TokensFile  string `toml:"tokens_file"`
	MatchReport string `toml:"match_report"`
}

// ScoringConfig drives the resumable scoring engine.
type ScoringConfig struct {
	BatchSize         int    `toml:"batch_size"`
	MemoryLimitMB     int    `toml:"memory_limit_mb"`
	CheckpointDir     string `toml:"checkpoint_dir"`
	CheckpointBackend string `toml:"checkpoint_backend"`
	TopN              int    `toml:"top_n"`
}

// ReformatConfig drives the reformatter and verifier.
type ReformatConfig struct {
	OutputDir    string `toml:"output_dir"`
	VerifySample int    `toml:"verify_sample"`
}

// SearchConfig connects to the patient search index.
type SearchConfig struct {
	Addresses          []string `toml:"addresses"`
	Username           string   `toml:"username"`
	Password           string   `toml:"password"`
	Index              string   `toml:"index"`
	InsecureSkipVerify bool     `toml:"insecure_skip_verify"`

	// RequestsPerSecond throttles queries; zero disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// TimeSeriesConfig connects to the readings store.
type TimeSeriesConfig struct {
	DSN         string `toml:"dsn"`
	Table       string `toml:"table"`
	LatestLimit int    `toml:"latest_limit"`
}

// BlobConfig selects and configures the upload target.
type BlobConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	Bucket   string `toml:"bucket"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

// ExportConfig drives the uploaders.
type ExportConfig struct {
	EHRFolder     string `toml:"ehr_folder"`
	TimeRangeDays int    `toml:"time_range_days"`
	Format        string `toml:"format"`
}

// CacheConfig selects the match cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`

	// TTL is a Go duration string, e.g. "1h".
	TTL string `toml:"ttl"`
}

// TTLDuration parses TTL, returning zero when unset.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	return parseDuration("cache.ttl", c.TTL)
}

// LoggingConfig configures the optional rotating log file.
type LoggingConfig struct {
	File string `toml:"file"`
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	File string `toml:"file"`
}

// WatchConfig configures the corpus watcher.
type WatchConfig struct {
	// Debounce is a Go duration string, e.g. "2s".
	Debounce string `toml:"debounce"`
}

// DebounceDuration parses Debounce, returning zero when unset.
func (c WatchConfig) DebounceDuration() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Debounce)
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
	}
	return d, nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Corpus: CorpusConfig{
			Dir:     "input/ccda",
			Pattern: "*.xml",
		},
		Output: OutputConfig{
			CatalogFile: "output/analysis/metrics/section_analysis.json",
			WeightsFile: "output/analysis/config/ccda_sections_config.json",
			IndexFile:   "output/analysis/metrics/analysis.json",
			PHIFile:     "output/phi/phi_records.json",
			TokensFile:  "output/phi/phi_tokens.json",
			MatchReport: "output/analysis/patient_matches.json",
		},
		Scoring: ScoringConfig{
			BatchSize:         15,
			MemoryLimitMB:     8000,
			CheckpointDir:     "analysis_checkpoints",
			CheckpointBackend: CheckpointBackendJSON,
			TopN:              100,
		},
		Reformat: ReformatConfig{
			OutputDir:    "output/ccda_reformatted",
			VerifySample: 20,
		},
		Search: SearchConfig{
			Addresses: []string{"https://localhost:9200"},
			Index:     "patients",
		},
		TimeSeries: TimeSeriesConfig{
			Table:       "glucose_readings",
			LatestLimit: 100,
		},
		Blob: BlobConfig{
			Backend: BlobBackendFilesystem,
			Dir:     "output/upload",
		},
		Export: ExportConfig{
			EHRFolder:     "ehr/",
			TimeRangeDays: 365,
			Format:        ExportFormatCSV,
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			TTL:     "1h",
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
	}
}

// Validate checks enumerated values and numeric ranges.
func (c Config) Validate() error {
	if c.Corpus.Dir == "" {
		return fmt.Errorf("%w: corpus.dir is required", ErrInvalidConfig)
	}
	if c.Scoring.BatchSize <= 0 {
		return fmt.Errorf("%w: scoring.batch_size must be positive, got %d", ErrInvalidConfig, c.Scoring.BatchSize)
	}
	if c.Scoring.MemoryLimitMB < 0 {
		return fmt.Errorf("%w: scoring.memory_limit_mb must not be negative", ErrInvalidConfig)
	}
	if c.Scoring.TopN < 0 {
		return fmt.Errorf("%w: scoring.top_n must not be negative", ErrInvalidConfig)
	}
	if c.Export.TimeRangeDays < 0 {
		return fmt.Errorf("%w: export.time_range_days must not be negative", ErrInvalidConfig)
	}
	if err := oneOf("scoring.checkpoint_backend", c.Scoring.CheckpointBackend,
		CheckpointBackendJSON, CheckpointBackendSQLite); err != nil {
		return err
	}
	if err := oneOf("blob.backend", c.Blob.Backend, BlobBackendFilesystem, BlobBackendS3); err != nil {
		return err
	}
	if err := oneOf("cache.backend", c.Cache.Backend, CacheBackendMemory, CacheBackendRedis); err != nil {
		return err
	}
	if err := oneOf("export.format", c.Export.Format, ExportFormatCSV, ExportFormatParquet); err != nil {
		return err
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return err
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return err
	}
	if c.Blob.Backend == BlobBackendS3 && c.Blob.Bucket == "" {
		return fmt.Errorf("%w: blob.bucket is required for the s3 backend", ErrInvalidConfig)
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalidConfig, name, allowed, value)
}
