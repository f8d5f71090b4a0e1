// Package cli is the ccdarank command line. Commands talk to the core
// through driving ports held in package variables; the composition root
// installs them through an App before each command runs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// EnvPrefix prefixes environment variables overlaying the configuration,
// e.g. CCDARANK_SCORING_BATCH_SIZE.
const EnvPrefix = "CCDARANK"

const (
	// annotationRequires lists optional collaborators a command needs.
	annotationRequires = "ccdarank/requires"

	// annotationNoServices marks commands that only need configuration.
	annotationNoServices = "ccdarank/no-services"

	// flagConfigKey is the pflag annotation naming the config key a flag sets.
	flagConfigKey = "ccdarank/config-key"
)

// Requirement names optional collaborators a command needs beyond the
// local pipeline.
type Requirement int

const (
	// RequireMatching needs patient search, time series and the match cache.
	RequireMatching Requirement = 1 << iota

	// RequireExport needs the blob store and, for readings, the time series.
	RequireExport
)

// Has reports whether r includes other.
func (r Requirement) Has(other Requirement) bool { return r&other != 0 }

// Services holds the driving ports used by the commands.
type Services struct {
	Catalog   driving.CatalogService
	Weights   driving.WeightService
	Scoring   driving.ScoringService
	DryRun    driving.ScoringService
	Selection driving.SelectionService
	Reformat  driving.ReformatService
	PHI       driving.PHIService
	Match     driving.MatchService
	Export    driving.ExportService
	Watcher   driving.Watcher

	// Close releases pooled connections. May be nil.
	Close func() error
}

// App wires configuration into services.
type App interface {
	// ConfigStore opens the configuration file at path, or the default
	// location when path is empty.
	ConfigStore(path string) (driven.ConfigStore, error)

	// Build creates the services a command needs.
	Build(ctx context.Context, cfg domain.Config, req Requirement) (*Services, error)
}

// Version is set at build time via ldflags.
var version = "dev"

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Injected state. Tests assign the service variables directly.
var (
	app         App
	configStore driven.ConfigStore
	cfg         = domain.DefaultConfig()
	closer      func() error

	catalogService   driving.CatalogService
	weightService    driving.WeightService
	scoringService   driving.ScoringService
	dryRunService    driving.ScoringService
	selectionService driving.SelectionService
	reformatService  driving.ReformatService
	phiService       driving.PHIService
	matchService     driving.MatchService
	exportService    driving.ExportService
	watcher          driving.Watcher
)

// Persistent flags.
var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "ccdarank",
	Short: "Rank C-CDA documents by clinical richness",
	Long: `ccdarank catalogs the sections of a corpus of C-CDA XML documents,
derives a weight per section, scores every document in resumable
checkpointed batches and selects the richest documents for downstream
processing.

Typical pipeline:
  ccdarank catalog
  ccdarank weights
  ccdarank score
  ccdarank select -n 100

Configuration is read from ccdarank.toml in the working directory (see
"ccdarank config init"). Any key can be overridden with a flag where one
exists or with an environment variable such as CCDARANK_CORPUS_DIR.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "configuration file (default ./ccdarank.toml)")
	pf.BoolVarP(&debug, "debug", "v", false, "enable debug logging")
	pf.String("corpus-dir", "", "directory of C-CDA XML documents")
	pf.String("log-file", "", "also write JSON logs to this rotating file")
	bindFlag(pf, "corpus-dir", "corpus.dir")
	bindFlag(pf, "log-file", "logging.file")
}

// Execute runs the root command with app wiring services.
func Execute(ctx context.Context, a App) error {
	app = a
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// bindFlag records the config key a flag overrides.
func bindFlag(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, flagConfigKey, []string{key}); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", name, err))
	}
}

// setup loads configuration, applies flag and environment overrides, and
// installs services for the command about to run.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(debug)

	loaded := domain.DefaultConfig()
	if app != nil {
		store, err := app.ConfigStore(configPath)
		if err != nil {
			return fmt.Errorf("opening configuration: %w", err)
		}
		configStore = store
		if loaded, err = store.Load(); err != nil {
			return err
		}
	}

	v := newViper(cmd.Flags())
	applyOverlay(v, &loaded)
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	if cfg.Logging.File != "" {
		logger.SetFile(cfg.Logging.File)
	}
	logger.Debug("Configuration: corpus=%s checkpoints=%s (%s)",
		cfg.Corpus.Dir, cfg.Scoring.CheckpointDir, cfg.Scoring.CheckpointBackend)

	if app == nil || cmd.Annotations[annotationNoServices] != "" {
		return nil
	}
	services, err := app.Build(cmd.Context(), cfg, requirements(cmd))
	if err != nil {
		return err
	}
	install(services)
	return nil
}

// newViper layers environment variables and the flags bound to config keys.
func newViper(fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[flagConfigKey]
		if len(keys) == 1 {
			_ = v.BindPFlag(keys[0], f)
		}
	})
	return v
}

func requirements(cmd *cobra.Command) Requirement {
	var req Requirement
	for _, name := range strings.Split(cmd.Annotations[annotationRequires], ",") {
		switch strings.TrimSpace(name) {
		case "matching":
			req |= RequireMatching
		case "export":
			req |= RequireExport
		}
	}
	return req
}

func install(s *Services) {
	if s == nil {
		return
	}
	catalogService = s.Catalog
	weightService = s.Weights
	scoringService = s.Scoring
	dryRunService = s.DryRun
	selectionService = s.Selection
	reformatService = s.Reformat
	phiService = s.PHI
	matchService = s.Match
	exportService = s.Export
	watcher = s.Watcher
	closer = s.Close
}

func closeServices() {
	if closer == nil {
		return
	}
	if err := closer(); err != nil {
		logger.Warn("Failed to release resources: %v", err)
	}
	closer = nil
}

// errNotConfigured builds the error returned when a service is missing.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
