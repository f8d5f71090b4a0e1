package driven

import "github.com/custodia-labs/ccdarank/internal/core/domain"

// ConfigStore persists the typed pipeline configuration.
// Implementations handle the file format (e.g., TOML).
type ConfigStore interface {
	// Load reads the configuration. Fields absent from storage keep their
	// domain.DefaultConfig values; a missing file yields the defaults.
	Load() (domain.Config, error)

	// Save writes the configuration, replacing what was stored.
	Save(cfg domain.Config) error

	// Exists reports whether a configuration file is present.
	Exists() bool

	// Path returns the configuration file path.
	Path() string
}
