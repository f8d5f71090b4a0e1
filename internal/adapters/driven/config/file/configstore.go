package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// FileName is the configuration file name inside the config directory.
const FileName = "ccdarank.toml"

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Keys absent from the file keep their default values.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
}

// NewConfigStore creates a TOML config store rooted at configDir.
// If configDir is empty, the current working directory is used.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		configDir = wd
	}
	return &ConfigStore{filePath: filepath.Join(configDir, FileName)}, nil
}

// NewConfigStoreAt creates a store for an explicit file path.
func NewConfigStoreAt(path string) *ConfigStore {
	return &ConfigStore{filePath: path}
}

// Load reads the configuration over domain.DefaultConfig. A missing file
// yields the defaults; unknown keys are rejected.
func (s *ConfigStore) Load() (domain.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := domain.DefaultConfig()
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", s.filePath, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return domain.DefaultConfig(), fmt.Errorf("%w: %s: %s", domain.ErrInvalidConfig, s.filePath, strict.String())
		}
		return domain.DefaultConfig(), fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, s.filePath, err)
	}
	return cfg, nil
}

// Save writes cfg, replacing the file. The file is readable only by the
// owner since it may hold service credentials.
func (s *ConfigStore) Save(cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Exists reports whether the configuration file is present.
func (s *ConfigStore) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.filePath)
	return err == nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
