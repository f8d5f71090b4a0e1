package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.DocumentSink = (*Sink)(nil)

// Sink writes documents into local directories.
type Sink struct{}

// NewSink creates a new filesystem sink.
func NewSink() *Sink {
	return &Sink{}
}

// Create opens dir/name for writing, truncating an existing file.
func (s *Sink) Create(_ context.Context, dir, name string) (io.WriteCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

// Open opens dir/name for reading.
func (s *Sink) Open(_ context.Context, dir, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// List returns the names of the visible regular files in dir, sorted. A
// missing directory is domain.ErrNotFound.
func (s *Sink) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || isHidden(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// validName rejects names that would escape the directory.
func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid document name %q", domain.ErrInvalidInput, name)
	}
	return nil
}
