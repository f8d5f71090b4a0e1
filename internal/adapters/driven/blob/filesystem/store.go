// Package filesystem stores export objects under a local directory.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store maps object keys to files below root.
type Store struct {
	root string
}

// New creates a store rooted at dir.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: no blob directory configured", domain.ErrBlobStoreUnavailable)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	return &Store{root: abs}, nil
}

// Put writes r to root/key, creating parent directories.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("writing %s: wrote %d of %d bytes", path, n, size)
	}
	return nil
}

// Location renders key as a file:// URI.
func (s *Store) Location(key string) string {
	return "file://" + filepath.Join(s.root, filepath.FromSlash(key))
}

// path resolves key below root, rejecting keys that escape it.
func (s *Store) path(key string) (string, error) {
	if key == "" || strings.HasSuffix(key, "/") {
		return "", fmt.Errorf("%w: object key %q", domain.ErrInvalidInput, key)
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: object key %q escapes the blob directory", domain.ErrInvalidInput, key)
	}
	return path, nil
}
