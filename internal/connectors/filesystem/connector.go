// Package filesystem reads a corpus of documents from a local directory.
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
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure Corpus implements the interface.
var _ driven.Corpus = (*Corpus)(nil)

// DefaultPattern matches C-CDA documents.
const DefaultPattern = "*.xml"

// Corpus enumerates the files of one directory that match a glob.
// Subdirectories are not searched.
type Corpus struct {
	rootPath string
	pattern  string
}

// New creates a corpus rooted at rootPath. An empty pattern matches
// DefaultPattern.
func New(rootPath, pattern string) *Corpus {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Corpus{
		rootPath: ResolvePath(rootPath),
		pattern:  pattern,
	}
}

// Root returns the corpus directory.
func (c *Corpus) Root() string {
	return c.rootPath
}

// Validate checks the root exists and is a readable directory, and that
// the pattern is well formed.
func (c *Corpus) Validate() error {
	if _, err := filepath.Match(c.pattern, ""); err != nil {
		return fmt.Errorf("%w: pattern %q: %w", domain.ErrInvalidConfig, c.pattern, err)
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: corpus directory %s", domain.ErrNotFound, c.rootPath)
		}
		return fmt.Errorf("cannot access corpus directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidConfig, c.rootPath)
	}
	return nil
}

// List returns matching regular files sorted by path. Hidden files are
// skipped.
func (c *Corpus) List(ctx context.Context) ([]domain.CorpusFile, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(c.rootPath, c.pattern))
	if err != nil {
		return nil, fmt.Errorf("glob corpus: %w", err)
	}
	sort.Strings(matches)

	files := make([]domain.CorpusFile, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isHidden(filepath.Base(path)) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			// Removed between glob and stat.
			logger.Debug("Skipping %s: %v", path, err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, domain.CorpusFile{Path: path, Size: info.Size()})
	}
	return files, nil
}

// Open opens a document by the path List returned.
func (c *Corpus) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(ResolvePath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Watch emits the path of every matching file created or written in the
// corpus directory until ctx is cancelled.
func (c *Corpus) Watch(ctx context.Context) (<-chan string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(c.rootPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				path, ok := c.handleFsEvent(event)
				if !ok {
					continue
				}
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Corpus watcher error: %v", err)
			}
		}
	}()

	return out, nil
}

// handleFsEvent maps an fsnotify event to a document path. Removals,
// renames and attribute changes do not produce new content.
func (c *Corpus) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}

	base := filepath.Base(event.Name)
	if isHidden(base) {
		return "", false
	}
	if ok, _ := filepath.Match(c.pattern, base); !ok {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// isHidden reports whether a file name is hidden or an editor temp file.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}
