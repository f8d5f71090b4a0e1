package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// Corpus enumerates and reads the document files of a corpus.
type Corpus interface {
	// Root returns the corpus location for display.
	Root() string

	// List enumerates document files. The order must be stable across calls
	// for an unchanged corpus; batch boundaries depend on it.
	List(ctx context.Context) ([]domain.CorpusFile, error)

	// Open opens a document for reading. Callers close the reader.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Watch emits the path of every document created or modified until the
	// context is cancelled. The channel is closed on exit.
	Watch(ctx context.Context) (<-chan string, error)
}

// DocumentSink writes named documents into an output directory and reads
// them back.
type DocumentSink interface {
	// Create opens dir/name for writing, creating dir when missing.
	Create(ctx context.Context, dir, name string) (io.WriteCloser, error)

	// Open opens dir/name for reading.
	Open(ctx context.Context, dir, name string) (io.ReadCloser, error)

	// List returns the document names in dir, sorted.
	List(ctx context.Context, dir string) ([]string, error)
}
