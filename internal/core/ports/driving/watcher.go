package driving

import "context"

// Watcher re-runs scoring when documents arrive in the corpus.
type Watcher interface {
	// Start watches the corpus. Blocks until context is cancelled or an
	// error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops watching.
	Stop() error
}
