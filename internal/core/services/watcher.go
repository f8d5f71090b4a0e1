package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure CorpusWatcher implements the interface.
var _ driving.Watcher = (*CorpusWatcher)(nil)

// DefaultDebounce is the quiet period after the last corpus event before a
// scoring run starts.
const DefaultDebounce = 2 * time.Second

// CorpusWatcher re-runs the resumable scoring engine whenever documents are
// added to or changed in the corpus. Events arriving during a run coalesce
// into one follow-up run.
type CorpusWatcher struct {
	corpus   driven.Corpus
	scorer   driving.ScoringService
	opts     domain.ScoreOptions
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewCorpusWatcher creates a watcher. Runs use opts with the watch trigger.
func NewCorpusWatcher(
	corpus driven.Corpus,
	scorer driving.ScoringService,
	opts domain.ScoreOptions,
	debounce time.Duration,
) *CorpusWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	opts.Trigger = domain.RunTriggerWatch
	return &CorpusWatcher{
		corpus:   corpus,
		scorer:   scorer,
		opts:     opts,
		debounce: debounce,
	}
}

// Start scores once to catch up, then watches the corpus. This method
// blocks until Stop is called or the context is cancelled.
func (w *CorpusWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := w.corpus.Watch(ctx)
	if err != nil {
		w.markStopped()
		return err
	}

	// One queued run at most; further triggers coalesce.
	trigger := make(chan struct{}, 1)
	trigger <- struct{}{}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.worker(ctx, trigger)
	}()

	err = w.loop(ctx, stopCh, events, trigger)
	cancel()
	w.wg.Wait()
	w.markStopped()
	return err
}

// Stop gracefully stops watching. An in-flight run is cancelled; its
// completed batches are kept.
func (w *CorpusWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running || w.stopCh == nil {
		return nil
	}
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	return nil
}

// loop debounces corpus events into run triggers.
func (w *CorpusWatcher) loop(
	ctx context.Context,
	stopCh <-chan struct{},
	events <-chan string,
	trigger chan<- struct{},
) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debug("watch: %s changed", path)
			timer.Reset(w.debounce)
		case <-timer.C:
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}
}

// worker runs one scoring pass per trigger.
func (w *CorpusWatcher) worker(ctx context.Context, trigger <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			w.runOnce(ctx)
		}
	}
}

func (w *CorpusWatcher) runOnce(ctx context.Context) {
	logger.Info("watch: scoring %s", w.corpus.Root())
	summary, err := w.scorer.Score(ctx, w.opts)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("watch: run cancelled")
	case err != nil:
		logger.Error("watch: scoring failed: %v", err)
	case summary != nil:
		logger.Info("watch: scored %d new documents in %d batches (%d in index)",
			summary.Run.Scored, summary.Run.BatchesWritten, summary.TotalDocuments)
	}
}

func (w *CorpusWatcher) markStopped() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
}
