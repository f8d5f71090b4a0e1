package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-score the corpus as documents arrive",
	Long: `Scores the corpus once, then watches the corpus directory and runs the
resumable scoring again whenever documents are added or changed. Events
arriving while a run is in progress trigger a single follow-up run.

Stop with Ctrl-C; completed batches are kept.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.String("debounce", "", "quiet period before a run, e.g. 2s")
	f.Int("batch-size", 0, "files per checkpoint batch")
	f.Int("memory-limit", 0, "stop starting batches above this heap size in MB")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile after each run")
	bindFlag(f, "debounce", "watch.debounce")
	bindFlag(f, "batch-size", "scoring.batch_size")
	bindFlag(f, "memory-limit", "scoring.memory_limit_mb")
	bindFlag(f, "metrics-file", "metrics.file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watcher == nil {
		return errNotConfigured("watch")
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)...\n", cfg.Corpus.Dir)
	err := watcher.Start(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped watching.")
	return nil
}
