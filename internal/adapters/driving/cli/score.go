package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
)

var scoreDryRun bool

// progressInterval is how often a running score prints progress.
var progressInterval = 500 * time.Millisecond

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score every document in resumable batches",
	Long: `Scores every corpus document not yet covered by a checkpoint batch,
writing one checkpoint per batch, then rewrites the consolidated index from
all batches. An interrupted run resumes where it stopped: completed batches
are skipped.

Scoring stops starting new batches once heap usage exceeds
scoring.memory_limit_mb. Use --dry-run to score without touching the
checkpoint directory. --weights and --output override output.weights_file
and output.index_file.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.Int("batch-size", 0, "files per checkpoint batch")
	f.Int("memory-limit", 0, "stop starting batches above this heap size in MB (0 = no limit)")
	f.String("checkpoint-dir", "", "checkpoint directory")
	f.String("checkpoint-backend", "", "checkpoint backend: json or sqlite")
	f.String("output", "", "consolidated index file")
	f.String("weights", "", "section weight table to score with")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile")
	f.BoolVar(&scoreDryRun, "dry-run", false, "keep checkpoints in memory only")
	bindFlag(f, "batch-size", "scoring.batch_size")
	bindFlag(f, "memory-limit", "scoring.memory_limit_mb")
	bindFlag(f, "checkpoint-dir", "scoring.checkpoint_dir")
	bindFlag(f, "checkpoint-backend", "scoring.checkpoint_backend")
	bindFlag(f, "output", "output.index_file")
	bindFlag(f, "weights", "output.weights_file")
	bindFlag(f, "metrics-file", "metrics.file")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	scorer := scoringService
	if scoreDryRun {
		scorer = dryRunService
	}
	if scorer == nil {
		return errNotConfigured("scoring")
	}

	opts := domain.ScoreOptions{
		BatchSize:     cfg.Scoring.BatchSize,
		MemoryLimitMB: cfg.Scoring.MemoryLimitMB,
		Trigger:       domain.RunTriggerCLI,
	}
	if scoreDryRun {
		cmd.Println("Dry run: checkpoints are kept in memory.")
	}

	summary, err := scoreWithProgress(cmd, scorer, opts)
	if summary != nil {
		printScoreSummary(cmd, summary)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("scoring interrupted; completed batches are kept, run again to resume")
		}
		return fmt.Errorf("scoring failed: %w", err)
	}
	return nil
}

// scoreWithProgress runs the scorer while displaying progress updates on
// interactive terminals.
func scoreWithProgress(
	cmd *cobra.Command,
	scorer driving.ScoringService,
	opts domain.ScoreOptions,
) (*domain.ScoreSummary, error) {
	if !isTerminal(cmd.OutOrStdout()) {
		return scorer.Score(cmd.Context(), opts)
	}

	type result struct {
		summary *domain.ScoreSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := scorer.Score(cmd.Context(), opts)
		done <- result{summary: s, err: err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case r := <-done:
			if lastCount > 0 {
				cmd.Println()
			}
			return r.summary, r.err
		case <-ticker.C:
			status := scorer.Status()
			if status.Running && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rBatch %d: %d documents scored (%d errors)",
					status.Batch, status.DocumentsProcessed, status.ErrorCount)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

func printScoreSummary(cmd *cobra.Command, summary *domain.ScoreSummary) {
	st := newStyles(cmd.OutOrStdout())
	run := summary.Run

	cmd.Println(st.Title.Render("Scoring run") + " " + st.Muted.Render(run.ID))
	cmd.Printf("  %s %d files, %d scored, %s\n", st.Label.Render("Corpus:"),
		run.CorpusFiles, run.Scored, failedText(st, run.Failed))
	cmd.Printf("  %s %d written, %d skipped\n", st.Label.Render("Batches:"),
		run.BatchesWritten, run.BatchesSkipped)
	cmd.Printf("  %s %d documents, %d with errors\n", st.Label.Render("Index:"),
		summary.TotalDocuments, summary.Errors)
	cmd.Printf("  %s %s\n", st.Label.Render("Duration:"), run.Duration().Round(time.Millisecond))
	if run.Stopped {
		cmd.Println(st.Warning.Render("Run stopped early; completed batches are kept. Run again to resume."))
	}

	if len(summary.Top) > 0 {
		cmd.Println(renderTable([]string{"#", "Document", "Score", "Sections"}, scoreRows(summary.Top)))
	}
}

func failedText(st *styles, failed int) string {
	text := strconv.Itoa(failed) + " failed"
	if failed > 0 {
		return st.Warning.Render(text)
	}
	return text
}

func scoreRows(scores []domain.DocumentScore) [][]string {
	rows := make([][]string, len(scores))
	for i := range scores {
		score := strconv.FormatFloat(scores[i].TotalScore, 'f', 2, 64)
		if scores[i].Failed() {
			score = "error"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			scores[i].FilePath,
			score,
			strconv.Itoa(scores[i].UniqueSections),
		}
	}
	return rows
}
