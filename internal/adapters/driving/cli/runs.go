package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded scoring runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "l", 20, "maximum number of runs to list (0 = all)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if scoringService == nil {
		return errNotConfigured("scoring")
	}

	runs, err := scoringService.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i := range runs {
		rows[i] = runRow(runs[i])
	}
	cmd.Println(renderTable(
		[]string{"Run", "Trigger", "Started", "Duration", "Scored", "Failed", "Batches", "Status"},
		rows,
	))
	return nil
}

func runRow(r domain.RunResult) []string {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return []string{
		id,
		string(r.Trigger),
		r.StartedAt.Local().Format("2006-01-02 15:04:05"),
		r.Duration().Round(time.Millisecond).String(),
		strconv.Itoa(r.Scored),
		strconv.Itoa(r.Failed),
		fmt.Sprintf("%d/%d", r.BatchesWritten, r.BatchesWritten+r.BatchesSkipped),
		runStatus(r),
	}
}

func runStatus(r domain.RunResult) string {
	switch {
	case r.Stopped:
		return "stopped"
	case !r.Success():
		return "failed"
	default:
		return "ok"
	}
}
