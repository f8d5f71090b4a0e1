package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the ranked index interactively",
	Long: `Opens a terminal browser over the consolidated index. The list shows the
top documents by total score; press enter on a document to see how each
section contributed to it.

Keys:
  up/down  move        enter  sections
  r        reload      esc    back
  ?        help        q      quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	f := browseCmd.Flags()
	f.IntP("top", "n", 0, "number of documents to list (default scoring.top_n)")
	bindFlag(f, "top", "scoring.top_n")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	browser, err := tui.NewApp(&tui.Ports{
		Selection: selectionService,
		Weights:   weightService,
	}, cfg.Scoring.TopN)
	if err != nil {
		return err
	}

	err = browser.WithContext(cmd.Context()).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
