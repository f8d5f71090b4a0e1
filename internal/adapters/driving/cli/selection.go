package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	selectJSON   bool
	selectScores bool
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Print the top-scoring documents",
	Long: `Prints the file paths of the N highest scoring documents from the
consolidated index, best first, one per line. Documents with equal scores
keep the order in which they were first scored.`,
	Args: cobra.NoArgs,
	RunE: runSelect,
}

func init() {
	f := selectCmd.Flags()
	f.IntP("top", "n", 0, "number of documents to select (default scoring.top_n)")
	f.BoolVar(&selectJSON, "json", false, "output as JSON")
	f.BoolVar(&selectScores, "scores", false, "show scores in a table")
	bindFlag(f, "top", "scoring.top_n")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, _ []string) error {
	if selectionService == nil {
		return errNotConfigured("selection")
	}

	top, err := selectionService.TopN(cmd.Context(), cfg.Scoring.TopN)
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}

	switch {
	case selectJSON:
		files := make([]string, len(top))
		for i := range top {
			files[i] = top[i].FilePath
		}
		data, err := json.MarshalIndent(files, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal selection: %w", err)
		}
		cmd.Println(string(data))
	case selectScores:
		if len(top) == 0 {
			cmd.Println("No documents scored.")
			return nil
		}
		cmd.Println(renderTable([]string{"#", "Document", "Score", "Sections"}, scoreRows(top)))
	default:
		for i := range top {
			cmd.Println(top[i].FilePath)
		}
	}
	return nil
}
