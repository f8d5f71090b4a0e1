package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Link top documents to patients and their readings",
	Long: `For each of the N highest scoring documents, reads the patient's name and
birth date, looks the patient up in the search index and checks the time
series store for readings. Results are cached per patient and written to
output.match_report.`,
	Args:        cobra.NoArgs,
	RunE:        runMatch,
	Annotations: map[string]string{annotationRequires: "matching"},
}

func init() {
	f := matchCmd.Flags()
	f.IntP("top", "n", 0, "number of documents to match (default scoring.top_n)")
	f.String("cache-backend", "", "match cache: memory or redis")
	bindFlag(f, "top", "scoring.top_n")
	bindFlag(f, "cache-backend", "cache.backend")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	if matchService == nil {
		return errNotConfigured("match")
	}

	report, err := matchService.Match(cmd.Context(), cfg.Scoring.TopN)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	s := report.Summary
	cmd.Println(st.Title.Render("Patient matching"))
	cmd.Printf("  %s %d\n", st.Label.Render("Documents processed:"), s.FilesProcessed)
	cmd.Printf("  %s %d (%.1f%%)\n", st.Label.Render("Matches found:"), s.MatchesFound, s.MatchRate*100)
	cmd.Printf("  %s %d\n", st.Label.Render("Patients with readings:"), s.PatientsWithData)
	cmd.Printf("  %s %s\n", st.Label.Render("Written to:"), cfg.Output.MatchReport)
	return nil
}
