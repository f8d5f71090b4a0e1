package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

var (
	phiFile   string
	phiSample int
	phiSeed   int64
)

var phiCmd = &cobra.Command{
	Use:   "phi",
	Short: "Extract and tokenize patient PHI",
}

var phiExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract PHI records from the corpus",
	Long: `Extracts patient identifiers, names, addresses, telecoms, demographics,
guardian and provider organisation from each document's recordTarget.
Every value records where in the document it was found. Output goes to
output.phi_file.`,
	Args: cobra.NoArgs,
	RunE: runPHIExtract,
}

var phiTokenizeCmd = &cobra.Command{
	Use:   "tokenize",
	Short: "Normalise PHI and assign surrogate tokens",
	Long: `Normalises extracted PHI into flat fields and assigns each distinct
value a deterministic surrogate token. This is not a de-identification
guarantee. Output goes to output.tokens_file.`,
	Args: cobra.NoArgs,
	RunE: runPHITokenize,
}

func init() {
	phiExtractCmd.Flags().StringVar(&phiFile, "file", "", "extract a single document")
	phiTokenizeCmd.Flags().IntVar(&phiSample, "sample", 0, "tokenize a sample of this many documents (0 = all)")
	phiTokenizeCmd.Flags().Int64Var(&phiSeed, "seed", 0, "sampling seed (0 = time based)")

	phiCmd.AddCommand(phiExtractCmd)
	phiCmd.AddCommand(phiTokenizeCmd)
	rootCmd.AddCommand(phiCmd)
}

func runPHIExtract(cmd *cobra.Command, _ []string) error {
	if phiService == nil {
		return errNotConfigured("phi")
	}

	summary, err := phiService.Extract(cmd.Context(), phiFile)
	if err != nil {
		return fmt.Errorf("phi extraction failed: %w", err)
	}
	printPHISummary(cmd, "PHI extraction", summary)
	return nil
}

func runPHITokenize(cmd *cobra.Command, _ []string) error {
	if phiService == nil {
		return errNotConfigured("phi")
	}

	seed := phiSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	summary, err := phiService.Tokenize(cmd.Context(), phiSample, seed)
	if err != nil {
		return fmt.Errorf("phi tokenization failed: %w", err)
	}
	printPHISummary(cmd, "PHI tokenization", summary)
	cmd.Printf("  %d unique tokens\n", summary.UniqueTokens)
	return nil
}

func printPHISummary(cmd *cobra.Command, title string, s *domain.PHISummary) {
	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render(title))
	cmd.Printf("  %s %d processed, %s\n", st.Label.Render("Documents:"), s.Processed, failedText(st, s.Failed))
	cmd.Printf("  %s %s\n", st.Label.Render("Written to:"), s.OutputFile)
}
