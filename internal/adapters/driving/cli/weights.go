package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Derive section weights from the catalog",
	Long: `Derives a weight between 0 and 1 for every catalogued section from its
frequency and content metrics, adding a subsection for every note type
found under the notes section. The table is written to output.weights_file.`,
	Args: cobra.NoArgs,
	RunE: runWeightsGenerate,
}

var weightsShowCmd = &cobra.Command{
	Use:   "show [section-key]",
	Short: "Show the weight table or one section",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWeightsShow,
}

func init() {
	weightsCmd.AddCommand(weightsShowCmd)
	rootCmd.AddCommand(weightsCmd)
}

func runWeightsGenerate(cmd *cobra.Command, _ []string) error {
	if weightService == nil {
		return errNotConfigured("weight")
	}

	weights, err := weightService.GenerateWeights(cmd.Context())
	if err != nil {
		return fmt.Errorf("weight generation failed: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Success.Render(fmt.Sprintf("Derived %d section weights.", weights.Len())))
	cmd.Printf("  %s %s\n", st.Label.Render("Written to:"), cfg.Output.WeightsFile)
	return nil
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	if weightService == nil {
		return errNotConfigured("weight")
	}

	if len(args) == 1 {
		return showSectionWeight(cmd, args[0])
	}

	weights, err := weightService.Weights(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading weights: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render("Section weights") + " " + st.Muted.Render("v"+weights.Version))
	rows := make([][]string, 0, weights.Len())
	for _, key := range weights.Keys() {
		s, _ := weights.Section(key)
		rows = append(rows, []string{
			key,
			s.Title,
			strconv.FormatFloat(s.Weight, 'f', 2, 64),
			strconv.FormatFloat(s.Frequency, 'f', 3, 64),
		})
	}
	cmd.Println(renderTable([]string{"Section", "Title", "Weight", "Frequency"}, rows))
	return nil
}

func showSectionWeight(cmd *cobra.Command, key string) error {
	s, err := weightService.Section(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("section %s: %w", key, err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render(s.Title))
	cmd.Printf("  %s %s\n", st.Label.Render("Key:"), key)
	cmd.Printf("  %s %.2f\n", st.Label.Render("Weight:"), s.Weight)
	cmd.Printf("  %s %.3f\n", st.Label.Render("Frequency:"), s.Frequency)
	cmd.Printf("  %s %.2f entries, %.2f coded elements, %.2f words\n", st.Label.Render("Averages:"),
		s.Metrics.AvgEntries, s.Metrics.AvgCodedElements, s.Metrics.AvgNarrativeWords)
	if s.ParentSection != "" {
		cmd.Printf("  %s %s (LOINC %s)\n", st.Label.Render("Parent:"), s.ParentSection, s.LOINCCode)
	}
	if len(s.TemplateIDs) > 0 {
		cmd.Printf("  %s %s\n", st.Label.Render("Templates:"), strings.Join(s.TemplateIDs, ", "))
	}
	if s.Comment != "" {
		cmd.Printf("  %s\n", st.Muted.Render(s.Comment))
	}
	return nil
}
