package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

var catalogRows int

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Build the corpus-wide section catalog",
	Long: `Scans every document in the corpus, records each section it finds and
computes how often each section occurs across documents. The catalog is
written to output.catalog_file and feeds "ccdarank weights".`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().IntVar(&catalogRows, "rows", 20, "number of sections to list (0 = all)")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errNotConfigured("catalog")
	}

	catalog, err := catalogService.BuildCatalog(cmd.Context())
	if err != nil {
		return fmt.Errorf("catalog failed: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render("Section catalog"))
	cmd.Printf("  %s %d\n", st.Label.Render("Documents:"), catalog.TotalDocuments())
	if catalog.FailedDocuments() > 0 {
		cmd.Printf("  %s %s\n", st.Label.Render("Failed:"),
			st.Warning.Render(strconv.Itoa(catalog.FailedDocuments())))
	}
	cmd.Printf("  %s %d\n", st.Label.Render("Sections:"), catalog.Len())
	cmd.Printf("  %s %s\n", st.Label.Render("Written to:"), cfg.Output.CatalogFile)

	if catalog.Len() > 0 {
		cmd.Println(renderTable(
			[]string{"Section", "Title", "Docs", "Frequency"},
			catalogTableRows(catalog.Entries(), catalogRows),
		))
	}
	return nil
}

func catalogTableRows(entries []*domain.SectionCatalogEntry, limit int) [][]string {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		title := ""
		if len(e.Titles) > 0 {
			title = e.Titles[0]
		}
		rows[i] = []string{
			e.Key,
			title,
			strconv.Itoa(e.OccurrenceCount),
			strconv.FormatFloat(e.Frequency, 'f', 3, 64),
		}
	}
	return rows
}
