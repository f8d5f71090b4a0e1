package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload documents and readings to the blob store",
}

var exportEHRCmd = &cobra.Command{
	Use:   "ehr",
	Short: "Upload the top documents",
	Long: `Uploads the original XML of the N highest scoring documents to the blob
store under export.ehr_folder, keyed by file name.`,
	Args:        cobra.NoArgs,
	RunE:        runExportEHR,
	Annotations: map[string]string{annotationRequires: "export"},
}

var exportGlucoseCmd = &cobra.Command{
	Use:   "glucose",
	Short: "Upload readings of matched patients",
	Long: `For every matched patient with readings, fetches the readings of the last
export.time_range_days days, newest first, and uploads them as CSV or
Parquet under a prefix chosen by their data source. Requires a match
report from "ccdarank match".`,
	Args:        cobra.NoArgs,
	RunE:        runExportGlucose,
	Annotations: map[string]string{annotationRequires: "export"},
}

func init() {
	pf := exportCmd.PersistentFlags()
	pf.String("blob-backend", "", "upload target: filesystem or s3")
	pf.String("bucket", "", "S3 bucket")
	bindFlag(pf, "blob-backend", "blob.backend")
	bindFlag(pf, "bucket", "blob.bucket")

	ef := exportEHRCmd.Flags()
	ef.IntP("top", "n", 0, "number of documents to upload (default scoring.top_n)")
	ef.String("folder", "", "destination folder")
	bindFlag(ef, "top", "scoring.top_n")
	bindFlag(ef, "folder", "export.ehr_folder")

	gf := exportGlucoseCmd.Flags()
	gf.Int("days", 0, "days of readings to export")
	gf.String("format", "", "file format: csv or parquet")
	bindFlag(gf, "days", "export.time_range_days")
	bindFlag(gf, "format", "export.format")

	exportCmd.AddCommand(exportEHRCmd)
	exportCmd.AddCommand(exportGlucoseCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportEHR(cmd *cobra.Command, _ []string) error {
	if exportService == nil {
		return errNotConfigured("export")
	}

	summary, err := exportService.ExportEHR(cmd.Context(), cfg.Scoring.TopN, cfg.Export.EHRFolder)
	if err != nil {
		return fmt.Errorf("ehr export failed: %w", err)
	}
	return printUploadSummary(cmd, "EHR export", summary)
}

func runExportGlucose(cmd *cobra.Command, _ []string) error {
	if exportService == nil {
		return errNotConfigured("export")
	}

	summary, err := exportService.ExportReadings(cmd.Context(), cfg.Export.TimeRangeDays)
	if err != nil {
		return fmt.Errorf("glucose export failed: %w", err)
	}
	return printUploadSummary(cmd, "Glucose export", summary)
}

func printUploadSummary(cmd *cobra.Command, title string, s *domain.UploadSummary) error {
	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render(title))
	cmd.Printf("  %s %d processed, %d uploaded, %d skipped, %s\n", st.Label.Render("Files:"),
		s.Processed, s.Uploaded, s.Skipped, failedText(st, s.Failed))
	if debug {
		for _, key := range s.Keys {
			cmd.Printf("  %s\n", st.Muted.Render(key))
		}
	}
	if s.Failed > 0 {
		return fmt.Errorf("%d uploads failed", s.Failed)
	}
	return nil
}
