package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure Exporter implements the interface.
var _ driving.ExportService = (*Exporter)(nil)

// Export defaults.
const (
	DefaultEHRFolder     = "ehr/"
	DefaultTimeRangeDays = 365
	xmlContentType       = "application/xml"
)

// Exporter uploads original documents and per-patient reading files to a
// blob store.
type Exporter struct {
	selector *Selector
	corpus   driven.Corpus
	reports  driven.MatchReportStore
	series   driven.TimeSeriesStore
	blobs    driven.BlobStore
	encoder  driven.ReadingsEncoder
	now      func() time.Time
}

// NewExporter creates an exporter. series and encoder are only needed for
// reading exports.
func NewExporter(
	index driven.IndexStore,
	corpus driven.Corpus,
	reports driven.MatchReportStore,
	series driven.TimeSeriesStore,
	blobs driven.BlobStore,
	encoder driven.ReadingsEncoder,
) *Exporter {
	return &Exporter{
		selector: NewSelector(index),
		corpus:   corpus,
		reports:  reports,
		series:   series,
		blobs:    blobs,
		encoder:  encoder,
		now:      time.Now,
	}
}

// SetClock replaces the clock used to compute reading time ranges.
func (e *Exporter) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// ExportEHR uploads the original XML of the top n documents under folder,
// keyed by base name.
func (e *Exporter) ExportEHR(ctx context.Context, n int, folder string) (*domain.UploadSummary, error) {
	if e.blobs == nil {
		return nil, domain.ErrBlobStoreUnavailable
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: top n must be a positive integer", domain.ErrInvalidInput)
	}
	files, err := e.selector.TopFiles(ctx, n)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("No files to process")
	}
	prefix := domain.NormalizeFolder(folder)
	logger.Info("Uploading top %d files to %s", len(files), e.blobs.Location(prefix))

	summary := &domain.UploadSummary{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		key := prefix + filepath.Base(file)
		if err := e.uploadDocument(ctx, file, key); err != nil {
			logger.Error("Error uploading %s: %v", file, err)
			summary.Failed++
			continue
		}
		logger.Info("Uploaded %s", e.blobs.Location(key))
		summary.Uploaded++
		summary.Keys = append(summary.Keys, key)
	}

	logger.Info("Upload complete: %d processed, %d uploaded, %d failed",
		summary.Processed, summary.Uploaded, summary.Failed)
	return summary, nil
}

func (e *Exporter) uploadDocument(ctx context.Context, file, key string) error {
	rc, err := e.corpus.Open(ctx, file)
	if err != nil {
		return err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	return e.blobs.Put(ctx, key, &buf, int64(buf.Len()), xmlContentType)
}

// ExportReadings uploads one readings file per matched patient with data,
// covering the last days days. Files are named after the source document
// and placed under the prefix of their data source.
//
//nolint:gocyclo // Per-patient skip and failure paths.
func (e *Exporter) ExportReadings(ctx context.Context, days int) (*domain.UploadSummary, error) {
	if e.blobs == nil {
		return nil, domain.ErrBlobStoreUnavailable
	}
	if e.series == nil {
		return nil, domain.ErrTimeSeriesUnavailable
	}
	if e.reports == nil || e.encoder == nil {
		return nil, errors.New("readings export not configured")
	}
	if days <= 0 {
		days = DefaultTimeRangeDays
	}

	report, err := e.reports.LoadMatchReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("load match report: %w", err)
	}
	to := e.now()
	from := to.AddDate(0, 0, -days)
	logger.Info("Processing %d patient matches", len(report.Matches))

	summary := &domain.UploadSummary{}
	for _, m := range report.Matches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !m.Data.HasData || m.Match.PatientID == "" {
			continue
		}
		summary.Processed++

		readings, err := e.series.Range(ctx, m.Match.PatientID, from, to)
		if err != nil {
			logger.Error("Error querying readings for patient %s: %v", m.Match.PatientID, err)
			summary.Failed++
			continue
		}
		if len(readings) == 0 {
			logger.Warn("No readings for patient %s", m.Match.PatientID)
			summary.Skipped++
			continue
		}
		logger.Debug("Retrieved %d records for patient %s", len(readings), m.Match.PatientID)

		key := e.readingsKey(m.Patient.SourceFile, readings)
		if err := e.uploadReadings(ctx, key, readings); err != nil {
			logger.Error("Error processing patient %s: %v", m.Match.PatientID, err)
			summary.Failed++
			continue
		}
		logger.Info("Uploaded %s", e.blobs.Location(key))
		summary.Uploaded++
		summary.Keys = append(summary.Keys, key)
	}

	logger.Info("Processing complete: %d patients, %d uploaded, %d failed",
		summary.Processed, summary.Uploaded, summary.Failed)
	return summary, nil
}

func (e *Exporter) readingsKey(sourceFile string, readings []domain.Reading) string {
	base := filepath.Base(sourceFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	prefix := domain.DataSourcePrefix(readings)
	if prefix == "" {
		logger.Warn("No known data source for %s, using default path", base)
	}
	return prefix + stem + e.encoder.Extension()
}

func (e *Exporter) uploadReadings(ctx context.Context, key string, readings []domain.Reading) error {
	sorted := append([]domain.Reading(nil), readings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SystemTime.After(sorted[j].SystemTime)
	})

	var buf bytes.Buffer
	if err := e.encoder.Encode(&buf, sorted); err != nil {
		return fmt.Errorf("encode readings: %w", err)
	}
	return e.blobs.Put(ctx, key, &buf, int64(buf.Len()), e.encoder.ContentType())
}
