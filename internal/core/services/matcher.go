package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure Matcher implements the interface.
var _ driving.MatchService = (*Matcher)(nil)

// DefaultLatestLimit is the number of recent readings checked per patient.
const DefaultLatestLimit = 100

// Matcher links the patients of top ranked documents to the patient index
// and their time-series data.
type Matcher struct {
	selector    *Selector
	corpus      driven.Corpus
	parser      driven.PHIParser
	search      driven.PatientSearch
	series      driven.TimeSeriesStore
	cache       driven.MatchCache
	reports     driven.MatchReportStore
	latestLimit int
}

// NewMatcher creates a matcher. series and cache may be nil.
func NewMatcher(
	index driven.IndexStore,
	corpus driven.Corpus,
	parser driven.PHIParser,
	search driven.PatientSearch,
	series driven.TimeSeriesStore,
	cache driven.MatchCache,
	reports driven.MatchReportStore,
	latestLimit int,
) *Matcher {
	if latestLimit <= 0 {
		latestLimit = DefaultLatestLimit
	}
	return &Matcher{
		selector:    NewSelector(index),
		corpus:      corpus,
		parser:      parser,
		search:      search,
		series:      series,
		cache:       cache,
		reports:     reports,
		latestLimit: latestLimit,
	}
}

// Match processes the top n documents. Documents without demographics and
// failed searches are skipped; the report counts every document processed.
func (m *Matcher) Match(ctx context.Context, n int) (*domain.MatchReport, error) {
	if m.search == nil {
		return nil, fmt.Errorf("patient search: %w", domain.ErrSearchUnavailable)
	}
	if m.parser == nil || m.reports == nil {
		return nil, errors.New("matcher not configured")
	}
	files, err := m.selector.TopFiles(ctx, n)
	if err != nil {
		return nil, err
	}
	logger.Info("Processing top %d files...", len(files))

	report := &domain.MatchReport{Matches: []domain.PatientMatch{}}
	processed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		processed++

		patient, err := m.demographics(ctx, file)
		if err != nil {
			logger.Warn("No patient demographics in %s: %v", file, err)
			continue
		}
		hit, err := m.lookup(ctx, patient)
		if err != nil {
			logger.Error("Patient search failed for %s: %v", file, err)
			continue
		}
		if hit == nil {
			continue
		}
		report.Matches = append(report.Matches, domain.PatientMatch{
			Patient: patient,
			Match:   *hit,
			Data:    m.dataSummary(ctx, hit.PatientID),
		})
	}
	report.Summarize(processed)

	if err := m.reports.SaveMatchReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save match report: %w", err)
	}
	logger.Info("Matching complete: %d files, %d matches (%.1f%%), %d with glucose data",
		report.Summary.FilesProcessed, report.Summary.MatchesFound,
		report.Summary.MatchRate*100, report.Summary.PatientsWithData)
	return report, nil
}

func (m *Matcher) demographics(ctx context.Context, file string) (domain.Demographics, error) {
	phi, err := readPHI(ctx, m.corpus, m.parser, file)
	if err != nil {
		return domain.Demographics{}, err
	}
	return domain.DemographicsFromPHI(file, phi)
}

// lookup returns the best search hit, or nil when there is none. Results,
// including misses, are cached per demographics.
func (m *Matcher) lookup(ctx context.Context, d domain.Demographics) (*domain.SearchHit, error) {
	key := d.CacheKey()
	if m.cache != nil {
		hit, ok, err := m.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Match cache read failed: %v", err)
		} else if ok {
			logger.Debug("Match cache hit for %s", d.SourceFile)
			return hit, nil
		}
	}

	hits, err := m.search.FindPatient(ctx, d)
	if err != nil {
		return nil, err
	}
	var best *domain.SearchHit
	if len(hits) > 0 {
		best = &hits[0]
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, key, best); err != nil {
			logger.Warn("Match cache write failed: %v", err)
		}
	}
	return best, nil
}

// dataSummary reports the latest readings of a patient. Lookup failures
// are logged and reported as no data.
func (m *Matcher) dataSummary(ctx context.Context, patientID string) domain.DataSummary {
	if patientID == "" || m.series == nil {
		return domain.DataSummary{}
	}
	readings, err := m.series.Latest(ctx, patientID, m.latestLimit)
	if err != nil {
		logger.Error("Time series query failed for patient %s: %v", patientID, err)
		return domain.DataSummary{}
	}
	if len(readings) == 0 {
		return domain.DataSummary{}
	}
	latest := readings[0].SystemTime
	for _, r := range readings[1:] {
		if r.SystemTime.After(latest) {
			latest = r.SystemTime
		}
	}
	return domain.DataSummary{HasData: true, LatestRecordTime: &latest, RecordCount: len(readings)}
}
