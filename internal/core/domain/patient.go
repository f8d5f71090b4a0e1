package domain

import (
	"fmt"
	"strings"
	"time"
)

// Glucose data sources and their blob prefixes.
const (
	DataSourceClarity   = "clarity"
	DataSourceLibreView = "libreview"
)

// Demographics are the patient attributes used to query the search index.
type Demographics struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	DOB        string `json:"dob"`
	SourceFile string `json:"source_file"`
}

// CacheKey identifies the demographics independently of the source file.
func (d Demographics) CacheKey() string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s", d.FirstName, d.LastName, d.DOB))
}

// DemographicsFromPHI takes the first given name, first family name and
// the birth date of a PHI record.
func DemographicsFromPHI(file string, data *PHIData) (Demographics, error) {
	if data == nil || len(data.Names) == 0 {
		return Demographics{}, fmt.Errorf("%w: no patient name", ErrNotFound)
	}
	if data.BirthTime == nil || len(data.BirthTime.Value) < 8 {
		return Demographics{}, fmt.Errorf("%w: no birth date", ErrNotFound)
	}
	name := data.Names[0]
	d := Demographics{
		DOB:        NormalizeHL7Date(data.BirthTime.Value[:8]),
		SourceFile: file,
	}
	if len(name.Given) > 0 {
		d.FirstName = name.Given[0]
	}
	if len(name.Family) > 0 {
		d.LastName = name.Family[0]
	}
	return d, nil
}

// SearchHit is one candidate returned by the patient search index.
type SearchHit struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	DOB       string  `json:"dob"`
	PatientID string  `json:"patientId"`
	Score     float64 `json:"score"`
}

// DataSummary summarises a patient's latest time-series records.
type DataSummary struct {
	HasData          bool       `json:"has_data"`
	LatestRecordTime *time.Time `json:"latest_record_time"`
	RecordCount      int        `json:"record_count"`
}

// PatientMatch links a document's patient to a search hit.
type PatientMatch struct {
	Patient Demographics `json:"ccda_patient"`
	Match   SearchHit    `json:"opensearch_match"`
	Data    DataSummary  `json:"glucose_data"`
}

// MatchSummary aggregates a matching run.
type MatchSummary struct {
	FilesProcessed   int     `json:"total_files_processed"`
	MatchesFound     int     `json:"total_matches_found"`
	MatchRate        float64 `json:"match_rate"`
	PatientsWithData int     `json:"patients_with_glucose_data"`
}

// MatchReport is the output of the patient matcher.
type MatchReport struct {
	Summary MatchSummary   `json:"summary"`
	Matches []PatientMatch `json:"matches"`
}

// Summarize recomputes the report summary from its matches.
func (r *MatchReport) Summarize(filesProcessed int) {
	r.Summary = MatchSummary{
		FilesProcessed: filesProcessed,
		MatchesFound:   len(r.Matches),
	}
	if filesProcessed > 0 {
		r.Summary.MatchRate = float64(len(r.Matches)) / float64(filesProcessed)
	}
	for _, m := range r.Matches {
		if m.Data.HasData {
			r.Summary.PatientsWithData++
		}
	}
}

// Reading is one time-series glucose record.
type Reading struct {
	SystemTime      time.Time `parquet:"systemTime,timestamp"`
	DataSource      string    `parquet:"dataSource"`
	DisplayTime     time.Time `parquet:"displayTime,timestamp"`
	Value           float64   `parquet:"value"`
	TransmitterTime int64     `parquet:"transmitterTime"`
	IsTimeChange    bool      `parquet:"isTimeChange"`
}

// ReadingFields is the column order of exported readings.
var ReadingFields = []string{
	"systemTime", "dataSource", "displayTime", "value", "transmitterTime", "isTimeChange",
}

// DataSourcePrefix returns the blob prefix for a set of readings. The
// lexically first data source wins when several are present; unknown
// sources map to "".
func DataSourcePrefix(readings []Reading) string {
	first := ""
	for _, r := range readings {
		src := strings.ToLower(r.DataSource)
		if src == "" {
			continue
		}
		if first == "" || src < first {
			first = src
		}
	}
	switch first {
	case DataSourceClarity:
		return "device/cgm_dexcom/"
	case DataSourceLibreView:
		return "device/cgm_freestyle_libre/"
	default:
		return ""
	}
}

// NormalizeFolder trims slashes and ensures a single trailing slash.
// An empty folder stays empty.
func NormalizeFolder(folder string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}
