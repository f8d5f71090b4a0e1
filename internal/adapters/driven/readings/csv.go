package readings

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure CSVEncoder implements the interface.
var _ driven.ReadingsEncoder = (*CSVEncoder)(nil)

// TimeLayout is the timestamp format written to CSV.
const TimeLayout = "2006-01-02T15:04:05"

// CSVEncoder writes readings as CSV with a header row.
type CSVEncoder struct{}

// NewCSVEncoder creates a CSV encoder.
func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{}
}

// Extension returns ".csv".
func (e *CSVEncoder) Extension() string { return ".csv" }

// ContentType returns the CSV media type.
func (e *CSVEncoder) ContentType() string { return "text/csv" }

// Encode writes the header and one row per reading.
func (e *CSVEncoder) Encode(w io.Writer, readings []domain.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.ReadingFields); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range readings {
		if err := cw.Write(csvRow(&readings[i])); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func csvRow(r *domain.Reading) []string {
	return []string{
		formatTime(r.SystemTime),
		r.DataSource,
		formatTime(r.DisplayTime),
		strconv.FormatFloat(r.Value, 'f', -1, 64),
		strconv.FormatInt(r.TransmitterTime, 10),
		strconv.FormatBool(r.IsTimeChange),
	}
}

// formatTime leaves zero times blank.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
