package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// TimeSeriesStore queries per-patient glucose readings.
type TimeSeriesStore interface {
	// Latest returns up to limit readings, newest first.
	Latest(ctx context.Context, patientID string, limit int) ([]domain.Reading, error)

	// Range returns readings with from <= systemTime <= to, newest first.
	Range(ctx context.Context, patientID string, from, to time.Time) ([]domain.Reading, error)
}
