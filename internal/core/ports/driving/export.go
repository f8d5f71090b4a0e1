package driving

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// ExportService uploads selected documents and patient data bundles.
type ExportService interface {
	// ExportEHR uploads the top n original documents under folder.
	ExportEHR(ctx context.Context, n int, folder string) (*domain.UploadSummary, error)

	// ExportReadings uploads readings for every matched patient with data,
	// covering the last days days.
	ExportReadings(ctx context.Context, days int) (*domain.UploadSummary, error)
}
