package driven

import (
	"context"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// PatientSearch queries an external patient index.
type PatientSearch interface {
	// FindPatient returns candidates for the demographics, best first.
	// The date of birth must match exactly; names match fuzzily.
	FindPatient(ctx context.Context, d domain.Demographics) ([]domain.SearchHit, error)
}

// MatchCache remembers search outcomes per demographics key.
type MatchCache interface {
	// Get returns the cached hit. ok is false on a cache miss; a cached
	// "no match" is ok with a nil hit.
	Get(ctx context.Context, key string) (hit *domain.SearchHit, ok bool, err error)

	// Set caches a hit, or a "no match" when hit is nil.
	Set(ctx context.Context, key string, hit *domain.SearchHit) error
}
