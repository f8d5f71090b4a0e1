package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// BlobStore uploads objects to external storage.
type BlobStore interface {
	// Put uploads size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Location renders key as a human-readable URI.
	Location(key string) string
}

// ReadingsEncoder serialises glucose readings for upload.
type ReadingsEncoder interface {
	// Extension is the file extension including the dot.
	Extension() string

	ContentType() string

	// Encode writes readings in the given order.
	Encode(w io.Writer, readings []domain.Reading) error
}
