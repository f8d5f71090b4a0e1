package readings

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure ParquetEncoder implements the interface.
var _ driven.ReadingsEncoder = (*ParquetEncoder)(nil)

// ParquetEncoder writes readings as a single Snappy-compressed Parquet file.
type ParquetEncoder struct{}

// NewParquetEncoder creates a Parquet encoder.
func NewParquetEncoder() *ParquetEncoder {
	return &ParquetEncoder{}
}

// Extension returns ".parquet".
func (e *ParquetEncoder) Extension() string { return ".parquet" }

// ContentType returns the Parquet media type.
func (e *ParquetEncoder) ContentType() string { return "application/vnd.apache.parquet" }

// Encode writes all readings in one row group.
func (e *ParquetEncoder) Encode(w io.Writer, readings []domain.Reading) error {
	writer := parquet.NewGenericWriter[domain.Reading](w,
		parquet.Compression(&parquet.Snappy),
		parquet.CreatedBy("ccdarank", "", ""),
	)
	if _, err := writer.Write(readings); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

// ForFormat returns the encoder for an export format name.
func ForFormat(format string) (driven.ReadingsEncoder, error) {
	switch format {
	case "", domain.ExportFormatCSV:
		return NewCSVEncoder(), nil
	case domain.ExportFormatParquet:
		return NewParquetEncoder(), nil
	default:
		return nil, fmt.Errorf("%w: export format %q", domain.ErrUnsupportedType, format)
	}
}
