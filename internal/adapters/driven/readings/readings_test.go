package readings

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

func sampleReadings() []domain.Reading {
	return []domain.Reading{
		{
			SystemTime:      time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC),
			DataSource:      "clarity",
			DisplayTime:     time.Date(2024, 3, 2, 3, 30, 0, 0, time.UTC),
			Value:           112.5,
			TransmitterTime: 123456,
			IsTimeChange:    false,
		},
		{
			SystemTime: time.Date(2024, 3, 1, 8, 25, 0, 0, time.UTC),
			DataSource: "clarity",
			Value:      98,
		},
	}
}

func TestCSVEncoder_Encode(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCSVEncoder()

	require.NoError(t, enc.Encode(&buf, sampleReadings()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "systemTime,dataSource,displayTime,value,transmitterTime,isTimeChange", lines[0])
	assert.Equal(t, "2024-03-02T08:30:00,clarity,2024-03-02T03:30:00,112.5,123456,false", lines[1])
	assert.Equal(t, "2024-03-01T08:25:00,clarity,,98,0,false", lines[2])
}

func TestCSVEncoder_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVEncoder().Encode(&buf, nil))
	assert.Equal(t, strings.Join(domain.ReadingFields, ",")+"\n", buf.String())
}

func TestCSVEncoder_Metadata(t *testing.T) {
	enc := NewCSVEncoder()
	assert.Equal(t, ".csv", enc.Extension())
	assert.Equal(t, "text/csv", enc.ContentType())
}

func TestParquetEncoder_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	want := sampleReadings()
	require.NoError(t, NewParquetEncoder().Encode(f, want))
	require.NoError(t, f.Close())

	got, err := parquet.ReadFile[domain.Reading](path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].SystemTime.Equal(got[i].SystemTime), "row %d systemTime", i)
		assert.Equal(t, want[i].DataSource, got[i].DataSource)
		assert.InDelta(t, want[i].Value, got[i].Value, 1e-9)
		assert.Equal(t, want[i].TransmitterTime, got[i].TransmitterTime)
	}
}

func TestParquetEncoder_Metadata(t *testing.T) {
	enc := NewParquetEncoder()
	assert.Equal(t, ".parquet", enc.Extension())
	assert.NotEmpty(t, enc.ContentType())
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{format: "", wantExt: ".csv"},
		{format: domain.ExportFormatCSV, wantExt: ".csv"},
		{format: domain.ExportFormatParquet, wantExt: ".parquet"},
		{format: "xlsx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := ForFormat(tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, enc.Extension())
		})
	}
}
