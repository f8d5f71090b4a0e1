package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

func withConfigStore(t *testing.T, store *memConfigStore) {
	t.Helper()
	configStore = store
	t.Cleanup(func() { configStore = nil })
}

func TestConfigInitCmd(t *testing.T) {
	store := &memConfigStore{}
	withConfigStore(t, store)

	out, err := executeCommand(t, "config", "init", "--corpus-dir", "/data/ccda")

	require.NoError(t, err)
	require.NotNil(t, store.saved)
	assert.Equal(t, "/data/ccda", store.saved.Corpus.Dir)
	assert.Equal(t, 15, store.saved.Scoring.BatchSize)
	assert.Contains(t, out, "Configuration written to /tmp/ccdarank.toml")
}

func TestConfigInitCmd_ExistingFile(t *testing.T) {
	existing := domain.DefaultConfig()
	store := &memConfigStore{cfg: &existing}
	withConfigStore(t, store)

	_, err := executeCommand(t, "config", "init")

	assert.ErrorContains(t, err, "already exists")
	assert.Nil(t, store.saved)
}

func TestConfigInitCmd_Force(t *testing.T) {
	existing := domain.DefaultConfig()
	store := &memConfigStore{cfg: &existing}
	withConfigStore(t, store)

	_, err := executeCommand(t, "config", "init", "--force")

	require.NoError(t, err)
	assert.NotNil(t, store.saved)
}

func TestConfigInitCmd_Interactive(t *testing.T) {
	store := &memConfigStore{}
	withConfigStore(t, store)
	input := strings.Join([]string{
		"/data/ccda", // corpus directory
		"",           // checkpoint directory
		"2",          // sqlite
		"25",         // batch size
		"https://os1:9200, https://os2:9200",
		"admin",
		"s3cret",
		"postgres://app:pw@db:5432/cgm",
		"", // filesystem upload target
		"", // upload directory
	}, "\n") + "\n"
	rootCmd.SetIn(strings.NewReader(input))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	_, err := executeCommand(t, "config", "init", "--interactive")

	require.NoError(t, err)
	require.NotNil(t, store.saved)
	got := store.saved
	assert.Equal(t, "/data/ccda", got.Corpus.Dir)
	assert.Equal(t, "analysis_checkpoints", got.Scoring.CheckpointDir)
	assert.Equal(t, domain.CheckpointBackendSQLite, got.Scoring.CheckpointBackend)
	assert.Equal(t, 25, got.Scoring.BatchSize)
	assert.Equal(t, []string{"https://os1:9200", "https://os2:9200"}, got.Search.Addresses)
	assert.Equal(t, "admin", got.Search.Username)
	assert.Equal(t, "s3cret", got.Search.Password)
	assert.Equal(t, "postgres://app:pw@db:5432/cgm", got.TimeSeries.DSN)
	assert.Equal(t, domain.BlobBackendFilesystem, got.Blob.Backend)
	assert.Equal(t, "output/upload", got.Blob.Dir)
}

func TestConfigInitCmd_NoStore(t *testing.T) {
	_, err := executeCommand(t, "config", "init")
	assert.EqualError(t, err, "config service not configured")
}

func TestConfigShowCmd(t *testing.T) {
	t.Setenv("CCDARANK_SEARCH_PASSWORD", "hunter2")
	t.Setenv("CCDARANK_TIMESERIES_DSN", "postgres://app:pw@db:5432/cgm")

	out, err := executeCommand(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "effective configuration (defaults)")
	assert.Contains(t, out, "[scoring]")
	assert.Contains(t, out, "batch_size = 15")
	assert.Contains(t, out, "****")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "postgres://app:xxxxx@db:5432/cgm")
}

func TestConfigShowCmd_StoreSource(t *testing.T) {
	stored := domain.DefaultConfig()
	withConfigStore(t, &memConfigStore{cfg: &stored})

	out, err := executeCommand(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "effective configuration (/tmp/ccdarank.toml)")
}

func TestRedacted(t *testing.T) {
	c := domain.DefaultConfig()
	c.TimeSeries.DSN = "host=db user=app"

	got := redacted(c)

	assert.Empty(t, got.Search.Password)
	assert.Equal(t, "host=db user=app", got.TimeSeries.DSN)
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "", want: 1},
		{input: "2", want: 2},
		{input: "0", want: 1},
		{input: "3", want: 1},
		{input: "x", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseChoice(tt.input, 2, 1))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
