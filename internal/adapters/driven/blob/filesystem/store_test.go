package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

func TestNew_EmptyDir(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, domain.ErrBlobStoreUnavailable)
}

func TestStore_Put(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	content := "systemTime,dataSource\n"
	err = store.Put(context.Background(), "device/cgm_dexcom/p-1.csv", strings.NewReader(content), int64(len(content)), "text/csv")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "device", "cgm_dexcom", "p-1.csv"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestStore_PutOverwrites(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ehr/a.xml", strings.NewReader("first version"), 13, ""))
	require.NoError(t, store.Put(ctx, "ehr/a.xml", strings.NewReader("second"), 6, ""))

	data, err := os.ReadFile(filepath.Join(root, "ehr", "a.xml"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestStore_PutInvalidKeys(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "ehr/", "../outside.xml", "ehr/../../outside.xml"} {
		t.Run(key, func(t *testing.T) {
			err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestStore_PutShortRead(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "a.xml", strings.NewReader("abc"), 10, "")
	assert.Error(t, err)
}

func TestStore_Location(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	assert.Equal(t, "file://"+filepath.Join(root, "ehr", "a.xml"), store.Location("ehr/a.xml"))
}
