package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd(t *testing.T) {
	w := &mockWatcher{err: context.Canceled}
	withServices(t, &Services{Watcher: w})

	out, err := executeCommand(t, "watch")

	require.NoError(t, err)
	assert.True(t, w.started)
	assert.Contains(t, out, "Watching input/ccda")
	assert.Contains(t, out, "Stopped watching.")
}

func TestWatchCmd_InvalidDebounce(t *testing.T) {
	w := &mockWatcher{}
	withServices(t, &Services{Watcher: w})

	_, err := executeCommand(t, "watch", "--debounce", "soon")

	require.Error(t, err)
	assert.False(t, w.started)
}

func TestWatchCmd_Error(t *testing.T) {
	withServices(t, &Services{Watcher: &mockWatcher{err: errors.New("too many open files")}})

	_, err := executeCommand(t, "watch")
	assert.ErrorContains(t, err, "watch failed: too many open files")
}

func TestWatchCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := executeCommand(t, "watch")
	assert.EqualError(t, err, "watch service not configured")
}
