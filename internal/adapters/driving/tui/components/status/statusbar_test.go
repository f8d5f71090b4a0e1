package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/keymap"
)

func TestBar_States(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		count   int
		want    string
	}{
		{name: "loading", state: StateLoading, want: "Loading ranking..."},
		{name: "ready empty", state: StateReady, want: "Ready"},
		{name: "ready with documents", state: StateReady, count: 12, want: "12 documents"},
		{name: "error with message", state: StateError, message: "index missing", want: "Error: index missing"},
		{name: "error without message", state: StateError, want: "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBar(nil, nil)
			b.SetState(tt.state)
			b.SetMessage(tt.message)
			b.SetCount(tt.count)

			assert.Contains(t, b.View(), tt.want)
			assert.Equal(t, tt.state, b.State())
		})
	}
}

func TestBar_ShowsKeyHints(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetWidth(160)

	view := b.View()

	assert.Contains(t, view, "quit")
	assert.Contains(t, view, "sections")
}

func TestBar_SetBindings(t *testing.T) {
	km := keymap.DefaultKeyMap()
	b := NewBar(nil, km)
	b.SetWidth(160)

	b.SetBindings(km.DetailHelp())

	assert.Contains(t, b.View(), "back")
	assert.NotContains(t, b.View(), "sections")
}
