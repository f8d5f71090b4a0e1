package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/messages"
)

func newTestApp(t *testing.T) (*App, *mockSelectionService) {
	t.Helper()
	selection := &mockSelectionService{docs: testRanking()}
	app, err := NewApp(&Ports{Selection: selection, Weights: &mockWeightService{weights: testWeights()}}, 25)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app, selection
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(app *App, msg tea.Msg) tea.Cmd {
	_, cmd := app.Update(msg)
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNewApp_RequiresSelection(t *testing.T) {
	app, err := NewApp(&Ports{}, 10)

	assert.ErrorIs(t, err, ErrMissingSelectionService)
	assert.Nil(t, app)
}

func TestApp_InitLoadsRankingAndWeights(t *testing.T) {
	app, selection := newTestApp(t)

	cmd := app.Init()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	var loaded []tea.Msg
	for _, c := range batch {
		if c == nil {
			continue
		}
		switch m := c().(type) {
		case messages.RankingLoaded, messages.WeightsLoaded:
			loaded = append(loaded, m)
		}
	}

	assert.Len(t, loaded, 2)
	assert.Equal(t, 25, selection.lastN)
}

func TestApp_View_BeforeResize(t *testing.T) {
	app, err := NewApp(&Ports{Selection: &mockSelectionService{}}, 0)
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
	assert.False(t, app.Ready())

	update(app, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.True(t, app.Ready())
}

func TestApp_RankingLoaded(t *testing.T) {
	app, _ := newTestApp(t)

	update(app, messages.RankingLoaded{Documents: testRanking()})

	view := app.View()
	assert.Contains(t, view, "Ranked documents (2)")
	assert.Contains(t, view, "rich.xml")
	assert.Contains(t, view, "2 documents")
	assert.NoError(t, app.Err())
}

func TestApp_RankingError(t *testing.T) {
	app, _ := newTestApp(t)

	update(app, messages.RankingLoaded{Err: errors.New("index missing")})

	assert.EqualError(t, app.Err(), "index missing")
	assert.Contains(t, app.View(), "Error: index missing")
}

func TestApp_OpenBreakdownAndBack(t *testing.T) {
	app, _ := newTestApp(t)
	update(app, messages.RankingLoaded{Documents: testRanking()})
	update(app, messages.WeightsLoaded{Weights: testWeights()})

	update(app, keyMsg("down"))
	cmd := update(app, keyMsg("enter"))
	require.NotNil(t, cmd)
	selected, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, 2, selected.Rank)
	assert.Equal(t, "input/ccda/sparse.xml", selected.Document.FilePath)

	update(app, selected)
	assert.Equal(t, messages.ViewBreakdown, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Section breakdown")
	assert.Contains(t, view, "#2")
	assert.Contains(t, view, "Allergies (2.16.840.1.113883.10.20.22.2.6.1)")
	assert.Contains(t, view, "w=0.70")

	cmd = update(app, keyMsg("esc"))
	require.NotNil(t, cmd)
	update(app, cmd())
	assert.Equal(t, messages.ViewRanking, app.CurrentView())
}

func TestApp_BreakdownOrdersSectionsByScore(t *testing.T) {
	app, _ := newTestApp(t)
	update(app, messages.WeightsLoaded{Weights: testWeights()})

	update(app, messages.DocumentSelected{Rank: 1, Document: testRanking()[0]})

	view := app.View()
	meds := strings.Index(view, "Medications")
	allergies := strings.Index(view, "Allergies")
	require.NotEqual(t, -1, meds)
	require.NotEqual(t, -1, allergies)
	assert.Less(t, meds, allergies)
}

func TestApp_WeightsErrorKeepsKeys(t *testing.T) {
	app, _ := newTestApp(t)
	update(app, messages.WeightsLoaded{Err: errors.New("no weights")})

	update(app, messages.DocumentSelected{Rank: 1, Document: testRanking()[1]})

	view := app.View()
	assert.Contains(t, view, allergiesKey)
	assert.NotContains(t, view, "w=")
}

func TestApp_Help(t *testing.T) {
	app, _ := newTestApp(t)

	update(app, keyMsg("?"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "reload")

	update(app, keyMsg("esc"))
	assert.Equal(t, messages.ViewRanking, app.CurrentView())
}

func TestApp_Reload(t *testing.T) {
	app, selection := newTestApp(t)
	update(app, messages.RankingLoaded{Documents: testRanking()})
	selection.docs = testRanking()[:1]

	cmd := update(app, keyMsg("r"))
	require.NotNil(t, cmd)
	update(app, cmd())

	assert.Contains(t, app.View(), "Ranked documents (1)")
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name  string
		setup func(app *App)
		key   string
	}{
		{name: "q from ranking", key: "q"},
		{name: "ctrl+c", key: "ctrl+c"},
		{
			name: "q from breakdown",
			setup: func(app *App) {
				update(app, messages.DocumentSelected{Rank: 1, Document: testRanking()[0]})
			},
			key: "q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			if tt.setup != nil {
				tt.setup(app)
			}

			assert.True(t, isQuit(update(app, keyMsg(tt.key))))
		})
	}
}

func TestApp_QuitMessage(t *testing.T) {
	app, _ := newTestApp(t)

	assert.True(t, isQuit(update(app, messages.Quit{})))
}

func TestApp_WithContext(t *testing.T) {
	app, _ := newTestApp(t)

	type ctxKey string
	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")

	assert.Same(t, app, app.WithContext(ctx))
}
