// Package ranking provides the ranked document list view.
package ranking

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
)

// View lists the top documents of the consolidated index.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	selection driving.SelectionService
	limit     int

	list *list.RankList
	bar  *status.Bar
	err  error
}

// NewView creates the view. limit bounds the number of documents loaded;
// zero loads the whole index.
func NewView(
	ctx context.Context,
	s *styles.Styles,
	km *keymap.KeyMap,
	selection driving.SelectionService,
	limit int,
) *View {
	return &View{
		ctx:       ctx,
		styles:    s,
		keymap:    km,
		selection: selection,
		limit:     limit,
		list:      list.NewRankList(s, km),
		bar:       status.NewBar(s, km),
	}
}

// Init loads the ranking.
func (v *View) Init() tea.Cmd {
	v.bar.SetState(status.StateLoading)
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		docs, err := v.selection.TopN(v.ctx, v.limit)
		return messages.RankingLoaded{Documents: docs, Err: err}
	}
}

// Update handles ranking results and navigation.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.RankingLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			v.bar.SetState(status.StateError)
			v.bar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.list.SetDocuments(msg.Documents)
		v.bar.SetState(status.StateReady)
		v.bar.SetCount(len(msg.Documents))
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.bar.SetState(status.StateError)
		v.bar.SetMessage(msg.Err.Error())
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Open):
			return v, v.open()
		case key.Matches(msg, v.keymap.Reload):
			return v, v.Init()
		}
		var cmd tea.Cmd
		v.list, cmd = v.list.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) open() tea.Cmd {
	doc := v.list.SelectedDocument()
	if doc == nil {
		return nil
	}
	selected := messages.DocumentSelected{Rank: v.list.Selected() + 1, Document: *doc}
	return func() tea.Msg { return selected }
}

// View renders the list and the status bar.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("ccdarank"))
	b.WriteString(v.styles.Muted.Render("  documents by clinical richness"))
	b.WriteString("\n\n")
	b.WriteString(v.list.View())
	b.WriteString("\n\n")
	b.WriteString(v.bar.View())
	return b.String()
}

// SetDimensions sizes the list to the terminal, keeping room for the
// title and status bar.
func (v *View) SetDimensions(width, height int) {
	v.list.SetDimensions(width, max(3, height-5))
	v.bar.SetWidth(width)
}

// List exposes the list component.
func (v *View) List() *list.RankList { return v.list }

// Err returns the last load error.
func (v *View) Err() error { return v.err }
