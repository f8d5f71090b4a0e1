// Package status provides the status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on the left.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Bar shows the load state and key hints.
type Bar struct {
	styles   *styles.Styles
	help     help.Model
	bindings []key.Binding
	state    State
	message  string
	count    int
	width    int
}

// NewBar creates a bar showing the short help of km.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	h := help.New()
	h.ShortSeparator = " | "
	return &Bar{
		styles:   s,
		help:     h,
		bindings: km.ShortHelp(),
		state:    StateReady,
		width:    80,
	}
}

// View renders the bar across the full width.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.help.ShortHelpView(b.bindings)

	padding := max(1, b.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateLoading:
		return b.styles.Muted.Render("Loading ranking...")
	case StateError:
		if b.message != "" {
			return b.styles.Failed.Render("Error: " + b.message)
		}
		return b.styles.Failed.Render("Error")
	case StateReady:
		if b.count > 0 {
			return b.styles.Normal.Render(fmt.Sprintf("%d documents", b.count))
		}
	}
	return b.styles.Muted.Render("Ready")
}

// SetState sets the state.
func (b *Bar) SetState(state State) { b.state = state }

// State returns the state.
func (b *Bar) State() State { return b.state }

// SetMessage sets the error message.
func (b *Bar) SetMessage(message string) { b.message = message }

// SetCount sets the number of listed documents.
func (b *Bar) SetCount(count int) { b.count = count }

// SetBindings replaces the hinted bindings.
func (b *Bar) SetBindings(bindings []key.Binding) { b.bindings = bindings }

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
	b.help.Width = width / 2
}
