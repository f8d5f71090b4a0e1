package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/views/breakdown"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/views/ranking"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// App is the root Bubbletea model. It switches between the ranking and the
// section breakdown of the selected document.
type App struct {
	ports  *Ports
	ctx    context.Context
	limit  int
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	rankingView   *ranking.View
	breakdownView *breakdown.View

	currentView  messages.ViewType
	previousView messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the browser. limit bounds the documents listed; zero lists
// the whole index.
func NewApp(ports *Ports, limit int) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	a := &App{
		ports:       ports,
		limit:       limit,
		styles:      styles.DefaultStyles(),
		keymap:      keymap.DefaultKeyMap(),
		help:        help.New(),
		currentView: messages.ViewRanking,
	}
	a.help.ShowAll = true
	a.build(context.Background())
	return a, nil
}

func (a *App) build(ctx context.Context) {
	a.ctx = ctx
	a.rankingView = ranking.NewView(ctx, a.styles, a.keymap, a.ports.Selection, a.limit)
	a.breakdownView = breakdown.NewView(a.styles, a.keymap)
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.build(ctx)
	return a
}

// Init starts loading the ranking and the weight table.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle("ccdarank"), a.rankingView.Init()}
	if a.ports.Weights != nil {
		cmds = append(cmds, a.loadWeights())
	}
	return tea.Batch(cmds...)
}

func (a *App) loadWeights() tea.Cmd {
	weights := a.ports.Weights
	ctx := a.ctx
	return func() tea.Msg {
		w, err := weights.Weights(ctx)
		return messages.WeightsLoaded{Weights: w, Err: err}
	}
}

// Update routes messages to the active view.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.RankingLoaded:
		a.err = msg.Err
		a.rankingView, cmd = a.rankingView.Update(msg)
		return a, cmd

	case messages.WeightsLoaded:
		if msg.Err != nil {
			logger.Debug("Section weights unavailable: %v", msg.Err)
			return a, nil
		}
		a.breakdownView.SetWeights(msg.Weights)
		return a, nil

	case messages.DocumentSelected:
		a.breakdownView.SetDocument(msg.Rank, msg.Document)
		a.currentView = messages.ViewBreakdown
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.rankingView, cmd = a.rankingView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewBreakdown {
		a.breakdownView, cmd = a.breakdownView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back) || key.Matches(msg, a.keymap.Help) {
			a.currentView = a.previousView
			return a, nil
		}
		if key.Matches(msg, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, nil

	case messages.ViewBreakdown:
		if key.Matches(msg, a.keymap.Quit) {
			return a, tea.Quit
		}
		if key.Matches(msg, a.keymap.Help) {
			a.showHelp()
			return a, nil
		}
		a.breakdownView, cmd = a.breakdownView.Update(msg)
		return a, cmd

	default:
		if key.Matches(msg, a.keymap.Quit) {
			return a, tea.Quit
		}
		if key.Matches(msg, a.keymap.Help) {
			a.showHelp()
			return a, nil
		}
		a.rankingView, cmd = a.rankingView.Update(msg)
		return a, cmd
	}
}

func (a *App) showHelp() {
	a.previousView = a.currentView
	a.currentView = messages.ViewHelp
}

// View renders the active view.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewBreakdown:
		return a.breakdownView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.rankingView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Keys") + "\n\n" +
		a.help.View(a.keymap) + "\n\n" +
		a.styles.Help.Render("[esc] back")
}

// Run starts the browser on the alternate screen and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType { return a.currentView }

// Err returns the last load error.
func (a *App) Err() error { return a.err }

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool { return a.ready }

// SetDimensions sizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.rankingView.SetDimensions(width, height)
	a.breakdownView.SetDimensions(width, height)
}
