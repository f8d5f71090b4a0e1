package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

// styles renders summaries for one output stream. Colours are dropped when
// the stream is not a terminal.
type styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	return &styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Label:   r.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		Success: r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}
