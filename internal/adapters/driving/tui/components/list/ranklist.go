// Package list provides the ranked document list.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// headerLines is the space taken by the list header.
const headerLines = 2

// RankList displays ranked documents, one per line, best first.
type RankList struct {
	docs     []domain.DocumentScore
	selected int
	offset   int
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	width    int
	height   int
}

// NewRankList creates an empty list.
func NewRankList(s *styles.Styles, km *keymap.KeyMap) *RankList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &RankList{
		styles: s,
		keymap: km,
		width:  80,
		height: 12,
	}
}

// Update moves the cursor.
func (r *RankList) Update(msg tea.Msg) (*RankList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case key.Matches(keyMsg, r.keymap.Up):
		r.MoveUp()
	case key.Matches(keyMsg, r.keymap.Down):
		r.MoveDown()
	case key.Matches(keyMsg, r.keymap.PageUp):
		r.move(-r.visibleCount())
	case key.Matches(keyMsg, r.keymap.PageDown):
		r.move(r.visibleCount())
	}
	return r, nil
}

// View renders the visible window of the list.
func (r *RankList) View() string {
	if len(r.docs) == 0 {
		return r.styles.Muted.Render("No documents scored. Run \"ccdarank score\" first.")
	}

	lines := make([]string, 0, r.visibleCount()+headerLines)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Ranked documents (%d)", len(r.docs))), "")

	end := min(r.offset+r.visibleCount(), len(r.docs))
	for i := r.offset; i < end; i++ {
		lines = append(lines, r.renderRow(i))
	}
	return strings.Join(lines, "\n")
}

func (r *RankList) renderRow(i int) string {
	doc := r.docs[i]
	nameWidth := max(10, r.width-30)

	name := filepath.Base(doc.FilePath)
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}

	score := fmt.Sprintf("%8.2f", doc.TotalScore)
	if doc.Failed() {
		score = fmt.Sprintf("%8s", "error")
	}
	sections := fmt.Sprintf("%3d sections", doc.UniqueSections)

	if i == r.selected {
		return r.styles.Selected.Render(fmt.Sprintf("> %4d  %-*s %s  %s", i+1, nameWidth, name, score, sections))
	}

	scoreStyle := r.styles.Score
	if doc.Failed() {
		scoreStyle = r.styles.Failed
	}
	return r.styles.Normal.Render(fmt.Sprintf("  %4d  %-*s ", i+1, nameWidth, name)) +
		scoreStyle.Render(score) + r.styles.Muted.Render("  "+sections)
}

// visibleCount is the number of rows that fit.
func (r *RankList) visibleCount() int {
	return max(1, r.height-headerLines)
}

func (r *RankList) move(delta int) {
	if len(r.docs) == 0 {
		return
	}
	r.selected = min(max(0, r.selected+delta), len(r.docs)-1)
	visible := r.visibleCount()
	switch {
	case r.selected < r.offset:
		r.offset = r.selected
	case r.selected >= r.offset+visible:
		r.offset = r.selected - visible + 1
	}
}

// MoveUp moves the cursor up one row.
func (r *RankList) MoveUp() { r.move(-1) }

// MoveDown moves the cursor down one row.
func (r *RankList) MoveDown() { r.move(1) }

// SetDocuments replaces the list and resets the cursor.
func (r *RankList) SetDocuments(docs []domain.DocumentScore) {
	r.docs = docs
	r.selected = 0
	r.offset = 0
}

// Documents returns the listed documents.
func (r *RankList) Documents() []domain.DocumentScore {
	return r.docs
}

// Selected returns the cursor index.
func (r *RankList) Selected() int {
	return r.selected
}

// SelectedDocument returns the document under the cursor, or nil.
func (r *RankList) SelectedDocument() *domain.DocumentScore {
	if r.selected < 0 || r.selected >= len(r.docs) {
		return nil
	}
	return &r.docs[r.selected]
}

// SetDimensions sets the size available to the list.
func (r *RankList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
	r.move(0)
}

// Count returns the number of documents.
func (r *RankList) Count() int {
	return len(r.docs)
}
