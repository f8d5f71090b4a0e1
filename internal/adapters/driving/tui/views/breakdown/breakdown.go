// Package breakdown shows how each section contributed to a document score.
package breakdown

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ccdarank/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

// View is the section breakdown of one document.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	viewport viewport.Model
	bar      *status.Bar

	rank    int
	doc     *domain.DocumentScore
	weights *domain.WeightConfig
}

// NewView creates an empty breakdown.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	bar := status.NewBar(s, km)
	bar.SetBindings(km.DetailHelp())
	return &View{
		styles:   s,
		keymap:   km,
		viewport: viewport.New(80, 16),
		bar:      bar,
	}
}

// SetDocument shows doc at the given rank.
func (v *View) SetDocument(rank int, doc domain.DocumentScore) {
	v.rank = rank
	v.doc = &doc
	v.refresh()
}

// SetWeights provides section titles and weights. nil hides them.
func (v *View) SetWeights(w *domain.WeightConfig) {
	v.weights = w
	v.refresh()
}

func (v *View) refresh() {
	v.viewport.SetContent(strings.Join(v.lines(), "\n"))
	v.viewport.GotoTop()
}

// Update scrolls or returns to the ranking.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, v.keymap.Back) {
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewRanking} }
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

type sectionRow struct {
	key   string
	score float64
}

// rows orders sections by score, best first, then by key.
func rows(scores map[string]float64) []sectionRow {
	out := make([]sectionRow, 0, len(scores))
	for k, s := range scores {
		out = append(out, sectionRow{key: k, score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].key < out[j].key
	})
	return out
}

func (v *View) lines() []string {
	if v.doc == nil {
		return []string{v.styles.Muted.Render("No document selected")}
	}
	d := v.doc
	lines := []string{
		field(v.styles, "Rank", fmt.Sprintf("#%d", v.rank)),
		field(v.styles, "File", d.FilePath),
		field(v.styles, "Size", fmt.Sprintf("%.1f KB", float64(d.FileSize)/1024)),
		field(v.styles, "Score", fmt.Sprintf("%.2f", d.TotalScore)),
		field(v.styles, "Sections", fmt.Sprintf("%d", d.UniqueSections)),
	}
	if d.Failed() {
		lines = append(lines, "", v.styles.Failed.Render("Not scored: "+d.Error))
		return lines
	}

	lines = append(lines, "", v.styles.Subtitle.Render("Section scores"))
	for _, r := range rows(d.SectionScores) {
		title, weight := r.key, ""
		if v.weights != nil {
			if cfg, ok := v.weights.Section(r.key); ok {
				title = fmt.Sprintf("%s (%s)", cfg.Title, r.key)
				weight = fmt.Sprintf("w=%.2f", cfg.Weight)
			}
		}
		lines = append(lines, v.styles.Score.Render(fmt.Sprintf("  %7.2f  ", r.score))+
			v.styles.Normal.Render(title)+"  "+v.styles.Muted.Render(weight))
	}
	return lines
}

func field(s *styles.Styles, label, value string) string {
	return s.Subtitle.Render(fmt.Sprintf("%-10s", label+":")) + " " + s.Normal.Render(value)
}

// View renders the breakdown.
func (v *View) View() string {
	title := "Section breakdown"
	if v.doc != nil {
		title += "  " + v.styles.Muted.Render(filepath.Base(v.doc.FilePath))
	}
	return v.styles.Title.Render(title) + "\n\n" + v.viewport.View() + "\n\n" + v.bar.View()
}

// SetDimensions sizes the viewport.
func (v *View) SetDimensions(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = max(3, height-5)
	v.bar.SetWidth(width)
}

// Document returns the shown document, or nil.
func (v *View) Document() *domain.DocumentScore { return v.doc }
