package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TaskDelegate renders one task per row. Filter results arrive as shared
// maps: a nil Matched map means no filter is active and every row paints
// normally, otherwise unmatched rows are de-emphasized but never hidden.
type TaskDelegate struct {
	Theme Theme

	// Matched marks the rows the active filter set selects. Rebuilt by the
	// owner whenever selection state changes.
	Matched map[string]bool

	// Scores carries reward-search relevance per task. Nil while reward
	// search is idle. MaxScore scales the bar segments.
	Scores   map[string]int
	MaxScore int

	traderDots map[string]lipgloss.Style
}

func NewTaskDelegate(t Theme) *TaskDelegate {
	return &TaskDelegate{
		Theme:      t,
		traderDots: make(map[string]lipgloss.Style),
	}
}

func (d *TaskDelegate) Height() int  { return 1 }
func (d *TaskDelegate) Spacing() int { return 0 }

func (d *TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d *TaskDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(TaskItem)
	if !ok {
		return
	}
	// The last column is left empty: a row that fills the full width wraps
	// on some terminals and tears the list apart.
	width := m.Width() - 1
	if width <= 8 {
		return
	}
	t := it.Task
	theme := d.Theme
	selected := index == m.Index()
	filtersOn := d.Matched != nil
	dimmed := filtersOn && !d.Matched[t.ID]

	// Right-hand columns are assembled plain and styled per row state below.
	right := ""
	if width > 60 {
		right += "  " + padToWidth(t.Trader.Name, 10)
	}
	if width > 100 {
		if t.MinPlayerLevel > 0 {
			right += " " + padToWidth(formatLevel(t.MinPlayerLevel), 4)
		} else {
			right += " " + spaces(4)
		}
	}
	if width > 140 && d.Scores == nil && t.Group != "" {
		right += " " + padToWidth(t.Group, 18)
	}

	bar := ""
	if d.Scores != nil {
		bar = " " + RenderScoreBar(d.Scores[t.ID], d.MaxScore)
	}

	nameWidth := width - 4 - runewidth.StringWidth(right) - lipgloss.Width(bar)
	if nameWidth < 8 {
		nameWidth = 8
		right = ""
	}
	name := padToWidth(t.Name, nameWidth)

	switch {
	case selected:
		row := "▸ " + d.dot(t.Trader.Name) + name + right
		style := theme.Renderer.NewStyle().
			Background(ThemeBg(theme.Highlight)).
			Foreground(ThemeFg(theme.Text))
		fmt.Fprint(w, style.Render(row)+bar)
	case dimmed:
		fmt.Fprint(w, theme.MutedText.Render("  · "+name+right)+bar)
	default:
		nameStyle := theme.BaseText
		if filtersOn {
			nameStyle = theme.MatchedText
		}
		row := "  " + d.dot(t.Trader.Name) + nameStyle.Render(name) + theme.MutedText.Render(right)
		fmt.Fprint(w, row+bar)
	}
}

// dot returns the trader's colored marker, caching one style per trader.
func (d *TaskDelegate) dot(trader string) string {
	style, ok := d.traderDots[trader]
	if !ok {
		style = d.Theme.Renderer.NewStyle().Foreground(ThemeFg(TraderColor(trader)))
		d.traderDots[trader] = style
	}
	return style.Render("● ")
}
