package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Word-wrap bounds for the detail pane. Below the floor glamour output
// degrades into one word per line; above the ceiling long paragraphs get
// hard to scan.
const (
	markdownMinWidth = 20
	markdownMaxWidth = 110
)

// MarkdownRenderer renders the detail pane's markdown. Construction can
// fail on exotic terminals; a failed renderer degrades to returning the
// raw markdown so the pane never goes blank.
type MarkdownRenderer struct {
	tr    *glamour.TermRenderer
	width int
}

func NewMarkdownRenderer(width int) *MarkdownRenderer {
	r := &MarkdownRenderer{}
	r.rebuild(width)
	return r
}

func (r *MarkdownRenderer) rebuild(width int) {
	r.width = clamp(width, markdownMinWidth, markdownMaxWidth)
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
		glamour.WithEmoji(),
	)
	if err != nil {
		r.tr = nil
		return
	}
	r.tr = tr
}

// SetWidth re-wraps future renders at the given width. Cheap when the
// clamped width is unchanged.
func (r *MarkdownRenderer) SetWidth(width int) {
	if clamp(width, markdownMinWidth, markdownMaxWidth) == r.width {
		return
	}
	r.rebuild(width)
}

// Render returns styled terminal output for md, or the raw markdown when
// the renderer is degraded.
func (r *MarkdownRenderer) Render(md string) string {
	if r.tr == nil {
		return md
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
