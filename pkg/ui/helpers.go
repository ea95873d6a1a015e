package ui

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

// truncateToWidth shortens s to at most maxWidth terminal cells, appending
// suffix when anything was cut. Widths are measured with runewidth so CJK
// task names and emoji count their real cell width, not their rune count.
func truncateToWidth(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	sw := runewidth.StringWidth(suffix)
	if sw >= maxWidth {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, suffix)
}

// truncateLine shortens an already styled line to maxWidth cells without
// cutting through escape sequences. Plain strings go through truncateToWidth.
func truncateLine(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if ansi.PrintableRuneWidth(s) <= maxWidth {
		return s
	}
	return truncate.StringWithTail(s, uint(maxWidth), "…")
}

// padToWidth right-pads s with spaces to exactly width cells, truncating
// first if it is already too wide.
func padToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = truncateToWidth(s, width, "…")
	return s + spaces(width-runewidth.StringWidth(s))
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func formatLevel(level int) string {
	return fmt.Sprintf("L%d", level)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
