package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile is the color capability detected for stdout at startup.
// Style constructors consult it through ThemeBg and ThemeFg rather than
// assuming truecolor support.
var TermProfile = colorprofile.Detect(os.Stdout, os.Environ())

// ThemeBg guards a background tint behind the detected profile. Below
// truecolor the subtle panel and row tints quantize into mud, so they are
// dropped entirely instead of approximated.
func ThemeBg(c lipgloss.AdaptiveColor) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return c
}

// ThemeFg guards a foreground color behind the detected profile. Below 256
// colors everything collapses to the terminal's default light gray.
func ThemeFg(c lipgloss.AdaptiveColor) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return c
}

// Theme carries the renderer-bound colors and styles for one program
// instance. The styles are computed once in DefaultTheme; per-frame render
// code must not build new styles on the hot path.
type Theme struct {
	Renderer *lipgloss.Renderer

	Text      lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Matched   lipgloss.AdaptiveColor
	Flash     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor // selected-row background

	BaseText    lipgloss.Style
	MutedText   lipgloss.Style
	PrimaryBold lipgloss.Style
	MatchedText lipgloss.Style
	FlashBold   lipgloss.Style
	DangerText  lipgloss.Style
	EdgeText    lipgloss.Style
}

// DefaultTheme builds the standard theme on the given renderer. Light and
// dark pairs follow the Dracula palette used across the rest of the UI.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Text:      lipgloss.AdaptiveColor{Light: "#282a36", Dark: "#f8f8f2"},
		Muted:     lipgloss.AdaptiveColor{Light: "#6e6a86", Dark: "#6272a4"},
		Primary:   lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#bd93f9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#0f766e", Dark: "#8be9fd"},
		Matched:   lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#50fa7b"},
		Flash:     lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#ffb86c"},
		Danger:    lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#ff5555"},
		Highlight: lipgloss.AdaptiveColor{Light: "#e9e7fd", Dark: "#44475a"},
	}

	t.BaseText = r.NewStyle().Foreground(ThemeFg(t.Text))
	t.MutedText = r.NewStyle().Foreground(ThemeFg(t.Muted))
	t.PrimaryBold = r.NewStyle().Foreground(ThemeFg(t.Primary)).Bold(true)
	t.MatchedText = r.NewStyle().Foreground(ThemeFg(t.Matched))
	t.FlashBold = r.NewStyle().Foreground(ThemeFg(t.Flash)).Bold(true)
	t.DangerText = r.NewStyle().Foreground(ThemeFg(t.Danger))
	t.EdgeText = r.NewStyle().Foreground(ThemeFg(t.Muted))
	return t
}

// TestTheme returns a theme bound to a fresh stdout renderer. Tests use it
// so style output does not depend on the shared default renderer's state.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
