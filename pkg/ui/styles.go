package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Shared palette for the pieces of the UI that render through the default
// renderer (panels, dividers, footer). Widgets that need renderer-bound
// styles take a Theme instead.
var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#fafafa", Dark: "#282a36"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#e9e7fd", Dark: "#44475a"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#282a36", Dark: "#f8f8f2"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#6e6a86", Dark: "#6272a4"}
	ColorPrimary     = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#bd93f9"}
	ColorSecondary   = lipgloss.AdaptiveColor{Light: "#0f766e", Dark: "#8be9fd"}
	ColorMatched     = lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#50fa7b"}
	ColorFlash       = lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#ffb86c"}
	ColorDanger      = lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#ff5555"}
)

// Panel frames for the split layout. The focused pane swaps the border color
// so keyboard focus is visible without a cursor.
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight).
			Padding(0, 1)

	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)
)

// traderAccents is the rotation of accent colors assigned to trader names.
// The assignment is a stable hash so a trader keeps its color across runs
// and across reloads.
var traderAccents = []lipgloss.AdaptiveColor{
	{Light: "#7c3aed", Dark: "#bd93f9"},
	{Light: "#0f766e", Dark: "#8be9fd"},
	{Light: "#15803d", Dark: "#50fa7b"},
	{Light: "#b45309", Dark: "#ffb86c"},
	{Light: "#be185d", Dark: "#ff79c6"},
	{Light: "#a16207", Dark: "#f1fa8c"},
}

// TraderColor returns the accent color for a trader name.
func TraderColor(name string) lipgloss.AdaptiveColor {
	if name == "" {
		return ColorMuted
	}
	var h uint32
	for _, r := range name {
		h = h*31 + uint32(r)
	}
	return traderAccents[h%uint32(len(traderAccents))]
}

// RenderLevelBadge renders the minimum player level as a compact badge.
// Level 0 means no gate and renders as empty so rows stay quiet.
func RenderLevelBadge(level int) string {
	if level <= 0 {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(ThemeFg(ColorSecondary))
	return style.Render(formatLevel(level))
}

// RenderScoreBar renders a reward-search relevance score as a five-segment
// bar. max must be the highest score in the current result set.
func RenderScoreBar(score, max int) string {
	if max <= 0 || score <= 0 {
		return ""
	}
	const segments = 5
	filled := (score*segments + max - 1) / max
	if filled > segments {
		filled = segments
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", segments-filled)
	return lipgloss.NewStyle().Foreground(ThemeFg(ColorFlash)).Render(bar)
}

// RenderDivider renders a horizontal rule of the given width.
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ThemeFg(ColorBgHighlight)).
		Render(strings.Repeat("─", width))
}
