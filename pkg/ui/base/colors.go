package base

import "github.com/charmbracelet/lipgloss"

// ColorPalette defines a consistent color scheme
type ColorPalette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color

	// Page kinds in the page views
	Leaf     lipgloss.Color
	Internal lipgloss.Color
	Unknown  lipgloss.Color
}

// DarkPalette is the default dark theme palette
var DarkPalette = ColorPalette{
	Primary:   lipgloss.Color("#7C3AED"), // Purple
	Secondary: lipgloss.Color("#06B6D4"), // Cyan
	Accent:    lipgloss.Color("#10B981"), // Emerald
	Warning:   lipgloss.Color("#F59E0B"), // Amber
	Error:     lipgloss.Color("#EF4444"), // Red
	Muted:     lipgloss.Color("#94A3B8"), // Slate

	Leaf:     lipgloss.Color("#34D399"),
	Internal: lipgloss.Color("#A78BFA"),
	Unknown:  lipgloss.Color("#F87171"),
}

// PageKindColor picks the color for a page type name as printed by the
// inspect package ("leaf", "internal", anything else).
func (p ColorPalette) PageKindColor(kind string) lipgloss.Color {
	switch kind {
	case "leaf":
		return p.Leaf
	case "internal":
		return p.Internal
	default:
		return p.Unknown
	}
}
