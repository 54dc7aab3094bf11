// Package ui holds the styles and key bindings shared by the debug readers.
package ui

import (
	"fmt"
	"strings"

	"pagedb/pkg/ui/base"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var (
	Palette = base.DarkPalette

	PrimaryColor   = Palette.Primary
	SecondaryColor = Palette.Secondary
	SuccessColor   = Palette.Accent
	WarningColor   = Palette.Warning
	ErrorColor     = Palette.Error
	MutedColor     = Palette.Muted
	FgColor        = lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(PrimaryColor).
				Bold(true).
				Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(SecondaryColor).
				Bold(true).
				Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(FgColor).
			Padding(0, 1)

	DetailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(1, 2).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(FgColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			MarginTop(1).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(PrimaryColor).
			Padding(0, 1).
			MarginTop(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Padding(1)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Padding(0, 1)
)

// Common key bindings
type CommonKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

var CommonKeys = CommonKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter/space", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "toggle hex"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Navigation key bindings
type NavigationKeyMap struct {
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
}

var NavigationKeys = NavigationKeyMap{
	NextPage: key.NewBinding(
		key.WithKeys("n", "pgdown"),
		key.WithHelp("n/pgdn", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("p", "pgup"),
		key.WithHelp("p/pgup", "prev page"),
	),
	FirstPage: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g/home", "first page"),
	),
	LastPage: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G/end", "last page"),
	),
}

// RenderError renders an error message with instructions to quit
func RenderError(err error) string {
	return ErrorStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		"Error: "+err.Error(),
		"",
		"Press q to quit.",
	))
}

// RenderStatusBar renders a status bar with the given text
func RenderStatusBar(text string) string {
	return StatusBarStyle.Render(text)
}

// RenderTitle renders a title with an icon
func RenderTitle(icon, title string) string {
	return TitleStyle.Render(icon + "  " + title)
}

// RenderHeaderWithCount renders a header with optional count
func RenderHeaderWithCount(text string, count int) string {
	if count >= 0 {
		return HeaderStyle.Render(fmt.Sprintf(" %s (%d) ", text, count))
	}
	return HeaderStyle.Render(" " + text + " ")
}

// RenderField renders a "label: value" line.
func RenderField(label string, value any) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(fmt.Sprint(value))
}

// RenderTable renders a simple table with headers and data. colorize, when
// not nil, may restyle a cell of an unselected row.
func RenderTable(headers []string, data [][]string, colWidths []int, selectedRow int, colorize func(col int, cell string) lipgloss.Style) string {
	var b strings.Builder

	headerRow := make([]string, len(headers))
	for i, header := range headers {
		headerRow[i] = TableHeaderStyle.Render(base.PadString(header, colWidths[i]))
	}
	b.WriteString(strings.Join(headerRow, " ") + "\n")

	separator := make([]string, len(colWidths))
	for i, width := range colWidths {
		separator[i] = strings.Repeat("─", width+2)
	}
	b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render(strings.Join(separator, "┼")) + "\n")

	for rowIdx, row := range data {
		cells := make([]string, len(row))
		for colIdx, cell := range row {
			content := base.PadString(base.TruncateString(cell, colWidths[colIdx]), colWidths[colIdx])
			switch {
			case rowIdx == selectedRow:
				cells[colIdx] = SelectedItemStyle.Render(content)
			case colorize != nil:
				cells[colIdx] = colorize(colIdx, cell).Render(content)
			default:
				cells[colIdx] = CellStyle.Render(content)
			}
		}
		b.WriteString(strings.Join(cells, " ") + "\n")
	}

	return b.String()
}
