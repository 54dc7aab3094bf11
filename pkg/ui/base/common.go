package base

import "strings"

// PadString pads a string to the specified width with spaces
func PadString(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// TruncateString truncates a string to maxWidth runes with ellipsis
func TruncateString(s string, maxWidth int) string {
	r := []rune(s)
	if len(r) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return string(r[:maxWidth])
	}
	return string(r[:maxWidth-3]) + "..."
}

// ColumnWidth returns the display width for column index of rows, bounded
// by [minWidth, maxWidth].
func ColumnWidth(title string, rows [][]string, index, minWidth, maxWidth int) int {
	width := len([]rune(title)) + 2
	for _, row := range rows {
		if index < len(row) {
			width = max(width, len([]rune(row[index]))+2)
		}
	}
	return min(max(width, minWidth), maxWidth)
}
