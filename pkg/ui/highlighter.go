package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var statementKeywords = map[string]bool{
	"insert": true,
	"select": true,
}

// StatementHighlighter colors a REPL line: keywords, meta commands, the
// numeric id and e-mail addresses.
type StatementHighlighter struct {
	keywordStyle lipgloss.Style
	metaStyle    lipgloss.Style
	numberStyle  lipgloss.Style
	emailStyle   lipgloss.Style
}

func NewStatementHighlighter() *StatementHighlighter {
	return &StatementHighlighter{
		keywordStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF79C6")).
			Bold(true),
		metaStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BE9FD")).
			Bold(true),
		numberStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BD93F9")),
		emailStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C")),
	}
}

func (h *StatementHighlighter) Highlight(line string) string {
	words := strings.Fields(line)
	highlighted := make([]string, 0, len(words))

	for i, word := range words {
		switch {
		case i == 0 && statementKeywords[word]:
			highlighted = append(highlighted, h.keywordStyle.Render(word))
		case i == 0 && strings.HasPrefix(word, "."):
			highlighted = append(highlighted, h.metaStyle.Render(word))
		case isNumeric(word):
			highlighted = append(highlighted, h.numberStyle.Render(word))
		case strings.Contains(word, "@"):
			highlighted = append(highlighted, h.emailStyle.Render(word))
		default:
			highlighted = append(highlighted, word)
		}
	}

	return strings.Join(highlighted, " ")
}

func isNumeric(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
