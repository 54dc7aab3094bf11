// Package ui is the interactive terminal front end. It runs the same
// statements as the plain REPL, with results shown as tables and the tree
// printout in a scrollable view.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pagedb/pkg/database"
	dberror "pagedb/pkg/error"
	"pagedb/pkg/repl"
	"pagedb/pkg/ui/base"
)

const (
	minColumnWidth = 6
	maxColumnWidth = 40
	historyLimit   = 100
)

// Model represents the application state
type Model struct {
	database    *database.Database
	input       textinput.Model
	outputView  viewport.Model
	resultTable table.Model
	spinner     spinner.Model
	help        help.Model
	highlighter *StatementHighlighter

	width      int
	height     int
	executing  bool
	showHelp   bool
	lastLine   string
	lastResult database.QueryResult
	lastError  error
	fatal      error

	history    []string
	historyPos int

	lastQueryTime time.Duration
	keys          keyMap
}

func NewModel(db *database.Database) Model {
	ti := textinput.New()
	ti.Prompt = repl.Prompt
	ti.Placeholder = "insert 1 alice alice@example.com"
	ti.CharLimit = 1024
	ti.PromptStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(textMuted)
	ti.TextStyle = lipgloss.NewStyle().Foreground(textPrimary)
	ti.Focus()

	vp := viewport.New(80, 10)
	vp.Style = outputStyle

	t := table.New(
		table.WithColumns([]table.Column{{Title: "Results", Width: 80}}),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(bgDark).
		Background(secondaryColor).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		database:    db,
		input:       ti,
		outputView:  vp,
		resultTable: t,
		spinner:     sp,
		help:        help.New(),
		highlighter: NewStatementHighlighter(),
		keys:        keys,
	}
}

// Err returns the fatal error that ended the session, if any.
func (m Model) Err() error {
	return m.fatal
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if m.executing {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			line := m.input.Value()
			if strings.TrimSpace(line) == "" {
				return m, nil
			}
			m.input.SetValue("")
			return m.run(line)

		case key.Matches(msg, m.keys.Clear):
			m.input.SetValue("")
			m.lastLine = ""
			m.lastResult = database.QueryResult{}
			m.lastError = nil
			return m, nil

		case key.Matches(msg, m.keys.ShowTree):
			return m.run(database.MetaBTree)

		case key.Matches(msg, m.keys.ShowPages):
			return m.run(database.MetaPages)

		case key.Matches(msg, m.keys.ShowStats):
			return m.run(database.MetaStats)

		case key.Matches(msg, m.keys.HistoryPrev):
			m.recall(-1)
			return m, nil

		case key.Matches(msg, m.keys.HistoryNext):
			m.recall(1)
			return m, nil

		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown) && m.showingTable():
			n := max(m.resultTable.Height(), 1)
			if key.Matches(msg, m.keys.PageUp) {
				m.resultTable.MoveUp(n)
			} else {
				m.resultTable.MoveDown(n)
			}
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}

	case queryResultMsg:
		m.executing = false
		m.lastLine = msg.line
		m.lastResult = msg.result
		m.lastError = msg.err
		m.lastQueryTime = msg.duration
		m.remember(msg.line)

		if msg.err != nil {
			if dberror.IsFatal(msg.err) {
				m.fatal = msg.err
				return m, tea.Quit
			}
			return m, nil
		}
		if msg.result.Exit {
			return m, tea.Quit
		}
		m.updateResultDisplay()
		return m, nil

	case spinner.TickMsg:
		if m.executing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.executing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

		// Only paging keys reach the output view; letters are for the input.
		if km, ok := msg.(tea.KeyMsg); !ok || key.Matches(km, m.keys.PageUp, m.keys.PageDown) {
			m.outputView, cmd = m.outputView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) run(line string) (tea.Model, tea.Cmd) {
	m.executing = true
	return m, tea.Batch(m.spinner.Tick, m.execute(line))
}

// remember appends line to the history unless it repeats the last entry.
func (m *Model) remember(line string) {
	line = strings.TrimSpace(line)
	if line != "" && (len(m.history) == 0 || m.history[len(m.history)-1] != line) {
		m.history = append(m.history, line)
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
	}
	m.historyPos = len(m.history)
}

// recall moves through the history by delta and loads the entry into the
// input. Moving past the newest entry clears the input.
func (m *Model) recall(delta int) {
	if len(m.history) == 0 {
		return
	}
	m.historyPos = min(max(m.historyPos+delta, 0), len(m.history))
	if m.historyPos == len(m.history) {
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.history[m.historyPos])
	m.input.CursorEnd()
}

func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderInput())

	if m.lastLine != "" && !m.executing {
		sections = append(sections, historyStyle.Render("last: ")+m.highlighter.Highlight(m.lastLine))
	}

	switch {
	case m.executing:
		sections = append(sections, m.renderExecuting())
	case m.lastError != nil:
		sections = append(sections, m.renderError())
	case m.lastResult.Output != "":
		sections = append(sections, m.outputView.View())
	case m.showingTable():
		sections = append(sections, m.renderResultTable())
	case m.lastResult.Message != "":
		sections = append(sections, m.renderMessage())
	}

	sections = append(sections, m.renderStatusBar())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{
			m.keys.Execute,
			m.keys.Clear,
			m.keys.HistoryPrev,
			m.keys.HistoryNext,
		},
		{
			m.keys.ShowTree,
			m.keys.ShowPages,
			m.keys.ShowStats,
			m.keys.PageUp,
			m.keys.PageDown,
		},
		{
			m.keys.Help,
			m.keys.Quit,
		},
	})

	var meta strings.Builder
	for _, c := range database.MetaCommands {
		fmt.Fprintf(&meta, "%s  %s\n", base.PadString(c.Name, 11), c.Help)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(bgMedium).
		Render(helpText + "\n\n" + strings.TrimRight(meta.String(), "\n"))
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("pagedb")

	summary := "statistics unavailable"
	name := m.database.Path()
	if info, err := m.database.GetStatistics(); err == nil {
		summary = fmt.Sprintf("Pages: %d/%d | Depth: %d | Rows inserted: %d",
			info.NumPages, info.MaxPages, info.TreeDepth, info.RowsInserted)
	}

	badge := dbBadgeStyle.Render(base.TruncateString(name, 40))
	stats := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(summary)

	header := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", badge, "  ", stats)

	separator := strings.Repeat("─", max(m.width-4, 0))
	return header + "\n" + lipgloss.NewStyle().Foreground(bgLight).Render(separator)
}

func (m Model) renderInput() string {
	return inputStyle.Render(m.input.View())
}

func (m Model) renderExecuting() string {
	content := lipgloss.JoinHorizontal(
		lipgloss.Left,
		m.spinner.View(),
		" Executing...",
	)

	return lipgloss.NewStyle().
		Foreground(primaryColor).
		Padding(1, 0).
		Render(content)
}

func (m Model) renderError() string {
	icon := errorStyle.Render(" ⚠ ERROR ")
	message := lipgloss.NewStyle().
		Foreground(errorColor).
		Render(repl.Message(m.lastError, strings.TrimSpace(m.lastLine)))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(0, 1).
		Render(fmt.Sprintf("%s %s", icon, message))
}

func (m Model) renderResultTable() string {
	label := fmt.Sprintf("✓ %s in %v", m.lastResult.Message, m.lastQueryTime)
	if m.lastResult.Message == "" {
		label = fmt.Sprintf("✓ %d rows in %v", len(m.lastResult.Rows), m.lastQueryTime)
	}
	header := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(label)

	return fmt.Sprintf("%s\n%s", header, m.resultTable.View())
}

func (m Model) renderMessage() string {
	icon := successStyle.Render(" ✓ ")
	return lipgloss.NewStyle().
		Foreground(accentColor).
		Padding(1, 0).
		Render(fmt.Sprintf("%s %s", icon, m.lastResult.Message))
}

func (m Model) renderStatusBar() string {
	timer := ""
	if m.lastQueryTime > 0 {
		timer = fmt.Sprintf(" | Last statement: %v", m.lastQueryTime)
	}

	content := lipgloss.NewStyle().
		Foreground(accentColor).
		Render("● Open") +
		lipgloss.NewStyle().
			Foreground(textMuted).
			Render(timer+" | Press Ctrl+H for help")

	return statusBarStyle.
		Width(max(m.width-4, 0)).
		Render(content)
}

// updateLayout adjusts component sizes based on window size
func (m *Model) updateLayout() {
	resultHeight := max(m.height-12, 3)

	m.input.Width = max(m.width-12, 10)
	m.outputView.Width = max(m.width-6, 10)
	m.outputView.Height = resultHeight
	m.resultTable.SetHeight(resultHeight)
}

// updateResultDisplay loads the last result into the table or the output
// view.
func (m *Model) updateResultDisplay() {
	if m.lastResult.Output != "" {
		m.outputView.SetContent(m.lastResult.Output)
		m.outputView.GotoTop()
		return
	}
	if len(m.lastResult.Columns) == 0 {
		return
	}

	columns := make([]table.Column, len(m.lastResult.Columns))
	for i, col := range m.lastResult.Columns {
		columns[i] = table.Column{
			Title: col,
			Width: base.ColumnWidth(col, m.lastResult.Rows, i, minColumnWidth, maxColumnWidth),
		}
	}
	rows := make([]table.Row, len(m.lastResult.Rows))
	for i, r := range m.lastResult.Rows {
		rows[i] = table.Row(r)
	}

	// Rows before columns would be rendered against the old column count.
	m.resultTable.SetRows(nil)
	m.resultTable.SetColumns(columns)
	m.resultTable.SetRows(rows)
	m.resultTable.GotoTop()
}

func (m Model) showingTable() bool {
	return m.lastResult.Output == "" && len(m.lastResult.Columns) > 0
}

type queryResultMsg struct {
	line     string
	result   database.QueryResult
	err      error
	duration time.Duration
}

func (m Model) execute(line string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		result, err := m.database.ExecuteQuery(line)
		return queryResultMsg{
			line:     line,
			result:   result,
			err:      err,
			duration: time.Since(start),
		}
	}
}
