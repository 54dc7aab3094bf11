package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pagedb/pkg/database"
	dberror "pagedb/pkg/error"
	"pagedb/pkg/statement"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), database.DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewModel(db)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

// drain runs cmd and returns every message it produces, flattening batches.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// press sends k to the model and feeds back any statement result. The
// command returned by handling that result is returned as well.
func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)

	var after tea.Cmd
	for _, msg := range drain(cmd) {
		if res, ok := msg.(queryResultMsg); ok {
			if !m.executing {
				t.Fatal("model should be executing while a statement runs")
			}
			next, after = m.Update(res)
			m = next.(Model)
		}
	}
	return m, after
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestSubmitInsertAndSelect(t *testing.T) {
	m := newTestModel(t)

	m, _ = submit(t, m, "insert 2 bob bob@example.com")
	m, _ = submit(t, m, "insert 1 alice alice@example.com")
	if m.lastError != nil {
		t.Fatalf("unexpected error: %v", m.lastError)
	}
	if m.input.Value() != "" {
		t.Errorf("input should be cleared, got %q", m.input.Value())
	}

	m, _ = submit(t, m, "select")
	if m.lastResult.Kind != statement.KindSelect {
		t.Fatalf("expected select result, got %v", m.lastResult.Kind)
	}
	rows := m.resultTable.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 table rows, got %d", len(rows))
	}
	if rows[0][0] != "1" || rows[1][1] != "bob" {
		t.Errorf("unexpected rows %v", rows)
	}
	if !strings.Contains(m.View(), "alice@example.com") {
		t.Error("view should show the selected rows")
	}
}

func TestEmptyInputDoesNothing(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd != nil || m.executing {
		t.Error("blank input should not execute")
	}
}

func TestUserErrorIsShown(t *testing.T) {
	m := newTestModel(t)

	m, cmd := submit(t, m, "insert -5 a b")
	if isQuit(cmd) {
		t.Fatal("user errors should not quit")
	}
	if m.lastError == nil || dberror.IsFatal(m.lastError) {
		t.Fatalf("expected a user error, got %v", m.lastError)
	}
	if !strings.Contains(m.View(), "ID must be positive.") {
		t.Errorf("view should carry the REPL message:\n%s", m.View())
	}
}

func TestExitQuits(t *testing.T) {
	m := newTestModel(t)

	_, cmd := submit(t, m, ".exit")
	if !isQuit(cmd) {
		t.Error(".exit should quit")
	}
}

func TestFatalErrorQuits(t *testing.T) {
	m := newTestModel(t)

	err := dberror.New(dberror.ErrCategoryData, dberror.CodeCorruptNode, "Corrupt node")
	next, cmd := m.Update(queryResultMsg{line: "select", err: err})
	m = next.(Model)
	if !isQuit(cmd) {
		t.Error("fatal errors should quit")
	}
	if m.Err() != err {
		t.Errorf("Err() = %v, want %v", m.Err(), err)
	}
}

func TestShortcuts(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyType
		want func(t *testing.T, m Model)
	}{
		{"tree", tea.KeyCtrlT, func(t *testing.T, m Model) {
			if !strings.HasPrefix(m.lastResult.Output, "Tree:\n- leaf (size 3)") {
				t.Errorf("unexpected tree output %q", m.lastResult.Output)
			}
		}},
		{"pages", tea.KeyCtrlP, func(t *testing.T, m Model) {
			if len(m.resultTable.Rows()) != 1 || m.resultTable.Columns()[0].Title != "page" {
				t.Errorf("expected one page row, got %v", m.resultTable.Rows())
			}
		}},
		{"stats", tea.KeyCtrlS, func(t *testing.T, m Model) {
			if m.resultTable.Columns()[0].Title != "stat" {
				t.Errorf("expected stats table, got %v", m.resultTable.Columns())
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			for i := 1; i <= 3; i++ {
				m, _ = submit(t, m, fmt.Sprintf("insert %d u%d e%d", i, i, i))
			}
			m, _ = press(t, m, tea.KeyMsg{Type: tt.key})
			if m.lastError != nil {
				t.Fatalf("unexpected error: %v", m.lastError)
			}
			tt.want(t, m)
		})
	}
}

func TestHistory(t *testing.T) {
	m := newTestModel(t)

	m, _ = submit(t, m, "insert 1 a b")
	m, _ = submit(t, m, "select")
	m, _ = submit(t, m, "select")

	if len(m.history) != 2 {
		t.Fatalf("repeated lines should be stored once, got %v", m.history)
	}

	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}

	m, _ = press(t, m, up)
	if m.input.Value() != "select" {
		t.Errorf("first recall = %q", m.input.Value())
	}
	m, _ = press(t, m, up)
	m, _ = press(t, m, up)
	if m.input.Value() != "insert 1 a b" {
		t.Errorf("recall should stop at the oldest entry, got %q", m.input.Value())
	}
	m, _ = press(t, m, down)
	m, _ = press(t, m, down)
	if m.input.Value() != "" {
		t.Errorf("moving past the newest entry should clear the input, got %q", m.input.Value())
	}
}

func TestClear(t *testing.T) {
	m := newTestModel(t)

	m, _ = submit(t, m, "insert 1 a b")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.lastLine != "" || m.lastResult.Message != "" {
		t.Errorf("clear should reset the result, got %+v", m.lastResult)
	}
}

func TestHighlight(t *testing.T) {
	h := NewStatementHighlighter()
	got := h.Highlight("insert 1 alice alice@example.com")
	for _, word := range []string{"insert", "1", "alice", "alice@example.com"} {
		if !strings.Contains(got, word) {
			t.Errorf("highlighted text lost %q: %q", word, got)
		}
	}
}
