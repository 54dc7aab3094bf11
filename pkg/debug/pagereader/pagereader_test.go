package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pagedb/pkg/inspect"
	"pagedb/pkg/primitives"
	"pagedb/pkg/row"
	"pagedb/pkg/table"
)

func buildSnapshot(t *testing.T, rows int) *inspect.Snapshot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	tbl, err := table.Open(path)
	if err != nil {
		t.Fatalf("table.Open: %v", err)
	}
	for i := 1; i <= rows; i++ {
		r := row.Row{ID: uint32(i), Username: fmt.Sprintf("user%d", i), Email: fmt.Sprintf("person%d@example.com", i)}
		if err := tbl.Insert(r); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	snap, err := inspect.Load(primitives.Filepath(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return snap
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m pageModel, msg tea.Msg) (pageModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(pageModel), cmd
}

func TestWriteDump(t *testing.T) {
	snap := buildSnapshot(t, 14)

	var out strings.Builder
	if err := writeDump(&out, snap); err != nil {
		t.Fatalf("writeDump: %v", err)
	}

	got := out.String()
	for _, want := range []string{"internal", "leaf", "3 pages, blake3 "} {
		if !strings.Contains(got, want) {
			t.Errorf("dump missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "warning") {
		t.Errorf("clean file should not warn:\n%s", got)
	}
}

func TestWriteDump_TrailingBytes(t *testing.T) {
	snap := buildSnapshot(t, 1)

	f, err := os.OpenFile(string(snap.Path), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte{1, 2, 3})
	f.Close()

	snap, err = inspect.Load(snap.Path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var out strings.Builder
	if err := writeDump(&out, snap); err != nil {
		t.Fatalf("writeDump: %v", err)
	}
	if !strings.Contains(out.String(), "warning: 3 bytes") {
		t.Errorf("expected trailing byte warning:\n%s", out.String())
	}
}

func TestNavigation(t *testing.T) {
	m, err := newPageModel(buildSnapshot(t, 14))
	if err != nil {
		t.Fatalf("newPageModel: %v", err)
	}
	m, _ = send(m, tea.WindowSizeMsg{Width: 140, Height: 60})

	if len(m.summaries) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(m.summaries))
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.currentView != viewPage || m.current != 0 {
		t.Fatalf("enter should open page 0, got view %v page %d", m.currentView, m.current)
	}
	if !strings.Contains(m.pageDetail(), "right child 1") {
		t.Errorf("root detail:\n%s", m.pageDetail())
	}

	m, _ = send(m, runeKey("n"))
	if m.current != 1 {
		t.Fatalf("n should move to page 1, got %d", m.current)
	}
	if !strings.Contains(m.pageDetail(), "(8, user8, person8@example.com)") {
		t.Errorf("leaf detail should list rows:\n%s", m.pageDetail())
	}

	m, _ = send(m, runeKey("x"))
	if !strings.Contains(m.pageDetail(), "00000000") {
		t.Errorf("hex view expected:\n%s", m.pageDetail())
	}

	m, _ = send(m, runeKey("G"))
	m, _ = send(m, runeKey("n"))
	if m.current != 2 {
		t.Errorf("next past the last page should stay on it, got %d", m.current)
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.currentView != viewPages {
		t.Error("esc should return to the page list")
	}

	_, cmd := send(m, runeKey("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestListCursorBounds(t *testing.T) {
	m, err := newPageModel(buildSnapshot(t, 1))
	if err != nil {
		t.Fatalf("newPageModel: %v", err)
	}

	m, _ = send(m, runeKey("k"))
	m, _ = send(m, runeKey("j"))
	m, _ = send(m, runeKey("j"))
	if m.cursor != 0 {
		t.Errorf("single page file should keep the cursor at 0, got %d", m.cursor)
	}
	if !strings.Contains(m.View(), "Pages (1)") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}

func TestOpenClamps(t *testing.T) {
	m, err := newPageModel(buildSnapshot(t, 14))
	if err != nil {
		t.Fatalf("newPageModel: %v", err)
	}
	if got := m.open(99).current; got != 2 {
		t.Errorf("open(99) = %d, want 2", got)
	}
}
