package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pagedb/pkg/btree"
	"pagedb/pkg/debug/ui"
	"pagedb/pkg/inspect"
	"pagedb/pkg/primitives"
	"pagedb/pkg/row"
)

type pageKeyMap struct {
	ui.CommonKeyMap
	ui.NavigationKeyMap
}

var pageKeys = pageKeyMap{
	CommonKeyMap:     ui.CommonKeys,
	NavigationKeyMap: ui.NavigationKeys,
}

type view int

const (
	viewPages view = iota
	viewPage
)

var columnWidths = []int{4, 8, 5, 6, 5, 13, 10, 9, 16}

type pageModel struct {
	snap      *inspect.Snapshot
	summaries []inspect.PageSummary
	digest    string

	currentView view
	cursor      int
	current     int
	showHex     bool
	viewport    viewport.Model
	width       int
	height      int
}

func newPageModel(snap *inspect.Snapshot) (pageModel, error) {
	summaries, err := inspect.SummarizeAll(snap)
	if err != nil {
		return pageModel{}, err
	}
	digest, err := inspect.FileDigest(snap)
	if err != nil {
		return pageModel{}, err
	}

	return pageModel{
		snap:      snap,
		summaries: summaries,
		digest:    digest,
		viewport:  viewport.New(100, 30),
	}, nil
}

func (m pageModel) Init() tea.Cmd {
	return nil
}

// open switches to the detail view of page n, clamped to the file.
func (m pageModel) open(n int) pageModel {
	if len(m.summaries) == 0 {
		return m
	}
	m.current = min(max(n, 0), len(m.summaries)-1)
	m.cursor = m.current
	m.currentView = viewPage
	m.viewport.SetContent(m.pageDetail())
	m.viewport.GotoTop()
	return m
}

func (m pageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-10, 5)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, pageKeys.Quit) {
			return m, tea.Quit
		}

		switch m.currentView {
		case viewPages:
			switch {
			case key.Matches(msg, pageKeys.Up):
				m.cursor = max(m.cursor-1, 0)
			case key.Matches(msg, pageKeys.Down):
				m.cursor = min(m.cursor+1, max(len(m.summaries)-1, 0))
			case key.Matches(msg, pageKeys.FirstPage):
				m.cursor = 0
			case key.Matches(msg, pageKeys.LastPage):
				m.cursor = max(len(m.summaries)-1, 0)
			case key.Matches(msg, pageKeys.Select):
				return m.open(m.cursor), nil
			}
			return m, nil

		case viewPage:
			switch {
			case key.Matches(msg, pageKeys.Back):
				m.currentView = viewPages
				return m, nil
			case key.Matches(msg, pageKeys.NextPage):
				return m.open(m.current + 1), nil
			case key.Matches(msg, pageKeys.PrevPage):
				return m.open(m.current - 1), nil
			case key.Matches(msg, pageKeys.FirstPage):
				return m.open(0), nil
			case key.Matches(msg, pageKeys.LastPage):
				return m.open(len(m.summaries) - 1), nil
			case key.Matches(msg, pageKeys.Toggle):
				m.showHex = !m.showHex
				return m.open(m.current), nil
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m pageModel) View() string {
	var b strings.Builder

	b.WriteString(ui.RenderTitle("▤", "Page Reader") + "\n")

	switch m.currentView {
	case viewPages:
		b.WriteString(m.renderPages())
	case viewPage:
		b.WriteString(m.renderPage())
	}

	b.WriteString("\n" + m.renderStatusBar())
	return b.String()
}

func (m pageModel) renderPages() string {
	var b strings.Builder

	b.WriteString(ui.RenderHeaderWithCount("Pages", len(m.summaries)) + "\n\n")
	if m.snap.Trailing > 0 {
		b.WriteString(ui.WarningStyle.Render(fmt.Sprintf("%d bytes past the last whole page", m.snap.Trailing)) + "\n")
	}

	rows := make([][]string, len(m.summaries))
	for i, s := range m.summaries {
		rows[i] = s.Row()
	}
	b.WriteString(ui.RenderTable(inspect.Columns(), rows, columnWidths, m.cursor, colorizeType))

	b.WriteString(ui.HelpStyle.Render("↑/↓: navigate | enter: open page | g/G: first/last | q: quit"))
	return b.String()
}

func colorizeType(col int, cell string) lipgloss.Style {
	if col == 1 {
		return ui.CellStyle.Foreground(ui.Palette.PageKindColor(cell))
	}
	return ui.CellStyle
}

func (m pageModel) renderPage() string {
	s := m.summaries[m.current]
	header := ui.RenderHeaderWithCount(fmt.Sprintf("Page %d: %s", s.PageNum, s.Type), int(s.Count))
	help := ui.HelpStyle.Render("n/p: next/prev page | x: toggle hex | ↑/↓: scroll | esc: back | q: quit")
	return header + "\n" + ui.DetailStyle.Render(m.viewport.View()) + "\n" + help
}

// pageDetail renders the header fields and cells of the current page, or
// its hex dump.
func (m pageModel) pageDetail() string {
	s := m.summaries[m.current]
	pg := &m.snap.Pages[m.current]

	var b strings.Builder
	fields := []struct {
		label string
		value any
	}{
		{"type", s.Type},
		{"root", s.IsRoot},
		{"parent", s.Parent},
		{"count", s.Count},
		{"used", fmt.Sprintf("%d bytes", s.UsedBytes)},
		{"blake3", s.Digest},
	}
	for _, f := range fields {
		b.WriteString(ui.RenderField(f.label, f.value) + "\n")
	}

	if m.showHex {
		used := s.UsedBytes
		if used == 0 {
			used = len(pg)
		}
		b.WriteString("\n" + hex.Dump(pg[:used]))
		return b.String()
	}

	nd := btree.NodeOf(pg)
	switch s.Type {
	case btree.NodeTypeLeaf:
		b.WriteString(ui.RenderField("next leaf", s.NextLeaf) + "\n\n")
		for i := primitives.CellIndex(0); i < primitives.CellIndex(s.Count); i++ {
			r := row.Deserialize(nd.LeafValue(i))
			fmt.Fprintf(&b, "%3d  key %-10d %s\n", i, nd.LeafKey(i), r)
		}
	case btree.NodeTypeInternal:
		b.WriteString("\n")
		for i := primitives.CellIndex(0); i < primitives.CellIndex(s.Count); i++ {
			child, _ := nd.Child(i)
			fmt.Fprintf(&b, "%3d  child %-6d key %d\n", i, child, nd.InternalKey(i))
		}
		fmt.Fprintf(&b, "     right child %d\n", s.RightChild)
	default:
		b.WriteString("\nnot a tree node; press x for the raw bytes\n")
	}
	return b.String()
}

func (m pageModel) renderStatusBar() string {
	digest := m.digest
	if len(digest) > 16 {
		digest = digest[:16]
	}

	status := fmt.Sprintf(" %s | %d pages | blake3 %s ", m.snap.Path, len(m.summaries), digest)
	if m.currentView == viewPage {
		status = fmt.Sprintf(" %s | Page %s/%d | blake3 %s ", m.snap.Path,
			strconv.Itoa(m.current+1), len(m.summaries), digest)
	}
	return ui.RenderStatusBar(status)
}
