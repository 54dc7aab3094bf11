// Command pagereader browses the pages of a database file without opening
// it for writing.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"pagedb/pkg/inspect"
	"pagedb/pkg/primitives"
)

var CLI struct {
	Path string `arg:"" type:"existingfile" help:"Database file to inspect"`
	Dump bool   `name:"dump" short:"d" help:"Print the page summary and exit"`
	Page int    `name:"page" short:"p" default:"-1" help:"Open this page directly"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pagereader"),
		kong.Description("Inspect the pages of a pagedb file"),
		kong.UsageOnError(),
	)

	snap, err := inspect.Load(primitives.Filepath(CLI.Path))
	ctx.FatalIfErrorf(err)

	if CLI.Dump {
		ctx.FatalIfErrorf(writeDump(os.Stdout, snap))
		return
	}

	m, err := newPageModel(snap)
	ctx.FatalIfErrorf(err)
	if CLI.Page >= 0 {
		m = m.open(CLI.Page)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// writeDump prints one line per page followed by the file digest.
func writeDump(w io.Writer, snap *inspect.Snapshot) error {
	summaries, err := inspect.SummarizeAll(snap)
	if err != nil {
		return err
	}
	digest, err := inspect.FileDigest(snap)
	if err != nil {
		return err
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = s.Row()
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(inspect.Columns()...).
		Rows(rows...)

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%s: %d pages, blake3 %s\n", snap.Path, len(summaries), digest)
	if snap.Trailing > 0 {
		fmt.Fprintf(w, "warning: %d bytes past the last whole page\n", snap.Trailing)
	}
	return nil
}
