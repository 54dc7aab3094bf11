package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"pagedb/pkg/database"
	"pagedb/pkg/logging"
	"pagedb/pkg/repl"
	"pagedb/pkg/storage/page"
	"pagedb/pkg/ui"
)

// CLI defines the command-line interface
var CLI struct {
	Path            string `arg:"" type:"path" help:"Database file (created if missing)"`
	Plain           bool   `name:"plain" help:"Use the line-oriented prompt even on a terminal"`
	MaxPages        int    `name:"max-pages" default:"100" help:"Maximum number of pages in the file"`
	MaxInternalKeys int    `name:"max-internal-keys" default:"0" help:"Internal node fan-out (0 for the page maximum)"`
	LogLevel        string `name:"log-level" default:"WARN" enum:"DEBUG,INFO,WARN,ERROR" help:"Log level"`
	LogFormat       string `name:"log-format" default:"text" enum:"text,json" help:"Log format"`
	LogFile         string `name:"log-file" type:"path" help:"Write logs to this file instead of stderr"`
	NoSplash        bool   `name:"no-splash" help:"Skip the splash screen"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pagedb"),
		kong.Description("A single-table B-tree storage engine with a REPL"),
		kong.UsageOnError(),
	)

	err := logging.Init(logging.Config{
		Level:      logging.LogLevel(CLI.LogLevel),
		OutputPath: CLI.LogFile,
		Format:     CLI.LogFormat,
	})
	ctx.FatalIfErrorf(err)
	defer logging.Close()

	db, err := database.Open(CLI.Path, database.Config{
		MaxPages:        CLI.MaxPages,
		MaxInternalKeys: CLI.MaxInternalKeys,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open file: %v\n", err)
		os.Exit(1)
	}

	if CLI.Plain || !isTerminal(os.Stdin) {
		err = repl.New(db, os.Stdin, os.Stdout).Run()
	} else {
		if !CLI.NoSplash {
			showSplashScreen()
		}
		err = startInteractiveMode(db)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Close()
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// showSplashScreen displays the welcome banner
func showSplashScreen() {
	splash := fmt.Sprintf(`
╔══════════════════════════════════════════╗
║                                          ║
║                 pagedb                   ║
║                                          ║
║   one table · %4d-byte pages · B-tree   ║
║        up to %4d pages per file         ║
║                                          ║
╚══════════════════════════════════════════╝
`, page.PageSize, CLI.MaxPages)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	fmt.Println(style.Render(splash))
	time.Sleep(time.Second)
}

// startInteractiveMode runs the terminal UI and closes db when it ends.
func startInteractiveMode(db *database.Database) error {
	p := tea.NewProgram(
		ui.NewModel(db),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, runErr := p.Run()
	closeErr := db.Close()

	if runErr != nil {
		return fmt.Errorf("error running program: %w", runErr)
	}
	if m, ok := final.(ui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return closeErr
}
