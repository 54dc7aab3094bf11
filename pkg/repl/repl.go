// Package repl runs the line-oriented "db > " prompt over any reader and
// writer. It is the mode used when stdin is not a terminal, and its output
// is stable enough to diff in scripts.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"pagedb/pkg/database"
	dberror "pagedb/pkg/error"
	"pagedb/pkg/logging"
	"pagedb/pkg/statement"
)

const Prompt = "db > "

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// REPL reads statements from in and writes results to out.
type REPL struct {
	db  *database.Database
	in  *bufio.Scanner
	out io.Writer
}

// New creates a REPL over db.
func New(db *database.Database, in io.Reader, out io.Writer) *REPL {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &REPL{db: db, in: scanner, out: out}
}

// Run processes lines until .exit, end of input, or a fatal error. The
// database is closed before Run returns; a fatal error or a failed close
// is returned.
func (r *REPL) Run() (err error) {
	defer func() {
		if cerr := r.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for {
		fmt.Fprint(r.out, Prompt)
		if !r.in.Scan() {
			if err := r.in.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(r.out)
			return nil
		}

		line := r.in.Text()
		result, err := r.db.ExecuteQuery(line)
		if err != nil {
			fmt.Fprintln(r.out, Message(err, strings.TrimSpace(line)))
			if dberror.IsFatal(err) {
				logging.WithError(err).Error("ending session")
				return err
			}
			continue
		}

		r.print(result)
		if result.Exit {
			return nil
		}
	}
}

func (r *REPL) print(result database.QueryResult) {
	switch {
	case result.Kind == statement.KindEmpty || result.Exit:
	case result.Kind == statement.KindSelect:
		for _, cols := range result.Rows {
			fmt.Fprintf(r.out, "(%s)\n", strings.Join(cols, ", "))
		}
		fmt.Fprintln(r.out, "Executed.")
	case result.Output != "":
		fmt.Fprint(r.out, result.Output)
	case len(result.Columns) > 0:
		fmt.Fprintln(r.out, renderTable(result.Columns, result.Rows))
		if result.Message != "" {
			fmt.Fprintln(r.out, result.Message)
		}
	default:
		fmt.Fprintln(r.out, result.Message)
	}
}

func renderTable(columns []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...).
		Rows(rows...).
		Render()
}

// Message returns the line printed for err in response to input line.
func Message(err error, line string) string {
	switch dberror.GetCode(err) {
	case dberror.CodeDuplicateKey:
		return "Error: Duplicate key."
	case dberror.CodeTableFull:
		return "Error: Table full."
	case dberror.CodeStringTooLong:
		return "String is too long."
	case dberror.CodeInvalidText:
		return "String must not contain NUL bytes."
	case dberror.CodeNegativeKey:
		return "ID must be positive."
	case dberror.CodeKeyOutOfRange:
		return "ID is too large."
	case dberror.CodeSyntaxError:
		return "Syntax error. Could not parse statement."
	case dberror.CodeUnrecognizedStatement:
		return fmt.Sprintf("Unrecognized keyword at start of '%s'.", line)
	case dberror.CodeUnrecognizedCommand:
		return fmt.Sprintf("Unrecognized command '%s'", line)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
