// Package statement turns a line of REPL input into a prepared statement.
//
// The accepted language is tiny:
//
//	insert <id> <username> <email>
//	select
//	.<meta-command>
//
// Words are separated by whitespace; keywords are case sensitive.
package statement

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	dberror "pagedb/pkg/error"
	"pagedb/pkg/row"
)

// Kind identifies what a prepared statement does.
type Kind int

const (
	KindEmpty Kind = iota
	KindInsert
	KindSelect
	KindMeta
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindSelect:
		return "select"
	case KindMeta:
		return "meta"
	default:
		return "empty"
	}
}

// Statement is a parsed and validated line of input.
type Statement struct {
	Kind Kind
	Row  row.Row // KindInsert
	Meta string  // KindMeta, including the leading dot
	Text string  // the trimmed input line
}

var statementLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Meta", Pattern: `\.\S*`},
	{Name: "Word", Pattern: `\S+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type command struct {
	Meta   string        `parser:"  @Meta"`
	Insert *insertClause `parser:"| 'insert' @@"`
	Select bool          `parser:"| @'select'"`
}

type insertClause struct {
	ID       string `parser:"@(Word | Meta)"`
	Username string `parser:"@(Word | Meta)"`
	Email    string `parser:"@(Word | Meta)"`
}

var parser = participle.MustBuild[command](
	participle.Lexer(statementLexer),
	participle.Elide("Whitespace"),
)

// Prepare parses line. Errors are user-category DBErrors:
// SYNTAX_ERROR for a malformed insert or select, UNRECOGNIZED_COMMAND for
// a bad meta command, UNRECOGNIZED_STATEMENT for anything else, and the row
// validation codes for bad insert values.
func Prepare(line string) (Statement, error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return Statement{Kind: KindEmpty}, nil
	}

	cmd, err := parser.ParseString("", text)
	if err != nil {
		return Statement{}, classify(text, err)
	}

	switch {
	case cmd.Meta != "":
		return Statement{Kind: KindMeta, Meta: cmd.Meta, Text: text}, nil
	case cmd.Select:
		return Statement{Kind: KindSelect, Text: text}, nil
	case cmd.Insert != nil:
		r, err := cmd.Insert.row(text)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: KindInsert, Row: r, Text: text}, nil
	default:
		return Statement{}, unrecognized(text)
	}
}

func (c *insertClause) row(text string) (row.Row, error) {
	id, err := strconv.ParseInt(c.ID, 10, 64)
	if err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return row.Row{}, syntaxError().WithDetail("id %q is not an integer", c.ID)
		}
		id = math.MaxInt64
		if strings.HasPrefix(c.ID, "-") {
			id = math.MinInt64
		}
	}
	return row.New(id, c.Username, c.Email)
}

// classify maps a parse failure to the error the REPL reports, based on the
// first word of the input.
func classify(text string, cause error) error {
	first := strings.Fields(text)[0]

	var err *dberror.DBError
	switch {
	case strings.HasPrefix(first, "."):
		err = dberror.New(dberror.ErrCategoryUser, dberror.CodeUnrecognizedCommand, "Unrecognized command")
	case first == "insert" || first == "select":
		err = syntaxError()
	default:
		return unrecognized(text)
	}
	err.Detail = text
	err.Cause = cause
	return err.WithContext("Prepare", "Statement")
}

func syntaxError() *dberror.DBError {
	return dberror.New(dberror.ErrCategoryUser, dberror.CodeSyntaxError, "Syntax error. Could not parse statement").
		WithContext("Prepare", "Statement")
}

func unrecognized(text string) *dberror.DBError {
	err := dberror.New(dberror.ErrCategoryUser, dberror.CodeUnrecognizedStatement, "Unrecognized keyword")
	err.Detail = text
	return err.WithContext("Prepare", "Statement")
}
