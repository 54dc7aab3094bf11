package database

import (
	"fmt"
	"strconv"

	"pagedb/pkg/inspect"
	"pagedb/pkg/row"
)

// RowColumns are the column headers of a select result.
var RowColumns = []string{"id", "username", "email"}

// ResultFormatter handles formatting of execution results
type ResultFormatter struct{}

// NewResultFormatter creates a new instance of ResultFormatter
func NewResultFormatter() *ResultFormatter {
	return &ResultFormatter{}
}

// FormatSelect converts table rows to the standard result shape
func (f *ResultFormatter) FormatSelect(rows []row.Row) QueryResult {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{strconv.FormatUint(uint64(r.ID), 10), r.Username, r.Email})
	}

	return QueryResult{
		Success: true,
		Columns: RowColumns,
		Rows:    out,
		Message: fmt.Sprintf("%d row(s) returned", len(out)),
	}
}

// FormatInsert reports a successful insert
func (f *ResultFormatter) FormatInsert(rowsAffected int) QueryResult {
	return QueryResult{
		Success:      true,
		RowsAffected: rowsAffected,
		Message:      "Executed.",
	}
}

// FormatText wraps preformatted meta command output
func (f *ResultFormatter) FormatText(text string) QueryResult {
	return QueryResult{
		Success: true,
		Output:  text,
	}
}

// FormatPages renders page summaries as a table
func (f *ResultFormatter) FormatPages(summaries []inspect.PageSummary, fileDigest string) QueryResult {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, s.Row())
	}
	return QueryResult{
		Success: true,
		Columns: inspect.Columns(),
		Rows:    rows,
		Message: fmt.Sprintf("%d page(s), blake3 %s", len(rows), fileDigest),
	}
}

// FormatStats renders statistics as name/value rows
func (f *ResultFormatter) FormatStats(info DatabaseInfo) QueryResult {
	itoa := func(n int64) string { return strconv.FormatInt(n, 10) }
	return QueryResult{
		Success: true,
		Columns: []string{"stat", "value"},
		Rows: [][]string{
			{"path", info.Path},
			{"pages", fmt.Sprintf("%d/%d", info.NumPages, info.MaxPages)},
			{"cached pages", itoa(int64(info.CachedPages))},
			{"root page", itoa(int64(info.RootPage))},
			{"tree depth", itoa(int64(info.TreeDepth))},
			{"internal fan-out", itoa(int64(info.MaxInternalKeys))},
			{"disk reads", itoa(info.DiskReads)},
			{"disk writes", itoa(info.DiskWrites)},
			{"statements", itoa(info.QueriesExecuted)},
			{"rows inserted", itoa(info.RowsInserted)},
			{"errors", itoa(info.ErrorCount)},
		},
	}
}
