package database

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"pagedb/pkg/btree"
	dberror "pagedb/pkg/error"
	"pagedb/pkg/inspect"
	"pagedb/pkg/logging"
	"pagedb/pkg/pager"
	"pagedb/pkg/statement"
	"pagedb/pkg/table"
)

// Meta commands understood by Execute.
const (
	MetaExit      = ".exit"
	MetaBTree     = ".btree"
	MetaConstants = ".constants"
	MetaPages     = ".pages"
	MetaStats     = ".stats"
)

// MetaCommands lists the meta commands with a one-line description.
var MetaCommands = []struct{ Name, Help string }{
	{MetaExit, "flush and exit"},
	{MetaBTree, "print the tree structure"},
	{MetaConstants, "print the page layout constants"},
	{MetaPages, "summarize every page with its blake3 digest"},
	{MetaStats, "show pager and session statistics"},
}

// Config holds the table limits chosen at startup.
type Config struct {
	MaxPages        int
	MaxInternalKeys int
}

// DefaultConfig returns the limits used when no flags are given.
func DefaultConfig() Config {
	return Config{MaxPages: pager.DefaultMaxPages}
}

// Database executes REPL statements against one table.
type Database struct {
	table     *table.Table
	path      string
	formatter *ResultFormatter
	log       *slog.Logger

	mutex sync.RWMutex
	stats *DatabaseStats
}

// DatabaseStats tracks session counters
type DatabaseStats struct {
	QueriesExecuted int64
	RowsInserted    int64
	ErrorCount      int64
	mutex           sync.RWMutex
}

// QueryResult represents the result of executing one line
type QueryResult struct {
	Kind         statement.Kind
	Success      bool
	Columns      []string
	Rows         [][]string
	RowsAffected int
	Message      string
	Output       string // preformatted text from .btree and .constants
	Exit         bool
	Error        error
}

// DatabaseInfo contains database metadata
type DatabaseInfo struct {
	Path            string
	NumPages        int
	MaxPages        int
	CachedPages     int
	RootPage        uint32
	TreeDepth       int
	MaxInternalKeys int
	DiskReads       int64
	DiskWrites      int64
	QueriesExecuted int64
	RowsInserted    int64
	ErrorCount      int64
}

// Open opens (or creates) the database file at path.
func Open(path string, cfg Config) (*Database, error) {
	opts := []table.Option{table.WithMaxInternalKeys(cfg.MaxInternalKeys)}
	if cfg.MaxPages > 0 {
		opts = append(opts, table.WithMaxPages(cfg.MaxPages))
	}

	tbl, err := table.Open(path, opts...)
	if err != nil {
		return nil, err
	}

	return &Database{
		table:     tbl,
		path:      path,
		formatter: NewResultFormatter(),
		log:       logging.WithComponent("database"),
		stats:     &DatabaseStats{},
	}, nil
}

// ExecuteQuery prepares and executes one line of input.
func (db *Database) ExecuteQuery(query string) (QueryResult, error) {
	stmt, err := statement.Prepare(query)
	if err != nil {
		db.recordError()
		return QueryResult{}, err
	}
	return db.Execute(stmt)
}

// Execute runs a prepared statement.
func (db *Database) Execute(stmt statement.Statement) (QueryResult, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	var (
		result QueryResult
		err    error
	)

	switch stmt.Kind {
	case statement.KindEmpty:
		return QueryResult{Kind: stmt.Kind, Success: true}, nil
	case statement.KindInsert:
		result, err = db.executeInsert(stmt)
	case statement.KindSelect:
		result, err = db.executeSelect()
	case statement.KindMeta:
		result, err = db.executeMeta(stmt)
	default:
		err = fmt.Errorf("unknown statement kind %v", stmt.Kind)
	}

	if err != nil {
		db.recordError()
		if dberror.IsFatal(err) {
			logging.WithError(err).Error("statement failed", "statement", stmt.Text)
		} else {
			db.log.Debug("statement rejected", "statement", stmt.Text, "code", dberror.GetCode(err))
		}
		return QueryResult{}, err
	}

	result.Kind = stmt.Kind
	db.recordSuccess(result.RowsAffected)
	db.log.Debug("statement executed", "kind", stmt.Kind.String(), "rows", len(result.Rows))
	return result, nil
}

func (db *Database) executeInsert(stmt statement.Statement) (QueryResult, error) {
	if err := db.table.Insert(stmt.Row); err != nil {
		return QueryResult{}, err
	}
	return db.formatter.FormatInsert(1), nil
}

func (db *Database) executeSelect() (QueryResult, error) {
	rows, err := db.table.Rows()
	if err != nil {
		return QueryResult{}, err
	}
	return db.formatter.FormatSelect(rows), nil
}

func (db *Database) executeMeta(stmt statement.Statement) (QueryResult, error) {
	switch stmt.Meta {
	case MetaExit:
		return QueryResult{Success: true, Exit: true, Message: "Bye."}, nil

	case MetaBTree:
		var b strings.Builder
		b.WriteString("Tree:\n")
		if err := db.table.Tree().Print(&b); err != nil {
			return QueryResult{}, err
		}
		return db.formatter.FormatText(b.String()), nil

	case MetaConstants:
		var b strings.Builder
		b.WriteString("Constants:\n")
		btree.PrintConstants(&b)
		return db.formatter.FormatText(b.String()), nil

	case MetaPages:
		summaries, err := inspect.SummarizeAll(db.table.Pager())
		if err != nil {
			return QueryResult{}, err
		}
		digest, err := inspect.FileDigest(db.table.Pager())
		if err != nil {
			return QueryResult{}, err
		}
		return db.formatter.FormatPages(summaries, digest), nil

	case MetaStats:
		info, err := db.statistics()
		if err != nil {
			return QueryResult{}, err
		}
		return db.formatter.FormatStats(info), nil

	default:
		return QueryResult{}, dberror.New(dberror.ErrCategoryUser, dberror.CodeUnrecognizedCommand, "Unrecognized command").
			WithDetail("%s", stmt.Text).
			WithContext("Execute", "Database")
	}
}

// recordError updates error statistics
func (db *Database) recordError() {
	db.stats.mutex.Lock()
	db.stats.ErrorCount++
	db.stats.mutex.Unlock()
}

// recordSuccess updates success statistics
func (db *Database) recordSuccess(rowsInserted int) {
	db.stats.mutex.Lock()
	db.stats.QueriesExecuted++
	db.stats.RowsInserted += int64(rowsInserted)
	db.stats.mutex.Unlock()
}

// GetStatistics returns current pager, tree and session statistics.
func (db *Database) GetStatistics() (DatabaseInfo, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.statistics()
}

func (db *Database) statistics() (DatabaseInfo, error) {
	tree := db.table.Tree()
	depth, err := tree.Depth()
	if err != nil {
		return DatabaseInfo{}, err
	}

	ps := db.table.Pager().Stats()

	db.stats.mutex.RLock()
	defer db.stats.mutex.RUnlock()

	return DatabaseInfo{
		Path:            db.path,
		NumPages:        int(ps.NumPages),
		MaxPages:        int(ps.MaxPages),
		CachedPages:     ps.CachedPages,
		RootPage:        uint32(tree.RootPageNum()),
		TreeDepth:       depth,
		MaxInternalKeys: tree.MaxInternalKeys(),
		DiskReads:       ps.DiskReads,
		DiskWrites:      ps.DiskWrites,
		QueriesExecuted: db.stats.QueriesExecuted,
		RowsInserted:    db.stats.RowsInserted,
		ErrorCount:      db.stats.ErrorCount,
	}, nil
}

// Path returns the database file path.
func (db *Database) Path() string {
	return db.path
}

// Table returns the underlying table.
func (db *Database) Table() *table.Table {
	return db.table
}

// Close flushes every cached page and closes the file.
func (db *Database) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if err := db.table.Close(); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}
	return nil
}
