package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	dberror "pagedb/pkg/error"
	"pagedb/pkg/statement"
)

func setupDB(t *testing.T, cfg Config) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func mustExec(t *testing.T, db *Database, query string) QueryResult {
	t.Helper()
	result, err := db.ExecuteQuery(query)
	if err != nil {
		t.Fatalf("ExecuteQuery(%q): %v", query, err)
	}
	return result
}

func TestInsertAndSelect(t *testing.T) {
	db, _ := setupDB(t, DefaultConfig())

	result := mustExec(t, db, "insert 1 user1 person1@example.com")
	if result.Kind != statement.KindInsert || result.Message != "Executed." {
		t.Errorf("unexpected insert result %+v", result)
	}

	result = mustExec(t, db, "select")
	if result.Kind != statement.KindSelect {
		t.Errorf("expected select kind, got %v", result.Kind)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	if got := strings.Join(result.Rows[0], ","); got != "1,user1,person1@example.com" {
		t.Errorf("unexpected row %q", got)
	}
}

func TestEmptyLine(t *testing.T) {
	db, _ := setupDB(t, DefaultConfig())

	result := mustExec(t, db, "   ")
	if result.Kind != statement.KindEmpty || !result.Success {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  *dberror.DBError
	}{
		{"syntax", "insert 1 onlyname", dberror.ErrSyntax},
		{"negative id", "insert -1 a b", dberror.ErrNegativeKey},
		{"long username", "insert 1 " + strings.Repeat("a", 33) + " b", dberror.ErrStringTooLong},
		{"unknown keyword", "update 1", dberror.ErrUnrecognizedStatement},
		{"unknown meta", ".tables", dberror.ErrUnrecognizedCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := setupDB(t, DefaultConfig())
			_, err := db.ExecuteQuery(tt.query)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %s, got %v", tt.want.Code, err)
			}
			info, err := db.GetStatistics()
			if err != nil {
				t.Fatalf("GetStatistics: %v", err)
			}
			if info.ErrorCount != 1 {
				t.Errorf("expected ErrorCount=1, got %d", info.ErrorCount)
			}
		})
	}
}

func TestDuplicateKey(t *testing.T) {
	db, _ := setupDB(t, DefaultConfig())

	mustExec(t, db, "insert 1 a a@x")
	_, err := db.ExecuteQuery("insert 1 b b@x")
	if !errors.Is(err, dberror.ErrDuplicateKey) {
		t.Fatalf("expected DUPLICATE_KEY, got %v", err)
	}

	result := mustExec(t, db, "select")
	if len(result.Rows) != 1 || result.Rows[0][1] != "a" {
		t.Errorf("original row should be untouched, got %v", result.Rows)
	}
}

func TestTableFull(t *testing.T) {
	db, _ := setupDB(t, Config{MaxPages: 2})

	var err error
	inserted := 0
	for i := 1; i <= 20; i++ {
		_, err = db.ExecuteQuery(fmt.Sprintf("insert %d u%d e%d", i, i, i))
		if err != nil {
			break
		}
		inserted++
	}
	if !errors.Is(err, dberror.ErrTableFull) {
		t.Fatalf("expected TABLE_FULL, got %v", err)
	}
	if dberror.IsFatal(err) {
		t.Error("TABLE_FULL should not end the session")
	}

	result := mustExec(t, db, "select")
	if len(result.Rows) != inserted {
		t.Errorf("expected %d rows after TABLE_FULL, got %d", inserted, len(result.Rows))
	}
}

func TestMetaExit(t *testing.T) {
	db, _ := setupDB(t, DefaultConfig())

	result := mustExec(t, db, ".exit")
	if !result.Exit {
		t.Error("expected Exit=true")
	}
}

func TestMetaBTree(t *testing.T) {
	db, _ := setupDB(t, DefaultConfig())

	for _, id := range []int{3, 1, 2} {
		mustExec(t, db, fmt.Sprintf("insert %d user%d person%d@example.com", id, id, id))
	}

	result := mustExec(t, db, ".btree")
	want := "Tree:\n- leaf (size 3)\n  - 1\n  - 2\n  - 3\n"
	if result.Output != want {
		t.Errorf("unexpected tree output:\n%s\nwant:\n%s", result.Output, want)
	}
}

func TestMetaConstants(t *testing.T) {
	db, _ := setupDB(t, DefaultConfig())

	result := mustExec(t, db, ".constants")
	for _, line := range []string{
		"Constants:",
		"ROW_SIZE: 291",
		"LEAF_NODE_CELL_SIZE: 295",
		"LEAF_NODE_MAX_CELLS: 13",
	} {
		if !strings.Contains(result.Output, line+"\n") {
			t.Errorf("output missing %q:\n%s", line, result.Output)
		}
	}
}

func TestMetaPages(t *testing.T) {
	db, _ := setupDB(t, DefaultConfig())

	for i := 1; i <= 14; i++ {
		mustExec(t, db, fmt.Sprintf("insert %d u%d e%d", i, i, i))
	}

	result := mustExec(t, db, ".pages")
	if len(result.Rows) != 3 {
		t.Fatalf("expected 3 pages after the first split, got %d", len(result.Rows))
	}
	if result.Rows[0][1] != "internal" {
		t.Errorf("page 0 should be the internal root, got %q", result.Rows[0][1])
	}
}

func TestMetaStats(t *testing.T) {
	db, _ := setupDB(t, Config{MaxPages: 50})

	mustExec(t, db, "insert 1 a a@x")
	mustExec(t, db, "insert 2 b b@x")

	info, err := db.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if info.MaxPages != 50 {
		t.Errorf("expected MaxPages=50, got %d", info.MaxPages)
	}
	if info.RowsInserted != 2 || info.QueriesExecuted != 2 {
		t.Errorf("unexpected counters %+v", info)
	}
	if info.TreeDepth != 1 || info.RootPage != 0 {
		t.Errorf("single leaf tree expected, got depth %d root %d", info.TreeDepth, info.RootPage)
	}

	result := mustExec(t, db, ".stats")
	if len(result.Rows) == 0 || result.Columns[0] != "stat" {
		t.Errorf("unexpected stats result %+v", result)
	}
}

func TestPersistence(t *testing.T) {
	db, path := setupDB(t, DefaultConfig())

	for i := 1; i <= 30; i++ {
		mustExec(t, db, fmt.Sprintf("insert %d u%d e%d@x", i, i, i))
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, DefaultConfig())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	result := mustExec(t, reopened, "select")
	if len(result.Rows) != 30 {
		t.Fatalf("expected 30 rows after reopen, got %d", len(result.Rows))
	}
	if result.Rows[29][0] != "30" {
		t.Errorf("last row should be id 30, got %v", result.Rows[29])
	}
}
