package inspect

import (
	"os"
	"path/filepath"
	"testing"

	"pagedb/pkg/btree"
	"pagedb/pkg/primitives"
	"pagedb/pkg/row"
	"pagedb/pkg/storage/page"
	"pagedb/pkg/table"
)

func buildTable(t *testing.T, rows int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inspect.db")
	tbl, err := table.Open(path)
	if err != nil {
		t.Fatalf("table.Open: %v", err)
	}
	for id := 1; id <= rows; id++ {
		if err := tbl.Insert(row.Row{ID: uint32(id), Username: "u", Email: "e"}); err != nil {
			t.Fatalf("Insert(%d): %v", id, err)
		}
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestLoadAndSummarize(t *testing.T) {
	path := buildTable(t, 14)

	snap, err := Load(primitives.Filepath(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.NumPages() != 3 || snap.Trailing != 0 {
		t.Fatalf("pages = %d trailing = %d", snap.NumPages(), snap.Trailing)
	}

	summaries, err := SummarizeAll(snap)
	if err != nil {
		t.Fatalf("SummarizeAll: %v", err)
	}

	root := summaries[0]
	if root.Type != btree.NodeTypeInternal || !root.IsRoot || root.Count != 1 {
		t.Errorf("root summary = %+v", root)
	}
	if root.MinKey != 7 || root.MaxKey != 7 {
		t.Errorf("root keys = %d..%d", root.MinKey, root.MaxKey)
	}

	var cells uint32
	for _, s := range summaries[1:] {
		if s.Type != btree.NodeTypeLeaf || s.IsRoot || s.Parent != 0 {
			t.Errorf("leaf summary = %+v", s)
		}
		cells += s.Count
	}
	if cells != 14 {
		t.Errorf("leaf cells = %d, want 14", cells)
	}

	r := root.Row()
	if len(r) != len(Columns()) {
		t.Fatalf("row has %d fields, %d columns", len(r), len(Columns()))
	}
	if r[1] != "internal" || r[5] != "7..7" {
		t.Errorf("root row = %v", r)
	}
}

func TestSummarize_UnknownPage(t *testing.T) {
	var pg page.Page
	s := Summarize(4, &pg)
	if s.Type.String() != "unknown" || s.Count != 0 {
		t.Errorf("zero page summary = %+v", s)
	}
	if got := s.Row()[5]; got != "-" {
		t.Errorf("keys column = %q", got)
	}
}

func TestSummarize_ClampsCorruptCount(t *testing.T) {
	var pg page.Page
	nd := btree.InitializeLeaf(&pg)
	nd.SetNumCells(60000)

	s := Summarize(1, &pg)
	if s.Count != btree.LeafNodeMaxCells {
		t.Errorf("count = %d, want %d", s.Count, btree.LeafNodeMaxCells)
	}
	if s.UsedBytes > page.PageSize {
		t.Errorf("used bytes %d exceed the page", s.UsedBytes)
	}
}

func TestDigests(t *testing.T) {
	var a, b page.Page
	b[100] = 1

	if Digest(&a) == Digest(&b) {
		t.Error("different pages should hash differently")
	}
	if len(ShortDigest(&a)) != 16 {
		t.Errorf("short digest = %q", ShortDigest(&a))
	}

	path := buildTable(t, 5)
	snap1, err := Load(primitives.Filepath(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap2, err := Load(primitives.Filepath(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	d1, err := FileDigest(snap1)
	if err != nil {
		t.Fatalf("FileDigest: %v", err)
	}
	d2, _ := FileDigest(snap2)
	if d1 != d2 || len(d1) != 64 {
		t.Errorf("file digests differ or malformed: %s %s", d1, d2)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(primitives.Filepath(filepath.Join(t.TempDir(), "missing.db"))); err == nil {
		t.Error("Load of missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "torn.db")
	if err := os.WriteFile(path, make([]byte, page.PageSize+5), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	snap, err := Load(primitives.Filepath(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.NumPages() != 1 || snap.Trailing != 5 {
		t.Errorf("pages = %d trailing = %d", snap.NumPages(), snap.Trailing)
	}
	if _, err := snap.GetPage(1); err == nil {
		t.Error("GetPage past end should fail")
	}
}
