package page

import (
	"path/filepath"
	"testing"

	"pagedb/pkg/primitives"
)

func setupBaseFile(t *testing.T) (*BaseFile, primitives.Filepath) {
	t.Helper()
	path := primitives.Filepath(filepath.Join(t.TempDir(), "test.db"))
	bf, err := NewBaseFile(path)
	if err != nil {
		t.Fatalf("NewBaseFile: %v", err)
	}
	t.Cleanup(func() { bf.Close() })
	return bf, path
}

func TestNewBaseFile_EmptyPath(t *testing.T) {
	if _, err := NewBaseFile(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestBaseFile_WriteRead(t *testing.T) {
	bf, _ := setupBaseFile(t)

	var p Page
	p[0] = 0xAB
	p[PageSize-1] = 0xCD
	if err := bf.WritePageData(2, p[:]); err != nil {
		t.Fatalf("WritePageData: %v", err)
	}
	if err := bf.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	size, err := bf.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 3*PageSize {
		t.Errorf("size = %d, want %d", size, 3*PageSize)
	}

	var got Page
	n, err := bf.ReadPageData(2, &got)
	if err != nil {
		t.Fatalf("ReadPageData: %v", err)
	}
	if n != PageSize {
		t.Errorf("read %d bytes", n)
	}
	if got != p {
		t.Error("page contents differ after round trip")
	}

	// Page 0 was never written and reads back as zeros.
	got[10] = 1
	if _, err := bf.ReadPageData(0, &got); err != nil {
		t.Fatalf("ReadPageData(0): %v", err)
	}
	if got != (Page{}) {
		t.Error("hole should read back as zeros")
	}
}

func TestBaseFile_ReadPastEnd(t *testing.T) {
	bf, _ := setupBaseFile(t)

	var got Page
	got[0] = 9
	n, err := bf.ReadPageData(5, &got)
	if err != nil {
		t.Fatalf("reading past EOF should not fail: %v", err)
	}
	if n != 0 || got != (Page{}) {
		t.Errorf("expected empty zeroed read, n=%d", n)
	}
}

func TestBaseFile_InvalidSize(t *testing.T) {
	bf, _ := setupBaseFile(t)
	if err := bf.WritePageData(0, make([]byte, 10)); err == nil {
		t.Error("expected error for short page data")
	}
}

func TestBaseFile_Closed(t *testing.T) {
	bf, path := setupBaseFile(t)

	if err := bf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bf.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
	if bf.FilePath() != path {
		t.Errorf("FilePath = %s", bf.FilePath())
	}

	var p Page
	if _, err := bf.ReadPageData(0, &p); err == nil {
		t.Error("read on closed file should fail")
	}
	if err := bf.WritePageData(0, p[:]); err == nil {
		t.Error("write on closed file should fail")
	}
	if _, err := bf.Size(); err == nil {
		t.Error("size on closed file should fail")
	}
	if err := bf.Sync(); err == nil {
		t.Error("sync on closed file should fail")
	}
}
