package primitives

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilepath_String(t *testing.T) {
	path := Filepath("/data/users.db")
	if path.String() != "/data/users.db" {
		t.Errorf("expected '/data/users.db', got '%s'", path.String())
	}
}

func TestFilepath_Base(t *testing.T) {
	path := Filepath("/data/tables/users.db")
	if base := path.Base(); base != "users.db" {
		t.Errorf("expected 'users.db', got '%s'", base)
	}
}

func TestFilepath_Dir(t *testing.T) {
	path := Filepath("/data/tables/users.db")
	expected := filepath.Dir("/data/tables/users.db")
	if dir := path.Dir(); dir != expected {
		t.Errorf("expected '%s', got '%s'", expected, dir)
	}
}

func TestFilepath_IsEmpty(t *testing.T) {
	tests := []struct {
		path     Filepath
		expected bool
	}{
		{Filepath(""), true},
		{Filepath("/data/users.db"), false},
	}

	for _, tt := range tests {
		if got := tt.path.IsEmpty(); got != tt.expected {
			t.Errorf("IsEmpty(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestFilepath_ExistsAndRemove(t *testing.T) {
	path := Filepath(filepath.Join(t.TempDir(), "test.db"))

	if path.Exists() {
		t.Fatal("file should not exist yet")
	}
	if err := path.Remove(); err != nil {
		t.Fatalf("removing a missing file should succeed: %v", err)
	}

	if err := os.WriteFile(path.String(), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !path.Exists() {
		t.Fatal("file should exist")
	}
	if err := path.Remove(); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	if path.Exists() {
		t.Error("file should be gone after Remove")
	}
}

func TestFilepath_Size(t *testing.T) {
	path := Filepath(filepath.Join(t.TempDir(), "size.db"))

	size, err := path.Size()
	if err != nil {
		t.Fatalf("Size on missing file: %v", err)
	}
	if size != 0 {
		t.Errorf("missing file size = %d, want 0", size)
	}

	if err := os.WriteFile(path.String(), make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	size, err = path.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 4096 {
		t.Errorf("size = %d, want 4096", size)
	}
}

func TestPageNumber_IsValid(t *testing.T) {
	if InvalidPageNumber.IsValid() {
		t.Error("InvalidPageNumber should not be valid")
	}
	if !PageNumber(3).IsValid() {
		t.Error("page 3 should be valid")
	}
	if PageNumber(3).String() != "page 3" {
		t.Errorf("unexpected String(): %s", PageNumber(3).String())
	}
}
