package primitives

import (
	"os"
	"path/filepath"
)

// Filepath is a type-safe wrapper around the database file path.
//
// Example usage:
//
//	path := primitives.Filepath("/data/users.db")
//	if path.Exists() {
//	    fmt.Println(path.Base())
//	}
type Filepath string

// Dir returns the directory portion of the file path.
func (f Filepath) Dir() string {
	return filepath.Dir(string(f))
}

// String converts the Filepath to a standard string.
func (f Filepath) String() string {
	return string(f)
}

// Base returns the last element of the path (the filename).
func (f Filepath) Base() string {
	return filepath.Base(string(f))
}

// Exists checks whether the file exists on the filesystem.
func (f Filepath) Exists() bool {
	_, err := os.Stat(string(f))
	return err == nil
}

// Remove deletes the file from the filesystem.
// This operation is idempotent - it succeeds if the file doesn't exist.
func (f Filepath) Remove() error {
	if !f.Exists() {
		return nil
	}
	return os.Remove(string(f))
}

// IsEmpty checks whether the filepath is an empty string.
func (f Filepath) IsEmpty() bool {
	return string(f) == ""
}

// MkdirAll creates the parent directory and any necessary parents.
func (f Filepath) MkdirAll(perm os.FileMode) error {
	return os.MkdirAll(f.Dir(), perm)
}

// Clean returns the shortest path name equivalent to the path by purely lexical processing.
func (f Filepath) Clean() Filepath {
	return Filepath(filepath.Clean(string(f)))
}

// Size returns the file length in bytes, or 0 when the file does not exist.
func (f Filepath) Size() (int64, error) {
	info, err := os.Stat(string(f))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
