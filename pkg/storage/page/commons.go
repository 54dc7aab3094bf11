package page

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"pagedb/pkg/primitives"
)

// BaseFile provides page-granular access to the database file.
// It handles file I/O and page counting; caching and allocation policy
// belong to the pager above it.
//
// Key responsibilities:
//   - Managing the underlying OS file handle
//   - Reading and writing whole pages at page-aligned offsets
//   - Reporting the file length so callers can detect torn files
//
// Thread-safety: reads and writes share a read lock (they target disjoint
// offsets via ReadAt/WriteAt); Close and Sync take the write lock.
type BaseFile struct {
	file     *os.File
	mutex    sync.RWMutex
	filePath primitives.Filepath
}

// NewBaseFile opens filePath for reading and writing, creating it with
// mode 0644 if it does not exist.
//
// Returns:
//   - *BaseFile: the opened file
//   - error: if the path is empty or opening fails
func NewBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath.IsEmpty() {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	file, err := openFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &BaseFile{
		file:     file,
		filePath: filePath,
	}, nil
}

// Size returns the current file length in bytes.
func (bf *BaseFile) Size() (int64, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return fileInfo.Size(), nil
}

// ReadPageData reads page pageNo into dst. Bytes past the end of the file
// are left zero.
//
// Returns:
//   - int: number of bytes actually read from disk
//   - error: if the file is closed or the read fails
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber, dst *Page) (int, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	dst.Clear()
	n, err := bf.file.ReadAt(dst[:], Offset(pageNo))
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("failed to read page %d: %w", pageNo, err)
	}
	return n, nil
}

// WritePageData writes exactly PageSize bytes at the offset of pageNo.
// It does not sync; callers batch writes and call Sync once.
//
// Example:
//
//	var p page.Page
//	// Fill p...
//	if err := bf.WritePageData(5, p[:]); err != nil {
//	    return err
//	}
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}

	if len(pageData) != PageSize {
		return fmt.Errorf("invalid page data size: expected %d, got %d", PageSize, len(pageData))
	}

	n, err := bf.file.WriteAt(pageData, Offset(pageNo))
	if err != nil {
		return fmt.Errorf("failed to write page data: %w", err)
	}
	if n != PageSize {
		return fmt.Errorf("short write on page %d: %d of %d bytes", pageNo, n, PageSize)
	}

	return nil
}

// Sync commits written pages to stable storage.
func (bf *BaseFile) Sync() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}
	if err := bf.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

// Close closes the underlying file handle. After calling Close, all other
// methods return errors. Closing twice is a no-op.
//
// Example:
//
//	bf, _ := NewBaseFile("users.db")
//	defer bf.Close()
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}

	return nil
}

// FilePath returns the path used to open this file.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

func openFile(filename primitives.Filepath) (*os.File, error) {
	file, err := os.OpenFile(string(filename), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %v", filename, err)
	}
	return file, nil
}
