package inspect

import (
	"fmt"

	"pagedb/pkg/primitives"
	"pagedb/pkg/storage/page"
)

// Snapshot is an in-memory copy of every page of a database file, read
// without going through a pager so the file is never written.
type Snapshot struct {
	Path  primitives.Filepath
	Pages []page.Page
	// Trailing counts bytes past the last whole page.
	Trailing int64
}

// Load reads the file at path into a snapshot.
func Load(path primitives.Filepath) (*Snapshot, error) {
	if !path.Exists() {
		return nil, fmt.Errorf("%s does not exist", path)
	}

	bf, err := page.NewBaseFile(path)
	if err != nil {
		return nil, err
	}
	defer bf.Close()

	size, err := bf.Size()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Path:     path,
		Pages:    make([]page.Page, size/page.PageSize),
		Trailing: size % page.PageSize,
	}
	for i := range snap.Pages {
		if _, err := bf.ReadPageData(primitives.PageNumber(i), &snap.Pages[i]); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// GetPage returns page n of the snapshot.
func (s *Snapshot) GetPage(n primitives.PageNumber) (*page.Page, error) {
	if int(n) >= len(s.Pages) {
		return nil, fmt.Errorf("page %d beyond snapshot of %d pages", n, len(s.Pages))
	}
	return &s.Pages[n], nil
}

// NumPages returns the number of whole pages in the snapshot.
func (s *Snapshot) NumPages() primitives.PageNumber {
	return primitives.PageNumber(len(s.Pages))
}
