package primitives

import "fmt"

// PageNumber is the index of a page within the database file.
// Page n lives at byte offset n*PageSize.
type PageNumber uint32

// CellIndex is a cell (leaf) or key (internal) position within a node.
type CellIndex uint32

// Key is the B-tree key: the row id.
type Key uint32

// Sentinel values for invalid/unset identifiers
const (
	// InvalidPageNumber marks "no page" in next-leaf pointers. Page 0 is
	// always the root, so it can never be a sibling or a child.
	InvalidPageNumber PageNumber = 0

	// RootPageNumber is where the root node is kept.
	RootPageNumber PageNumber = 0
)

// IsValid reports whether p refers to a non-root page, the only kind a
// sibling pointer can name.
func (p PageNumber) IsValid() bool {
	return p != InvalidPageNumber
}

func (p PageNumber) String() string {
	return fmt.Sprintf("page %d", uint32(p))
}
