package btree

import (
	"errors"
	"fmt"

	dberror "pagedb/pkg/error"
	"pagedb/pkg/primitives"
)

// ErrEndOfTable is returned when reading from a cursor past the last row.
var ErrEndOfTable = errors.New("cursor is past the end of the table")

// Cursor is a position in the tree: a leaf page and a cell within it.
// It holds no page buffers; each access fetches the page from the pager.
type Cursor struct {
	tree       *Tree
	pageNum    primitives.PageNumber
	cellNum    primitives.CellIndex
	endOfTable bool
}

func (c *Cursor) PageNum() primitives.PageNumber { return c.pageNum }
func (c *Cursor) CellNum() primitives.CellIndex  { return c.cellNum }
func (c *Cursor) EndOfTable() bool               { return c.endOfTable }

func (c *Cursor) leaf() (Node, error) {
	nd, err := c.tree.node(c.pageNum)
	if err != nil {
		return Node{}, err
	}
	if !nd.IsLeaf() {
		return Node{}, corruptNode(c.pageNum, "cursor on %s node", nd.Type())
	}
	return nd, nil
}

func (c *Cursor) current() (Node, error) {
	if c.endOfTable {
		return Node{}, ErrEndOfTable
	}
	nd, err := c.leaf()
	if err != nil {
		return Node{}, err
	}
	if uint32(c.cellNum) >= nd.NumCells() {
		return Node{}, ErrEndOfTable
	}
	return nd, nil
}

// Value returns a view of the row bytes under the cursor. The slice aliases
// the cached page and is only valid until the next tree mutation.
func (c *Cursor) Value() ([]byte, error) {
	nd, err := c.current()
	if err != nil {
		return nil, err
	}
	return nd.LeafValue(c.cellNum), nil
}

// Key returns the key under the cursor.
func (c *Cursor) Key() (primitives.Key, error) {
	nd, err := c.current()
	if err != nil {
		return 0, err
	}
	return nd.LeafKey(c.cellNum), nil
}

// Advance moves to the next cell, following the leaf chain across pages.
func (c *Cursor) Advance() error {
	if c.endOfTable {
		return nil
	}

	nd, err := c.leaf()
	if err != nil {
		return err
	}

	c.cellNum++
	if uint32(c.cellNum) < nd.NumCells() {
		return nil
	}

	next := nd.NextLeaf()
	if !next.IsValid() {
		c.endOfTable = true
		return nil
	}
	return c.skipEmptyLeaves(next)
}

// skipEmptyLeaves moves the cursor to cell 0 of the first non-empty leaf
// starting at pageNum, or to the end of the table.
func (c *Cursor) skipEmptyLeaves(pageNum primitives.PageNumber) error {
	for hops := 0; pageNum.IsValid(); hops++ {
		if err := c.tree.checkDepth(hops, pageNum); err != nil {
			return err
		}

		c.pageNum = pageNum
		c.cellNum = 0
		nd, err := c.leaf()
		if err != nil {
			return err
		}
		if nd.NumCells() > 0 {
			c.endOfTable = false
			return nil
		}
		pageNum = nd.NextLeaf()
	}
	c.endOfTable = true
	return nil
}

// Insert writes (key, value) at the cursor position, which must come from
// Find(key). A full leaf is split, and splits propagate toward the root.
func (c *Cursor) Insert(key primitives.Key, value []byte) error {
	if len(value) != LeafNodeValueSize {
		return fmt.Errorf("value is %d bytes, want %d", len(value), LeafNodeValueSize)
	}

	nd, err := c.leaf()
	if err != nil {
		return err
	}

	numCells := nd.NumCells()
	if uint32(c.cellNum) > numCells {
		return fmt.Errorf("cursor cell %d beyond %d cells", c.cellNum, numCells)
	}
	if uint32(c.cellNum) < numCells && nd.LeafKey(c.cellNum) == key {
		return dberror.New(dberror.ErrCategoryUser, dberror.CodeDuplicateKey, "Duplicate key").
			WithDetail("key %d", key).
			WithContext("Insert", component)
	}

	if numCells >= LeafNodeMaxCells {
		if err := c.tree.ensureCapacity(c.pageNum); err != nil {
			return err
		}
		return c.tree.splitLeafAndInsert(c.pageNum, c.cellNum, key, value)
	}

	if uint32(c.cellNum) < numCells {
		start := leafCellOffset(c.cellNum)
		end := leafCellOffset(primitives.CellIndex(numCells))
		copy(nd.pg[start+LeafNodeCellSize:end+LeafNodeCellSize], nd.pg[start:end])
	}

	nd.SetLeafKey(c.cellNum, key)
	copy(nd.LeafValue(c.cellNum), value)
	nd.SetNumCells(numCells + 1)
	return nil
}
