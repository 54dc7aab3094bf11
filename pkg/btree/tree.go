package btree

import (
	"errors"
	"fmt"
	"log/slog"

	dberror "pagedb/pkg/error"
	"pagedb/pkg/logging"
	"pagedb/pkg/primitives"
	"pagedb/pkg/storage/page"
)

const component = "BTree"

// Pager is the page source a tree is built on. *pager.Pager satisfies it.
type Pager interface {
	GetPage(n primitives.PageNumber) (*page.Page, error)
	UnusedPageNum() primitives.PageNumber
	NumPages() primitives.PageNumber
	MaxPages() primitives.PageNumber
}

// Options tune a tree. The zero value uses the full page fan-out.
type Options struct {
	// MaxInternalKeys caps the keys per internal node. Zero means
	// InternalNodeMaxCells; values are clamped to [MinInternalKeys, InternalNodeMaxCells].
	MaxInternalKeys int
}

// Tree is a B+tree whose nodes live on pager pages.
type Tree struct {
	pager           Pager
	rootPageNum     primitives.PageNumber
	maxInternalKeys int
	log             *slog.Logger
}

// Open attaches a tree to p. An empty file gets a fresh root leaf on page 0;
// otherwise the root is located and checked.
func Open(p Pager, opts Options) (*Tree, error) {
	t := &Tree{
		pager:           p,
		maxInternalKeys: clampInternalKeys(opts.MaxInternalKeys),
		log:             logging.WithComponent("btree"),
	}

	if p.NumPages() == 0 {
		pg, err := p.GetPage(primitives.RootPageNumber)
		if err != nil {
			return nil, err
		}
		root := InitializeLeaf(pg)
		root.SetRoot(true)
		t.rootPageNum = primitives.RootPageNumber
		t.log.Info("initialized empty tree")
		return t, nil
	}

	rootPageNum, err := t.findRoot()
	if err != nil {
		return nil, err
	}
	t.rootPageNum = rootPageNum
	return t, nil
}

func clampInternalKeys(n int) int {
	switch {
	case n == 0:
		return InternalNodeMaxCells
	case n < MinInternalKeys:
		return MinInternalKeys
	case n > InternalNodeMaxCells:
		return InternalNodeMaxCells
	default:
		return n
	}
}

// findRoot returns page 0 when it is marked as the root, which is always the
// case for files written here. Otherwise it scans for the flagged page.
func (t *Tree) findRoot() (primitives.PageNumber, error) {
	root, err := t.node(primitives.RootPageNumber)
	if err != nil {
		return 0, err
	}
	if root.IsRoot() {
		return primitives.RootPageNumber, nil
	}

	for n := primitives.PageNumber(1); n < t.pager.NumPages(); n++ {
		candidate, err := t.node(n)
		if err != nil {
			return 0, err
		}
		if candidate.IsRoot() {
			t.log.Warn("root is not on page 0", "root", uint32(n))
			return n, nil
		}
	}

	return 0, dberror.New(dberror.ErrCategoryData, dberror.CodeCorruptFile, "no root node found").
		WithDetail("scanned %d pages", t.pager.NumPages()).
		WithContext("Open", component)
}

// node fetches page n and checks that it holds a valid node.
func (t *Tree) node(n primitives.PageNumber) (Node, error) {
	pg, err := t.pager.GetPage(n)
	if err != nil {
		return Node{}, err
	}
	nd := NodeOf(pg)
	if err := nd.validate(n); err != nil {
		return Node{}, err
	}
	return nd, nil
}

// Node returns the node stored on page n.
func (t *Tree) Node(n primitives.PageNumber) (Node, error) {
	return t.node(n)
}

// RootPageNum returns the page holding the root node.
func (t *Tree) RootPageNum() primitives.PageNumber {
	return t.rootPageNum
}

// MaxInternalKeys returns the internal fan-out in effect.
func (t *Tree) MaxInternalKeys() int {
	return t.maxInternalKeys
}

// Pager returns the page source.
func (t *Tree) Pager() Pager {
	return t.pager
}

// Find positions a cursor at key, or at the cell where key would be
// inserted. That cell may be one past the last cell of the leaf.
func (t *Tree) Find(key primitives.Key) (*Cursor, error) {
	pageNum := t.rootPageNum
	for depth := 0; ; depth++ {
		if err := t.checkDepth(depth, pageNum); err != nil {
			return nil, err
		}

		nd, err := t.node(pageNum)
		if err != nil {
			return nil, err
		}

		if nd.IsLeaf() {
			return &Cursor{
				tree:    t,
				pageNum: pageNum,
				cellNum: leafSearch(nd, key),
			}, nil
		}

		child, err := nd.Child(internalSearch(nd, key))
		if err != nil {
			return nil, err
		}
		pageNum = child
	}
}

// Start positions a cursor at the smallest key.
func (t *Tree) Start() (*Cursor, error) {
	pageNum := t.rootPageNum
	for depth := 0; ; depth++ {
		if err := t.checkDepth(depth, pageNum); err != nil {
			return nil, err
		}

		nd, err := t.node(pageNum)
		if err != nil {
			return nil, err
		}

		if nd.IsLeaf() {
			c := &Cursor{
				tree:       t,
				pageNum:    pageNum,
				cellNum:    0,
				endOfTable: nd.NumCells() == 0,
			}
			if c.endOfTable && nd.NextLeaf().IsValid() {
				// Only the root leaf can be empty, but follow the chain anyway.
				if err := c.skipEmptyLeaves(nd.NextLeaf()); err != nil {
					return nil, err
				}
			}
			return c, nil
		}

		child, err := nd.Child(0)
		if err != nil {
			return nil, err
		}
		pageNum = child
	}
}

// checkDepth stops descents that revisit pages, which only a corrupt file
// can cause.
func (t *Tree) checkDepth(depth int, pageNum primitives.PageNumber) error {
	if depth > int(t.pager.NumPages()) {
		return corruptNode(pageNum, "descent deeper than %d pages", t.pager.NumPages())
	}
	return nil
}

// Insert adds value under key. Duplicate keys are rejected without
// modifying the tree.
func (t *Tree) Insert(key primitives.Key, value []byte) error {
	c, err := t.Find(key)
	if err != nil {
		return err
	}
	return c.Insert(key, value)
}

// Get returns a copy of the value stored under key.
func (t *Tree) Get(key primitives.Key) ([]byte, bool, error) {
	c, err := t.Find(key)
	if err != nil {
		return nil, false, err
	}
	k, err := c.Key()
	if errors.Is(err, ErrEndOfTable) {
		return nil, false, nil
	}
	if err != nil || k != key {
		return nil, false, err
	}

	v, err := c.Value()
	if err != nil {
		return nil, false, err
	}
	return append([]byte(nil), v...), true, nil
}

// MaxKey returns the largest key in the subtree rooted at pageNum.
func (t *Tree) MaxKey(pageNum primitives.PageNumber) (primitives.Key, error) {
	for depth := 0; ; depth++ {
		if err := t.checkDepth(depth, pageNum); err != nil {
			return 0, err
		}

		nd, err := t.node(pageNum)
		if err != nil {
			return 0, err
		}
		if nd.IsLeaf() {
			if nd.NumCells() == 0 {
				return 0, fmt.Errorf("page %d: empty leaf has no max key", pageNum)
			}
			return nd.LeafKey(primitives.CellIndex(nd.NumCells() - 1)), nil
		}
		pageNum = nd.RightChild()
	}
}

// Depth returns the number of levels, counting the leaves.
func (t *Tree) Depth() (int, error) {
	pageNum := t.rootPageNum
	for depth := 0; ; depth++ {
		if err := t.checkDepth(depth, pageNum); err != nil {
			return 0, err
		}
		nd, err := t.node(pageNum)
		if err != nil {
			return 0, err
		}
		if nd.IsLeaf() {
			return depth + 1, nil
		}
		pageNum = nd.RightChild()
	}
}
