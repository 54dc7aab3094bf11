package btree

import (
	"encoding/binary"
	"slices"

	dberror "pagedb/pkg/error"
	"pagedb/pkg/primitives"
)

// splitResult describes a node that was split in two. separator is the
// largest key in left and becomes the parent key between left and right.
type splitResult struct {
	left      primitives.PageNumber
	right     primitives.PageNumber
	separator primitives.Key
}

// pagesNeeded counts the pages an insert into the full leaf at leafNum will
// allocate: one per node that splits, plus one more if the root splits.
func (t *Tree) pagesNeeded(leafNum primitives.PageNumber) (int, error) {
	nd, err := t.node(leafNum)
	if err != nil {
		return 0, err
	}

	needed := 1
	for depth := 0; ; depth++ {
		if nd.IsRoot() {
			return needed + 1, nil
		}
		if err := t.checkDepth(depth, nd.Parent()); err != nil {
			return 0, err
		}

		parent, err := t.node(nd.Parent())
		if err != nil {
			return 0, err
		}
		if int(parent.NumKeys()) < t.maxInternalKeys {
			return needed, nil
		}
		needed++
		nd = parent
	}
}

// ensureCapacity fails with TABLE_FULL, before anything is modified, when
// the split cascade from leafNum would exceed the page limit.
func (t *Tree) ensureCapacity(leafNum primitives.PageNumber) error {
	needed, err := t.pagesNeeded(leafNum)
	if err != nil {
		return err
	}

	next := int(t.pager.UnusedPageNum())
	if next+needed > int(t.pager.MaxPages()) {
		return dberror.New(dberror.ErrCategoryCapacity, dberror.CodeTableFull, "Table full").
			WithDetail("split needs %d pages, %d of %d in use", needed, next, t.pager.MaxPages()).
			WithHint("reopen with a larger --max-pages").
			WithContext("Insert", component)
	}
	return nil
}

// allocate returns a fresh page at the end of the file.
func (t *Tree) allocate() (primitives.PageNumber, Node, error) {
	pageNum := t.pager.UnusedPageNum()
	pg, err := t.pager.GetPage(pageNum)
	if err != nil {
		return 0, Node{}, err
	}
	return pageNum, NodeOf(pg), nil
}

// splitLeafAndInsert divides the full leaf at oldNum plus the new cell
// between oldNum (lower half) and a new right sibling, then updates the
// parent.
func (t *Tree) splitLeafAndInsert(oldNum primitives.PageNumber, cellNum primitives.CellIndex, key primitives.Key, value []byte) error {
	old, err := t.node(oldNum)
	if err != nil {
		return err
	}

	// Gather the MAX+1 cells in key order.
	cells := make([]byte, (LeafNodeMaxCells+1)*LeafNodeCellSize)
	before := int(cellNum) * LeafNodeCellSize
	copy(cells[:before], old.pg[LeafNodeHeaderSize:leafCellOffset(cellNum)])
	newCell := cells[before : before+LeafNodeCellSize]
	putLeafCell(newCell, key, value)
	copy(cells[before+LeafNodeCellSize:], old.pg[leafCellOffset(cellNum):leafCellOffset(LeafNodeMaxCells)])

	newNum, right, err := t.allocate()
	if err != nil {
		return err
	}
	InitializeLeaf(right.pg)
	right.SetParent(old.Parent())
	right.SetNextLeaf(old.NextLeaf())
	old.SetNextLeaf(newNum)

	leftBytes := LeafNodeLeftSplitCount * LeafNodeCellSize
	copy(old.pg[LeafNodeHeaderSize:], cells[:leftBytes])
	copy(right.pg[LeafNodeHeaderSize:], cells[leftBytes:])
	clear(old.pg[LeafNodeHeaderSize+leftBytes:])
	old.SetNumCells(LeafNodeLeftSplitCount)
	right.SetNumCells(LeafNodeRightSplitCount)

	t.log.Debug("leaf split", "left", uint32(oldNum), "right", uint32(newNum))

	return t.insertIntoParent(splitResult{
		left:      oldNum,
		right:     newNum,
		separator: old.LeafKey(LeafNodeLeftSplitCount - 1),
	})
}

// insertIntoParent records a split in the parent of res.left. A parent that
// overflows splits in turn; the loop walks up until a node absorbs the new
// child or the root itself splits.
func (t *Tree) insertIntoParent(res splitResult) error {
	for {
		left, err := t.node(res.left)
		if err != nil {
			return err
		}
		if left.IsRoot() {
			return t.createNewRoot(res)
		}

		parentNum := left.Parent()
		parent, err := t.node(parentNum)
		if err != nil {
			return err
		}
		if parent.IsLeaf() {
			return corruptNode(parentNum, "parent of page %d is a leaf", uint32(res.left))
		}

		next, split, err := t.internalInsert(parentNum, parent, res)
		if err != nil || !split {
			return err
		}
		res = next
	}
}

// childIndex returns the position of child within an internal node.
func childIndex(parentNum primitives.PageNumber, children []primitives.PageNumber, child primitives.PageNumber) (int, error) {
	idx := slices.Index(children, child)
	if idx < 0 {
		return 0, corruptNode(parentNum, "page %d is not a child", uint32(child))
	}
	return idx, nil
}

// internalInsert replaces child res.left of parent with (res.left,
// res.separator, res.right). If the node overflows it is split around its
// middle key, and the returned splitResult must be applied one level up.
func (t *Tree) internalInsert(parentNum primitives.PageNumber, parent Node, res splitResult) (splitResult, bool, error) {
	keys := parent.Keys()
	children := parent.Children()

	idx, err := childIndex(parentNum, children, res.left)
	if err != nil {
		return splitResult{}, false, err
	}

	keys = slices.Insert(keys, idx, res.separator)
	children = slices.Insert(children, idx+1, res.right)

	if len(keys) <= t.maxInternalKeys {
		parent.setEntries(keys, children)
		if err := t.reparent(parentNum, res.right); err != nil {
			return splitResult{}, false, err
		}
		return splitResult{}, false, nil
	}

	mid := len(keys) / 2
	promoted := keys[mid]

	rightNum, right, err := t.allocate()
	if err != nil {
		return splitResult{}, false, err
	}
	InitializeInternal(right.pg)
	right.SetParent(parent.Parent())

	parent.setEntries(keys[:mid], children[:mid+1])
	right.setEntries(keys[mid+1:], children[mid+1:])

	if err := t.reparent(parentNum, children[:mid+1]...); err != nil {
		return splitResult{}, false, err
	}
	if err := t.reparent(rightNum, children[mid+1:]...); err != nil {
		return splitResult{}, false, err
	}

	t.log.Debug("internal split", "left", uint32(parentNum), "right", uint32(rightNum), "promoted", uint32(promoted))

	return splitResult{left: parentNum, right: rightNum, separator: promoted}, true, nil
}

// reparent points each child's parent field at parentNum.
func (t *Tree) reparent(parentNum primitives.PageNumber, children ...primitives.PageNumber) error {
	for _, child := range children {
		nd, err := t.node(child)
		if err != nil {
			return err
		}
		nd.SetParent(parentNum)
	}
	return nil
}

// createNewRoot handles a root split. The root stays on its page: its
// current contents (the left half) move to a new page, and the root page is
// reinitialized as an internal node over the two halves.
func (t *Tree) createNewRoot(res splitResult) error {
	root, err := t.node(res.left)
	if err != nil {
		return err
	}

	leftNum, left, err := t.allocate()
	if err != nil {
		return err
	}
	left.copyFrom(root)
	left.SetRoot(false)
	left.SetParent(res.left)

	if !left.IsLeaf() {
		if err := t.reparent(leftNum, left.Children()...); err != nil {
			return err
		}
	}

	InitializeInternal(root.pg)
	root.SetRoot(true)
	root.SetParent(primitives.InvalidPageNumber)
	root.setEntries(
		[]primitives.Key{res.separator},
		[]primitives.PageNumber{leftNum, res.right},
	)

	if err := t.reparent(res.left, res.right); err != nil {
		return err
	}

	t.log.Info("root split", "root", uint32(res.left), "left", uint32(leftNum), "right", uint32(res.right), "separator", uint32(res.separator))
	return nil
}

func putLeafCell(dst []byte, key primitives.Key, value []byte) {
	binary.LittleEndian.PutUint32(dst[leafNodeKeyOffset:], uint32(key))
	copy(dst[leafNodeValueOffset:], value)
}
