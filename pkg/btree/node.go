package btree

import (
	"encoding/binary"

	dberror "pagedb/pkg/error"
	"pagedb/pkg/primitives"
	"pagedb/pkg/storage/page"
)

// Node interprets a page buffer as a B-tree node. It holds no state of its
// own; every accessor reads or writes the page directly.
type Node struct {
	pg *page.Page
}

// NodeOf wraps pg without checking its type.
func NodeOf(pg *page.Page) Node {
	return Node{pg: pg}
}

// InitializeLeaf resets pg to an empty, non-root leaf.
func InitializeLeaf(pg *page.Page) Node {
	n := NodeOf(pg)
	n.setType(NodeTypeLeaf)
	n.SetRoot(false)
	n.SetNumCells(0)
	n.SetNextLeaf(primitives.InvalidPageNumber)
	return n
}

// InitializeInternal resets pg to an empty, non-root internal node.
func InitializeInternal(pg *page.Page) Node {
	n := NodeOf(pg)
	n.setType(NodeTypeInternal)
	n.SetRoot(false)
	n.SetNumKeys(0)
	n.SetRightChild(primitives.InvalidPageNumber)
	return n
}

func (n Node) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(n.pg[off : off+4])
}

func (n Node) putU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(n.pg[off:off+4], v)
}

// Common header

func (n Node) Type() NodeType {
	return NodeType(n.pg[nodeTypeOffset])
}

func (n Node) setType(t NodeType) {
	n.pg[nodeTypeOffset] = byte(t)
}

func (n Node) IsLeaf() bool {
	return n.Type() == NodeTypeLeaf
}

func (n Node) IsRoot() bool {
	return n.pg[isRootOffset] != 0
}

func (n Node) SetRoot(root bool) {
	var b byte
	if root {
		b = 1
	}
	n.pg[isRootOffset] = b
}

func (n Node) Parent() primitives.PageNumber {
	return primitives.PageNumber(n.u32(parentPointerOffset))
}

func (n Node) SetParent(p primitives.PageNumber) {
	n.putU32(parentPointerOffset, uint32(p))
}

// validate reports a node whose type byte is neither leaf nor internal, or
// whose count does not fit the page.
func (n Node) validate(pageNum primitives.PageNumber) error {
	switch n.Type() {
	case NodeTypeLeaf:
		if n.NumCells() > LeafNodeMaxCells {
			return corruptNode(pageNum, "leaf has %d cells, max %d", n.NumCells(), LeafNodeMaxCells)
		}
	case NodeTypeInternal:
		if n.NumKeys() > InternalNodeMaxCells {
			return corruptNode(pageNum, "internal node has %d keys, max %d", n.NumKeys(), InternalNodeMaxCells)
		}
	default:
		return corruptNode(pageNum, "unknown node type %d", n.pg[nodeTypeOffset])
	}
	return nil
}

func corruptNode(pageNum primitives.PageNumber, format string, args ...any) error {
	return dberror.New(dberror.ErrCategoryData, dberror.CodeCorruptNode, "corrupt node").
		WithDetail("page %d: "+format, append([]any{uint32(pageNum)}, args...)...).
		WithContext("ReadNode", component)
}

// Leaf accessors

func (n Node) NumCells() uint32 {
	return n.u32(leafNodeNumCellsOffset)
}

func (n Node) SetNumCells(c uint32) {
	n.putU32(leafNodeNumCellsOffset, c)
}

func (n Node) NextLeaf() primitives.PageNumber {
	return primitives.PageNumber(n.u32(leafNodeNextLeafOffset))
}

func (n Node) SetNextLeaf(p primitives.PageNumber) {
	n.putU32(leafNodeNextLeafOffset, uint32(p))
}

func leafCellOffset(i primitives.CellIndex) int {
	return LeafNodeHeaderSize + int(i)*LeafNodeCellSize
}

// LeafCell returns the raw cell bytes (key followed by value).
func (n Node) LeafCell(i primitives.CellIndex) []byte {
	off := leafCellOffset(i)
	return n.pg[off : off+LeafNodeCellSize]
}

func (n Node) LeafKey(i primitives.CellIndex) primitives.Key {
	return primitives.Key(n.u32(leafCellOffset(i) + leafNodeKeyOffset))
}

func (n Node) SetLeafKey(i primitives.CellIndex, k primitives.Key) {
	n.putU32(leafCellOffset(i)+leafNodeKeyOffset, uint32(k))
}

// LeafValue returns a view of the serialized row in cell i.
func (n Node) LeafValue(i primitives.CellIndex) []byte {
	off := leafCellOffset(i) + leafNodeValueOffset
	return n.pg[off : off+LeafNodeValueSize]
}

// Internal accessors

func (n Node) NumKeys() uint32 {
	return n.u32(internalNodeNumKeysOffset)
}

func (n Node) SetNumKeys(k uint32) {
	n.putU32(internalNodeNumKeysOffset, k)
}

func (n Node) RightChild() primitives.PageNumber {
	return primitives.PageNumber(n.u32(internalNodeRightChildOffset))
}

func (n Node) SetRightChild(p primitives.PageNumber) {
	n.putU32(internalNodeRightChildOffset, uint32(p))
}

func internalCellOffset(i primitives.CellIndex) int {
	return InternalNodeHeaderSize + int(i)*InternalNodeCellSize
}

func (n Node) InternalKey(i primitives.CellIndex) primitives.Key {
	return primitives.Key(n.u32(internalCellOffset(i) + internalNodeChildSize))
}

func (n Node) SetInternalKey(i primitives.CellIndex, k primitives.Key) {
	n.putU32(internalCellOffset(i)+internalNodeChildSize, uint32(k))
}

// Child returns child i, where i == NumKeys names the right child.
func (n Node) Child(i primitives.CellIndex) (primitives.PageNumber, error) {
	numKeys := n.NumKeys()
	switch {
	case uint32(i) > numKeys:
		return 0, dberror.New(dberror.ErrCategoryData, dberror.CodeCorruptNode, "Tried to access child out of range").
			WithDetail("child %d > num_keys %d", i, numKeys).
			WithContext("Child", component)
	case uint32(i) == numKeys:
		return n.RightChild(), nil
	default:
		return primitives.PageNumber(n.u32(internalCellOffset(i))), nil
	}
}

// SetChild sets child i, where i == NumKeys names the right child.
func (n Node) SetChild(i primitives.CellIndex, p primitives.PageNumber) {
	if uint32(i) == n.NumKeys() {
		n.SetRightChild(p)
		return
	}
	n.putU32(internalCellOffset(i), uint32(p))
}

// Keys returns the leaf or internal keys in order.
func (n Node) Keys() []primitives.Key {
	var count uint32
	key := n.InternalKey
	if n.IsLeaf() {
		count = n.NumCells()
		key = n.LeafKey
	} else {
		count = n.NumKeys()
	}

	keys := make([]primitives.Key, count)
	for i := range keys {
		keys[i] = key(primitives.CellIndex(i))
	}
	return keys
}

// Children returns all child pointers of an internal node, right child last.
func (n Node) Children() []primitives.PageNumber {
	numKeys := n.NumKeys()
	children := make([]primitives.PageNumber, numKeys+1)
	for i := uint32(0); i < numKeys; i++ {
		children[i] = primitives.PageNumber(n.u32(internalCellOffset(primitives.CellIndex(i))))
	}
	children[numKeys] = n.RightChild()
	return children
}

// setEntries overwrites an internal node's cells. len(children) must be
// len(keys)+1; the last child becomes the right child.
func (n Node) setEntries(keys []primitives.Key, children []primitives.PageNumber) {
	n.SetNumKeys(uint32(len(keys)))
	for i, k := range keys {
		off := internalCellOffset(primitives.CellIndex(i))
		n.putU32(off, uint32(children[i]))
		n.putU32(off+internalNodeChildSize, uint32(k))
	}
	n.SetRightChild(children[len(keys)])
}

// copyFrom overwrites n with the contents of other.
func (n Node) copyFrom(other Node) {
	*n.pg = *other.pg
}
