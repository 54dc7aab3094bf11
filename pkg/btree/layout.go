// Package btree stores fixed-size rows in a B+tree laid out directly on
// pager pages. Leaves hold (key, row) cells sorted by key and are chained
// left to right; internal nodes hold (child, key) cells plus a right child.
//
// All node fields are read and written in place on the page buffer, little-endian.
//
//	common header
//	  [0]      node type  (1 = internal, 2 = leaf)
//	  [1]      is root
//	  [2, 6)   parent page
//	leaf header
//	  [6, 10)  num cells
//	  [10, 14) next leaf (0 = none)
//	  cells    key(4) + row(291)
//	internal header
//	  [6, 10)  num keys
//	  [10, 14) right child
//	  cells    child(4) + key(4)
package btree

import (
	"pagedb/pkg/row"
	"pagedb/pkg/storage/page"
)

// NodeType is the first byte of every node. A zeroed page has no valid type.
type NodeType uint8

const (
	NodeTypeInternal NodeType = 0x01
	NodeTypeLeaf     NodeType = 0x02
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeInternal:
		return "internal"
	case NodeTypeLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// Common node header layout
const (
	nodeTypeSize         = 1
	nodeTypeOffset       = 0
	isRootSize           = 1
	isRootOffset         = nodeTypeOffset + nodeTypeSize
	parentPointerSize    = 4
	parentPointerOffset  = isRootOffset + isRootSize
	CommonNodeHeaderSize = nodeTypeSize + isRootSize + parentPointerSize
)

// Leaf node layout
const (
	leafNodeNumCellsSize   = 4
	leafNodeNumCellsOffset = CommonNodeHeaderSize
	leafNodeNextLeafSize   = 4
	leafNodeNextLeafOffset = leafNodeNumCellsOffset + leafNodeNumCellsSize
	LeafNodeHeaderSize     = CommonNodeHeaderSize + leafNodeNumCellsSize + leafNodeNextLeafSize

	leafNodeKeySize     = 4
	leafNodeKeyOffset   = 0
	LeafNodeValueSize   = row.RowSize
	leafNodeValueOffset = leafNodeKeyOffset + leafNodeKeySize
	LeafNodeCellSize    = leafNodeKeySize + LeafNodeValueSize

	LeafNodeSpaceForCells = page.PageSize - LeafNodeHeaderSize
	LeafNodeMaxCells      = LeafNodeSpaceForCells / LeafNodeCellSize

	// A full leaf plus the incoming cell is divided between the old node
	// (left) and a new node (right).
	LeafNodeRightSplitCount = (LeafNodeMaxCells + 1) / 2
	LeafNodeLeftSplitCount  = (LeafNodeMaxCells + 1) - LeafNodeRightSplitCount
)

// Internal node layout
const (
	internalNodeNumKeysSize      = 4
	internalNodeNumKeysOffset    = CommonNodeHeaderSize
	internalNodeRightChildSize   = 4
	internalNodeRightChildOffset = internalNodeNumKeysOffset + internalNodeNumKeysSize
	InternalNodeHeaderSize       = CommonNodeHeaderSize + internalNodeNumKeysSize + internalNodeRightChildSize

	internalNodeChildSize = 4
	internalNodeKeySize   = 4
	InternalNodeCellSize  = internalNodeChildSize + internalNodeKeySize

	InternalNodeMaxCells = (page.PageSize - InternalNodeHeaderSize) / InternalNodeCellSize

	// MinInternalKeys is the smallest fan-out a tree accepts. Below two
	// keys an internal split would leave one side without a separator.
	MinInternalKeys = 2
)

// Constant is a named layout value, listed by the .constants command.
type Constant struct {
	Name  string
	Value int
}

// Constants returns the layout values in display order.
func Constants() []Constant {
	return []Constant{
		{"ROW_SIZE", row.RowSize},
		{"COMMON_NODE_HEADER_SIZE", CommonNodeHeaderSize},
		{"LEAF_NODE_HEADER_SIZE", LeafNodeHeaderSize},
		{"LEAF_NODE_CELL_SIZE", LeafNodeCellSize},
		{"LEAF_NODE_SPACE_FOR_CELLS", LeafNodeSpaceForCells},
		{"LEAF_NODE_MAX_CELLS", LeafNodeMaxCells},
		{"INTERNAL_NODE_HEADER_SIZE", InternalNodeHeaderSize},
		{"INTERNAL_NODE_CELL_SIZE", InternalNodeCellSize},
		{"INTERNAL_NODE_MAX_CELLS", InternalNodeMaxCells},
	}
}
