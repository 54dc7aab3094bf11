package btree

import (
	"sort"

	"pagedb/pkg/primitives"
)

// leafSearch returns the index of key in the leaf, or the index where it
// would be inserted to keep the cells sorted.
func leafSearch(n Node, key primitives.Key) primitives.CellIndex {
	idx := sort.Search(int(n.NumCells()), func(i int) bool {
		return n.LeafKey(primitives.CellIndex(i)) >= key
	})
	return primitives.CellIndex(idx)
}

// internalSearch returns the index of the child that may contain key: the
// first separator >= key, or NumKeys (the right child) if every separator
// is smaller. A key equal to a separator routes left.
func internalSearch(n Node, key primitives.Key) primitives.CellIndex {
	idx := sort.Search(int(n.NumKeys()), func(i int) bool {
		return n.InternalKey(primitives.CellIndex(i)) >= key
	})
	return primitives.CellIndex(idx)
}
