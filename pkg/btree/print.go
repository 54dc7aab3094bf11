package btree

import (
	"fmt"
	"io"
	"strings"

	"pagedb/pkg/primitives"
)

// Print writes the tree structure, one node or key per line. After three
// inserts the .btree command shows:
//
//	Tree:
//	- leaf (size 3)
//	  - 1
//	  - 2
//	  - 3
//
// Internal nodes list each child followed by the key that separates it from
// the next one.
func (t *Tree) Print(w io.Writer) error {
	return t.printNode(w, t.rootPageNum, 0)
}

func (t *Tree) printNode(w io.Writer, pageNum primitives.PageNumber, level int) error {
	if err := t.checkDepth(level, pageNum); err != nil {
		return err
	}

	nd, err := t.node(pageNum)
	if err != nil {
		return err
	}

	indent := strings.Repeat("  ", level)
	if nd.IsLeaf() {
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, nd.NumCells())
		for _, k := range nd.Keys() {
			fmt.Fprintf(w, "%s  - %d\n", indent, k)
		}
		return nil
	}

	fmt.Fprintf(w, "%s- internal (size %d)\n", indent, nd.NumKeys())
	keys := nd.Keys()
	for i, child := range nd.Children() {
		if err := t.printNode(w, child, level+1); err != nil {
			return err
		}
		if i < len(keys) {
			fmt.Fprintf(w, "%s  - key %d\n", indent, keys[i])
		}
	}
	return nil
}

// PrintConstants writes the layout constants, one "NAME: value" per line.
func PrintConstants(w io.Writer) {
	for _, c := range Constants() {
		fmt.Fprintf(w, "%s: %d\n", c.Name, c.Value)
	}
}
