// Package inspect produces read-only views of a database file: per-page
// node summaries and content digests. It backs the .pages command and the
// pagereader debug tool.
package inspect

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"

	"pagedb/pkg/btree"
	"pagedb/pkg/primitives"
	"pagedb/pkg/storage/page"
)

// PageSource is anything that can hand out pages by number.
// *pager.Pager and *Snapshot both satisfy it.
type PageSource interface {
	GetPage(n primitives.PageNumber) (*page.Page, error)
	NumPages() primitives.PageNumber
}

// PageSummary describes the node stored on one page.
type PageSummary struct {
	PageNum    primitives.PageNumber
	Type       btree.NodeType
	IsRoot     bool
	Parent     primitives.PageNumber
	Count      uint32 // cells for a leaf, keys for an internal node
	NextLeaf   primitives.PageNumber
	RightChild primitives.PageNumber
	MinKey     primitives.Key
	MaxKey     primitives.Key
	UsedBytes  int
	Digest     string
}

// Columns are the headers matching PageSummary.Row.
func Columns() []string {
	return []string{"page", "type", "root", "parent", "count", "keys", "next/right", "used", "blake3"}
}

// Row renders s as display strings.
func (s PageSummary) Row() []string {
	keys := "-"
	if s.Count > 0 {
		keys = fmt.Sprintf("%d..%d", s.MinKey, s.MaxKey)
	}

	link := "-"
	switch s.Type {
	case btree.NodeTypeLeaf:
		if s.NextLeaf.IsValid() {
			link = strconv.FormatUint(uint64(s.NextLeaf), 10)
		}
	case btree.NodeTypeInternal:
		link = strconv.FormatUint(uint64(s.RightChild), 10)
	}

	return []string{
		strconv.FormatUint(uint64(s.PageNum), 10),
		s.Type.String(),
		strconv.FormatBool(s.IsRoot),
		strconv.FormatUint(uint64(s.Parent), 10),
		strconv.FormatUint(uint64(s.Count), 10),
		keys,
		link,
		fmt.Sprintf("%d/%d", s.UsedBytes, page.PageSize),
		s.Digest,
	}
}

// Summarize describes page n. Pages that do not hold a valid node are
// reported with type "unknown" rather than failing.
func Summarize(n primitives.PageNumber, pg *page.Page) PageSummary {
	nd := btree.NodeOf(pg)
	s := PageSummary{
		PageNum: n,
		Type:    nd.Type(),
		Digest:  ShortDigest(pg),
	}

	switch s.Type {
	case btree.NodeTypeLeaf:
		s.Count = min(nd.NumCells(), btree.LeafNodeMaxCells)
		s.NextLeaf = nd.NextLeaf()
		s.UsedBytes = btree.LeafNodeHeaderSize + int(s.Count)*btree.LeafNodeCellSize
	case btree.NodeTypeInternal:
		s.Count = min(nd.NumKeys(), btree.InternalNodeMaxCells)
		s.RightChild = nd.RightChild()
		s.UsedBytes = btree.InternalNodeHeaderSize + int(s.Count)*btree.InternalNodeCellSize
	default:
		return s
	}

	s.IsRoot = nd.IsRoot()
	s.Parent = nd.Parent()
	if s.Count > 0 {
		key := nd.InternalKey
		if s.Type == btree.NodeTypeLeaf {
			key = nd.LeafKey
		}
		s.MinKey, s.MaxKey = key(0), key(primitives.CellIndex(s.Count-1))
	}
	return s
}

// SummarizeAll describes every page of src in order.
func SummarizeAll(src PageSource) ([]PageSummary, error) {
	summaries := make([]PageSummary, 0, src.NumPages())
	for n := primitives.PageNumber(0); n < src.NumPages(); n++ {
		pg, err := src.GetPage(n)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summarize(n, pg))
	}
	return summaries, nil
}

// Digest returns the BLAKE3-256 hash of a page.
func Digest(pg *page.Page) [32]byte {
	return blake3.Sum256(pg[:])
}

// ShortDigest returns the first 8 bytes of Digest as hex.
func ShortDigest(pg *page.Page) string {
	d := Digest(pg)
	return hex.EncodeToString(d[:8])
}

// FileDigest hashes every page of src in order. Two files with the same
// digest hold identical pages.
func FileDigest(src PageSource) (string, error) {
	h := blake3.New()
	for n := primitives.PageNumber(0); n < src.NumPages(); n++ {
		pg, err := src.GetPage(n)
		if err != nil {
			return "", err
		}
		if _, err := h.Write(pg[:]); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
