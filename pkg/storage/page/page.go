// Package page holds the unit of storage, a fixed 4 KB page, and BaseFile,
// the raw page-granular file access the pager is built on.
package page

import (
	"pagedb/pkg/primitives"
)

const (
	// PageSize is the size of each page in bytes (4KB)
	PageSize = 4096
)

// Page is the in-memory image of one on-disk page. The pager hands out
// pointers to cached pages; node accessors interpret the bytes in place.
type Page [PageSize]byte

// Offset returns the byte position of page n within the file.
func Offset(n primitives.PageNumber) int64 {
	return int64(n) * PageSize
}

// Clear zeroes the page.
func (p *Page) Clear() {
	clear(p[:])
}
