// Package pager maps page numbers to in-memory page buffers backed by the
// database file. Pages are loaded on first access and written back only when
// the pager is closed (or when a caller flushes a page explicitly).
package pager

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	dberror "pagedb/pkg/error"
	"pagedb/pkg/logging"
	"pagedb/pkg/primitives"
	"pagedb/pkg/storage/page"
)

const (
	// DefaultMaxPages bounds the file at 100 pages (400 KB).
	DefaultMaxPages = 100

	defaultFlushWorkers = 4
	component           = "Pager"
)

// Pager caches the pages of one database file.
//
// The cache is a fixed slice of MaxPages slots; a nil slot has not been
// accessed yet. NumPages counts pages on disk plus pages allocated in memory
// since open.
type Pager struct {
	file         *page.BaseFile
	fileLength   int64
	numPages     primitives.PageNumber
	maxPages     primitives.PageNumber
	flushWorkers int
	pages        []*page.Page
	closed       bool

	diskReads  atomic.Int64
	diskWrites atomic.Int64

	log *slog.Logger
}

// Stats is a snapshot of pager counters.
type Stats struct {
	NumPages    primitives.PageNumber
	MaxPages    primitives.PageNumber
	CachedPages int
	DiskReads   int64
	DiskWrites  int64
	FileLength  int64
}

type options struct {
	maxPages     primitives.PageNumber
	flushWorkers int
}

// Option configures Open.
type Option func(*options)

// WithMaxPages sets the page limit. Values below 1 are ignored.
func WithMaxPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPages = primitives.PageNumber(n)
		}
	}
}

// WithFlushWorkers bounds how many pages Close writes concurrently.
func WithFlushWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.flushWorkers = n
		}
	}
}

// Open opens or creates the database file at path. A file whose length is
// not a whole number of pages is rejected as corrupt.
func Open(path primitives.Filepath, opts ...Option) (*Pager, error) {
	cfg := options{maxPages: DefaultMaxPages, flushWorkers: defaultFlushWorkers}
	for _, opt := range opts {
		opt(&cfg)
	}

	file, err := page.NewBaseFile(path)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIOError, "Open", component)
	}

	length, err := file.Size()
	if err != nil {
		file.Close()
		return nil, dberror.Wrap(err, dberror.CodeIOError, "Open", component)
	}

	if length%page.PageSize != 0 {
		file.Close()
		return nil, dberror.New(dberror.ErrCategoryData, dberror.CodeCorruptFile, "db file is not a whole number of pages").
			WithDetail("%s is %d bytes", path, length).
			WithContext("Open", component)
	}

	numPages := primitives.PageNumber(length / page.PageSize)
	if numPages > cfg.maxPages {
		file.Close()
		return nil, dberror.New(dberror.ErrCategoryData, dberror.CodeCorruptFile, "db file exceeds page limit").
			WithDetail("%d pages on disk, limit %d", numPages, cfg.maxPages).
			WithHint("reopen with a larger --max-pages").
			WithContext("Open", component)
	}

	p := &Pager{
		file:         file,
		fileLength:   length,
		numPages:     numPages,
		maxPages:     cfg.maxPages,
		flushWorkers: cfg.flushWorkers,
		pages:        make([]*page.Page, cfg.maxPages),
		log:          logging.WithComponent("pager").With("path", path.String()),
	}
	p.log.Info("pager opened", "pages", numPages, "max_pages", cfg.maxPages)
	return p, nil
}

// GetPage returns the cached buffer for page n, loading it from disk on first
// access. Requesting a page past the end of the file allocates a zeroed page
// and grows NumPages to n+1.
func (p *Pager) GetPage(n primitives.PageNumber) (*page.Page, error) {
	if n >= p.maxPages {
		return nil, dberror.New(dberror.ErrCategorySystem, dberror.CodePageOutOfBounds, "Tried to fetch page number out of bounds").
			WithDetail("%d > %d", n, p.maxPages).
			WithContext("GetPage", component)
	}

	if pg := p.pages[n]; pg != nil {
		return pg, nil
	}

	pg := new(page.Page)
	onDisk := primitives.PageNumber(p.fileLength / page.PageSize)
	if n < onDisk {
		if _, err := p.file.ReadPageData(n, pg); err != nil {
			return nil, dberror.Wrap(err, dberror.CodeIOError, "GetPage", component)
		}
		p.diskReads.Add(1)
		logging.WithPage(n).Debug("page loaded")
	}

	p.pages[n] = pg
	if n >= p.numPages {
		p.numPages = n + 1
	}
	return pg, nil
}

// UnusedPageNum returns the next page number to allocate. Pages are never
// freed, so new pages always go at the end of the file.
func (p *Pager) UnusedPageNum() primitives.PageNumber {
	return p.numPages
}

// NumPages returns the page count, including pages not yet written.
func (p *Pager) NumPages() primitives.PageNumber {
	return p.numPages
}

// MaxPages returns the page limit.
func (p *Pager) MaxPages() primitives.PageNumber {
	return p.maxPages
}

// FilePath returns the path of the underlying file.
func (p *Pager) FilePath() primitives.Filepath {
	return p.file.FilePath()
}

// CachedPages counts the slots currently holding a buffer.
func (p *Pager) CachedPages() int {
	n := 0
	for _, pg := range p.pages {
		if pg != nil {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the pager counters.
func (p *Pager) Stats() Stats {
	return Stats{
		NumPages:    p.numPages,
		MaxPages:    p.maxPages,
		CachedPages: p.CachedPages(),
		DiskReads:   p.diskReads.Load(),
		DiskWrites:  p.diskWrites.Load(),
		FileLength:  p.fileLength,
	}
}

// Flush writes the cached buffer of page n to disk.
func (p *Pager) Flush(n primitives.PageNumber) error {
	if n >= p.maxPages || p.pages[n] == nil {
		return dberror.New(dberror.ErrCategorySystem, dberror.CodeIOError, "Tried to flush null page").
			WithDetail("page %d", n).
			WithContext("Flush", component)
	}

	if err := p.file.WritePageData(n, p.pages[n][:]); err != nil {
		return dberror.Wrap(err, dberror.CodeIOError, "Flush", component)
	}
	p.diskWrites.Add(1)

	if end := page.Offset(n) + page.PageSize; end > p.fileLength {
		p.fileLength = end
	}
	return nil
}

// Close writes every cached page back to the file, syncs and closes it, and
// releases the cache. Calling Close again is a no-op.
func (p *Pager) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var g errgroup.Group
	g.SetLimit(p.flushWorkers)

	flushed := 0
	for i := primitives.PageNumber(0); i < p.numPages; i++ {
		pg := p.pages[i]
		if pg == nil {
			continue
		}
		flushed++
		g.Go(func() error {
			if err := p.file.WritePageData(i, pg[:]); err != nil {
				return dberror.Wrap(err, dberror.CodeIOError, "Close", component)
			}
			p.diskWrites.Add(1)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		if syncErr := p.file.Sync(); syncErr != nil {
			err = dberror.Wrap(syncErr, dberror.CodeIOError, "Close", component)
		}
	}

	if closeErr := p.file.Close(); err == nil && closeErr != nil {
		err = dberror.Wrap(closeErr, dberror.CodeIOError, "Close", component)
	}

	clear(p.pages)
	if err != nil {
		logging.WithError(err).Error("pager close failed")
		return err
	}

	p.fileLength = page.Offset(p.numPages)
	p.log.Info("pager closed", "pages", p.numPages, "flushed", flushed)
	return nil
}
