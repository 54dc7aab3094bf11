// Package table exposes the single fixed-schema table: rows keyed by id,
// stored in a B-tree over a paged file.
package table

import (
	"errors"
	"iter"
	"log/slog"
	"sync"

	"pagedb/pkg/btree"
	dberror "pagedb/pkg/error"
	"pagedb/pkg/logging"
	"pagedb/pkg/pager"
	"pagedb/pkg/primitives"
	"pagedb/pkg/row"
)

// ErrClosed is returned by operations on a closed table.
var ErrClosed = errors.New("table is closed")

// Table owns the pager and the tree for one database file.
type Table struct {
	mu     sync.Mutex
	path   primitives.Filepath
	pager  *pager.Pager
	tree   *btree.Tree
	closed bool
	log    *slog.Logger
}

type config struct {
	pagerOpts   []pager.Option
	treeOptions btree.Options
}

// Option configures Open.
type Option func(*config)

// WithMaxPages bounds the file size in pages.
func WithMaxPages(n int) Option {
	return func(c *config) {
		c.pagerOpts = append(c.pagerOpts, pager.WithMaxPages(n))
	}
}

// WithMaxInternalKeys lowers the internal node fan-out.
func WithMaxInternalKeys(n int) Option {
	return func(c *config) {
		c.treeOptions.MaxInternalKeys = n
	}
}

// Open opens the table stored at path, creating an empty one if the file
// does not exist.
func Open(path string, opts ...Option) (*Table, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	fp := primitives.Filepath(path)
	p, err := pager.Open(fp, cfg.pagerOpts...)
	if err != nil {
		return nil, err
	}

	tree, err := btree.Open(p, cfg.treeOptions)
	if err != nil {
		p.Close()
		return nil, err
	}

	t := &Table{
		path:  fp,
		pager: p,
		tree:  tree,
		log:   logging.WithTable(path),
	}
	t.log.Info("table opened", "pages", p.NumPages(), "root", uint32(tree.RootPageNum()))
	return t, nil
}

// Insert validates r and stores it under r.ID.
func (t *Table) Insert(r row.Row) error {
	if err := r.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}

	if err := t.tree.Insert(primitives.Key(r.ID), r.Bytes()); err != nil {
		if dberror.IsFatal(err) {
			t.log.Error("insert failed", "id", r.ID, "error", err)
		}
		return err
	}
	return nil
}

// Get looks up a single row by id.
func (t *Table) Get(id uint32) (row.Row, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return row.Row{}, false, ErrClosed
	}

	v, ok, err := t.tree.Get(primitives.Key(id))
	if err != nil || !ok {
		return row.Row{}, ok, err
	}
	return row.Deserialize(v), true, nil
}

// Find positions a cursor at id or where it would be inserted.
func (t *Table) Find(id uint32) (*btree.Cursor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	return t.tree.Find(primitives.Key(id))
}

// Start positions a cursor at the row with the smallest id.
func (t *Table) Start() (*btree.Cursor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	return t.tree.Start()
}

// SelectAll yields every row in ascending id order. Rows are read lazily;
// inserting while iterating is not supported.
func (t *Table) SelectAll() iter.Seq2[row.Row, error] {
	return func(yield func(row.Row, error) bool) {
		c, err := t.Start()
		if err != nil {
			yield(row.Row{}, err)
			return
		}

		for {
			r, done, err := t.next(c)
			if err != nil {
				yield(row.Row{}, err)
				return
			}
			if done || !yield(r, nil) {
				return
			}
		}
	}
}

// next decodes the row under c and advances it.
func (t *Table) next(c *btree.Cursor) (row.Row, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return row.Row{}, false, ErrClosed
	}
	if c.EndOfTable() {
		return row.Row{}, true, nil
	}

	v, err := c.Value()
	if err != nil {
		return row.Row{}, false, err
	}
	r := row.Deserialize(v)
	if err := c.Advance(); err != nil {
		return row.Row{}, false, err
	}
	return r, false, nil
}

// Rows collects SelectAll into a slice.
func (t *Table) Rows() ([]row.Row, error) {
	var rows []row.Row
	for r, err := range t.SelectAll() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Path returns the database file path.
func (t *Table) Path() primitives.Filepath {
	return t.path
}

// Tree exposes the underlying tree for inspection.
func (t *Table) Tree() *btree.Tree {
	return t.tree
}

// Pager exposes the underlying pager for inspection.
func (t *Table) Pager() *pager.Pager {
	return t.pager
}

// Close flushes all cached pages and closes the file. Calling it again is a
// no-op.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if err := t.pager.Close(); err != nil {
		return err
	}
	t.log.Info("table closed")
	return nil
}
