// Package db is the MVCC orchestrator: it owns the single writer lock,
// the reader registry, and the atomic master-page commit barrier that
// binds the B+tree, free list, and page store into one durable,
// snapshot-isolated database.
//
// Grounded on concurrent-reader-writer/define.go's KV (writer mutex +
// reader heap) and transaction/define.go's Begin/Commit three-phase
// sequence, generalized to the versioned free list.
package db

import (
	"container/heap"
	"sync"
	"time"

	"github.com/quilldb/quilldb/btree"
	"github.com/quilldb/quilldb/freelist"
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/internal/logger"
	"github.com/quilldb/quilldb/internal/metrics"
	"github.com/quilldb/quilldb/pagestore"
	"github.com/quilldb/quilldb/txn"
)

// DB is the top-level handle: one page store, one writer at a time,
// any number of concurrent readers.
type DB struct {
	store pagestore.PageStore

	writerMu   sync.Mutex
	registryMu sync.Mutex

	root        uint64
	pageFlushed uint64
	freeHead    uint64
	freeCount   uint64
	version     uint64

	readers readerHeap

	log *logger.Logger
	met *metrics.Metrics
}

// Open loads or initializes the database file at path (or, for an
// in-memory store, the given PageStore directly via OpenWith).
func Open(path string) (*DB, error) {
	store, err := pagestore.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return OpenWith(store)
}

// OpenWith builds a DB over an already-open PageStore, initializing it
// on first use per spec.md §4.1 or loading and validating the existing
// master page otherwise.
func OpenWith(store pagestore.PageStore) (*DB, error) {
	d := &DB{store: store, log: logger.Global(), met: nil}

	if store.Size() == 0 {
		if err := store.Extend(2); err != nil {
			return nil, errs.Wrap(errs.IoExtend, err, "initializing database")
		}
		btree.InitRootPage(store.Page(1))

		d.root = 1
		d.pageFlushed = 2
		d.freeHead = 0
		d.version = 0

		writeMaster(store.Page(0), masterState{root: d.root, pagesUsed: d.pageFlushed, freelistHead: d.freeHead, version: d.version})
		if err := store.Sync(); err != nil {
			return nil, errs.Wrap(errs.IoSync, err, "initializing database")
		}
		return d, nil
	}

	m, err := readMaster(store.Page(0))
	if err != nil {
		return nil, err
	}
	d.root = m.root
	d.pageFlushed = m.pagesUsed
	d.freeHead = m.freelistHead
	d.version = m.version
	return d, nil
}

// WithMetrics attaches a Prometheus collector set.
func (d *DB) WithMetrics(m *metrics.Metrics) *DB {
	d.met = m
	return d
}

// Begin acquires the writer lock and returns a transaction built from
// the current snapshot. The transaction's reclamation horizon is the
// smallest version among live readers (or the current version, if
// none are live).
func (d *DB) Begin() *txn.Tx {
	d.writerMu.Lock()

	d.registryMu.Lock()
	minReader := d.version
	if len(d.readers) > 0 {
		minReader = d.readers[0].Version
	}
	free := freelist.FreeList{Head: d.freeHead, Count: d.freeCount}
	root, pageFlushed := d.root, d.pageFlushed
	d.registryMu.Unlock()

	return txn.New(d.store, root, pageFlushed, free, minReader)
}

// Commit runs the three-phase commit barrier described in spec.md
// §4.7/§5: write and sync data pages, swap the in-memory snapshot
// fields under the registry lock, then write and sync the master page.
// It always releases the writer lock, even on failure.
func (d *DB) Commit(tx *txn.Tx) error {
	defer d.writerMu.Unlock()
	start := time.Now()

	// fold first: the chain pages Fold allocates are pending pages too,
	// and must be counted and written with the rest below
	tx.Free.Fold(d.version + 1)

	newPageFlushed := tx.PageFlushed() + uint64(tx.NAppended())
	if err := d.store.Extend(int(newPageFlushed)); err != nil {
		d.recordCommit("error", start)
		return errs.Wrap(errs.IoExtend, err, "extending store for commit")
	}

	for ptr, node := range tx.Updates() {
		if node == nil {
			continue // freed page: nothing to write, it is simply not referenced anymore
		}
		copy(d.store.Page(ptr), node)
	}
	if err := d.store.Sync(); err != nil {
		d.recordCommit("error", start)
		return errs.Wrap(errs.IoSync, err, "syncing data pages")
	}

	d.registryMu.Lock()
	d.root = tx.Root()
	d.version++
	d.pageFlushed = newPageFlushed
	d.freeHead = tx.Free.Head
	d.freeCount = tx.Free.Count
	version := d.version
	d.registryMu.Unlock()

	writeMaster(d.store.Page(0), masterState{
		root:         d.root,
		pagesUsed:    d.pageFlushed,
		freelistHead: d.freeHead,
		version:      version,
	})
	if err := d.store.Sync(); err != nil {
		d.recordCommit("error", start)
		return errs.Wrap(errs.IoSync, err, "syncing master page")
	}

	d.recordCommit("ok", start)
	return nil
}

func (d *DB) recordCommit(status string, start time.Time) {
	if d.met != nil {
		d.met.RecordCommit(status, time.Since(start))
		d.met.DBVersion.Set(float64(d.version))
		d.met.PagesUsed.Set(float64(d.pageFlushed))
		d.met.FreelistEntries.Set(float64(d.freeCount))
	}
}

// Abort discards a transaction's pending writes without touching the
// store and releases the writer lock.
func (d *DB) Abort(tx *txn.Tx) {
	_ = tx
	d.writerMu.Unlock()
}

// BeginRead registers a new reader at the current committed version
// and returns its snapshot. Readers never acquire the writer mutex.
func (d *DB) BeginRead() *txn.Reader {
	d.registryMu.Lock()
	defer d.registryMu.Unlock()

	r := txn.NewReader(d.store, d.root, d.version)
	heap.Push(&d.readers, r)
	if d.met != nil {
		d.met.ReadersActive.Set(float64(len(d.readers)))
	}
	return r
}

// EndRead removes a reader from the registry. Failing to call this
// for every BeginRead pins the reclamation horizon and leaks pages.
func (d *DB) EndRead(r *txn.Reader) {
	d.registryMu.Lock()
	defer d.registryMu.Unlock()

	if r.Index < 0 || r.Index >= len(d.readers) || d.readers[r.Index] != r {
		return
	}
	heap.Remove(&d.readers, r.Index)
	if d.met != nil {
		d.met.ReadersActive.Set(float64(len(d.readers)))
	}
}

// Close releases the underlying page store.
func (d *DB) Close() error {
	return d.store.Close()
}
