// Package txn implements the writer transaction and reader snapshot
// spec.md §3/§4.5/§4.6 describe: a single mutable view over the B+tree
// and free list that buffers every page write until commit, and an
// immutable (root, version) pin for concurrent readers.
//
// Grounded on Govetachun-Go-DB's transaction/define.go (KVTX) for the
// writer shape and concurrent-reader-writer/define.go (KVReader) for
// the reader shape, generalized with the versioned free list instead
// of the teacher's un-versioned one.
package txn

import (
	"github.com/quilldb/quilldb/btree"
	"github.com/quilldb/quilldb/freelist"
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/pagestore"
)

// Tx is a writer transaction. It is created fresh by db.Begin for each
// write and discarded after Commit or Abort; it is never reused.
type Tx struct {
	store pagestore.PageStore

	Tree Tree
	Free freelist.FreeList

	baseRoot    uint64
	pageFlushed uint64
	nappend     int
	minReader   uint64

	// updates maps a page number to its pending content. A present key
	// with a nil value means the page was freed this transaction
	// (tombstone); an absent key means the page is untouched and should
	// be read straight from the store.
	updates map[uint64]btree.BNode
}

// Tree is the exact shape btree.BTree exposes, re-declared here so
// callers of Tx never need to import btree just to read Tx.Tree.Root.
type Tree = btree.BTree

// New builds a writer transaction over the given base snapshot.
// minReaderVersion is the reclamation horizon computed by the
// orchestrator from its reader registry: the free list will only hand
// back slots freed strictly before it.
func New(store pagestore.PageStore, root uint64, pageFlushed uint64, free freelist.FreeList, minReaderVersion uint64) *Tx {
	tx := &Tx{
		store:       store,
		baseRoot:    root,
		pageFlushed: pageFlushed,
		minReader:   minReaderVersion,
		updates:     map[uint64]btree.BNode{},
		Free:        free,
	}
	tx.Free.GetPage = tx.getFreelistPage
	tx.Free.NewPage = tx.newFreelistPage
	tx.Free.DelPage = tx.delFreelistPage

	tx.Tree = btree.BTree{
		Root:    root,
		GetPage: tx.getPage,
		NewPage: tx.newPage,
		DelPage: tx.delPage,
	}
	return tx
}

func (tx *Tx) getPage(ptr uint64) btree.BNode {
	if node, ok := tx.updates[ptr]; ok {
		if node == nil {
			panic(errs.Newf(errs.Corruption, "read of freed page %d", ptr))
		}
		return node
	}
	return btree.BNode(tx.store.Page(ptr))
}

func (tx *Tx) newPage(node btree.BNode) uint64 {
	ptr := tx.Allocate()
	tx.updates[ptr] = node
	return ptr
}

func (tx *Tx) delPage(ptr uint64) {
	tx.updates[ptr] = nil
	tx.Free.Push(ptr)
}

func (tx *Tx) getFreelistPage(ptr uint64) freelist.LNode {
	if node, ok := tx.updates[ptr]; ok {
		if node == nil {
			panic(errs.Newf(errs.Corruption, "read of freed freelist page %d", ptr))
		}
		return freelist.LNode(node)
	}
	return freelist.LNode(tx.store.Page(ptr))
}

func (tx *Tx) newFreelistPage(node freelist.LNode) uint64 {
	ptr := tx.Allocate()
	tx.updates[ptr] = btree.BNode(node)
	return ptr
}

// delFreelistPage tombstones a drained free-list chain node's own
// page. It must NOT push it back through Free.Push: the page is handed
// straight back out as Pop's return value and the caller overwrites it
// immediately, so re-queuing it would double-count the slot.
func (tx *Tx) delFreelistPage(ptr uint64) {
	tx.updates[ptr] = nil
}

// Allocate returns a page number available for a fresh write: either a
// reclaimed free-list slot, or the next never-used page number.
func (tx *Tx) Allocate() uint64 {
	if ptr := tx.Free.Pop(tx.minReader); ptr != 0 {
		return ptr
	}
	ptr := tx.pageFlushed + uint64(tx.nappend)
	tx.nappend++
	return ptr
}

// FreePage marks ptr as superseded by this transaction; it becomes
// reusable only once the free list is folded at commit and the
// reclamation horizon later passes this transaction's version.
func (tx *Tx) FreePage(ptr uint64) {
	tx.delPage(ptr)
}

// Get looks up key, honoring any pending write or tombstone from
// earlier in this same transaction before falling through to the tree
// (read-your-writes).
func (tx *Tx) Get(key []byte) ([]byte, bool) {
	return tx.Tree.Get(key)
}

// Set inserts or updates key according to mode.
func (tx *Tx) Set(key, val []byte, mode btree.InsertMode) (btree.InsertResult, error) {
	return tx.Tree.Insert(key, val, mode)
}

// Delete removes key, reporting whether it was present.
func (tx *Tx) Delete(key []byte) (bool, error) {
	return tx.Tree.Delete(key)
}

// Seek opens a cursor over this transaction's pending-write view of
// the tree, for range scans issued mid-transaction.
func (tx *Tx) Seek(key []byte, cmp btree.CmpOp) *btree.Cursor {
	return tx.Tree.SeekLE(key, cmp)
}

// Root returns the transaction's current root page number.
func (tx *Tx) Root() uint64 { return tx.Tree.Root }

// SetRoot overrides the transaction's root directly; used by callers
// that manage the tree's root pointer themselves (none currently do,
// kept for parity with spec.md §4.5's exposed operation).
func (tx *Tx) SetRoot(ptr uint64) { tx.Tree.Root = ptr }

// PageFlushed returns the page count as of this transaction's base
// snapshot, before any pages this transaction itself appended.
func (tx *Tx) PageFlushed() uint64 { return tx.pageFlushed }

// NAppended returns how many brand-new page numbers beyond
// PageFlushed this transaction has allocated.
func (tx *Tx) NAppended() int { return tx.nappend }

// Updates exposes the pending page-number → content map so the
// orchestrator can write it out at commit. A nil value means the page
// was freed and must not be written.
func (tx *Tx) Updates() map[uint64]btree.BNode { return tx.updates }
