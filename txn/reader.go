package txn

import (
	"github.com/quilldb/quilldb/btree"
	"github.com/quilldb/quilldb/pagestore"
)

// Reader is an immutable snapshot: a root pointer and the version tag
// it was issued under. It never touches the free list or the pending
// updates map — every read goes straight to the mapped page store, so
// readers never block on, or are blocked by, the writer.
//
// Grounded on concurrent-reader-writer/define.go's KVReader; Index is
// the reader's position in the orchestrator's version-ordered heap, set
// by db.BeginRead/EndRead.
type Reader struct {
	store pagestore.PageStore

	Root    uint64
	Version uint64
	Index   int

	tree btree.BTree
}

// NewReader builds a read-only snapshot pinned at (root, version).
func NewReader(store pagestore.PageStore, root, version uint64) *Reader {
	r := &Reader{store: store, Root: root, Version: version}
	r.tree = btree.BTree{
		Root:    root,
		GetPage: r.getPage,
		// NewPage/DelPage are never called on a read path.
	}
	return r
}

func (r *Reader) getPage(ptr uint64) btree.BNode {
	return btree.BNode(r.store.Page(ptr))
}

// Get looks up key as of this snapshot's version.
func (r *Reader) Get(key []byte) ([]byte, bool) {
	return r.tree.Get(key)
}

// Seek opens a cursor over this snapshot starting at the first key
// satisfying cmp relative to key.
func (r *Reader) Seek(key []byte, cmp btree.CmpOp) *btree.Cursor {
	return r.tree.SeekLE(key, cmp)
}
