// Package btree implements the copy-on-write B+tree described in
// spec.md §3-4: read-only node views over page-sized byte slices, write
// builders that produce new nodes rather than mutating in place, and the
// search/insert/delete algorithm with 3-way splits and merge-on-underflow.
//
// Grounded on Govetachun-Go-DB's btree/insertKey.go and
// btree/deletekey.go (itself following the "Build Your Own Database"
// chapter layout), generalized with explicit insert modes and an
// Added/Updated/Old result per spec.md §4.3.
package btree

import (
	"encoding/binary"

	"github.com/quilldb/quilldb/pagestore"
)

// Node type tags.
const (
	BNodeInternal uint16 = 1 // internal node: pointers, no meaningful values
	BNodeLeaf     uint16 = 2 // leaf node: values are meaningful
)

// Page layout constants (spec.md §6).
const (
	PageSize    = pagestore.PageSize
	Header      = 4 // 2B type, 2B nkeys
	MaxKeySize  = 1000
	MaxValSize  = 3000
)

func init() {
	// the worst case: one key-value pair big enough to need its own page,
	// plus a child pointer and an offset entry.
	node1max := Header + 8 + 2 + 4 + MaxKeySize + MaxValSize
	if node1max > PageSize {
		panic("btree: node size constants exceed page size")
	}
}

// BNode is a read-only (or, for freshly allocated buffers, write-in-
// progress) view over a single page's bytes. It is a defined []byte type
// rather than a wrapper struct — the flattened representation the
// sibling tree_db/pkg/btree/node.go uses — to avoid an extra allocation
// and indirection per node view.
type BNode []byte

func newNode(size int) BNode { return make(BNode, size) }

func (n BNode) btype() uint16 { return binary.LittleEndian.Uint16(n[0:2]) }
func (n BNode) nkeys() uint16 { return binary.LittleEndian.Uint16(n[2:4]) }

func (n BNode) setHeader(btype, nkeys uint16) {
	binary.LittleEndian.PutUint16(n[0:2], btype)
	binary.LittleEndian.PutUint16(n[2:4], nkeys)
}

func (n BNode) getPtr(idx uint16) uint64 {
	assert(idx < n.nkeys(), "getPtr: index out of range")
	pos := Header + 8*idx
	return binary.LittleEndian.Uint64(n[pos:])
}

func (n BNode) setPtr(idx uint16, val uint64) {
	assert(idx < n.nkeys(), "setPtr: index out of range")
	pos := Header + 8*idx
	binary.LittleEndian.PutUint64(n[pos:], val)
}

func offsetPos(n BNode, idx uint16) uint16 {
	assert(idx >= 1 && idx <= n.nkeys(), "offsetPos: index out of range")
	return Header + 8*n.nkeys() + 2*(idx-1)
}

func (n BNode) getOffset(idx uint16) uint16 {
	if idx == 0 {
		return 0
	}
	return binary.LittleEndian.Uint16(n[offsetPos(n, idx):])
}

func (n BNode) setOffset(idx, offset uint16) {
	binary.LittleEndian.PutUint16(n[offsetPos(n, idx):], offset)
}

// kvPos returns the byte position of the idx-th KV pair (idx == nkeys()
// is valid and gives the position one past the last pair, i.e. nbytes).
func (n BNode) kvPos(idx uint16) uint16 {
	assert(idx <= n.nkeys(), "kvPos: index out of range")
	return Header + 8*n.nkeys() + 2*n.nkeys() + n.getOffset(idx)
}

func (n BNode) getKey(idx uint16) []byte {
	assert(idx < n.nkeys(), "getKey: index out of range")
	pos := n.kvPos(idx)
	klen := binary.LittleEndian.Uint16(n[pos:])
	return n[pos+4:][:klen]
}

func (n BNode) getVal(idx uint16) []byte {
	assert(idx < n.nkeys(), "getVal: index out of range")
	pos := n.kvPos(idx)
	klen := binary.LittleEndian.Uint16(n[pos+0:])
	vlen := binary.LittleEndian.Uint16(n[pos+2:])
	return n[pos+4+klen:][:vlen]
}

func (n BNode) nbytes() uint16 { return n.kvPos(n.nkeys()) }

// lookupLE returns the index of the greatest key <= key. Node widths are
// bounded (a page holds at most a few hundred small keys), so a linear
// scan is simpler than binary search and not a measurable cost.
func lookupLE(n BNode, key []byte) uint16 {
	nkeys := n.nkeys()
	found := uint16(0)
	for i := uint16(1); i < nkeys; i++ {
		if bytesCompare(n.getKey(i), key) <= 0 {
			found = i
		} else {
			break
		}
	}
	return found
}

func nodeAppendKV(dst BNode, idx uint16, ptr uint64, key, val []byte) {
	dst.setPtr(idx, ptr)
	pos := dst.kvPos(idx)
	binary.LittleEndian.PutUint16(dst[pos+0:], uint16(len(key)))
	binary.LittleEndian.PutUint16(dst[pos+2:], uint16(len(val)))
	copy(dst[pos+4:], key)
	copy(dst[pos+4+uint16(len(key)):], val)
	dst.setOffset(idx+1, dst.getOffset(idx)+4+uint16(len(key)+len(val)))
}

// nodeAppendRange copies n KV pairs (and, for internal nodes, pointers)
// from old[srcOld:srcOld+n] into dst[dstNew:dstNew+n].
func nodeAppendRange(dst, old BNode, dstNew, srcOld, n uint16) {
	if n == 0 {
		return
	}
	if old.btype() == BNodeInternal {
		for i := uint16(0); i < n; i++ {
			dst.setPtr(dstNew+i, old.getPtr(srcOld+i))
		}
	}
	dstBegin := dst.getOffset(dstNew)
	srcBegin := old.getOffset(srcOld)
	for i := uint16(1); i <= n; i++ {
		offset := dstBegin + old.getOffset(srcOld+i) - srcBegin
		dst.setOffset(dstNew+i, offset)
	}
	begin := old.kvPos(srcOld)
	end := old.kvPos(srcOld + n)
	copy(dst[dst.kvPos(dstNew):], old[begin:end])
}

func leafInsert(dst, old BNode, idx uint16, key, val []byte) {
	dst.setHeader(BNodeLeaf, old.nkeys()+1)
	nodeAppendRange(dst, old, 0, 0, idx)
	nodeAppendKV(dst, idx, 0, key, val)
	nodeAppendRange(dst, old, idx+1, idx, old.nkeys()-idx)
}

func leafUpdate(dst, old BNode, idx uint16, key, val []byte) {
	dst.setHeader(BNodeLeaf, old.nkeys())
	nodeAppendRange(dst, old, 0, 0, idx)
	nodeAppendKV(dst, idx, 0, key, val)
	nodeAppendRange(dst, old, idx+1, idx+1, old.nkeys()-(idx+1))
}

func leafDelete(dst, old BNode, idx uint16) {
	dst.setHeader(BNodeLeaf, old.nkeys()-1)
	nodeAppendRange(dst, old, 0, 0, idx)
	nodeAppendRange(dst, old, idx, idx+1, old.nkeys()-(idx+1))
}

func nodeMerge(dst, left, right BNode) {
	dst.setHeader(left.btype(), left.nkeys()+right.nkeys())
	nodeAppendRange(dst, left, 0, 0, left.nkeys())
	nodeAppendRange(dst, right, left.nkeys(), 0, right.nkeys())
}

func nodeReplace2Kid(dst, old BNode, idx uint16, ptr uint64, key []byte) {
	dst.setHeader(BNodeInternal, old.nkeys()-1)
	nodeAppendRange(dst, old, 0, 0, idx)
	nodeAppendKV(dst, idx, ptr, key, nil)
	nodeAppendRange(dst, old, idx+1, idx+2, old.nkeys()-(idx+2))
}

func assert(cond bool, msg string) {
	if !cond {
		panic("btree: " + msg)
	}
}

func bytesCompare(a, b []byte) int {
	switch {
	case len(a) < len(b):
		for i := range a {
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
		return -1
	default:
		for i := range b {
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
		if len(a) > len(b) {
			return 1
		}
		return 0
	}
}
