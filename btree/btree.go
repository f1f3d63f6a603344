package btree

import "github.com/quilldb/quilldb/internal/errs"

// InsertMode controls how Insert treats an existing key, mirroring
// spec.md §4.3's three row-insert modes so the row layer can implement
// INSERT/UPSERT/REPLACE directly on top of the tree's own semantics
// instead of doing a separate lookup first.
type InsertMode int

const (
	// ModeUpsert inserts a new key or overwrites an existing one.
	ModeUpsert InsertMode = iota
	// ModeInsertOnly fails (Added=false, no error) if the key already exists.
	ModeInsertOnly
	// ModeUpdateOnly fails (Updated=false, no error) if the key is absent.
	ModeUpdateOnly
)

// InsertResult reports what Insert actually did, so callers can
// distinguish "inserted", "updated", and "rejected by mode" without a
// separate lookup.
type InsertResult struct {
	Added   bool
	Updated bool
	Old     []byte // previous value, when Updated is true
}

// BTree is a copy-on-write B+tree. It never mutates a page in place:
// every insert or delete walks down to the affected leaf, builds new
// node contents, and replaces every pointer on the path back to the
// root. Persistence and page reuse are the caller's responsibility via
// the GetPage/NewPage/DelPage callbacks, which is what lets the free
// list and MVCC layers sit on top of the same tree.
type BTree struct {
	Root uint64

	GetPage func(uint64) BNode
	NewPage func(BNode) uint64
	DelPage func(uint64)
}

// InitRootPage writes an empty leaf with one sentinel KV (empty key,
// empty value) into page, covering the whole key space so a lookup on
// a brand-new tree always finds a containing node. page must be
// exactly PageSize bytes, normally page 1 of a freshly extended store.
func InitRootPage(page []byte) {
	root := BNode(page)
	root.setHeader(BNodeLeaf, 1)
	nodeAppendKV(root, 0, 0, nil, nil)
}

func checkLimit(key, val []byte) error {
	if len(key) == 0 {
		return errs.New(errs.Corruption, "empty key")
	}
	if len(key) > MaxKeySize {
		return errs.Newf(errs.Corruption, "key of %d bytes exceeds max %d", len(key), MaxKeySize)
	}
	if len(val) > MaxValSize {
		return errs.Newf(errs.Corruption, "value of %d bytes exceeds max %d", len(val), MaxValSize)
	}
	return nil
}

// Insert adds or updates key according to mode. See InsertMode.
func (tree *BTree) Insert(key, val []byte, mode InsertMode) (InsertResult, error) {
	if err := checkLimit(key, val); err != nil {
		return InsertResult{}, err
	}

	if tree.Root == 0 {
		if mode == ModeUpdateOnly {
			return InsertResult{}, nil
		}
		root := newNode(PageSize)
		root.setHeader(BNodeLeaf, 2)
		// a dummy key at index 0 makes the tree cover the whole key
		// space so a lookup always finds a containing node.
		nodeAppendKV(root, 0, 0, nil, nil)
		nodeAppendKV(root, 1, 0, key, val)
		tree.Root = tree.NewPage(root)
		return InsertResult{Added: true}, nil
	}

	updated, res, err := treeInsert(tree, tree.GetPage(tree.Root), key, val, mode)
	if err != nil || updated == nil {
		return res, err
	}

	nsplit, split := nodeSplit3(updated)
	tree.DelPage(tree.Root)
	if nsplit > 1 {
		root := newNode(PageSize)
		root.setHeader(BNodeInternal, nsplit)
		for i, kid := range split[:nsplit] {
			nodeAppendKV(root, uint16(i), tree.NewPage(kid), kid.getKey(0), nil)
		}
		tree.Root = tree.NewPage(root)
	} else {
		tree.Root = tree.NewPage(split[0])
	}
	return res, nil
}

func treeInsert(tree *BTree, node BNode, key, val []byte, mode InsertMode) (BNode, InsertResult, error) {
	idx := lookupLE(node, key)

	switch node.btype() {
	case BNodeLeaf:
		if idx < node.nkeys() && bytesCompare(node.getKey(idx), key) == 0 {
			if mode == ModeInsertOnly {
				return nil, InsertResult{}, nil
			}
			out := newNode(2 * PageSize)
			old := append([]byte(nil), node.getVal(idx)...)
			leafUpdate(out, node, idx, key, val)
			return out, InsertResult{Updated: true, Old: old}, nil
		}
		if mode == ModeUpdateOnly {
			return nil, InsertResult{}, nil
		}
		out := newNode(2 * PageSize)
		leafInsert(out, node, idx+1, key, val)
		return out, InsertResult{Added: true}, nil

	case BNodeInternal:
		kptr := node.getPtr(idx)
		knode, res, err := treeInsert(tree, tree.GetPage(kptr), key, val, mode)
		if err != nil || knode == nil {
			return nil, res, err
		}
		tree.DelPage(kptr)
		nsplit, split := nodeSplit3(knode)
		out := newNode(2 * PageSize)
		nodeReplaceKidN(tree, out, node, idx, split[:nsplit]...)
		return out, res, nil

	default:
		panic("btree: unknown node type")
	}
}

func nodeSplit2(left, right, old BNode) {
	assert(old.nkeys() >= 2, "nodeSplit2: fewer than 2 keys")
	nleft := old.nkeys() / 2

	leftBytes := func() uint16 { return Header + 8*nleft + 2*nleft + old.getOffset(nleft) }
	for leftBytes() > PageSize {
		nleft--
	}
	assert(nleft >= 1, "nodeSplit2: left half empty")

	rightBytes := func() uint16 { return old.nbytes() - leftBytes() + Header }
	for rightBytes() > PageSize {
		nleft++
	}
	assert(nleft < old.nkeys(), "nodeSplit2: right half empty")
	nright := old.nkeys() - nleft

	left.setHeader(old.btype(), nleft)
	right.setHeader(old.btype(), nright)
	nodeAppendRange(left, old, 0, 0, nleft)
	nodeAppendRange(right, old, 0, nleft, nright)
	assert(right.nbytes() <= PageSize, "nodeSplit2: right half still too big")
}

// nodeSplit3 splits old into 1-3 pages, each no bigger than PageSize.
func nodeSplit3(old BNode) (uint16, [3]BNode) {
	if old.nbytes() <= PageSize {
		out := old[:PageSize]
		return 1, [3]BNode{out}
	}
	left := newNode(2 * PageSize)
	right := newNode(PageSize)
	nodeSplit2(left, right, old)
	if left.nbytes() <= PageSize {
		return 2, [3]BNode{left[:PageSize], right}
	}
	leftleft := newNode(PageSize)
	middle := newNode(PageSize)
	nodeSplit2(leftleft, middle, left)
	assert(leftleft.nbytes() <= PageSize, "nodeSplit3: left-left half still too big")
	return 3, [3]BNode{leftleft, middle, right}
}

func nodeReplaceKidN(tree *BTree, dst, old BNode, idx uint16, kids ...BNode) {
	inc := uint16(len(kids))
	dst.setHeader(BNodeInternal, old.nkeys()+inc-1)
	nodeAppendRange(dst, old, 0, 0, idx)
	for i, kid := range kids {
		nodeAppendKV(dst, idx+uint16(i), tree.NewPage(kid), kid.getKey(0), nil)
	}
	nodeAppendRange(dst, old, idx+inc, idx+1, old.nkeys()-(idx+1))
}

// Get returns the value stored for key, if present.
func (tree *BTree) Get(key []byte) ([]byte, bool) {
	if tree.Root == 0 {
		return nil, false
	}
	node := tree.GetPage(tree.Root)
	for node.btype() == BNodeInternal {
		idx := lookupLE(node, key)
		node = tree.GetPage(node.getPtr(idx))
	}
	idx := lookupLE(node, key)
	if idx < node.nkeys() && bytesCompare(node.getKey(idx), key) == 0 {
		return node.getVal(idx), true
	}
	return nil, false
}

// Delete removes key from the tree, reporting whether it was present.
func (tree *BTree) Delete(key []byte) (bool, error) {
	if tree.Root == 0 {
		return false, nil
	}
	if err := checkLimit(key, nil); err != nil {
		return false, err
	}
	updated := treeDelete(tree, tree.GetPage(tree.Root), key)
	if updated == nil {
		return false, nil
	}
	tree.DelPage(tree.Root)
	switch {
	case updated.nkeys() == 0:
		tree.Root = 0
	case updated.btype() == BNodeInternal && updated.nkeys() == 1:
		// an internal node left with a single child carries no
		// branching information of its own; drop the root one level.
		tree.Root = updated.getPtr(0)
	default:
		tree.Root = tree.NewPage(updated)
	}
	return true, nil
}

func treeDelete(tree *BTree, node BNode, key []byte) BNode {
	idx := lookupLE(node, key)

	switch node.btype() {
	case BNodeLeaf:
		if idx >= node.nkeys() || bytesCompare(node.getKey(idx), key) != 0 {
			return nil
		}
		out := newNode(PageSize)
		leafDelete(out, node, idx)
		return out

	case BNodeInternal:
		return nodeDelete(tree, node, idx, key)

	default:
		panic("btree: unknown node type")
	}
}

func nodeDelete(tree *BTree, node BNode, idx uint16, key []byte) BNode {
	kptr := node.getPtr(idx)
	updated := treeDelete(tree, tree.GetPage(kptr), key)
	if updated == nil {
		return nil
	}
	tree.DelPage(kptr)

	out := newNode(PageSize)
	mergeDir, sibling := shouldMerge(tree, node, idx, updated)
	switch {
	case mergeDir < 0:
		merged := newNode(PageSize)
		nodeMerge(merged, sibling, updated)
		tree.DelPage(node.getPtr(idx - 1))
		nodeReplace2Kid(out, node, idx-1, tree.NewPage(merged), merged.getKey(0))
	case mergeDir > 0:
		merged := newNode(PageSize)
		nodeMerge(merged, updated, sibling)
		tree.DelPage(node.getPtr(idx + 1))
		nodeReplace2Kid(out, node, idx, tree.NewPage(merged), merged.getKey(0))
	case updated.nkeys() == 0:
		assert(node.nkeys() == 1 && idx == 0, "nodeDelete: lone empty child without sibling")
		out.setHeader(BNodeInternal, 0)
	default:
		nodeReplaceKidN(tree, out, node, idx, updated)
	}
	return out
}

// shouldMerge decides whether updated (the post-delete replacement for
// the child at idx) is small enough that it should be folded into a
// sibling rather than left as its own underfull page. A page at or
// below a quarter full merges; the left sibling is tried first.
func shouldMerge(tree *BTree, node BNode, idx uint16, updated BNode) (int, BNode) {
	if updated.nbytes() > PageSize/4 {
		return 0, nil
	}
	if idx > 0 {
		sibling := tree.GetPage(node.getPtr(idx - 1))
		if sibling.nbytes()+updated.nbytes()-Header <= PageSize {
			return -1, sibling
		}
	}
	if idx+1 < node.nkeys() {
		sibling := tree.GetPage(node.getPtr(idx + 1))
		if sibling.nbytes()+updated.nbytes()-Header <= PageSize {
			return +1, sibling
		}
	}
	return 0, nil
}
