package btree

// CmpOp selects which end of an equal key a seek lands on, matching
// the four comparison operators spec.md §4.8 allows as scan bounds.
type CmpOp int

const (
	CmpGE CmpOp = iota // >=
	CmpGT               // >
	CmpLE               // <=
	CmpLT               // <
)

// frame is one level of the path from root to the current leaf
// position: the node at that level and the child/key index the cursor
// is parked at.
type frame struct {
	node BNode
	idx  uint16
}

// Cursor walks a BTree's leaves in key order without materializing the
// whole tree. It holds a stack of (node, idx) frames from root to leaf,
// the general shape of a stack-based B+tree iterator, adapted here to
// the tree's page-callback access instead of a resident node cache.
type Cursor struct {
	tree  *BTree
	stack []frame
}

// SeekLE descends to the first key satisfying cmp relative to key:
// for CmpGE/CmpGT the first key >= / > key; for CmpLE/CmpLT the last
// key <= / < key, with the stack left so Next()/Prev() continue in
// ascending order.
func (tree *BTree) SeekLE(key []byte, cmp CmpOp) *Cursor {
	c := &Cursor{tree: tree}
	if tree.Root == 0 {
		return c
	}
	ptr := tree.Root
	for {
		node := tree.GetPage(ptr)
		idx := lookupLE(node, key)
		c.stack = append(c.stack, frame{node: node, idx: idx})
		if node.btype() == BNodeLeaf {
			break
		}
		ptr = node.getPtr(idx)
	}
	c.adjustForOp(key, cmp)
	return c
}

func (c *Cursor) adjustForOp(key []byte, cmp CmpOp) {
	if len(c.stack) == 0 {
		return
	}
	top := &c.stack[len(c.stack)-1]
	atKey := top.idx < top.node.nkeys() && bytesCompare(top.node.getKey(top.idx), key) == 0

	switch cmp {
	case CmpGE, CmpGT:
		if top.idx >= top.node.nkeys() || bytesCompare(top.node.getKey(top.idx), key) < 0 {
			c.Next()
		}
		if cmp == CmpGT && atKey {
			c.Next()
		}
	case CmpLE, CmpLT:
		if cmp == CmpLT && atKey {
			c.Prev()
		}
		// CmpLE: lookupLE already lands on the greatest key <= key, or
		// leaves idx at 0 pointing at a smaller key (the dummy key for
		// an empty tree region). Nothing further to adjust.
	}
}

// Valid reports whether the cursor is parked on a real key.
func (c *Cursor) Valid() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := c.stack[len(c.stack)-1]
	// idx 0 of the tree's globally leftmost leaf carries the empty
	// sentinel key Insert plants to cover the whole key space; every
	// other position holds a real, non-empty key (Insert rejects empty
	// keys), so a zero-length key is what marks the sentinel here.
	return top.idx < top.node.nkeys() && len(top.node.getKey(top.idx)) > 0
}

// Key returns the key at the cursor's current position. Valid must be true.
func (c *Cursor) Key() []byte {
	top := c.stack[len(c.stack)-1]
	return top.node.getKey(top.idx)
}

// Val returns the value at the cursor's current position. Valid must be true.
func (c *Cursor) Val() []byte {
	top := c.stack[len(c.stack)-1]
	return top.node.getVal(top.idx)
}

// Next advances the cursor to the next key in ascending order.
func (c *Cursor) Next() {
	c.step(+1)
}

// Prev moves the cursor to the previous key in ascending order.
func (c *Cursor) Prev() {
	c.step(-1)
}

// step moves the leaf frame by delta, climbing and descending through
// sibling subtrees as needed when a leaf's range is exhausted.
func (c *Cursor) step(delta int) {
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		next := int(top.idx) + delta
		if next >= 0 && next < int(top.node.nkeys()) {
			top.idx = uint16(next)
			c.descendToLeaf(delta)
			return
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	// exhausted: leave the stack empty so Valid() reports false.
}

// descendToLeaf walks back down from the current (possibly internal)
// frame to a leaf, always taking the first child when moving forward
// or the last child when moving backward.
func (c *Cursor) descendToLeaf(delta int) {
	for {
		top := c.stack[len(c.stack)-1]
		if top.node.btype() == BNodeLeaf {
			return
		}
		child := c.tree.GetPage(top.node.getPtr(top.idx))
		idx := uint16(0)
		if delta < 0 {
			idx = child.nkeys() - 1
		}
		c.stack = append(c.stack, frame{node: child, idx: idx})
	}
}
