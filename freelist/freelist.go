package freelist

// FreeList is the writer-side handle onto the persistent free-list
// chain. Head is durable state (loaded from, and written back into,
// the master page); Count is written into the head node's total at
// every Fold and carried in memory by the db package between
// transactions, but it is not read back from the head node when a
// database is reopened. offset is transaction-local cursor state into
// the head node, reset to 0 every time a writer transaction copies a
// fresh FreeList; Fold removes the slots it counted as consumed from
// the head node so they are not handed out again. GetPage/NewPage/DelPage are the same page-callback shape
// btree.BTree uses, wired by the txn package to the transaction's
// pending page map.
type FreeList struct {
	Head  uint64
	Count uint64

	offset  uint16
	pending []uint64 // freed this transaction, not yet linked into the chain

	GetPage func(uint64) LNode
	NewPage func(LNode) uint64
	DelPage func(uint64)
}

// Pop returns a page number safe to reuse, or 0 if none is available
// (the caller must then append a brand new page instead). A slot is
// only returned once its stored version is strictly less than
// minReaderVersion — the reclamation horizon spec.md §4.4 requires.
func (fl *FreeList) Pop(minReaderVersion uint64) uint64 {
	for fl.Head != 0 {
		node := fl.GetPage(fl.Head)
		if fl.offset >= node.size() {
			// head node fully drained: retire the node page itself as
			// the allocation and advance to the next chain link. The
			// node's own page was never a live B+tree page, so no
			// version check applies to it.
			ptr := fl.Head
			next := node.getNext()
			fl.DelPage(ptr)
			fl.Head = next
			fl.offset = 0
			return ptr
		}
		ptr, version := node.getSlot(fl.offset)
		if version >= minReaderVersion {
			return 0
		}
		fl.offset++
		if fl.Count > 0 {
			fl.Count--
		}
		return ptr
	}
	return 0
}

// Push buffers ptr to be linked into the persistent chain at the next
// Fold. The page is not reusable until that happens and the stored
// version ages past the reclamation horizon.
func (fl *FreeList) Push(ptr uint64) {
	fl.pending = append(fl.pending, ptr)
}

// Fold links every pending pushed page into new free-list nodes
// appended after the chain's current tail, tagging each slot with
// version — the version the committing transaction is assigned. New
// nodes must land at the tail, not the head: Pop only ever inspects the
// head slot and stops at the first too-new version, so a freshly
// folded (necessarily newest-version) batch placed ahead of older,
// already-reclaimable slots would block Pop from ever reaching them.
// Call this once per commit, after all of the transaction's own page
// frees have been Push-ed.
func (fl *FreeList) Fold(version uint64) {
	freed := fl.pending
	fl.pending = nil
	fl.Count += uint64(len(freed))

	tailPtr := fl.findTail()

	for len(freed) > 0 {
		n := len(freed)
		if n > Cap {
			n = Cap
		}
		chunk := freed[:n]
		freed = freed[n:]

		node := newLNode()
		node.setHeader(uint16(n), 0) // provisional tail: nothing follows it yet
		for i, ptr := range chunk {
			node.setSlot(uint16(i), ptr, version)
		}
		newPtr := fl.NewPage(node)

		// NewPage may Pop the chain's last node as the allocation,
		// leaving the chain empty: the new node then starts it.
		if tailPtr == 0 || fl.Head == 0 {
			fl.Head = newPtr
		} else {
			fl.GetPage(tailPtr).setNext(newPtr)
		}
		tailPtr = newPtr
	}

	if fl.Head != 0 {
		head := fl.GetPage(fl.Head)
		// drop the head slots Pop consumed this transaction, so the
		// next transaction's offset of 0 starts past them
		if fl.offset > 0 {
			remaining := head.size() - fl.offset
			for i := uint16(0); i < remaining; i++ {
				ptr, ver := head.getSlot(fl.offset + i)
				head.setSlot(i, ptr, ver)
			}
			head.setHeader(remaining, head.getNext())
			fl.offset = 0
		}
		head.setTotal(fl.Count)
	}
}

// findTail walks the chain from Head to its last node (the one whose
// next pointer is 0), or returns 0 if the chain is empty.
func (fl *FreeList) findTail() uint64 {
	if fl.Head == 0 {
		return 0
	}
	ptr := fl.Head
	for {
		node := fl.GetPage(ptr)
		next := node.getNext()
		if next == 0 {
			return ptr
		}
		ptr = next
	}
}
