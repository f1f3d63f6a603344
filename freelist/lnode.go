// Package freelist implements the page-granular, version-tagged free
// list described in spec.md §3/§4.4: a singly-linked chain of pages,
// each holding (freed-page-pointer, version-at-free) slots, reusable
// only once no live reader could still observe the freed page.
//
// Grounded on the teacher's unrolled free list in btree/free_list.go
// (header/next/total/pointers layout), with the slot width doubled
// from 8 to 16 bytes to carry the version tag spec.md requires — the
// one part of the teacher's free list that predates its own MVCC
// chapter and has to be generalized rather than copied.
package freelist

import "encoding/binary"

const (
	header     = 4  // 2B type, 2B slot count
	nextOffset = header
	totalOffset = header + 8
	slotsStart  = header + 8 + 8
	slotSize    = 16 // 8B page pointer, 8B version
)

// Cap is the number of (ptr,version) slots a single free-list page can
// hold after the fixed header.
var Cap = (PageSize - slotsStart) / slotSize

// PageSize matches the tree's page size; declared independently so this
// package does not need to import btree for one constant.
const PageSize = 4096

// LNode is a view over a single free-list page.
type LNode []byte

func newLNode() LNode { return make(LNode, PageSize) }

func (n LNode) size() uint16 { return binary.LittleEndian.Uint16(n[2:4]) }

func (n LNode) setHeader(size uint16, next uint64) {
	binary.LittleEndian.PutUint16(n[0:2], 0)
	binary.LittleEndian.PutUint16(n[2:4], size)
	binary.LittleEndian.PutUint64(n[nextOffset:], next)
}

func (n LNode) getNext() uint64 { return binary.LittleEndian.Uint64(n[nextOffset:]) }

func (n LNode) setNext(next uint64) { binary.LittleEndian.PutUint64(n[nextOffset:], next) }

func (n LNode) getTotal() uint64 { return binary.LittleEndian.Uint64(n[totalOffset:]) }

func (n LNode) setTotal(total uint64) { binary.LittleEndian.PutUint64(n[totalOffset:], total) }

func (n LNode) getSlot(i uint16) (ptr, version uint64) {
	pos := slotsStart + int(i)*slotSize
	return binary.LittleEndian.Uint64(n[pos:]), binary.LittleEndian.Uint64(n[pos+8:])
}

func (n LNode) setSlot(i uint16, ptr, version uint64) {
	pos := slotsStart + int(i)*slotSize
	binary.LittleEndian.PutUint64(n[pos:], ptr)
	binary.LittleEndian.PutUint64(n[pos+8:], version)
}
