package freelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness is a minimal in-memory LNode page map, mirroring the
// map-backed page callbacks btree's own tests use for the tree, so the
// free list can be exercised without a real pagestore.
type harness struct {
	t     *testing.T
	pages map[uint64]LNode
	next  uint64
	fl    FreeList
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, pages: map[uint64]LNode{}}
	h.fl = FreeList{
		GetPage: func(ptr uint64) LNode {
			node, ok := h.pages[ptr]
			require.True(t, ok)
			return node
		},
		NewPage: func(node LNode) uint64 {
			h.next++
			h.pages[h.next] = node
			return h.next
		},
		DelPage: func(ptr uint64) {
			_, ok := h.pages[ptr]
			require.True(t, ok)
			delete(h.pages, ptr)
		},
	}
	return h
}

func TestFoldThenPopHonorsVersionHorizon(t *testing.T) {
	h := newHarness(t)
	h.fl.Push(100)
	h.fl.Push(101)
	h.fl.Fold(5) // both slots tagged version 5

	assert.Equal(t, uint64(2), h.fl.Count)

	// a reader as old as version 5 must block reclamation of those slots
	assert.Equal(t, uint64(0), h.fl.Pop(5))
	// once the horizon passes version 5, the slots become reusable
	got1 := h.fl.Pop(6)
	got2 := h.fl.Pop(6)
	assert.ElementsMatch(t, []uint64{100, 101}, []uint64{got1, got2})
	assert.Equal(t, uint64(0), h.fl.Count)
}

func TestPopDrainsHeadNodeThenAdvances(t *testing.T) {
	h := newHarness(t)
	for i := uint64(0); i < uint64(Cap+3); i++ {
		h.fl.Push(1000 + i)
	}
	h.fl.Fold(1) // splits into two chain nodes: Cap slots, then 3 slots

	var got []uint64
	for {
		ptr := h.fl.Pop(2)
		if ptr == 0 {
			break
		}
		got = append(got, ptr)
	}
	// every data slot, plus each drained chain node's own page
	assert.Len(t, got, Cap+5)
	assert.Equal(t, uint64(0), h.fl.Count)
	assert.Equal(t, uint64(0), h.fl.Head, "chain must be fully retired once drained")
}

// TestFoldAppendsAtTailNotHead exercises two Fold calls at different
// versions with the first left partially unconsumed: the older batch
// must still be reachable and returned before the newer one, since a
// newer batch linked ahead of it would block Pop from ever draining
// the still-reclaimable older slots behind it.
func TestFoldAppendsAtTailNotHead(t *testing.T) {
	h := newHarness(t)
	h.fl.Push(100)
	h.fl.Push(101)
	h.fl.Fold(5) // older batch, version 5

	// drain only one of the two version-5 slots before folding again
	got := h.fl.Pop(6)
	assert.Contains(t, []uint64{100, 101}, got)

	h.fl.Push(200)
	h.fl.Fold(10) // newer batch, version 10, must land after the old one

	// the remaining version-5 slot must still come out before the
	// version-10 slot, even though a reader as new as version 11 could
	// observe either
	remaining := h.fl.Pop(11)
	assert.Contains(t, []uint64{100, 101}, remaining)
	assert.NotEqual(t, got, remaining)

	// the drained version-5 node's own page (the harness's page 1) is
	// handed out before the chain advances to the version-10 node
	assert.Equal(t, uint64(1), h.fl.Pop(11))
	assert.Equal(t, uint64(200), h.fl.Pop(11))
	assert.Equal(t, uint64(0), h.fl.Count)
}

func TestPushIsBufferedUntilFold(t *testing.T) {
	h := newHarness(t)
	h.fl.Push(42)
	assert.Equal(t, uint64(0), h.fl.Count, "Push alone must not make a slot reusable")
	assert.Equal(t, uint64(0), h.fl.Pop(1000))

	h.fl.Fold(1)
	assert.Equal(t, uint64(1), h.fl.Count)
	assert.Equal(t, uint64(42), h.fl.Pop(2))
}
