package db

import "github.com/quilldb/quilldb/txn"

// readerHeap is a min-heap of live readers ordered by version, so the
// orchestrator can read the reclamation horizon — the smallest live
// reader version — in O(1) and remove a finished reader in O(log n).
//
// Grounded on concurrent-reader-writer/define.go's ReaderList, which
// reaches for container/heap for exactly this reason: the teacher
// already has the right data structure for "minimum live version",
// it's kept rather than replaced.
type readerHeap []*txn.Reader

func (h readerHeap) Len() int            { return len(h) }
func (h readerHeap) Less(i, j int) bool  { return h[i].Version < h[j].Version }
func (h readerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *readerHeap) Push(x any) {
	r := x.(*txn.Reader)
	r.Index = len(*h)
	*h = append(*h, r)
}

func (h *readerHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.Index = -1
	*h = old[:n-1]
	return r
}
