// Package pagestore provides a mapped, growable byte region addressed by
// fixed-size page numbers. It is the lowest layer of quilldb: the B+tree,
// free list, and orchestrator all read and write pages through this
// interface, never touching a file descriptor directly.
package pagestore

// PageSize is the fixed size of every page beyond page 0. Page 0 (the
// master page) lives inside the first page-sized region but only uses
// its first 48 bytes (see db.masterPageSize).
const PageSize = 4096

// PageStore is the single polymorphic boundary in quilldb (see
// spec.md §9 "Dynamic dispatch"): a mapped file for production use, and
// an in-memory slice for tests that want to drive the B+tree, free
// list, and MVCC orchestrator without touching a filesystem.
type PageStore interface {
	// Size returns the current size of the mapped region in bytes.
	Size() int

	// Page returns a byte slice view over the page at ptr. The slice
	// aliases the backing region; writes to it are only durable once
	// Sync is called.
	Page(ptr uint64) []byte

	// Extend grows the backing region to hold at least npages pages,
	// zero-filling the new space.
	Extend(npages int) error

	// Sync durably persists all writes issued since the last Sync.
	Sync() error

	// Close releases the backing resource.
	Close() error
}
