package pagestore

// MemPageStore is a purely in-memory PageStore, grounded on the
// teacher's in-memory page map in kv-store/test_btree.go. It lets the
// B+tree, free list, and orchestrator tests run without a filesystem.
type MemPageStore struct {
	pages [][]byte
}

// NewMem returns an empty in-memory page store.
func NewMem() *MemPageStore {
	return &MemPageStore{}
}

func (m *MemPageStore) Size() int { return len(m.pages) * PageSize }

func (m *MemPageStore) Page(ptr uint64) []byte {
	if int(ptr) >= len(m.pages) {
		panic("pagestore: page out of range")
	}
	return m.pages[ptr]
}

func (m *MemPageStore) Extend(npages int) error {
	for len(m.pages) < npages {
		m.pages = append(m.pages, make([]byte, PageSize))
	}
	return nil
}

func (m *MemPageStore) Sync() error { return nil }

func (m *MemPageStore) Close() error { return nil }

var _ PageStore = (*MemPageStore)(nil)
