package row

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quilldb/quilldb/btree"
)

// memStore adapts an in-memory btree.BTree to the Store/Seeker
// interfaces this package's entry points require, the same map-backed
// page harness idiom as btree/btree_test.go's harness, one level up: a
// full table layer exercised over a plain BTree instead of a real
// transaction.
type memStore struct {
	tree  btree.BTree
	pages map[uint64]btree.BNode
	next  uint64
}

func newMemStore(t *testing.T) *memStore {
	m := &memStore{pages: map[uint64]btree.BNode{}}
	m.tree = btree.BTree{
		GetPage: func(ptr uint64) btree.BNode {
			node, ok := m.pages[ptr]
			require.True(t, ok)
			return node
		},
		NewPage: func(node btree.BNode) uint64 {
			m.next++
			m.pages[m.next] = node
			return m.next
		},
		DelPage: func(ptr uint64) {
			delete(m.pages, ptr)
		},
	}
	root := make(btree.BNode, btree.PageSize)
	btree.InitRootPage(root)
	m.next = 1
	m.pages[1] = root
	m.tree.Root = 1
	return m
}

func (m *memStore) Get(key []byte) ([]byte, bool) { return m.tree.Get(key) }
func (m *memStore) Set(key, val []byte, mode btree.InsertMode) (btree.InsertResult, error) {
	return m.tree.Insert(key, val, mode)
}
func (m *memStore) Delete(key []byte) (bool, error)             { return m.tree.Delete(key) }
func (m *memStore) Seek(key []byte, cmp btree.CmpOp) *btree.Cursor { return m.tree.SeekLE(key, cmp) }

func personTable() *TableDef {
	return &TableDef{
		Name:    "person",
		Cols:    []string{"id", "name", "age"},
		Types:   []Type{TypeBytes, TypeBytes, TypeInt16},
		PKeys:   1,
		Indexes: [][]string{{"name"}},
	}
}

func TestTableNewAndInsertGet(t *testing.T) {
	store := newMemStore(t)
	tdef := personTable()
	require.NoError(t, TableNew(store, tdef))
	assert.NotZero(t, tdef.Prefix)
	require.Len(t, tdef.IndexPrefixes, 1)

	rec := Record{}
	rec.AddStr("id", []byte("1")).AddStr("name", []byte("alice")).AddInt16("age", 30)
	ok, err := Insert(store, tdef, rec)
	require.NoError(t, err)
	assert.True(t, ok)

	got := Record{}
	got.AddStr("id", []byte("1"))
	ok, err = Get(store, tdef, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("alice"), got.Get("name").Str)
	assert.Equal(t, int64(30), got.Get("age").I64)
}

func TestTableNewRejectsDuplicate(t *testing.T) {
	store := newMemStore(t)
	tdef := personTable()
	require.NoError(t, TableNew(store, tdef))

	err := TableNew(store, personTable())
	assert.Error(t, err)
}

func TestInsertThenUpdateThenDelete(t *testing.T) {
	store := newMemStore(t)
	tdef := personTable()
	require.NoError(t, TableNew(store, tdef))

	rec := Record{}
	rec.AddStr("id", []byte("1")).AddStr("name", []byte("alice")).AddInt16("age", 30)
	ok, err := Insert(store, tdef, rec)
	require.NoError(t, err)
	require.True(t, ok)

	// Update must fail against an absent key.
	missing := Record{}
	missing.AddStr("id", []byte("2")).AddStr("name", []byte("bob")).AddInt16("age", 25)
	ok, err = Update(store, tdef, missing)
	require.NoError(t, err)
	assert.False(t, ok)

	updated := Record{}
	updated.AddStr("id", []byte("1")).AddStr("name", []byte("alice")).AddInt16("age", 31)
	ok, err = Update(store, tdef, updated)
	require.NoError(t, err)
	assert.True(t, ok)

	got := Record{}
	got.AddStr("id", []byte("1"))
	ok, err = Get(store, tdef, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(31), got.Get("age").I64)

	key := Record{}
	key.AddStr("id", []byte("1"))
	ok, err = Delete(store, tdef, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Get(store, tdef, &(Record{Cols: []string{"id"}, Vals: []Value{{Type: TypeBytes, Str: []byte("1")}}}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanPrimaryKeyRange(t *testing.T) {
	store := newMemStore(t)
	tdef := personTable()
	require.NoError(t, TableNew(store, tdef))

	ids := []string{"1", "2", "3", "4", "5"}
	for _, id := range ids {
		rec := Record{}
		rec.AddStr("id", []byte(id)).AddStr("name", []byte("n"+id)).AddInt16("age", 20)
		ok, err := Insert(store, tdef, rec)
		require.NoError(t, err)
		require.True(t, ok)
	}

	start := Record{}
	start.AddStr("id", []byte("2"))
	end := Record{}
	end.AddStr("id", []byte("4"))

	sc, err := Scan(store, tdef, start, end, CmpGE, CmpLE)
	require.NoError(t, err)

	var seen []string
	for ; sc.Valid(); sc.Next() {
		var rec Record
		require.NoError(t, sc.Deref(store, &rec))
		seen = append(seen, string(rec.Get("id").Str))
	}
	assert.Equal(t, []string{"2", "3", "4"}, seen)
}

func TestScanSecondaryIndex(t *testing.T) {
	store := newMemStore(t)
	tdef := personTable()
	require.NoError(t, TableNew(store, tdef))

	rows := []struct {
		id, name string
		age      int16
	}{
		{"1", "alice", 30},
		{"2", "bob", 25},
		{"3", "carol", 40},
	}
	for _, r := range rows {
		rec := Record{}
		rec.AddStr("id", []byte(r.id)).AddStr("name", []byte(r.name)).AddInt16("age", r.age)
		ok, err := Insert(store, tdef, rec)
		require.NoError(t, err)
		require.True(t, ok)
	}

	start := Record{}
	start.AddStr("name", []byte("bob"))
	end := Record{}
	end.AddStr("name", []byte("carol"))

	sc, err := Scan(store, tdef, start, end, CmpGE, CmpLE)
	require.NoError(t, err)

	var names []string
	for ; sc.Valid(); sc.Next() {
		var rec Record
		require.NoError(t, sc.Deref(store, &rec))
		names = append(names, string(rec.Get("name").Str))
	}
	assert.Equal(t, []string{"bob", "carol"}, names)
}

func TestUpdateRefreshesSecondaryIndex(t *testing.T) {
	store := newMemStore(t)
	tdef := personTable()
	require.NoError(t, TableNew(store, tdef))

	rec := Record{}
	rec.AddStr("id", []byte("1")).AddStr("name", []byte("alice")).AddInt16("age", 30)
	ok, err := Insert(store, tdef, rec)
	require.NoError(t, err)
	require.True(t, ok)

	renamed := Record{}
	renamed.AddStr("id", []byte("1")).AddStr("name", []byte("alicia")).AddInt16("age", 30)
	ok, err = Update(store, tdef, renamed)
	require.NoError(t, err)
	require.True(t, ok)

	// scanning the old name must turn up nothing now
	sc, err := Scan(store, tdef, Record{Cols: []string{"name"}, Vals: []Value{{Type: TypeBytes, Str: []byte("alice")}}},
		Record{Cols: []string{"name"}, Vals: []Value{{Type: TypeBytes, Str: []byte("alice")}}}, CmpGE, CmpLE)
	require.NoError(t, err)
	assert.False(t, sc.Valid())

	sc, err = Scan(store, tdef, Record{Cols: []string{"name"}, Vals: []Value{{Type: TypeBytes, Str: []byte("alicia")}}},
		Record{Cols: []string{"name"}, Vals: []Value{{Type: TypeBytes, Str: []byte("alicia")}}}, CmpGE, CmpLE)
	require.NoError(t, err)
	require.True(t, sc.Valid())
	var out Record
	require.NoError(t, sc.Deref(store, &out))
	assert.Equal(t, "1", string(out.Get("id").Str))
}
