package row

import "github.com/quilldb/quilldb/btree"

// Store is the minimal write surface the row layer needs; satisfied by
// *txn.Tx. Read-only lookups additionally satisfy Seeker (see scan.go).
type Store interface {
	Get(key []byte) ([]byte, bool)
	Set(key, val []byte, mode btree.InsertMode) (btree.InsertResult, error)
	Delete(key []byte) (bool, error)
}

// Getter is the point-lookup surface both a write transaction and a
// read-only snapshot satisfy. Schema lookups (getTableDef) only ever
// need Get, so they take a Getter rather than the full Store, letting a
// SELECT resolve table schema straight from its *txn.Reader snapshot.
type Getter interface {
	Get(key []byte) ([]byte, bool)
}

// dbGet looks up rec's primary key against tdef and, if found, fills in
// rec's remaining columns. It reports false (no error) if absent.
func dbGet(store Getter, tdef *TableDef, rec *Record) (bool, error) {
	values, err := checkRecord(tdef, *rec, tdef.PKeys)
	if err != nil {
		return false, err
	}
	key := encodeKey(tdef.Prefix, values[:tdef.PKeys])
	val, ok := store.Get(key)
	if !ok {
		return false, nil
	}
	DecodeValues(val, values[tdef.PKeys:])

	rec.Cols = append([]string(nil), tdef.Cols...)
	rec.Vals = values
	return true, nil
}

// dbUpdate inserts or updates rec (every column must be present) and
// keeps every secondary index in sync, per mode.
func dbUpdate(store Store, tdef *TableDef, rec Record, mode btree.InsertMode) (bool, error) {
	values, err := checkRecord(tdef, rec, len(tdef.Cols))
	if err != nil {
		return false, err
	}

	key := encodeKey(tdef.Prefix, values[:tdef.PKeys])
	val := EncodeValues(nil, values[tdef.PKeys:])

	res, err := store.Set(key, val, mode)
	if err != nil {
		return false, err
	}
	if !res.Added && !res.Updated {
		return false, nil
	}

	if len(tdef.Indexes) > 0 {
		if res.Updated {
			old := append([]Value(nil), values...)
			DecodeValues(res.Old, old[tdef.PKeys:])
			if err := indexOp(store, tdef, old, indexOpDel); err != nil {
				return false, err
			}
		}
		if err := indexOp(store, tdef, values, indexOpAdd); err != nil {
			return false, err
		}
	}
	return true, nil
}

// dbDelete removes rec's primary key, cleaning up every secondary index
// entry the row had. It reports false (no error) if the key was absent.
func dbDelete(store Store, tdef *TableDef, rec Record) (bool, error) {
	values, err := checkRecord(tdef, rec, tdef.PKeys)
	if err != nil {
		return false, err
	}
	key := encodeKey(tdef.Prefix, values[:tdef.PKeys])

	val, ok := store.Get(key)
	if !ok {
		return false, nil
	}

	if len(tdef.Indexes) > 0 {
		DecodeValues(val, values[tdef.PKeys:])
		if err := indexOp(store, tdef, values, indexOpDel); err != nil {
			return false, err
		}
	}
	return store.Delete(key)
}
