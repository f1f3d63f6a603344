// Package-level entry points the exec layer drives directly, grounded
// on relationalDB/point_query.go's Get/getTableDef pair — generalized
// from a single in-memory table cache to exported functions that take
// whatever store/seeker the caller's transaction already has open.
package row

import "github.com/quilldb/quilldb/btree"

// GetTableDef loads name's schema from the @table catalog, or returns
// (nil, nil) if it doesn't exist.
func GetTableDef(store Getter, name string) (*TableDef, error) {
	return getTableDef(store, name)
}

// Get looks up rec's primary key in tdef and fills in the rest of the
// row. It reports false (no error) if the key is absent. store need
// only satisfy Getter, so a read-only *txn.Reader snapshot works too.
func Get(store Getter, tdef *TableDef, rec *Record) (bool, error) {
	return dbGet(store, tdef, rec)
}

// Insert adds rec as a new row, failing (false, nil) if its primary key
// already exists.
func Insert(store Store, tdef *TableDef, rec Record) (bool, error) {
	return dbUpdate(store, tdef, rec, btree.ModeInsertOnly)
}

// Upsert inserts rec or overwrites the existing row at its primary key.
func Upsert(store Store, tdef *TableDef, rec Record) (bool, error) {
	return dbUpdate(store, tdef, rec, btree.ModeUpsert)
}

// Update overwrites the existing row at rec's primary key, failing
// (false, nil) if it is absent.
func Update(store Store, tdef *TableDef, rec Record) (bool, error) {
	return dbUpdate(store, tdef, rec, btree.ModeUpdateOnly)
}

// Delete removes the row at rec's primary key, reporting whether it was
// present.
func Delete(store Store, tdef *TableDef, rec Record) (bool, error) {
	return dbDelete(store, tdef, rec)
}

// Scan compiles a range query over tdef; see NewScanner.
func Scan(seeker Seeker, tdef *TableDef, start, end Record, cmp1, cmp2 CmpOp) (*Scanner, error) {
	return NewScanner(seeker, tdef, start, end, cmp1, cmp2)
}
