// Grounded on Govetachun-Go-DB's relationalDB/create.go: existence
// check against @table, prefix allocation from @meta's next_prefix
// counter, then marshal-and-store the definition. Widened here to
// augment every secondary index with the table's primary-key columns
// (so an index key is unique on its own and a scan hit never needs a
// second point query beyond the non-indexed columns) and to track
// per-index prefixes in a slice instead of the teacher's ad hoc prefix
// arithmetic recomputed on every use.
package row

import (
	"encoding/binary"
	"encoding/json"

	"github.com/quilldb/quilldb/btree"
	"github.com/quilldb/quilldb/internal/errs"
)

// TableNew registers tdef: validates its column/index declarations,
// assigns it and its secondary indexes fresh prefixes, and persists the
// definition into the @table catalog. tdef.Prefix and
// tdef.IndexPrefixes are filled in on success.
func TableNew(store Store, tdef *TableDef) error {
	if err := checkTableDef(tdef); err != nil {
		return err
	}

	existing, err := getTableDef(store, tdef.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return errs.Newf(errs.TableAlreadyExists, "table %q already exists", tdef.Name)
	}

	augmented := make([][]string, len(tdef.Indexes))
	for i, index := range tdef.Indexes {
		cols := append(append([]string(nil), index...), tdef.Cols[:tdef.PKeys]...)
		augmented[i] = cols
	}
	tdef.Indexes = augmented

	prefix, err := allocatePrefixes(store, uint32(1+len(tdef.Indexes)))
	if err != nil {
		return err
	}
	tdef.Prefix = prefix
	tdef.IndexPrefixes = make([]uint32, len(tdef.Indexes))
	for i := range tdef.Indexes {
		tdef.IndexPrefixes[i] = prefix + 1 + uint32(i)
	}

	data, err := json.Marshal(tdef)
	if err != nil {
		return errs.Wrap(errs.Corruption, err, "encoding table definition")
	}
	rec := (&Record{}).AddStr("name", []byte(tdef.Name)).AddStr("def", data)
	_, err = dbUpdate(store, TDEF_TABLE, *rec, btree.ModeInsertOnly)
	return err
}

func checkTableDef(tdef *TableDef) error {
	if tdef.Name == "" {
		return errs.New(errs.Corruption, "table definition has no name")
	}
	if tdef.PKeys <= 0 || tdef.PKeys > len(tdef.Cols) {
		return errs.Newf(errs.Corruption, "table %q: invalid primary key column count", tdef.Name)
	}
	if len(tdef.Cols) != len(tdef.Types) {
		return errs.Newf(errs.Corruption, "table %q: column/type count mismatch", tdef.Name)
	}
	for _, index := range tdef.Indexes {
		if len(index) == 0 {
			return errs.Newf(errs.Corruption, "table %q: empty index declaration", tdef.Name)
		}
		for _, col := range index {
			if colIndex(tdef, col) < 0 {
				return errs.Newf(errs.Corruption, "table %q: index column %q not declared", tdef.Name, col)
			}
		}
	}
	return nil
}

// getTableDef loads a table's definition from the @table catalog, or
// returns (nil, nil) if no such table exists.
func getTableDef(store Getter, name string) (*TableDef, error) {
	rec := (&Record{}).AddStr("name", []byte(name))
	ok, err := dbGet(store, TDEF_TABLE, rec)
	if err != nil || !ok {
		return nil, err
	}
	tdef := &TableDef{}
	if err := json.Unmarshal(rec.Get("def").Str, tdef); err != nil {
		return nil, errs.Wrap(errs.Corruption, err, "decoding table definition")
	}
	return tdef, nil
}

// allocatePrefixes reserves n consecutive prefixes starting at @meta's
// current next_prefix counter (bootstrapping it from TablePrefixMin on
// first use) and advances the counter past them.
func allocatePrefixes(store Store, n uint32) (uint32, error) {
	rec := (&Record{}).AddStr("key", []byte("next_prefix"))
	ok, err := dbGet(store, TDEF_META, rec)
	if err != nil {
		return 0, err
	}
	next := uint32(TablePrefixMin)
	if ok {
		next = binary.LittleEndian.Uint32(rec.Get("val").Str)
	}

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, next+n)
	upd := (&Record{}).AddStr("key", []byte("next_prefix")).AddStr("val", buf)
	if _, err := dbUpdate(store, TDEF_META, *upd, btree.ModeUpsert); err != nil {
		return 0, err
	}
	return next, nil
}
