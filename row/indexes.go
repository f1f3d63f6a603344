package row

import "github.com/quilldb/quilldb/btree"

const (
	indexOpAdd = 1
	indexOpDel = 2
)

// indexValuePlaceholder is the fixed value stored at every secondary
// index entry. Secondary index keys are augmented with the table's
// primary-key columns at TableNew time, so the key alone is globally
// unique and already carries everything Deref needs to find the row;
// the value slot exists only because the tree requires one.
var indexValuePlaceholder = []byte{0x01}

// indexOp adds or removes every secondary index entry for a fully
// populated values slice (one entry per column in tdef.Cols order, as
// produced by checkRecord with n == len(tdef.Cols)).
func indexOp(store Store, tdef *TableDef, values []Value, op int) error {
	for i, index := range tdef.Indexes {
		ivals := make([]Value, len(index))
		for j, col := range index {
			ivals[j] = values[colIndex(tdef, col)]
		}
		key := encodeKey(tdef.IndexPrefixes[i], ivals)

		switch op {
		case indexOpAdd:
			if _, err := store.Set(key, indexValuePlaceholder, btree.ModeInsertOnly); err != nil {
				return err
			}
		case indexOpDel:
			if _, err := store.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}
