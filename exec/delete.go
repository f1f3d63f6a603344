package exec

import (
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// runDelete scans every matching row, then deletes each by its primary
// key. Grounded directly on query-parser/execution.go's qlDelete.
func runDelete(store row.Store, stmt *sql.Delete) (int, error) {
	tdef, err := lookupTable(store, stmt.Table)
	if err != nil {
		return 0, err
	}

	rows, err := scanRows(store, tdef, &stmt.ScanClause)
	if err != nil {
		return 0, err
	}

	pk := tdef.Cols[:tdef.PKeys]
	deleted := 0
	for _, rec := range rows {
		key := row.Record{}
		for _, col := range pk {
			key.AddValue(col, *rec.Get(col))
		}
		ok, err := row.Delete(store, tdef, key)
		if err != nil {
			return deleted, err
		}
		if !ok {
			return deleted, errs.New(errs.Corruption, "row vanished between scan and delete")
		}
		deleted++
	}
	return deleted, nil
}
