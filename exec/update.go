package exec

import (
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// runUpdate scans every matching row, re-evaluates each SET expression
// against that row's own (pre-update) values, and writes the modified
// row back in full. No teacher counterpart exists (qlUpdate was never
// implemented in query-parser/execution.go); built in the same
// scan-then-mutate shape as qlDelete.
func runUpdate(store row.Store, stmt *sql.Update) (int, error) {
	tdef, err := lookupTable(store, stmt.Table)
	if err != nil {
		return 0, err
	}

	rows, err := scanRows(store, tdef, &stmt.ScanClause)
	if err != nil {
		return 0, err
	}

	for _, col := range stmt.Names {
		idx := colIndexInTable(tdef, col)
		if idx < 0 {
			return 0, errs.Newf(errs.ColumnNotFound, "no such column %q on table %q", col, tdef.Name)
		}
		if idx < tdef.PKeys {
			return 0, errs.Newf(errs.OperationNotSupported, "cannot SET primary key column %q", col)
		}
	}

	updated := 0
	for _, rec := range rows {
		newRec := row.Record{Cols: append([]string(nil), rec.Cols...), Vals: append([]row.Value(nil), rec.Vals...)}
		for i, col := range stmt.Names {
			idx := colIndexInTable(tdef, col)
			if idx < 0 {
				return updated, errs.Newf(errs.ColumnNotFound, "no such column %q on table %q", col, tdef.Name)
			}
			ctx := &evalCtx{env: rec}
			evalExpr(ctx, stmt.Values[i])
			if ctx.err != nil {
				return updated, ctx.err
			}
			val, err := coerceValue(ctx.out, tdef.Types[idx])
			if err != nil {
				return updated, err
			}
			*newRec.Get(col) = val
		}

		ok, err := row.Update(store, tdef, newRec)
		if err != nil {
			return updated, err
		}
		if !ok {
			return updated, errs.New(errs.Corruption, "row vanished between scan and update")
		}
		updated++
	}
	return updated, nil
}
