package exec

import (
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// runInsert evaluates each VALUES tuple and writes it through the
// row layer per stmt.Mode, grounded on relationalDB/update.go's
// InsertReq.InsertEx mode dispatch (MODE_INSERT_ONLY/MODE_UPDATE_ONLY/
// MODE_UPSERT), generalized from the teacher's map[string]Value literal
// values to AST expressions evaluated with an empty environment.
func runInsert(store row.Store, tdef *row.TableDef, stmt *sql.Insert) (int, error) {
	names := stmt.Names
	if len(names) == 0 {
		names = tdef.Cols
	}

	added := 0
	for _, tuple := range stmt.Values {
		if len(tuple) != len(names) {
			return added, errs.Newf(errs.ValueTypeMismatch, "table %q: %d columns named but %d values given", tdef.Name, len(names), len(tuple))
		}

		rec := row.Record{}
		for i, col := range names {
			idx := colIndexInTable(tdef, col)
			if idx < 0 {
				return added, errs.Newf(errs.ColumnNotFound, "no such column %q on table %q", col, tdef.Name)
			}
			ctx := &evalCtx{}
			evalExpr(ctx, tuple[i])
			if ctx.err != nil {
				return added, ctx.err
			}
			val, err := coerceValue(ctx.out, tdef.Types[idx])
			if err != nil {
				return added, err
			}
			rec.AddValue(col, val)
		}

		var ok bool
		var err error
		switch stmt.Mode {
		case sql.ModeInsertOnly:
			ok, err = row.Insert(store, tdef, rec)
		case sql.ModeUpdateOnly:
			ok, err = row.Update(store, tdef, rec)
		case sql.ModeUpsert:
			ok, err = row.Upsert(store, tdef, rec)
		default:
			return added, errs.Newf(errs.OperationNotSupported, "unknown insert mode %d", stmt.Mode)
		}
		if err != nil {
			return added, err
		}
		if !ok {
			return added, errs.Newf(errs.RecordNotFound, "table %q: row not written (primary key conflict or missing row)", tdef.Name)
		}
		added++
	}
	return added, nil
}

// coerceValue adapts a literal's evaluated Value onto a column's
// declared Type: the literal grammar only distinguishes integer/
// string/bool, so an INT8 column's value arrives tagged TypeInt64 and
// needs its Type field narrowed before row-layer encoding, which sizes
// the wire form strictly off Type.
func coerceValue(v row.Value, t row.Type) (row.Value, error) {
	switch {
	case isIntType(t) && isIntType(v.Type):
		return row.Value{Type: t, I64: v.I64}, nil
	case t == row.TypeBytes && v.Type == row.TypeBytes:
		return row.Value{Type: t, Str: v.Str}, nil
	case t == row.TypeBool && v.Type == row.TypeBool:
		return row.Value{Type: t, Bool: v.Bool}, nil
	default:
		return row.Value{}, errs.Newf(errs.ValueTypeMismatch, "value of kind %d cannot be stored in a column of type %d", v.Type, t)
	}
}
