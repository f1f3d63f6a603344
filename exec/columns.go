package exec

import (
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// staticType infers an expression's result type from a table's schema
// alone, without evaluating it against any particular row — used to
// describe a SELECT's output columns even when it matches zero rows.
// Mirrors eval.go's evalExpr type propagation (NTSym looks up the
// declared column type; comparisons and boolean operators produce
// BOOL; arithmetic requires integer operands of any width and produces
// INT64).
func staticType(node sql.Node, tdef *row.TableDef) (row.Type, error) {
	switch node.Value.Type {
	case sql.NTSym:
		idx := colIndexInTable(tdef, string(node.Value.Str))
		if idx < 0 {
			return 0, errs.Newf(errs.ColumnNotFound, "no such column %q on table %q", node.Value.Str, tdef.Name)
		}
		return tdef.Types[idx], nil
	case sql.NTI64:
		return row.TypeInt64, nil
	case sql.NTStr:
		return row.TypeBytes, nil
	case sql.NTBool:
		return row.TypeBool, nil
	case sql.NTNeg:
		return staticType(node.Kids[0], tdef)
	case sql.NTNot, sql.NTAnd, sql.NTOr,
		sql.NTEq, sql.NTNe, sql.NTLt, sql.NTGt, sql.NTLe, sql.NTGe:
		return row.TypeBool, nil
	case sql.NTAdd, sql.NTSub, sql.NTMul, sql.NTDiv, sql.NTMod:
		return row.TypeInt64, nil
	default:
		return 0, errs.Newf(errs.OperationNotSupported, "cannot infer a type for expression node %d", node.Value.Type)
	}
}
