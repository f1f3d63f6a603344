package exec

import (
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// planScan derives a row.Scan range from a parsed "index by" clause,
// per spec.md's grammar: the clause is a conjunction of one or two
// comparisons between a single column identifier and a constant (e.g.
// "id >= '1' and id <= '2'", or the single-sided "id = '1'"). An absent
// clause scans the whole table by primary key.
func planScan(tdef *row.TableDef, clause *sql.ScanClause) (start, end row.Record, cmp1, cmp2 row.CmpOp, err error) {
	cmp1, cmp2 = row.CmpGE, row.CmpLE

	if clause.IndexBy.Value.Type == sql.NTUninit {
		return start, end, cmp1, cmp2, nil
	}

	preds, err := flattenScanPreds(clause.IndexBy)
	if err != nil {
		return start, end, cmp1, cmp2, err
	}

	haveLower, haveUpper := false, false
	for _, pr := range preds {
		idx := colIndexInTable(tdef, pr.col)
		if idx < 0 {
			return start, end, cmp1, cmp2, errs.Newf(errs.ColumnNotFound, "no such column %q on table %q", pr.col, tdef.Name)
		}
		val, verr := constValue(pr.constNode, tdef.Types[idx])
		if verr != nil {
			return start, end, cmp1, cmp2, verr
		}

		switch pr.op {
		case sql.NTGe, sql.NTGt:
			if haveLower {
				return start, end, cmp1, cmp2, errs.New(errs.BadScanRange, "index by: two lower bounds")
			}
			start = *(&row.Record{}).AddValue(pr.col, val)
			if pr.op == sql.NTGt {
				cmp1 = row.CmpGT
			}
			haveLower = true
		case sql.NTLe, sql.NTLt:
			if haveUpper {
				return start, end, cmp1, cmp2, errs.New(errs.BadScanRange, "index by: two upper bounds")
			}
			end = *(&row.Record{}).AddValue(pr.col, val)
			if pr.op == sql.NTLt {
				cmp2 = row.CmpLT
			}
			haveUpper = true
		case sql.NTEq:
			if haveLower || haveUpper {
				return start, end, cmp1, cmp2, errs.New(errs.BadScanRange, "index by: '=' cannot combine with a range bound")
			}
			start = *(&row.Record{}).AddValue(pr.col, val)
			end = *(&row.Record{}).AddValue(pr.col, val)
			haveLower, haveUpper = true, true
		default:
			return start, end, cmp1, cmp2, errs.New(errs.BadScanRange, "index by: expected a comparison")
		}
	}

	if haveLower && haveUpper && len(start.Cols) > 0 && len(end.Cols) > 0 && start.Cols[0] != end.Cols[0] {
		return start, end, cmp1, cmp2, errs.New(errs.BadScanRange, "index by: lower and upper bounds reference different columns")
	}
	return start, end, cmp1, cmp2, nil
}

type scanPred struct {
	col       string
	op        sql.NodeType
	constNode sql.Node
}

// flattenScanPreds accepts a single comparison node, or an NTAnd of
// exactly two, and returns each as (column, operator, constant).
func flattenScanPreds(node sql.Node) ([]scanPred, error) {
	if node.Value.Type == sql.NTAnd {
		if len(node.Kids) != 2 {
			return nil, errs.New(errs.BadScanRange, "index by: expected exactly two comparisons")
		}
		left, err := scanPredOf(node.Kids[0])
		if err != nil {
			return nil, err
		}
		right, err := scanPredOf(node.Kids[1])
		if err != nil {
			return nil, err
		}
		return []scanPred{left, right}, nil
	}
	pr, err := scanPredOf(node)
	if err != nil {
		return nil, err
	}
	return []scanPred{pr}, nil
}

func scanPredOf(node sql.Node) (scanPred, error) {
	switch node.Value.Type {
	case sql.NTEq, sql.NTNe, sql.NTLt, sql.NTGt, sql.NTLe, sql.NTGe:
	default:
		return scanPred{}, errs.New(errs.BadScanRange, "index by: expected a comparison")
	}
	if node.Value.Type == sql.NTNe {
		return scanPred{}, errs.New(errs.BadScanRange, "index by: '!=' is not a valid range bound")
	}
	if len(node.Kids) != 2 || node.Kids[0].Value.Type != sql.NTSym {
		return scanPred{}, errs.New(errs.BadScanRange, "index by: expected column <op> constant")
	}
	return scanPred{col: string(node.Kids[0].Value.Str), op: node.Value.Type, constNode: node.Kids[1]}, nil
}

func constValue(node sql.Node, t row.Type) (row.Value, error) {
	ctx := &evalCtx{}
	evalExpr(ctx, node)
	if ctx.err != nil {
		return row.Value{}, ctx.err
	}
	if ctx.out.Type != t {
		return row.Value{}, errs.Newf(errs.ValueTypeMismatch, "index by: constant does not match column type")
	}
	return ctx.out, nil
}

func colIndexInTable(tdef *row.TableDef, col string) int {
	for i, c := range tdef.Cols {
		if c == col {
			return i
		}
	}
	return -1
}
