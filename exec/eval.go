// Package exec is the statement executor: it walks the sql package's
// AST directly against a row.Record environment and drives row-layer
// calls inside a single writer transaction per statement (CREATE
// TABLE/INSERT/REPLACE/UPSERT/UPDATE/DELETE) or a single reader
// snapshot (SELECT), per spec.md §7's batch semantics.
//
// Grounded on query-parser/execution.go's qlEval/QLEvalContex
// (recursive tree-walking evaluator over relationalDB.Record), widened
// from its two-literal-type, two-op (QL_NEG only) evaluator to the
// full comparison/arithmetic/boolean operator set sql.Node declares.
package exec

import (
	"bytes"

	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// evalCtx carries the row an expression is evaluated against and
// accumulates the first error hit, the same short-circuiting shape
// query-parser/execution.go's QLEvalContex uses.
type evalCtx struct {
	env row.Record
	out row.Value
	err error
}

func evalExpr(ctx *evalCtx, node sql.Node) {
	if ctx.err != nil {
		return
	}
	switch node.Value.Type {
	case sql.NTSym:
		v := ctx.env.Get(string(node.Value.Str))
		if v == nil {
			ctx.err = errs.Newf(errs.ColumnNotFound, "unknown column %q", node.Value.Str)
			return
		}
		ctx.out = *v

	case sql.NTI64:
		ctx.out = row.Value{Type: row.TypeInt64, I64: node.Value.I64}
	case sql.NTStr:
		ctx.out = row.Value{Type: row.TypeBytes, Str: node.Value.Str}
	case sql.NTBool:
		ctx.out = row.Value{Type: row.TypeBool, Bool: node.Value.Bool}

	case sql.NTNeg:
		evalExpr(ctx, node.Kids[0])
		if ctx.err != nil {
			return
		}
		if !isIntType(ctx.out.Type) {
			ctx.err = errs.New(errs.ValueTypeMismatch, "unary '-' requires an integer operand")
			return
		}
		ctx.out.I64 = -ctx.out.I64

	case sql.NTNot:
		b := evalBool(ctx, node.Kids[0])
		if ctx.err != nil {
			return
		}
		ctx.out = row.Value{Type: row.TypeBool, Bool: !b}

	case sql.NTAnd, sql.NTOr:
		left := evalBool(ctx, node.Kids[0])
		if ctx.err != nil {
			return
		}
		if node.Value.Type == sql.NTAnd && !left {
			ctx.out = row.Value{Type: row.TypeBool, Bool: false}
			return
		}
		if node.Value.Type == sql.NTOr && left {
			ctx.out = row.Value{Type: row.TypeBool, Bool: true}
			return
		}
		right := evalBool(ctx, node.Kids[1])
		if ctx.err != nil {
			return
		}
		ctx.out = row.Value{Type: row.TypeBool, Bool: right}

	case sql.NTEq, sql.NTNe, sql.NTLt, sql.NTGt, sql.NTLe, sql.NTGe:
		evalExpr(ctx, node.Kids[0])
		left := ctx.out
		if ctx.err != nil {
			return
		}
		evalExpr(ctx, node.Kids[1])
		right := ctx.out
		if ctx.err != nil {
			return
		}
		cmp, err := compareValues(left, right)
		if err != nil {
			ctx.err = err
			return
		}
		ctx.out = row.Value{Type: row.TypeBool, Bool: evalCmp(node.Value.Type, cmp)}

	case sql.NTAdd, sql.NTSub, sql.NTMul, sql.NTDiv, sql.NTMod:
		evalExpr(ctx, node.Kids[0])
		left := ctx.out
		if ctx.err != nil {
			return
		}
		evalExpr(ctx, node.Kids[1])
		right := ctx.out
		if ctx.err != nil {
			return
		}
		if !isIntType(left.Type) || !isIntType(right.Type) {
			ctx.err = errs.New(errs.ValueTypeMismatch, "arithmetic requires integer operands")
			return
		}
		ctx.out = row.Value{Type: row.TypeInt64, I64: evalArith(node.Value.Type, left.I64, right.I64, ctx)}

	default:
		ctx.err = errs.Newf(errs.OperationNotSupported, "unsupported expression node %d", node.Value.Type)
	}
}

func evalBool(ctx *evalCtx, node sql.Node) bool {
	evalExpr(ctx, node)
	if ctx.err != nil {
		return false
	}
	if ctx.out.Type != row.TypeBool {
		ctx.err = errs.New(errs.ValueTypeMismatch, "expression is not boolean")
		return false
	}
	return ctx.out.Bool
}

func evalCmp(op sql.NodeType, cmp int) bool {
	switch op {
	case sql.NTEq:
		return cmp == 0
	case sql.NTNe:
		return cmp != 0
	case sql.NTLt:
		return cmp < 0
	case sql.NTGt:
		return cmp > 0
	case sql.NTLe:
		return cmp <= 0
	case sql.NTGe:
		return cmp >= 0
	default:
		return false
	}
}

func evalArith(op sql.NodeType, left, right int64, ctx *evalCtx) int64 {
	switch op {
	case sql.NTAdd:
		return left + right
	case sql.NTSub:
		return left - right
	case sql.NTMul:
		return left * right
	case sql.NTDiv:
		if right == 0 {
			ctx.err = errs.New(errs.OperationNotSupported, "division by zero")
			return 0
		}
		return left / right
	case sql.NTMod:
		if right == 0 {
			ctx.err = errs.New(errs.OperationNotSupported, "division by zero")
			return 0
		}
		return left % right
	default:
		return 0
	}
}

func isIntType(t row.Type) bool {
	switch t {
	case row.TypeInt8, row.TypeInt16, row.TypeInt32, row.TypeInt64, row.TypeID:
		return true
	default:
		return false
	}
}

// compareValues orders two same-kind values: integer types compare by
// their decoded I64 (ID included, as an unsigned quantity never
// negative in practice), BYTES by byte content, BOOL false < true.
func compareValues(a, b row.Value) (int, error) {
	switch {
	case isIntType(a.Type) && isIntType(b.Type):
		switch {
		case a.I64 < b.I64:
			return -1, nil
		case a.I64 > b.I64:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Type == row.TypeBytes && b.Type == row.TypeBytes:
		return bytes.Compare(a.Str, b.Str), nil
	case a.Type == row.TypeBool && b.Type == row.TypeBool:
		switch {
		case a.Bool == b.Bool:
			return 0, nil
		case !a.Bool:
			return -1, nil
		default:
			return 1, nil
		}
	default:
		return 0, errs.Newf(errs.ValueTypeMismatch, "cannot compare mismatched types %d and %d", a.Type, b.Type)
	}
}
