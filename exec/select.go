package exec

import (
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// runSelect executes a compiled SELECT against seeker, the read-only
// snapshot ExecuteQuery opens (ExecuteCommand rejects SELECT, so no
// SELECT runs inside a write transaction). Grounded on query-parser/execution.go's qlSelect: scan,
// then evaluate each projection expression per matched row.
func runSelect(seeker row.Seeker, stmt *sql.Select) ([]row.Record, error) {
	tdef, err := lookupTable(seeker, stmt.Table)
	if err != nil {
		return nil, err
	}

	rows, err := scanRows(seeker, tdef, &stmt.ScanClause)
	if err != nil {
		return nil, err
	}

	out := make([]row.Record, 0, len(rows))
	for _, rec := range rows {
		orec := row.Record{}
		for i, node := range stmt.Output {
			ctx := &evalCtx{env: rec}
			evalExpr(ctx, node)
			if ctx.err != nil {
				return nil, ctx.err
			}
			name := stmt.Names[i]
			if name == "" {
				name = exprLabel(node)
			}
			orec.AddValue(name, ctx.out)
		}
		out = append(out, orec)
	}
	return out, nil
}

// exprLabel names an unaliased output column: the column name itself
// for a bare symbol, or a generic positional placeholder otherwise.
func exprLabel(node sql.Node) string {
	if node.Value.Type == sql.NTSym {
		return string(node.Value.Str)
	}
	return "?column?"
}
