package exec

import (
	"github.com/quilldb/quilldb/internal/errs"
	"github.com/quilldb/quilldb/row"
	"github.com/quilldb/quilldb/sql"
)

// scanRows materializes every row a ScanClause selects: it plans the
// range, walks it fully, applies FILTER, and trims to OFFSET/LIMIT.
// Grounded on query-parser/execution.go's qlScan/qlScanRun, which
// likewise derefs every row up front into an in-memory slice before
// qlDelete/qlSelect act on it — the only safe way to mutate a table
// while a scan that opened a cursor over it is still logically "live",
// since UPDATE/DELETE need every matching primary key before issuing
// any write.
//
// Unlike the teacher's qlScanRun (which advances a raw int64 counter
// across every visited row, matching or not, so OFFSET/LIMIT silently
// depend on how many FILTER-rejected rows preceded a match), this
// counts only rows that already passed FILTER.
func scanRows(seeker row.Seeker, tdef *row.TableDef, clause *sql.ScanClause) ([]row.Record, error) {
	start, end, cmp1, cmp2, err := planScan(tdef, clause)
	if err != nil {
		return nil, err
	}
	sc, err := row.Scan(seeker, tdef, start, end, cmp1, cmp2)
	if err != nil {
		return nil, err
	}

	var out []row.Record
	var matched int64
	for ; sc.Valid(); sc.Next() {
		var rec row.Record
		if err := sc.Deref(seeker, &rec); err != nil {
			return nil, err
		}

		if clause.Filter.Value.Type != sql.NTUninit {
			ctx := &evalCtx{env: rec}
			keep := evalBool(ctx, clause.Filter)
			if ctx.err != nil {
				return nil, ctx.err
			}
			if !keep {
				continue
			}
		}

		if matched >= clause.Offset && (clause.Limit == sql.NoLimit || matched-clause.Offset < clause.Limit) {
			out = append(out, rec)
		}
		matched++
		if clause.Limit != sql.NoLimit && matched >= clause.Offset+clause.Limit {
			break
		}
	}
	return out, nil
}

func lookupTable(seeker row.Getter, table string) (*row.TableDef, error) {
	tdef, err := row.GetTableDef(seeker, table)
	if err != nil {
		return nil, err
	}
	if tdef == nil {
		return nil, errs.Newf(errs.TableNotFound, "no such table %q", table)
	}
	return tdef, nil
}
