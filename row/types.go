// Package row implements the row/index storage layer described in
// spec.md §3/§4.8: TableDef-driven records over the KV tree, an
// order-preserving key encoding, primary/secondary index maintenance,
// and a range scan cursor.
//
// Grounded on Govetachun-Go-DB's relationalDB package, widened from its
// TYPE_BYTES/TYPE_INT64 pair to spec.md's full INT8/16/32/64/BYTES/
// BOOL/ID type set.
package row

import "github.com/quilldb/quilldb/internal/errs"

// Type is a column's value kind.
type Type uint32

const (
	TypeInt8 Type = iota + 1
	TypeInt16
	TypeInt32
	TypeInt64
	TypeBytes
	TypeBool
	TypeID
)

// Value is one cell of a Record. Only the field matching Type is
// meaningful; the others are zero.
type Value struct {
	Type Type
	I64  int64 // backs INT8/16/32/64 (signed) and ID (reinterpreted unsigned)
	Bool bool
	Str  []byte
	None bool // true for a not-yet-populated cell in a partial scan record
}

// TableDef describes a table's columns, primary key, and secondary
// indexes. PKeys is the count of leading columns that form the primary
// key. Prefix and IndexPrefixes are assigned once by TableNew and
// persisted in @table.
type TableDef struct {
	Name          string
	Types         []Type
	Cols          []string
	PKeys         int
	Prefix        uint32
	Indexes       [][]string
	IndexPrefixes []uint32
}

// Meta-table prefixes, process-wide constants built once at startup
// (spec.md §9 "Global state").
const (
	prefixMeta  = 1
	prefixTable = 2
	// TablePrefixMin is the first prefix assigned to a user table.
	TablePrefixMin = 4
)

// TDEF_META is the internal key/value metadata table: next_prefix and
// any other process bookkeeping keyed by name.
var TDEF_META = &TableDef{
	Prefix: prefixMeta,
	Name:   "@meta",
	Types:  []Type{TypeBytes, TypeBytes},
	Cols:   []string{"key", "val"},
	PKeys:  1,
}

// TDEF_TABLE is the internal table-schema catalog: table name to its
// JSON-marshaled TableDef.
var TDEF_TABLE = &TableDef{
	Prefix: prefixTable,
	Name:   "@table",
	Types:  []Type{TypeBytes, TypeBytes},
	Cols:   []string{"name", "def"},
	PKeys:  1,
}

// Record is a table row: a parallel list of column names and values.
// Columns may be added out of declaration order; checkRecord/Get
// reorder and validate against a TableDef.
type Record struct {
	Cols []string
	Vals []Value
}

func (r *Record) add(col string, v Value) *Record {
	r.Cols = append(r.Cols, col)
	r.Vals = append(r.Vals, v)
	return r
}

// AddValue appends a column holding an already-typed Value, for
// callers (like the executor) that build values generically rather
// than through the AddInt64/AddStr/... helpers below.
func (r *Record) AddValue(col string, v Value) *Record {
	return r.add(col, v)
}

func (r *Record) AddInt64(col string, v int64) *Record {
	return r.add(col, Value{Type: TypeInt64, I64: v})
}

func (r *Record) AddInt32(col string, v int32) *Record {
	return r.add(col, Value{Type: TypeInt32, I64: int64(v)})
}

func (r *Record) AddInt16(col string, v int16) *Record {
	return r.add(col, Value{Type: TypeInt16, I64: int64(v)})
}

func (r *Record) AddInt8(col string, v int8) *Record {
	return r.add(col, Value{Type: TypeInt8, I64: int64(v)})
}

func (r *Record) AddID(col string, v uint64) *Record {
	return r.add(col, Value{Type: TypeID, I64: int64(v)})
}

func (r *Record) AddBool(col string, v bool) *Record {
	return r.add(col, Value{Type: TypeBool, Bool: v})
}

func (r *Record) AddStr(col string, v []byte) *Record {
	return r.add(col, Value{Type: TypeBytes, Str: v})
}

// Get returns the value of col, or nil if the record has no such column.
func (r *Record) Get(col string) *Value {
	for i, c := range r.Cols {
		if c == col {
			return &r.Vals[i]
		}
	}
	return nil
}

func colIndex(tdef *TableDef, col string) int {
	for i, c := range tdef.Cols {
		if c == col {
			return i
		}
	}
	return -1
}

// checkRecord reorders rec's columns into tdef's declared order and
// validates every value's type, requiring the first n columns (the
// caller passes tdef.PKeys for a key-only lookup or len(tdef.Cols) for
// a full row) to be present.
func checkRecord(tdef *TableDef, rec Record, n int) ([]Value, error) {
	out := make([]Value, len(tdef.Cols))
	for i := range out {
		out[i] = Value{Type: tdef.Types[i], None: true}
	}
	for i, col := range rec.Cols {
		idx := colIndex(tdef, col)
		if idx < 0 {
			return nil, errs.Newf(errs.ColumnNotFound, "no such column %q on table %q", col, tdef.Name)
		}
		if rec.Vals[i].Type != tdef.Types[idx] {
			return nil, errs.Newf(errs.ValueTypeMismatch, "column %q: expected type %d, got %d", col, tdef.Types[idx], rec.Vals[i].Type)
		}
		out[idx] = rec.Vals[i]
		out[idx].None = false
	}
	for i := 0; i < n; i++ {
		if out[i].None {
			return nil, errs.Newf(errs.PrimaryKeyMissing, "missing required column %q", tdef.Cols[i])
		}
	}
	return out, nil
}
