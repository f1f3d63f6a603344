package row

import (
	"bytes"
	"encoding/binary"

	"github.com/quilldb/quilldb/btree"
	"github.com/quilldb/quilldb/internal/errs"
)

// Seeker is whatever can serve a range cursor and a point lookup: a
// write transaction mid-flight (*txn.Tx) or a read-only snapshot
// (*txn.Reader). Scans never mutate, so either works.
type Seeker interface {
	Get(key []byte) ([]byte, bool)
	Seek(key []byte, cmp btree.CmpOp) *btree.Cursor
}

func toBtreeCmp(cmp CmpOp) btree.CmpOp {
	switch cmp {
	case CmpGE:
		return btree.CmpGE
	case CmpGT:
		return btree.CmpGT
	case CmpLE:
		return btree.CmpLE
	case CmpLT:
		return btree.CmpLT
	default:
		panic("row: toBtreeCmp: unknown op")
	}
}

// Scanner is a compiled range query: which index to read (primary key
// or a secondary index, chosen by findIndex), the byte-range boundary
// derived from the caller's start/end records, and the open cursor
// walking it.
type Scanner struct {
	tdef      *TableDef
	indexNo   int // -1 for the primary key
	indexCols []string

	ascending   bool
	prefixBytes [4]byte
	bound       []byte
	boundOp     CmpOp
	unbounded   bool

	cursor *btree.Cursor
}

// NewScanner compiles a range scan over tdef. start/end give the
// leading indexed-column values bounding the scan (a zero-value Record
// leaves that side open); cmp1 anchors the cursor's starting position,
// cmp2 is the stopping condition checked on every step. A lower-bound
// cmp1 (CmpGE/CmpGT) with an upper-bound cmp2 (e.g. CmpGE then CmpLE)
// yields an ascending scan; an upper-bound cmp1 (CmpLE/CmpLT) with a
// lower-bound cmp2 yields a descending one.
func NewScanner(seeker Seeker, tdef *TableDef, start, end Record, cmp1, cmp2 CmpOp) (*Scanner, error) {
	keys := start.Cols
	if len(end.Cols) > len(keys) {
		keys = end.Cols
	}
	if len(keys) == 0 {
		keys = tdef.Cols[:tdef.PKeys]
	}

	indexNo, indexCols, err := findIndex(tdef, keys)
	if err != nil {
		return nil, err
	}
	prefix := tdef.Prefix
	if indexNo >= 0 {
		prefix = tdef.IndexPrefixes[indexNo]
	}

	startVals, err := orderedPartial(tdef, indexCols, start)
	if err != nil {
		return nil, err
	}
	endVals, err := orderedPartial(tdef, indexCols, end)
	if err != nil {
		return nil, err
	}

	key1 := encodeKeyPartial(prefix, startVals, tdef, indexCols, cmp1)

	sc := &Scanner{
		tdef:      tdef,
		indexNo:   indexNo,
		indexCols: indexCols,
		ascending: cmp1 == CmpGE || cmp1 == CmpGT,
		boundOp:   cmp2,
		unbounded: len(endVals) == 0,
	}
	binary.LittleEndian.PutUint32(sc.prefixBytes[:], prefix)
	if !sc.unbounded {
		sc.bound = encodeKeyPartial(prefix, endVals, tdef, indexCols, cmp2)
		if sc.ascending && bytes.Compare(key1, sc.bound) > 0 {
			return nil, errs.New(errs.BadScanRange, "scan start bound is past its end bound")
		}
		if !sc.ascending && bytes.Compare(key1, sc.bound) < 0 {
			return nil, errs.New(errs.BadScanRange, "scan start bound is past its end bound")
		}
	}

	sc.cursor = seeker.Seek(key1, toBtreeCmp(cmp1))
	return sc, nil
}

// orderedPartial returns the values rec supplies for the leading
// columns of indexCols, stopping at the first column rec has no value
// for (so a zero-value Record yields an empty, fully-open bound).
func orderedPartial(tdef *TableDef, indexCols []string, rec Record) ([]Value, error) {
	out := make([]Value, 0, len(rec.Cols))
	for _, col := range indexCols {
		v := rec.Get(col)
		if v == nil {
			break
		}
		idx := colIndex(tdef, col)
		if idx < 0 || v.Type != tdef.Types[idx] {
			return nil, errs.Newf(errs.ValueTypeMismatch, "column %q: wrong value type for scan bound", col)
		}
		out = append(out, *v)
	}
	return out, nil
}

// Valid reports whether the cursor is on a real record still inside
// this scan's index range. The prefix check stops the scan at the edge
// of this index's key space even when one side is left unbounded.
func (sc *Scanner) Valid() bool {
	if sc.cursor == nil || !sc.cursor.Valid() {
		return false
	}
	key := sc.cursor.Key()
	if len(key) < 4 || !bytes.Equal(key[:4], sc.prefixBytes[:]) {
		return false
	}
	if sc.unbounded {
		return true
	}
	cmp := bytes.Compare(key, sc.bound)
	switch sc.boundOp {
	case CmpLE:
		return cmp <= 0
	case CmpLT:
		return cmp < 0
	case CmpGE:
		return cmp >= 0
	case CmpGT:
		return cmp > 0
	default:
		return false
	}
}

// Next advances the cursor one step in the scan's direction.
func (sc *Scanner) Next() {
	if sc.ascending {
		sc.cursor.Next()
	} else {
		sc.cursor.Prev()
	}
}

// Deref populates rec with the full row at the cursor's current
// position. A primary-key scan decodes the row directly from the
// key/value pair. A secondary-index scan only stores the indexed
// columns plus the primary key in its key (every index is augmented
// with the table's primary-key columns at TableNew time) and a
// placeholder value, so the remaining columns need a second point
// lookup against the primary key; seeker must be the same snapshot the
// scan was opened on.
func (sc *Scanner) Deref(seeker Seeker, rec *Record) error {
	if !sc.Valid() {
		panic("row: Deref called on an invalid scanner")
	}
	key := sc.cursor.Key()

	values := make([]Value, len(sc.tdef.Cols))
	for i, t := range sc.tdef.Types {
		values[i] = Value{Type: t}
	}

	if sc.indexNo < 0 {
		DecodeValues(key[4:], values[:sc.tdef.PKeys])
		DecodeValues(sc.cursor.Val(), values[sc.tdef.PKeys:])
		rec.Cols = append([]string(nil), sc.tdef.Cols...)
		rec.Vals = values
		return nil
	}

	ivalues := make([]Value, len(sc.indexCols))
	for i, col := range sc.indexCols {
		ivalues[i] = Value{Type: sc.tdef.Types[colIndex(sc.tdef, col)]}
	}
	DecodeValues(key[4:], ivalues)
	pkVals := ivalues[len(sc.indexCols)-sc.tdef.PKeys:]

	pkKey := encodeKey(sc.tdef.Prefix, pkVals)
	val, ok := seeker.Get(pkKey)
	if !ok {
		return errs.New(errs.RecordNotFound, "secondary index points at a missing row")
	}
	for i, col := range sc.tdef.Cols[:sc.tdef.PKeys] {
		values[colIndex(sc.tdef, col)] = pkVals[i]
	}
	DecodeValues(val, values[sc.tdef.PKeys:])

	rec.Cols = append([]string(nil), sc.tdef.Cols...)
	rec.Vals = values
	return nil
}
