package row

import (
	"encoding/binary"

	"github.com/quilldb/quilldb/internal/errs"
)

// encodeKey builds a tree key: a 4-byte little-endian table/index
// prefix followed by the order-preserving encoding of vals, per
// spec.md §6's external key layout.
func encodeKey(prefix uint32, vals []Value) []byte {
	out := make([]byte, 4, 4+16*len(vals))
	binary.LittleEndian.PutUint32(out, prefix)
	return EncodeValues(out, vals)
}

// CmpOp mirrors btree.CmpOp for the partial-key range encoding below,
// so row needn't import btree just to re-export its four constants.
type CmpOp int

const (
	CmpGE CmpOp = iota
	CmpGT
	CmpLE
	CmpLT
)

// isPrefix reports whether short is a column-name prefix of long.
func isPrefix(long, short []string) bool {
	if len(short) > len(long) {
		return false
	}
	for i, c := range short {
		if long[i] != c {
			return false
		}
	}
	return true
}

// findIndex picks which index (primary key, or the narrowest matching
// secondary index) to scan for an equality/range query over keys. It
// returns -1 for the primary key or the secondary index's slot in
// tdef.Indexes, along with that index's full column list.
func findIndex(tdef *TableDef, keys []string) (int, []string, error) {
	pk := tdef.Cols[:tdef.PKeys]
	if isPrefix(pk, keys) {
		return -1, pk, nil
	}

	winner := -1
	for i, index := range tdef.Indexes {
		if !isPrefix(index, keys) {
			continue
		}
		if winner < 0 || len(tdef.Indexes[winner]) > len(index) {
			winner = i
		}
	}
	if winner < 0 {
		return 0, nil, errs.Newf(errs.IndexNotFoundForKey, "table %q: no index covers columns %v", tdef.Name, keys)
	}
	return winner, tdef.Indexes[winner], nil
}

// encodeKeyPartial encodes the known leading columns of a range-scan
// key and pads the remaining declared columns of the chosen index so
// that the result is a correct range boundary under lexicographic byte
// comparison: CMP_GE/CMP_LT bound from below (no padding needed, the
// encoded prefix alone sorts first among its descendants) while
// CMP_GT/CMP_LE bound from above (pad with 0xff so the boundary sorts
// after every real key sharing the given prefix).
func encodeKeyPartial(prefix uint32, vals []Value, tdef *TableDef, keys []string, cmp CmpOp) []byte {
	out := make([]byte, 4, 64)
	binary.LittleEndian.PutUint32(out, prefix)
	out = EncodeValues(out, vals)

	if cmp == CmpGT || cmp == CmpLE {
		for i := len(vals); i < len(keys); i++ {
			out = append(out, 0xff)
		}
	}
	return out
}
