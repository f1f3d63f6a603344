package row

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEncodeDecodeRoundTrip checks decode(encode(r)) = r across every
// declared Type, mirroring the property check in
// KenLoong-database-from-scratch/core/b_tree_test.go's insert/get pairs
// but applied to the encoding layer directly instead of a live tree.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	vals := []Value{
		{Type: TypeInt8, I64: -42},
		{Type: TypeInt16, I64: -1000},
		{Type: TypeInt32, I64: -70000},
		{Type: TypeInt64, I64: -5000000000},
		{Type: TypeBytes, Str: []byte("hello\x00world\x01!")},
		{Type: TypeBool, Bool: true},
		{Type: TypeID, I64: int64(1234567890)},
	}

	enc := EncodeValues(nil, vals)

	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = Value{Type: v.Type}
	}
	rest := DecodeValues(enc, out)

	assert.Empty(t, rest, "DecodeValues must consume the entire encoding")
	for i := range vals {
		assert.Equal(t, vals[i].I64, out[i].I64, "column %d I64", i)
		assert.Equal(t, vals[i].Bool, out[i].Bool, "column %d Bool", i)
		assert.Equal(t, vals[i].Str, out[i].Str, "column %d Str", i)
	}
}

// TestEncodeOrderPreservesIntSign confirms signed integers sort
// correctly under plain byte comparison once the sign bit is flipped.
func TestEncodeOrderPreservesIntSign(t *testing.T) {
	pairs := [][2]int64{
		{-1, 1},
		{-100, -99},
		{0, 1},
		{-128, 127},
	}
	for _, p := range pairs {
		lo := EncodeValues(nil, []Value{{Type: TypeInt8, I64: p[0]}})
		hi := EncodeValues(nil, []Value{{Type: TypeInt8, I64: p[1]}})
		assert.Truef(t, bytes.Compare(lo, hi) < 0, "encode(%d) must sort before encode(%d)", p[0], p[1])
	}

	lo16 := EncodeValues(nil, []Value{{Type: TypeInt64, I64: -5000000000}})
	hi16 := EncodeValues(nil, []Value{{Type: TypeInt64, I64: 5000000000}})
	assert.True(t, bytes.Compare(lo16, hi16) < 0)
}

// TestEncodeOrderPreservesByteOrder confirms the BYTES escaping scheme
// still sorts lexicographically for ordinary and colliding strings.
func TestEncodeOrderPreservesByteOrder(t *testing.T) {
	strs := [][2][]byte{
		{[]byte("abc"), []byte("abd")},
		{[]byte("abc"), []byte("abcd")},
		{[]byte(""), []byte("a")},
	}
	for _, s := range strs {
		lo := EncodeValues(nil, []Value{{Type: TypeBytes, Str: s[0]}})
		hi := EncodeValues(nil, []Value{{Type: TypeBytes, Str: s[1]}})
		assert.Truef(t, bytes.Compare(lo, hi) < 0, "encode(%q) must sort before encode(%q)", s[0], s[1])
	}
}

// TestEncodeKeyMultiColumnOrder confirms multi-column keys compare
// column-by-column: the leading column dominates regardless of what
// follows it, matching what a primary-key or index scan range relies on.
func TestEncodeKeyMultiColumnOrder(t *testing.T) {
	k1 := encodeKey(7, []Value{{Type: TypeInt32, I64: 1}, {Type: TypeBytes, Str: []byte("zzz")}})
	k2 := encodeKey(7, []Value{{Type: TypeInt32, I64: 2}, {Type: TypeBytes, Str: []byte("aaa")}})
	assert.True(t, bytes.Compare(k1, k2) < 0, "leading column must dominate the comparison")
}

func TestEncodeBytesEscapesZeroAndOne(t *testing.T) {
	in := []byte{0x00, 0x01, 0x02, 0x00}
	enc := encodeBytes(nil, in)
	// every embedded 0x00 must be escaped, so the only bare 0x00 is the
	// terminator at the end
	assert.Equal(t, byte(0x00), enc[len(enc)-1])
	for _, b := range enc[:len(enc)-1] {
		assert.NotEqual(t, byte(0x00), b)
	}
	decoded, rest := decodeBytes(enc)
	assert.Equal(t, in, decoded)
	assert.Empty(t, rest)
}
