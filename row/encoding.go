package row

import "encoding/binary"

// EncodeValues appends the order-preserving encoding of vals to out,
// per spec.md §4.8: fixed-width big-endian with the sign bit flipped
// for signed integers (so two's-complement negatives sort before
// positives under plain byte comparison), a single byte for BOOL, a
// plain unsigned big-endian width for ID, and an escape+terminator
// scheme for BYTES so no encoded value can contain an embedded 0x00
// that would confuse it with the next column.
func EncodeValues(out []byte, vals []Value) []byte {
	for _, v := range vals {
		out = encodeValue(out, v)
	}
	return out
}

func encodeValue(out []byte, v Value) []byte {
	switch v.Type {
	case TypeInt8:
		return append(out, byte(v.I64)^0x80)
	case TypeInt16:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(v.I64))
		buf[0] ^= 0x80
		return append(out, buf[:]...)
	case TypeInt32:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v.I64))
		buf[0] ^= 0x80
		return append(out, buf[:]...)
	case TypeInt64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v.I64))
		buf[0] ^= 0x80
		return append(out, buf[:]...)
	case TypeID:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v.I64))
		return append(out, buf[:]...)
	case TypeBool:
		if v.Bool {
			return append(out, 1)
		}
		return append(out, 0)
	case TypeBytes:
		return encodeBytes(out, v.Str)
	default:
		panic("row: encodeValue: unknown type")
	}
}

// encodeBytes escapes 0x00 as {0x01,0x01} and 0x01 as {0x01,0x02},
// copies every other byte verbatim, and terminates with a bare 0x00 —
// the literal scheme spec.md §4.8 specifies.
func encodeBytes(out []byte, s []byte) []byte {
	for _, b := range s {
		switch b {
		case 0x00:
			out = append(out, 0x01, 0x01)
		case 0x01:
			out = append(out, 0x01, 0x02)
		default:
			out = append(out, b)
		}
	}
	return append(out, 0x00)
}

// sizeOf returns the fixed encoded width of t, or -1 if t is
// variable-length (BYTES).
func sizeOf(t Type) int {
	switch t {
	case TypeInt8, TypeBool:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32:
		return 4
	case TypeInt64, TypeID:
		return 8
	case TypeBytes:
		return -1
	default:
		panic("row: sizeOf: unknown type")
	}
}

// DecodeValues fills each out[i].Type-typed value by consuming exactly
// as many bytes from in as that type's encoding produced, in order.
// out's Type fields must already be set; it returns the unconsumed
// remainder of in.
func DecodeValues(in []byte, out []Value) []byte {
	for i := range out {
		switch out[i].Type {
		case TypeInt8:
			out[i].I64 = int64(int8(in[0] ^ 0x80))
			in = in[1:]
		case TypeInt16:
			var buf [2]byte
			copy(buf[:], in[:2])
			buf[0] ^= 0x80
			out[i].I64 = int64(int16(binary.BigEndian.Uint16(buf[:])))
			in = in[2:]
		case TypeInt32:
			var buf [4]byte
			copy(buf[:], in[:4])
			buf[0] ^= 0x80
			out[i].I64 = int64(int32(binary.BigEndian.Uint32(buf[:])))
			in = in[4:]
		case TypeInt64:
			var buf [8]byte
			copy(buf[:], in[:8])
			buf[0] ^= 0x80
			out[i].I64 = int64(binary.BigEndian.Uint64(buf[:]))
			in = in[8:]
		case TypeID:
			out[i].I64 = int64(binary.BigEndian.Uint64(in[:8]))
			in = in[8:]
		case TypeBool:
			out[i].Bool = in[0] != 0
			in = in[1:]
		case TypeBytes:
			var decoded []byte
			decoded, in = decodeBytes(in)
			out[i].Str = decoded
		default:
			panic("row: DecodeValues: unknown type")
		}
		out[i].None = false
	}
	return in
}

func decodeBytes(in []byte) (decoded, rest []byte) {
	i := 0
	for {
		b := in[i]
		if b == 0x00 {
			i++
			break
		}
		if b == 0x01 {
			switch in[i+1] {
			case 0x01:
				decoded = append(decoded, 0x00)
			case 0x02:
				decoded = append(decoded, 0x01)
			}
			i += 2
			continue
		}
		decoded = append(decoded, b)
		i++
	}
	return decoded, in[i:]
}
