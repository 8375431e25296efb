// Package wire implements the low-level varint and length-delimited framing
// primitives shared by every message pbtable puts on the wire: the schema
// block and every row frame are each a varint length followed by that many
// bytes of payload, and every VARINT-typed field inside those messages uses
// the same unsigned/zig-zag encoding.
package wire

import (
	"github.com/mappazzo/pbtable/errs"
)

// WireType identifies how a tagged field's value is laid out on the wire,
// mirroring the protobuf-style tag scheme documented in SPEC_FULL.md.
type WireType uint8

const (
	VarintType WireType = 0 // unsigned or zig-zag varint
	Fixed32    WireType = 5 // 4-byte little-endian value (float)
	Len        WireType = 2 // varint length + that many bytes (string, submessage)
)

func (w WireType) String() string {
	switch w {
	case VarintType:
		return "varint"
	case Fixed32:
		return "fixed32"
	case Len:
		return "len"
	default:
		return "unknown"
	}
}

// Tag packs a field number and wire type into the single varint that
// precedes every field's value, matching the protobuf tag layout
// (fieldNum<<3 | wireType).
func Tag(fieldNum int, wt WireType) uint64 {
	return uint64(fieldNum)<<3 | uint64(wt)
}

// PutUvarint appends v to buf as an unsigned varint (7 bits per byte,
// continuation bit in the MSB, little-endian groups) and returns the
// extended slice.
func PutUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}

	return append(buf, byte(v))
}

// Uvarint decodes an unsigned varint from the head of buf, returning the
// value and the number of bytes consumed. It returns ErrCorruptBuffer if
// buf ends before a terminating byte is found.
func Uvarint(buf []byte) (uint64, int, error) {
	var v uint64

	for i, b := range buf {
		if i >= 10 {
			return 0, 0, errs.ErrCorruptBuffer
		}

		v |= uint64(b&0x7F) << (7 * i)
		if b < 0x80 {
			return v, i + 1, nil
		}
	}

	return 0, 0, errs.ErrCorruptBuffer
}

// zigzagEncode maps a signed 32-bit value onto an unsigned one so that
// small-magnitude negative numbers still encode to a small varint:
// 0 -> 0, -1 -> 1, 1 -> 2, -2 -> 3, ...
func zigzagEncode(v int32) uint32 {
	return (uint32(v) << 1) ^ uint32(v>>31)
}

// zigzagDecode reverses zigzagEncode.
func zigzagDecode(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// PutVarint appends the zig-zag encoding of v (a 32-bit signed value) to buf
// as a varint.
func PutVarint(buf []byte, v int32) []byte {
	return PutUvarint(buf, uint64(zigzagEncode(v)))
}

// Varint decodes a zig-zag varint from the head of buf into a 32-bit signed
// value, returning the number of bytes consumed.
func Varint(buf []byte) (int32, int, error) {
	u, n, err := Uvarint(buf)
	if err != nil {
		return 0, 0, err
	}

	return zigzagDecode(uint32(u)), n, nil
}

// PutDelimited appends a length-delimited message to buf: an unsigned
// varint holding len(payload), followed by payload itself.
func PutDelimited(buf []byte, payload []byte) []byte {
	buf = PutUvarint(buf, uint64(len(payload)))

	return append(buf, payload...)
}

// ReadDelimited reads a length-delimited message from the head of buf,
// returning the payload slice (a subslice of buf, not a copy) and the
// number of bytes consumed (length prefix + payload). It returns
// ErrCorruptBuffer if the prefix is malformed or the declared length
// exceeds the remaining bytes.
func ReadDelimited(buf []byte) ([]byte, int, error) {
	length, n, err := Uvarint(buf)
	if err != nil {
		return nil, 0, err
	}

	end := n + int(length)
	if end < n || end > len(buf) {
		return nil, 0, errs.ErrCorruptBuffer
	}

	return buf[n:end], end, nil
}
