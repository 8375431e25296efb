// Package endian provides the little-endian byte order engine rowcodec uses
// to read and write the fixed32 float fields of a Row message.
//
// The wire format fixes float columns to little-endian fixed32 — there is
// no byte-order choice anywhere in this spec — so this package exposes only
// that one path rather than a general bidirectional byte-order engine.
//
//	import "github.com/mappazzo/pbtable/endian"
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, bits)
package endian

import "encoding/binary"

// Engine is the subset of encoding/binary's ByteOrder/AppendByteOrder
// interfaces rowcodec needs for its fixed32 float fields: reading a
// uint32 out of a 4-byte slice, and appending one without an intermediate
// buffer.
type Engine interface {
	Uint32([]byte) uint32
	AppendUint32([]byte, uint32) []byte
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() Engine {
	return binary.LittleEndian
}
