package schema

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mappazzo/pbtable/errs"
	"github.com/mappazzo/pbtable/transform"
	"github.com/mappazzo/pbtable/wire"
)

// Field numbers for the TableHead message and its submessages. These are
// part of the normative wire format (SPEC_FULL.md §5) and must never change.
const (
	tagHeaderFields = 1
	tagHeaderMeta   = 2

	tagFieldName      = 1
	tagFieldType      = 2
	tagFieldTransform = 3
	tagFieldStats     = 4

	tagTransformOffset   = 1
	tagTransformMultip   = 2
	tagTransformDecimals = 3
	tagTransformSequence = 4

	tagStatsStart = 1
	tagStatsEnd   = 2
	tagStatsMin   = 3
	tagStatsMax   = 4
	tagStatsMean  = 5

	tagMetaName     = 1
	tagMetaOwner    = 2
	tagMetaLink     = 3
	tagMetaComment  = 4
	tagMetaRowCount = 5
)

func putTag(buf []byte, fieldNum int, wt wire.WireType) []byte {
	return wire.PutUvarint(buf, wire.Tag(fieldNum, wt))
}

func putString(buf []byte, fieldNum int, s string) []byte {
	if s == "" {
		return buf
	}

	buf = putTag(buf, fieldNum, wire.Len)

	return wire.PutDelimited(buf, []byte(s))
}

func putZigzag(buf []byte, fieldNum int, v int32) []byte {
	if v == 0 {
		return buf
	}

	buf = putTag(buf, fieldNum, wire.VarintType)

	return wire.PutVarint(buf, v)
}

func putBool(buf []byte, fieldNum int, v bool) []byte {
	if !v {
		return buf
	}

	buf = putTag(buf, fieldNum, wire.VarintType)

	return wire.PutUvarint(buf, 1)
}

func putFloat32(buf []byte, fieldNum int, v float32) []byte {
	if v == 0 {
		return buf
	}

	buf = putTag(buf, fieldNum, wire.Fixed32)

	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))

	return append(buf, tmp[:]...)
}

// EncodeTransform serializes t as the raw Transform submessage bytes (no
// length prefix; encodeField frames it).
func EncodeTransform(t transform.Transform) []byte {
	var buf []byte
	buf = putZigzag(buf, tagTransformOffset, t.Offset)
	buf = putZigzag(buf, tagTransformMultip, t.Multip)
	buf = putZigzag(buf, tagTransformDecimals, t.Decimals)
	buf = putBool(buf, tagTransformSequence, t.Sequence)

	return buf
}

func encodeStats(s Stats) []byte {
	var buf []byte
	buf = putFloat32(buf, tagStatsStart, float32(s.Start))
	buf = putFloat32(buf, tagStatsEnd, float32(s.End))
	buf = putFloat32(buf, tagStatsMin, float32(s.Min))
	buf = putFloat32(buf, tagStatsMax, float32(s.Max))
	buf = putFloat32(buf, tagStatsMean, float32(s.Mean))

	return buf
}

func encodeMeta(m Meta) []byte {
	var buf []byte
	buf = putString(buf, tagMetaName, m.Name)
	buf = putString(buf, tagMetaOwner, m.Owner)
	buf = putString(buf, tagMetaLink, m.Link)
	buf = putString(buf, tagMetaComment, m.Comment)
	buf = putZigzag(buf, tagMetaRowCount, m.RowCount)

	return buf
}

func encodeField(f Field) []byte {
	var buf []byte
	buf = putString(buf, tagFieldName, f.Name)
	buf = putString(buf, tagFieldType, f.Type)

	if f.Transform != nil && !f.Transform.IsIdentity() {
		buf = putTag(buf, tagFieldTransform, wire.Len)
		buf = wire.PutDelimited(buf, EncodeTransform(*f.Transform))
	}

	if f.Stats != nil {
		buf = putTag(buf, tagFieldStats, wire.Len)
		buf = wire.PutDelimited(buf, encodeStats(*f.Stats))
	}

	return buf
}

// Encode serializes h as the raw TableHead message bytes (no outer length
// prefix; the caller frames it per spec.md §6.1).
func Encode(h Header) []byte {
	var buf []byte
	for _, f := range h.Fields {
		buf = putTag(buf, tagHeaderFields, wire.Len)
		buf = wire.PutDelimited(buf, encodeField(f))
	}

	if h.Meta != nil {
		buf = putTag(buf, tagHeaderMeta, wire.Len)
		buf = wire.PutDelimited(buf, encodeMeta(*h.Meta))
	}

	return buf
}

// EncodeDelimited serializes h and prefixes it with its varint length,
// ready to be the first bytes of a pbtable buffer.
func EncodeDelimited(h Header) []byte {
	return wire.PutDelimited(nil, Encode(h))
}

// readTaggedFields splits one submessage into its (fieldNum, wire type, raw
// value) entries, used while parsing TableHead/Field/Transform/Stats/Meta. Unknown field
// numbers are retained transiently but simply never consulted, which is
// the forward-compat "skip" behavior spec.md §4.4 requires of row decode
// and which the schema codec follows for consistency.
func readTaggedFields(buf []byte) ([]struct {
	num int
	wt  wire.WireType
	val []byte
}, error) {
	var out []struct {
		num int
		wt  wire.WireType
		val []byte
	}

	offset := 0
	for offset < len(buf) {
		tagVal, n, err := wire.Uvarint(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("%w: malformed tag", errs.ErrCorruptBuffer)
		}
		offset += n

		fieldNum := int(tagVal >> 3)
		wt := wire.WireType(tagVal & 7)

		var val []byte
		switch wt {
		case wire.VarintType:
			_, n, err := wire.Uvarint(buf[offset:])
			if err != nil {
				return nil, fmt.Errorf("%w: malformed varint", errs.ErrCorruptBuffer)
			}
			val = buf[offset : offset+n]
			offset += n
		case wire.Fixed32:
			if offset+4 > len(buf) {
				return nil, fmt.Errorf("%w: truncated fixed32", errs.ErrCorruptBuffer)
			}
			val = buf[offset : offset+4]
			offset += 4
		case wire.Len:
			payload, n, err := wire.ReadDelimited(buf[offset:])
			if err != nil {
				return nil, err
			}
			val = payload
			offset += n
		default:
			return nil, fmt.Errorf("%w: unknown wire type %d", errs.ErrCorruptBuffer, wt)
		}

		out = append(out, struct {
			num int
			wt  wire.WireType
			val []byte
		}{fieldNum, wt, val})
	}

	return out, nil
}

func varintFieldToInt32(val []byte) int32 {
	v, _, _ := wire.Varint(val)
	return v
}

func varintFieldToUint(val []byte) uint64 {
	v, _, _ := wire.Uvarint(val)
	return v
}

func fixed32ToFloat(val []byte) float64 {
	bits := binary.LittleEndian.Uint32(val)
	return float64(math.Float32frombits(bits))
}

// DecodeTransform parses a Transform submessage previously produced by
// EncodeTransform.
func DecodeTransform(buf []byte) (transform.Transform, error) {
	t := transform.NewIdentity()

	fields, err := readTaggedFields(buf)
	if err != nil {
		return t, err
	}

	for _, f := range fields {
		switch f.num {
		case tagTransformOffset:
			t.Offset = varintFieldToInt32(f.val)
		case tagTransformMultip:
			t.Multip = varintFieldToInt32(f.val)
		case tagTransformDecimals:
			t.Decimals = varintFieldToInt32(f.val)
		case tagTransformSequence:
			t.Sequence = varintFieldToUint(f.val) != 0
		}
	}

	return t, nil
}

func decodeStats(buf []byte) (Stats, error) {
	var s Stats

	fields, err := readTaggedFields(buf)
	if err != nil {
		return s, err
	}

	for _, f := range fields {
		switch f.num {
		case tagStatsStart:
			s.Start = fixed32ToFloat(f.val)
		case tagStatsEnd:
			s.End = fixed32ToFloat(f.val)
		case tagStatsMin:
			s.Min = fixed32ToFloat(f.val)
		case tagStatsMax:
			s.Max = fixed32ToFloat(f.val)
		case tagStatsMean:
			s.Mean = fixed32ToFloat(f.val)
		}
	}

	return s, nil
}

func decodeMeta(buf []byte) (Meta, error) {
	var m Meta

	fields, err := readTaggedFields(buf)
	if err != nil {
		return m, err
	}

	for _, f := range fields {
		switch f.num {
		case tagMetaName:
			m.Name = string(f.val)
		case tagMetaOwner:
			m.Owner = string(f.val)
		case tagMetaLink:
			m.Link = string(f.val)
		case tagMetaComment:
			m.Comment = string(f.val)
		case tagMetaRowCount:
			m.RowCount = varintFieldToInt32(f.val)
		}
	}

	return m, nil
}

func decodeField(buf []byte) (Field, error) {
	var f Field

	fields, err := readTaggedFields(buf)
	if err != nil {
		return f, err
	}

	for _, tf := range fields {
		switch tf.num {
		case tagFieldName:
			f.Name = string(tf.val)
		case tagFieldType:
			f.Type = string(tf.val)
		case tagFieldTransform:
			t, err := DecodeTransform(tf.val)
			if err != nil {
				return f, err
			}
			f.Transform = &t
		case tagFieldStats:
			s, err := decodeStats(tf.val)
			if err != nil {
				return f, err
			}
			f.Stats = &s
		}
	}

	return f, nil
}

// Decode parses raw TableHead message bytes (as produced by Encode) into a
// Header.
func Decode(buf []byte) (Header, error) {
	var h Header

	fields, err := readTaggedFields(buf)
	if err != nil {
		return h, err
	}

	for _, tf := range fields {
		switch tf.num {
		case tagHeaderFields:
			f, err := decodeField(tf.val)
			if err != nil {
				return h, err
			}
			h.Fields = append(h.Fields, f)
		case tagHeaderMeta:
			m, err := decodeMeta(tf.val)
			if err != nil {
				return h, err
			}
			h.Meta = &m
		}
	}

	return h, nil
}

// DecodeDelimited reads a length-delimited TableHead message from the head
// of buf, returning the parsed Header and the number of bytes consumed.
func DecodeDelimited(buf []byte) (Header, int, error) {
	payload, n, err := wire.ReadDelimited(buf)
	if err != nil {
		return Header{}, 0, err
	}

	h, err := Decode(payload)
	if err != nil {
		return Header{}, 0, err
	}

	return h, n, nil
}
