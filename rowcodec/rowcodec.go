// Package rowcodec implements the dynamic per-schema Row message: encoding
// and decoding of one table row against a runtime-described schema.Header,
// with no generated code per schema.
//
// A Row message has one field per schema column, numbered 1..n in header
// order. A null/missing cell is simply omitted — on decode, an absent
// field number yields that column's zero value, mirroring protobuf's
// "missing field" semantics and matching spec.md §4.3's decode rule.
// Unknown field numbers (from a newer producer) are skipped rather than
// rejected, the same forward-compatibility rule the schema codec applies.
package rowcodec

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mappazzo/pbtable/endian"
	"github.com/mappazzo/pbtable/errs"
	"github.com/mappazzo/pbtable/internal/pool"
	"github.com/mappazzo/pbtable/internal/schemakey"
	"github.com/mappazzo/pbtable/schema"
	"github.com/mappazzo/pbtable/transform"
	"github.com/mappazzo/pbtable/wire"
)

var littleEndian = endian.GetLittleEndianEngine()

// fieldSpec is the structural (name/type-derived) part of one column's
// wire layout: its tag byte(s) and wire type. It never changes across
// tables that share a schema shape, which is exactly what makes it safe
// to cache independently of any particular table's transform parameters.
type fieldSpec struct {
	tag uint64
	wt  wire.WireType
	typ string
}

// Codec is the compiled tag/wire-type layout for one schema shape. It
// holds no per-table state (transform parameters, running sequence
// values) and so is safe to share across concurrent Encode/Decode calls
// for any table whose header has this shape.
type Codec struct {
	fields []fieldSpec
}

var (
	cacheMu sync.RWMutex
	cache   = map[schemakey.Key]*Codec{}
	group   singleflight.Group
)

// For builds (or retrieves from cache) the Codec for h's field shape: the
// ordered (name, type) list, which determines every field's tag and wire
// type. Tables that differ only in transform parameters, stats, or meta
// share the same cached Codec.
func For(h schema.Header) (*Codec, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	names := make([]string, len(h.Fields))
	types := make([]string, len(h.Fields))
	for i, f := range h.Fields {
		names[i] = f.Name
		types[i] = f.Type
	}
	key := schemakey.Of(names, types)

	cacheMu.RLock()
	c, ok := cache[key]
	cacheMu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := group.Do(fmt.Sprintf("%d", key), func() (any, error) {
		cacheMu.RLock()
		if c, ok := cache[key]; ok {
			cacheMu.RUnlock()
			return c, nil
		}
		cacheMu.RUnlock()

		built := build(types)

		cacheMu.Lock()
		cache[key] = built
		cacheMu.Unlock()

		return built, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Codec), nil
}

func build(types []string) *Codec {
	fields := make([]fieldSpec, len(types))
	for i, t := range types {
		fields[i] = fieldSpec{
			tag: wire.Tag(i+1, schema.WireTypeOf(t)),
			wt:  schema.WireTypeOf(t),
			typ: t,
		}
	}

	return &Codec{fields: fields}
}

// State carries the per-column running "previous raw value" a sequence
// transform needs across the rows of one Encode or Decode pass. It must
// not be shared between concurrent passes, and must be reset (via
// NewState) between an Encode pass and a Decode pass over the same table.
type State struct {
	prev    []float64
	hasPrev []bool
}

// NewState allocates a State for a table with n columns.
func NewState(n int) *State {
	return &State{prev: make([]float64, n), hasPrev: make([]bool, n)}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int64:
		return float32(n), true
	case int:
		return float32(n), true
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch n := v.(type) {
	case nil:
		return false, false
	case bool:
		return n, true
	default:
		return false, false
	}
}

// zeroValue returns the value a missing field decodes to: the type's
// plain zero, in the same Go type EncodeRow/DecodeRow use for a present
// value of that column (int64/uint64 for an untransformed int/uint
// column, float64 for one with a real affine/sequence transform, since
// such a column's domain value is a float64 quantity even when present).
func zeroValue(fs fieldSpec, f schema.Field) any {
	switch fs.typ {
	case schema.TypeString:
		return ""
	case schema.TypeBool:
		return false
	case schema.TypeFloat:
		return float64(0)
	case schema.TypeInt:
		if f.Transform == nil || f.Transform.IsIdentity() {
			return int64(0)
		}
		return float64(0)
	case schema.TypeUint:
		if f.Transform == nil || f.Transform.IsIdentity() {
			return uint64(0)
		}
		return float64(0)
	default:
		return nil
	}
}

// EncodeRow serializes one row as a Row message. fields supplies the
// header's per-column type/transform metadata; row holds one value per
// column in header order, with nil marking a null cell. st threads the
// running sequence state across the rows of a single table.
func EncodeRow(c *Codec, fields []schema.Field, row []any, st *State) ([]byte, error) {
	if len(row) != len(c.fields) {
		return nil, fmt.Errorf("%w: row has %d values, schema has %d fields", errs.ErrInvalidTable, len(row), len(c.fields))
	}

	buf := pool.GetRowBuffer()
	defer pool.PutRowBuffer(buf)

	for i, fs := range c.fields {
		v := row[i]
		if v == nil {
			continue
		}

		switch fs.typ {
		case schema.TypeString:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: field %q expects a string", errs.ErrInvalidTable, fields[i].Name)
			}
			buf.B = wire.PutUvarint(buf.B, fs.tag)
			buf.B = wire.PutDelimited(buf.B, []byte(s))

		case schema.TypeBool:
			b, ok := toBool(v)
			if !ok {
				return nil, fmt.Errorf("%w: field %q expects a bool", errs.ErrInvalidTable, fields[i].Name)
			}
			buf.B = wire.PutUvarint(buf.B, fs.tag)
			if b {
				buf.B = wire.PutUvarint(buf.B, 1)
			} else {
				buf.B = wire.PutUvarint(buf.B, 0)
			}

		case schema.TypeFloat:
			f, ok := toFloat32(v)
			if !ok {
				return nil, fmt.Errorf("%w: field %q expects a float", errs.ErrInvalidTable, fields[i].Name)
			}
			buf.B = wire.PutUvarint(buf.B, fs.tag)
			buf.B = littleEndian.AppendUint32(buf.B, math.Float32bits(f))

		case schema.TypeInt, schema.TypeUint:
			raw, ok := toFloat64(v)
			if !ok {
				return nil, fmt.Errorf("%w: field %q expects a numeric value", errs.ErrInvalidTable, fields[i].Name)
			}

			t := transform.NewIdentity()
			if fields[i].Transform != nil {
				t = *fields[i].Transform
			}
			stored := t.Encode(raw, st.prev[i], st.hasPrev[i])
			st.prev[i] = raw
			st.hasPrev[i] = true

			buf.B = wire.PutUvarint(buf.B, fs.tag)
			if fs.typ == schema.TypeUint {
				if stored < 0 || stored > math.MaxUint32 {
					return nil, fmt.Errorf("%w: field %q stored value %d does not fit uint32", errs.ErrInvalidTransform, fields[i].Name, stored)
				}
				buf.B = wire.PutUvarint(buf.B, uint64(uint32(stored)))
			} else {
				if stored < math.MinInt32 || stored > math.MaxInt32 {
					return nil, fmt.Errorf("%w: field %q stored value %d does not fit int32", errs.ErrInvalidTransform, fields[i].Name, stored)
				}
				buf.B = wire.PutVarint(buf.B, int32(stored))
			}
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// DecodeRow parses one Row message, applying the inverse transform for
// numeric columns. Absent field numbers decode to the column's zero value
// (empty string / 0 / 0.0 / false); an unknown field number is skipped. A
// malformed varint, a truncated fixed32, or a string length that overruns
// buf is reported as ErrCorruptRow.
func DecodeRow(c *Codec, fields []schema.Field, buf []byte, st *State) ([]any, error) {
	row := make([]any, len(c.fields))
	for i, fs := range c.fields {
		row[i] = zeroValue(fs, fields[i])
	}

	offset := 0
	for offset < len(buf) {
		tagVal, n, err := wire.Uvarint(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("%w: malformed tag", errs.ErrCorruptRow)
		}
		offset += n

		fieldNum := int(tagVal >> 3)
		wt := wire.WireType(tagVal & 7)
		idx := fieldNum - 1

		if idx < 0 || idx >= len(c.fields) {
			n, err := skipField(buf[offset:], wt)
			if err != nil {
				return nil, err
			}
			offset += n
			continue
		}

		fs := c.fields[idx]
		if wt != fs.wt {
			return nil, fmt.Errorf("%w: field %q has wire type %s, expected %s", errs.ErrCorruptRow, fields[idx].Name, wt, fs.wt)
		}

		switch fs.typ {
		case schema.TypeString:
			s, n, err := wire.ReadDelimited(buf[offset:])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errs.ErrCorruptRow, err)
			}
			row[idx] = string(s)
			offset += n

		case schema.TypeBool:
			v, n, err := wire.Uvarint(buf[offset:])
			if err != nil {
				return nil, fmt.Errorf("%w: malformed bool", errs.ErrCorruptRow)
			}
			row[idx] = v != 0
			offset += n

		case schema.TypeFloat:
			if offset+4 > len(buf) {
				return nil, fmt.Errorf("%w: truncated float", errs.ErrCorruptRow)
			}
			bits := littleEndian.Uint32(buf[offset : offset+4])
			row[idx] = float64(math.Float32frombits(bits))
			offset += 4

		case schema.TypeInt:
			v, n, err := wire.Varint(buf[offset:])
			if err != nil {
				return nil, fmt.Errorf("%w: malformed int", errs.ErrCorruptRow)
			}
			offset += n
			row[idx] = applyInverse(fields[idx].Transform, int64(v), idx, st, true)

		case schema.TypeUint:
			u, n, err := wire.Uvarint(buf[offset:])
			if err != nil {
				return nil, fmt.Errorf("%w: malformed uint", errs.ErrCorruptRow)
			}
			offset += n
			row[idx] = applyInverse(fields[idx].Transform, int64(u), idx, st, false)
		}
	}

	return row, nil
}

// applyInverse reverses a column's transform (if any), threading the
// running raw value through st so a sequence transform can reference the
// previously decoded row.
//
// A column with no transform (or an identity one) never had fractional
// precision folded into it, so its round-tripped value is returned as a
// plain int64/uint64 matching its declared type; a column with a real
// affine transform may have compressed a fractional quantity (e.g. a
// latitude) into the integer wire value, so its decoded value is returned
// as the float64 domain quantity Encode started from.
func applyInverse(t *transform.Transform, stored int64, idx int, st *State, signed bool) any {
	identity := t == nil || t.IsIdentity()

	eff := transform.NewIdentity()
	if t != nil {
		eff = *t
	}

	raw := eff.Decode(stored, st.prev[idx], st.hasPrev[idx])
	st.prev[idx] = raw
	st.hasPrev[idx] = true

	if identity {
		if signed {
			return int64(raw)
		}

		return uint64(raw)
	}

	return raw
}

func skipField(buf []byte, wt wire.WireType) (int, error) {
	switch wt {
	case wire.VarintType:
		_, n, err := wire.Uvarint(buf)
		if err != nil {
			return 0, fmt.Errorf("%w: malformed varint in unknown field", errs.ErrCorruptRow)
		}
		return n, nil
	case wire.Fixed32:
		if len(buf) < 4 {
			return 0, fmt.Errorf("%w: truncated fixed32 in unknown field", errs.ErrCorruptRow)
		}
		return 4, nil
	case wire.Len:
		_, n, err := wire.ReadDelimited(buf)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", errs.ErrCorruptRow, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unknown wire type %d", errs.ErrCorruptRow, wt)
	}
}
