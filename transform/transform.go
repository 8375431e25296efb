// Package transform implements the affine and sequence value transforms
// applied to int/uint columns before varint encoding, and reversed on
// decode. It is the Go port of TransformInteger from the original
// protobuf-table implementation, preserving its zero-Multip edge case (a
// zero Multip short-circuits the decode division rather than panicking)
// for wire compatibility. Null cells never reach this package: rowcodec
// omits them on encode and decodes an absent field to the column's zero
// value without applying Decode.
//
// For example, a temperature column with Multip 100 and Decimals 0 stores
// 25.0 as the integer 2500, which takes two varint bytes instead of a
// four-byte float.
package transform

import "math"

// Transform holds the four parameters of a single column's affine/sequence
// mapping. The zero value has Multip 0: Decode skips the division for it,
// but Encode multiplies by it, so every value encodes to 0. A transform
// meant to scale 1:1 sets Multip to 1 (see NewIdentity).
type Transform struct {
	Offset   int32
	Multip   int32
	Decimals int32
	Sequence bool
}

// NewIdentity returns the no-op transform: Offset 0, Multip 1, Decimals 0,
// Sequence false.
func NewIdentity() Transform {
	return Transform{Multip: 1}
}

// IsIdentity reports whether t is treated as a no-op: Offset 0, Decimals
// 0, no Sequence, and Multip 1 or 0. Multip 0 counts because Decode skips
// the division for it; Encode still multiplies by it.
func (t Transform) IsIdentity() bool {
	return t.Offset == 0 && (t.Multip == 1 || t.Multip == 0) && t.Decimals == 0 && !t.Sequence
}

// pow10 returns 10^n as a float64, including negative exponents.
func pow10(n int32) float64 {
	return math.Pow(10, float64(n))
}

// Encode applies the forward transform to a raw domain value (a float so
// that offset/decimals can scale fractional quantities, e.g. latitude),
// given the previously-seen raw value for the same column (0 for the
// first row or when Sequence is false). The result is truncated toward
// zero, as spec'd.
//
//	d = (Sequence && prev) ? (v - prev) : (v - Offset)
//	stored = trunc(d * Multip * 10^Decimals)
func (t Transform) Encode(v float64, prev float64, hasPrev bool) int64 {
	var d float64
	if t.Sequence && hasPrev {
		d = v - prev
	} else {
		d = v - float64(t.Offset)
	}

	stored := d * float64(t.Multip) * pow10(t.Decimals)

	return int64(stored) // truncates toward zero, matching Go's float->int conversion
}

// Decode reverses Encode, given the previously-decoded raw value for the
// same column (0 for the first row or when Sequence is false). The
// returned value is the raw domain value Encode started from; whether
// that is integral depends on Decimals, not on the column's declared type.
//
//	x = stored * 10^(-Decimals)
//	x = (Multip != 0) ? x / Multip : x
//	v = (Sequence && prev) ? x + prev : x + Offset
func (t Transform) Decode(stored int64, prev float64, hasPrev bool) float64 {
	x := float64(stored) * pow10(-t.Decimals)

	if t.Multip != 0 {
		x /= float64(t.Multip)
	}

	if t.Sequence && hasPrev {
		x += prev
	} else {
		x += float64(t.Offset)
	}

	return x
}
