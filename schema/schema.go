// Package schema describes a table's column layout — the TableHead message
// that opens every pbtable buffer — and its wire encoding. See
// SPEC_FULL.md §5 for the normative field-number assignment.
package schema

import (
	"fmt"

	"github.com/mappazzo/pbtable/errs"
	"github.com/mappazzo/pbtable/transform"
	"github.com/mappazzo/pbtable/wire"
)

// Field type names, as they appear on the wire and in the Go API.
const (
	TypeString = "string"
	TypeUint   = "uint"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
)

// IsNumeric reports whether typeName is one of the three numeric primitive
// types that statistics apply to. Of these, only int and uint columns have
// their transform applied; a float column's transform is ignored.
func IsNumeric(typeName string) bool {
	return typeName == TypeUint || typeName == TypeInt || typeName == TypeFloat
}

// IsValidType reports whether typeName is one of the five primitive types.
func IsValidType(typeName string) bool {
	switch typeName {
	case TypeString, TypeUint, TypeInt, TypeFloat, TypeBool:
		return true
	default:
		return false
	}
}

// WireTypeOf returns the wire type used for a row field of the given
// primitive type.
func WireTypeOf(typeName string) wire.WireType {
	switch typeName {
	case TypeString:
		return wire.Len
	case TypeFloat:
		return wire.Fixed32
	default: // uint, int, bool
		return wire.VarintType
	}
}

// Stats holds the per-column summary statistics computed by the stats
// package and carried on the wire inside a Field.
type Stats struct {
	Start float64
	End   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Field describes one column: its name, primitive type, and optional
// transform/stats.
type Field struct {
	Name      string
	Type      string
	Transform *transform.Transform
	Stats     *Stats
}

// Meta is the optional table-level metadata record.
type Meta struct {
	Name     string
	Owner    string
	Link     string
	Comment  string
	RowCount int32
}

// Header is the TableHead message: the ordered field list plus optional
// table metadata.
type Header struct {
	Fields []Field
	Meta   *Meta
}

// Validate checks the structural invariants spec.md §3.5 requires of a
// header: non-empty, unique non-empty names, and recognized types.
func (h Header) Validate() error {
	if len(h.Fields) == 0 {
		return fmt.Errorf("%w: header has no fields", errs.ErrInvalidSchema)
	}

	seen := make(map[string]struct{}, len(h.Fields))
	for _, f := range h.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field name must not be empty", errs.ErrInvalidSchema)
		}

		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field name %q", errs.ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = struct{}{}

		if !IsValidType(f.Type) {
			return fmt.Errorf("%w: unknown type %q for field %q", errs.ErrInvalidSchema, f.Type, f.Name)
		}
	}

	return nil
}

// HasSequence reports whether any field carries a sequence transform,
// which disqualifies the table from random access (spec.md §4.5 Get).
func (h Header) HasSequence() bool {
	for _, f := range h.Fields {
		if f.Transform != nil && f.Transform.Sequence {
			return true
		}
	}

	return false
}

// IndexOf returns the position of the field named name, or -1 if absent.
func (h Header) IndexOf(name string) int {
	for i, f := range h.Fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}
