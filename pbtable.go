// Package pbtable provides a compact binary format for tabular data: a
// column schema (name, type, optional value transform, optional summary
// statistics) followed by one length-delimited row message per record.
//
// # Core Features
//
//   - Five primitive column types: string, uint, int, float, bool
//   - Per-column affine and delta ("sequence") transforms for smaller
//     varints on slowly-changing or monotonic integer columns
//   - Random access to individual rows without decoding the whole buffer
//   - Append that can update a column's statistics incrementally instead
//     of rescanning every row
//   - Array-form and verbose (keyed) row shapes for every operation
//
// # Basic Usage
//
//	import "github.com/mappazzo/pbtable"
//	import "github.com/mappazzo/pbtable/schema"
//
//	tbl := pbtable.Table{
//	    Header: []schema.Field{
//	        {Name: "name", Type: schema.TypeString},
//	        {Name: "score", Type: schema.TypeInt},
//	    },
//	    Data: [][]any{
//	        {"alice", int64(10)},
//	        {"bob", int64(-5)},
//	    },
//	}
//
//	buf, err := pbtable.Encode(tbl)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	got, err := pbtable.Decode(buf)
//
// # Package Structure
//
// This package re-exports the table package's container operations under
// the module's own name, for callers who don't need the schema/transform
// types directly. For per-row and per-schema control, use the rowcodec,
// schema, and transform packages directly.
package pbtable

import (
	"github.com/mappazzo/pbtable/table"
)

// Table is the array-form in-memory representation of a pbtable buffer:
// Data[i][j] is the value of column j in row i, positionally matching
// Header.
type Table = table.Table

// VerboseTable is the key-value row representation accepted by
// EncodeVerbose and returned by DecodeVerbose.
type VerboseTable = table.VerboseTable

// AddOption configures Add and AddVerbose.
type AddOption = table.AddOption

// WithStatsUpdateInPlace makes Add extend a numeric column's existing
// statistics (min, max, end, a recomputed mean) instead of recomputing
// them over the whole column.
//
// Use this when appending to a large table where a full rescan would
// dominate the cost of the append itself; the default (no option) always
// recomputes from scratch, which is simpler to reason about and is the
// only option that can shrink a previously-recorded min/max if the
// caller mutated history out of band.
func WithStatsUpdateInPlace() AddOption {
	return table.WithStatsUpdateInPlace()
}

// Encode serializes t into a pbtable buffer: a schema descriptor (with
// freshly computed per-column statistics and row count) followed by one
// length-delimited row message per row.
//
// Returns ErrInvalidSchema if t.Header is empty, has a duplicate or empty
// field name, or names an unrecognized type; ErrInvalidTable if any row's
// arity doesn't match the header; ErrInvalidTransform if a transformed
// value overflows its column's 32-bit wire width.
func Encode(t Table) ([]byte, error) {
	return table.Encode(t)
}

// Decode parses a pbtable buffer back into a Table.
//
// Returns ErrCorruptBuffer or ErrCorruptRow if buf is truncated or
// malformed.
func Decode(buf []byte) (Table, error) {
	return table.Decode(buf)
}

// EncodeVerbose converts a VerboseTable's keyed rows to array form using
// its Header's column order, then encodes it.
func EncodeVerbose(t VerboseTable) ([]byte, error) {
	return table.EncodeVerbose(t)
}

// DecodeVerbose decodes buf and converts its rows to key-value form,
// keyed by column name.
func DecodeVerbose(buf []byte) (VerboseTable, error) {
	return table.DecodeVerbose(buf)
}

// Get performs random access into buf, decoding only the rows named by
// indices (which may repeat or be unsorted), without decoding the rows in
// between.
//
// Returns ErrSequencedRandomAccess if any column carries a sequence
// transform — a delta-encoded column can only be decoded by walking from
// its start, so indexed access into the middle of it is refused rather
// than silently returning the wrong value. Returns ErrOutOfRange if any
// index is negative or at least the row count.
func Get(buf []byte, indices []int) ([][]any, error) {
	return table.Get(buf, indices)
}

// GetVerbose is Get with its results converted to key-value rows.
func GetVerbose(buf []byte, indices []int) ([]map[string]any, error) {
	return table.GetVerbose(buf, indices)
}

// GetIndex walks buf's row stream and returns the byte offset of each
// row's length-prefix varint, in row order. The result is strictly
// increasing and has one entry per row.
func GetIndex(buf []byte) ([]int, error) {
	return table.GetIndex(buf)
}

// Add decodes buf, appends newRows, and re-encodes the result. It does
// not mutate buf. By default every column's statistics are recomputed
// from scratch; pass WithStatsUpdateInPlace to extend them incrementally
// instead.
func Add(buf []byte, newRows [][]any, opts ...AddOption) ([]byte, error) {
	return table.Add(buf, newRows, opts...)
}

// AddVerbose is Add for key-value rows.
func AddVerbose(buf []byte, newRows []map[string]any, opts ...AddOption) ([]byte, error) {
	return table.AddVerbose(buf, newRows, opts...)
}
