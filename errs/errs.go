// Package errs defines the sentinel errors raised across pbtable.
//
// Every exported operation in pbtable fails with one of these sentinels,
// wrapped with call-specific context via fmt.Errorf("%w: ...", errs.ErrX).
// Callers should use errors.Is to distinguish error kinds rather than
// matching on error message text.
package errs

import "errors"

var (
	// ErrInvalidSchema is returned when a table's header is missing, empty,
	// contains a duplicate field name, or names an unknown type.
	ErrInvalidSchema = errors.New("pbtable: invalid schema")

	// ErrInvalidTable is returned when a table's data is not a sequence of
	// rows, or a row's arity does not match the header.
	ErrInvalidTable = errors.New("pbtable: invalid table")

	// ErrInvalidTransform is returned when a transformed integer value does
	// not fit the target type's 32-bit width and signedness.
	ErrInvalidTransform = errors.New("pbtable: invalid transform")

	// ErrCorruptBuffer is returned when a buffer is truncated or a declared
	// length exceeds the remaining bytes.
	ErrCorruptBuffer = errors.New("pbtable: corrupt buffer")

	// ErrCorruptRow is returned when a row message is malformed, or a
	// field's wire type disagrees with the schema.
	ErrCorruptRow = errors.New("pbtable: corrupt row")

	// ErrSequencedRandomAccess is returned by Get/GetIndex-based lookups
	// when any column's transform has Sequence set.
	ErrSequencedRandomAccess = errors.New("pbtable: cannot random-access a sequenced table")

	// ErrOutOfRange is returned when a requested row index is greater than
	// or equal to the row count.
	ErrOutOfRange = errors.New("pbtable: row index out of range")
)
