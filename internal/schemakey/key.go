// Package schemakey computes a stable identity fingerprint for a table
// schema, so that callers encoding or decoding many buffers of the same
// shape can share one compiled row codec instead of rebuilding it per call.
//
// Grounded on mebo's internal/hash package, which hashes metric name
// strings with xxHash64 for O(1) lookup; here the hashed string is the
// schema's ordered (name, type) list instead of a metric name.
package schemakey

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key is the 64-bit identity fingerprint of a schema, derived from the
// ordered (name, type) list of its fields per spec.md §5.
type Key uint64

// Of computes the fingerprint of fields, an ordered (name, type) list.
func Of(names, types []string) Key {
	var b strings.Builder

	for i := range names {
		b.WriteString(names[i])
		b.WriteByte('\x00')
		b.WriteString(types[i])
		b.WriteByte('\x00')
	}
	b.WriteString(strconv.Itoa(len(names)))

	return Key(xxhash.Sum64String(b.String()))
}
