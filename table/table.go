// Package table implements the container operations over a pbtable
// buffer: Encode/Decode, their verbose-row counterparts, random access via
// Get, in-place append via Add, and the byte-offset index GetIndex.
//
// A buffer is the schema descriptor (schema.EncodeDelimited) followed by
// one length-delimited rowcodec.EncodeRow message per row, concatenated
// with no separators — see SPEC_FULL.md §5.
package table

import (
	"fmt"

	"github.com/mappazzo/pbtable/errs"
	"github.com/mappazzo/pbtable/internal/options"
	"github.com/mappazzo/pbtable/internal/pool"
	"github.com/mappazzo/pbtable/rowcodec"
	"github.com/mappazzo/pbtable/schema"
	"github.com/mappazzo/pbtable/stats"
	"github.com/mappazzo/pbtable/wire"
)

// Table is the array-form in-memory representation: Data[i][j] is the
// value of column j in row i, positionally matching Header.
type Table struct {
	Header []schema.Field
	Data   [][]any
	Meta   *schema.Meta
}

// VerboseTable is the key-value row representation accepted by
// EncodeVerbose/returned by DecodeVerbose.
type VerboseTable struct {
	Header []schema.Field
	Data   []map[string]any
	Meta   *schema.Meta
}

func validateRows(header []schema.Field, data [][]any) error {
	for i, row := range data {
		if len(row) != len(header) {
			return fmt.Errorf("%w: row %d has %d values, header has %d fields", errs.ErrInvalidTable, i, len(row), len(header))
		}
	}

	return nil
}

// attachStats computes and attaches per-column statistics (SPEC_FULL §1, stats)
// over the table's raw, pre-transform values, returning the enriched
// field list. Fields that have no non-null numeric values keep Stats nil.
func attachStats(header []schema.Field, data [][]any) []schema.Field {
	out := make([]schema.Field, len(header))
	copy(out, header)

	for col := range out {
		if !schema.IsNumeric(out[col].Type) {
			continue
		}

		values := make([]any, len(data))
		for row := range data {
			values[row] = data[row][col]
		}

		out[col].Stats = stats.Calculate(values)
	}

	return out
}

// Encode serializes a table into a pbtable buffer: the schema descriptor
// (carrying freshly computed stats and meta.row_count) followed by one
// length-delimited row message per row.
func Encode(t Table) ([]byte, error) {
	if err := validateRows(t.Header, t.Data); err != nil {
		return nil, err
	}

	t.Header = attachStats(t.Header, t.Data)

	return encodeWithHeader(t)
}

// encodeWithHeader serializes t using t.Header's Stats verbatim (set by
// the caller), refreshing only meta.row_count. table.Add's in-place
// statistics path uses this to avoid Encode's unconditional recompute.
func encodeWithHeader(t Table) ([]byte, error) {
	if err := validateRows(t.Header, t.Data); err != nil {
		return nil, err
	}

	meta := t.Meta
	if meta == nil {
		meta = &schema.Meta{}
	}
	metaCopy := *meta
	metaCopy.RowCount = int32(len(t.Data))

	h := schema.Header{Fields: t.Header, Meta: &metaCopy}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	codec, err := rowcodec.For(h)
	if err != nil {
		return nil, err
	}

	buf := pool.GetTableBuffer()
	defer pool.PutTableBuffer(buf)

	buf.MustWrite(schema.EncodeDelimited(h))

	st := rowcodec.NewState(len(t.Header))
	for _, row := range t.Data {
		rowBytes, err := rowcodec.EncodeRow(codec, t.Header, row, st)
		if err != nil {
			return nil, err
		}
		buf.B = wire.PutDelimited(buf.B, rowBytes)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// Decode parses a pbtable buffer back into a Table.
func Decode(buf []byte) (Table, error) {
	h, n, err := schema.DecodeDelimited(buf)
	if err != nil {
		return Table{}, err
	}

	codec, err := rowcodec.For(h)
	if err != nil {
		return Table{}, err
	}

	var data [][]any
	st := rowcodec.NewState(len(h.Fields))

	offset := n
	for offset < len(buf) {
		rowBytes, consumed, err := wire.ReadDelimited(buf[offset:])
		if err != nil {
			return Table{}, err
		}

		row, err := rowcodec.DecodeRow(codec, h.Fields, rowBytes, st)
		if err != nil {
			return Table{}, err
		}

		data = append(data, row)
		offset += consumed
	}

	return Table{Header: h.Fields, Data: data, Meta: h.Meta}, nil
}

// EncodeVerbose converts a VerboseTable to array form and encodes it.
func EncodeVerbose(t VerboseTable) ([]byte, error) {
	data := make([][]any, len(t.Data))
	for i, rec := range t.Data {
		row := make([]any, len(t.Header))
		for j, f := range t.Header {
			row[j] = rec[f.Name]
		}
		data[i] = row
	}

	return Encode(Table{Header: t.Header, Data: data, Meta: t.Meta})
}

// DecodeVerbose decodes a buffer and converts its rows to key-value form.
func DecodeVerbose(buf []byte) (VerboseTable, error) {
	t, err := Decode(buf)
	if err != nil {
		return VerboseTable{}, err
	}

	data := make([]map[string]any, len(t.Data))
	for i, row := range t.Data {
		rec := make(map[string]any, len(t.Header))
		for j, f := range t.Header {
			rec[f.Name] = row[j]
		}
		data[i] = rec
	}

	return VerboseTable{Header: t.Header, Data: data, Meta: t.Meta}, nil
}

func walkRows(buf []byte) (schema.Header, int, []int, error) {
	h, n, err := schema.DecodeDelimited(buf)
	if err != nil {
		return schema.Header{}, 0, nil, err
	}

	var offsets []int
	offset := n
	for offset < len(buf) {
		offsets = append(offsets, offset)

		_, consumed, err := wire.ReadDelimited(buf[offset:])
		if err != nil {
			return schema.Header{}, 0, nil, err
		}
		offset += consumed
	}

	return h, n, offsets, nil
}

// Get performs random access into a buffer without decoding every row.
// indices may repeat or be unsorted. It fails with ErrSequencedRandomAccess
// if any column carries a sequence transform, and with ErrOutOfRange if
// any requested index is out of bounds.
func Get(buf []byte, indices []int) ([][]any, error) {
	h, _, offsets, err := walkRows(buf)
	if err != nil {
		return nil, err
	}

	if h.HasSequence() {
		return nil, errs.ErrSequencedRandomAccess
	}

	codec, err := rowcodec.For(h)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(offsets) {
			return nil, fmt.Errorf("%w: index %d, table has %d rows", errs.ErrOutOfRange, idx, len(offsets))
		}

		rowBytes, _, err := wire.ReadDelimited(buf[offsets[idx]:])
		if err != nil {
			return nil, err
		}

		row, err := rowcodec.DecodeRow(codec, h.Fields, rowBytes, rowcodec.NewState(len(h.Fields)))
		if err != nil {
			return nil, err
		}

		rows[i] = row
	}

	return rows, nil
}

// GetVerbose is Get with its results converted to key-value rows.
func GetVerbose(buf []byte, indices []int) ([]map[string]any, error) {
	rows, err := Get(buf, indices)
	if err != nil {
		return nil, err
	}

	h, _, err := schema.DecodeDelimited(buf)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		rec := make(map[string]any, len(h.Fields))
		for j, f := range h.Fields {
			rec[f.Name] = row[j]
		}
		out[i] = rec
	}

	return out, nil
}

// GetIndex walks the row stream and returns the byte offset of each row
// frame's length varint, in row order. The result is strictly increasing.
// It fails with ErrSequencedRandomAccess under the same rule as Get: a
// sequence-transformed column can only be decoded by walking from its
// start, so an index into its row stream is refused.
func GetIndex(buf []byte) ([]int, error) {
	h, _, offsets, err := walkRows(buf)
	if err != nil {
		return nil, err
	}

	if h.HasSequence() {
		return nil, errs.ErrSequencedRandomAccess
	}

	return offsets, nil
}

// recomputeStats controls whether Add recomputes statistics from scratch
// (the default) or updates them in place, leaving start untouched.
type addConfig struct {
	recomputeStats bool
}

// AddOption configures Add/AddVerbose.
type AddOption = options.Option[*addConfig]

// WithStatsUpdateInPlace makes Add extend existing statistics (min, max,
// end, and a recomputed mean) instead of recomputing them from the whole
// column, per the stats append rule in SPEC_FULL §1.
func WithStatsUpdateInPlace() AddOption {
	return func(c *addConfig) { c.recomputeStats = false }
}

// Add decodes buf, appends newRows, and re-encodes. It does not mutate
// buf. By default statistics are recomputed from scratch; pass
// WithStatsUpdateInPlace to update them incrementally instead.
func Add(buf []byte, newRows [][]any, opts ...AddOption) ([]byte, error) {
	cfg := &addConfig{recomputeStats: true}
	options.Apply(cfg, opts...)

	t, err := Decode(buf)
	if err != nil {
		return nil, err
	}

	if err := validateRows(t.Header, newRows); err != nil {
		return nil, err
	}

	if cfg.recomputeStats {
		t.Data = append(t.Data, newRows...)

		return Encode(t)
	}

	return addWithUpdatedStats(t, newRows)
}

// AddVerbose is Add for key-value rows.
func AddVerbose(buf []byte, newRows []map[string]any, opts ...AddOption) ([]byte, error) {
	t, err := Decode(buf)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, len(newRows))
	for i, rec := range newRows {
		row := make([]any, len(t.Header))
		for j, f := range t.Header {
			row[j] = rec[f.Name]
		}
		rows[i] = row
	}

	return Add(buf, rows, opts...)
}

// addWithUpdatedStats implements the in-place statistics update path: it
// resumes each numeric column's existing Stats (seeded from the number of
// rows decoded from buf, not a rescan of their values) and folds in only
// the newly appended rows, per the stats append rule in SPEC_FULL §1.
func addWithUpdatedStats(t Table, newRows [][]any) ([]byte, error) {
	priorCount := len(t.Data)

	header := make([]schema.Field, len(t.Header))
	copy(header, t.Header)

	for col := range header {
		if !schema.IsNumeric(header[col].Type) {
			continue
		}

		appended := make([]any, len(newRows))
		for row := range newRows {
			appended[row] = newRows[row][col]
		}

		if header[col].Stats == nil {
			header[col].Stats = stats.Calculate(appended)
			continue
		}

		header[col].Stats = stats.Resume(*header[col].Stats, priorCount).Append(appended)
	}

	t.Header = header
	t.Data = append(t.Data, newRows...)

	return encodeWithHeader(t)
}
