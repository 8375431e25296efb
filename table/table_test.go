package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mappazzo/pbtable/errs"
	"github.com/mappazzo/pbtable/schema"
	"github.com/mappazzo/pbtable/transform"
)

func scalarTable() Table {
	return Table{
		Header: []schema.Field{
			{Name: "name", Type: schema.TypeString},
			{Name: "count", Type: schema.TypeUint},
			{Name: "score", Type: schema.TypeInt},
			{Name: "ratio", Type: schema.TypeFloat},
			{Name: "active", Type: schema.TypeBool},
		},
		Data: [][]any{
			{"alice", uint64(1), int64(-5), float64(1.5), true},
			{"bob", uint64(2), int64(10), float64(2.5), false},
			{"carol", uint64(3), int64(20), float64(3.5), true},
		},
	}
}

func TestEncodeDecode_roundTrip(t *testing.T) {
	tbl := scalarTable()

	buf, err := Encode(tbl)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)

	require.Len(t, got.Data, 3)
	assert.Equal(t, "alice", got.Data[0][0])
	assert.Equal(t, uint64(1), got.Data[0][1])
	assert.Equal(t, int64(-5), got.Data[0][2])
	assert.InDelta(t, 1.5, got.Data[0][3], 1e-6)
	assert.Equal(t, true, got.Data[0][4])

	require.NotNil(t, got.Header[1].Stats)
	assert.Equal(t, float64(1), got.Header[1].Stats.Start)
	assert.Equal(t, float64(3), got.Header[1].Stats.End)
	assert.Equal(t, float64(1), got.Header[1].Stats.Min)
	assert.Equal(t, float64(3), got.Header[1].Stats.Max)
	assert.Equal(t, int32(3), got.Meta.RowCount)
}

func TestEncodeDecodeVerbose_roundTrip(t *testing.T) {
	tbl := scalarTable()

	verbose := VerboseTable{Header: tbl.Header}
	for _, row := range tbl.Data {
		verbose.Data = append(verbose.Data, map[string]any{
			"name": row[0], "count": row[1], "score": row[2], "ratio": row[3], "active": row[4],
		})
	}

	buf, err := EncodeVerbose(verbose)
	require.NoError(t, err)

	got, err := DecodeVerbose(buf)
	require.NoError(t, err)

	require.Len(t, got.Data, 3)
	assert.Equal(t, "bob", got.Data[1]["name"])
	assert.Equal(t, uint64(2), got.Data[1]["count"])
}

func TestEncode_affineTransform(t *testing.T) {
	tbl := Table{
		Header: []schema.Field{
			{Name: "latitude", Type: schema.TypeInt, Transform: &transform.Transform{Offset: -42, Multip: 1000000, Decimals: 0}},
		},
		Data: [][]any{
			{-41.123456},
			{-41.123789},
			{-41.124012},
		},
	}

	buf, err := Encode(tbl)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)

	require.Len(t, got.Data, 3)
	assert.InDelta(t, -41.123456, got.Data[0][0], 1e-6)
	assert.InDelta(t, -41.123789, got.Data[1][0], 1e-6)
	assert.InDelta(t, -41.124012, got.Data[2][0], 1e-6)
}

func TestEncode_sequenceTransform_blocksRandomAccess(t *testing.T) {
	tbl := Table{
		Header: []schema.Field{
			{Name: "counter", Type: schema.TypeUint, Transform: &transform.Transform{Multip: 1, Sequence: true}},
		},
		Data: [][]any{{uint64(100)}, {uint64(105)}, {uint64(112)}, {uint64(120)}},
	}

	buf, err := Encode(tbl)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, got.Data, 4)
	assert.InDelta(t, 120.0, got.Data[3][0], 1e-9)

	_, err = Get(buf, []int{0})
	assert.ErrorIs(t, err, errs.ErrSequencedRandomAccess)

	_, err = GetIndex(buf)
	assert.ErrorIs(t, err, errs.ErrSequencedRandomAccess)
}

func TestAdd_appendsAndGetIndex(t *testing.T) {
	tbl := scalarTable()

	buf, err := Encode(tbl)
	require.NoError(t, err)

	before, err := GetIndex(buf)
	require.NoError(t, err)
	require.Len(t, before, 3)

	buf, err = Add(buf, [][]any{{"dave", uint64(4), int64(30), float64(4.5), false}})
	require.NoError(t, err)

	after, err := GetIndex(buf)
	require.NoError(t, err)
	require.Len(t, after, 4)

	for i := 1; i < len(after); i++ {
		assert.Greater(t, after[i], after[i-1], "row offsets must strictly increase")
	}

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "dave", got.Data[3][0])
}

func TestGet_validAndOutOfRange(t *testing.T) {
	tbl := scalarTable()

	buf, err := Encode(tbl)
	require.NoError(t, err)

	rows, err := Get(buf, []int{0, 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0][0])
	assert.Equal(t, "carol", rows[1][0])

	_, err = Get(buf, []int{10})
	assert.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestAdd_withStatsUpdateInPlace(t *testing.T) {
	tbl := scalarTable()

	buf, err := Encode(tbl)
	require.NoError(t, err)

	recomputed, err := Add(buf, [][]any{{"dave", uint64(4), int64(30), float64(4.5), false}})
	require.NoError(t, err)

	inPlace, err := Add(buf, [][]any{{"dave", uint64(4), int64(30), float64(4.5), false}}, WithStatsUpdateInPlace())
	require.NoError(t, err)

	wantTable, err := Decode(recomputed)
	require.NoError(t, err)
	gotTable, err := Decode(inPlace)
	require.NoError(t, err)

	assert.Equal(t, wantTable.Header[1].Stats.Start, gotTable.Header[1].Stats.Start)
	assert.Equal(t, wantTable.Header[1].Stats.End, gotTable.Header[1].Stats.End)
	assert.Equal(t, wantTable.Header[1].Stats.Min, gotTable.Header[1].Stats.Min)
	assert.Equal(t, wantTable.Header[1].Stats.Max, gotTable.Header[1].Stats.Max)
	assert.InDelta(t, wantTable.Header[1].Stats.Mean, gotTable.Header[1].Stats.Mean, 1e-9)
}

func TestAddVerbose(t *testing.T) {
	tbl := scalarTable()

	buf, err := Encode(tbl)
	require.NoError(t, err)

	buf, err = AddVerbose(buf, []map[string]any{
		{"name": "erin", "count": uint64(5), "score": int64(40), "ratio": float64(5.5), "active": true},
	})
	require.NoError(t, err)

	got, err := DecodeVerbose(buf)
	require.NoError(t, err)
	require.Len(t, got.Data, 4)
	assert.Equal(t, "erin", got.Data[3]["name"])
}

func TestEncode_rowArityMismatch(t *testing.T) {
	tbl := scalarTable()
	tbl.Data = append(tbl.Data, []any{"short row"})

	_, err := Encode(tbl)
	assert.ErrorIs(t, err, errs.ErrInvalidTable)
}
