package pbtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mappazzo/pbtable/errs"
	"github.com/mappazzo/pbtable/schema"
)

func TestEncodeDecode_roundTrip(t *testing.T) {
	tbl := Table{
		Header: []schema.Field{
			{Name: "name", Type: schema.TypeString},
			{Name: "score", Type: schema.TypeInt},
		},
		Data: [][]any{
			{"alice", int64(10)},
			{"bob", int64(-5)},
		},
	}

	buf, err := Encode(tbl)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)

	require.Len(t, got.Data, 2)
	assert.Equal(t, "alice", got.Data[0][0])
	assert.Equal(t, int64(-5), got.Data[1][1])
}

func TestGet_outOfRange(t *testing.T) {
	tbl := Table{
		Header: []schema.Field{{Name: "n", Type: schema.TypeUint}},
		Data:   [][]any{{uint64(1)}, {uint64(2)}},
	}

	buf, err := Encode(tbl)
	require.NoError(t, err)

	_, err = Get(buf, []int{5})
	assert.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestAdd_withStatsUpdateInPlace(t *testing.T) {
	tbl := Table{
		Header: []schema.Field{{Name: "n", Type: schema.TypeUint}},
		Data:   [][]any{{uint64(1)}, {uint64(2)}},
	}

	buf, err := Encode(tbl)
	require.NoError(t, err)

	buf, err = Add(buf, [][]any{{uint64(3)}}, WithStatsUpdateInPlace())
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, got.Data, 3)
	assert.Equal(t, float64(3), got.Header[0].Stats.End)
}
