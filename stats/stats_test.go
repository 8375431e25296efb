package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mappazzo/pbtable/schema"
)

func TestCalculate_basic(t *testing.T) {
	values := []any{int64(10), int64(20), int64(30)}

	s := Calculate(values)

	require.NotNil(t, s)
	assert.Equal(t, 10.0, s.Start)
	assert.Equal(t, 30.0, s.End)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 30.0, s.Max)
	assert.Equal(t, 20.0, s.Mean)
}

func TestCalculate_skipsNulls(t *testing.T) {
	values := []any{nil, int64(5), nil, int64(15)}

	s := Calculate(values)

	require.NotNil(t, s)
	assert.Equal(t, 5.0, s.Start)
	assert.Equal(t, 15.0, s.End)
	assert.Equal(t, 5.0, s.Min)
	assert.Equal(t, 15.0, s.Max)
	assert.Equal(t, 10.0, s.Mean)
}

func TestCalculate_allNull(t *testing.T) {
	values := []any{nil, nil, nil}

	assert.Nil(t, Calculate(values))
}

func TestCalculate_empty(t *testing.T) {
	assert.Nil(t, Calculate(nil))
}

func TestCalculate_mixedNumericTypes(t *testing.T) {
	values := []any{float64(1.5), int64(2), uint64(3)}

	s := Calculate(values)

	require.NotNil(t, s)
	assert.InDelta(t, 2.1666666, s.Mean, 1e-6)
}

func TestTracker_appendAfterSeed(t *testing.T) {
	seed := []any{int64(10), int64(20)}
	tr := NewTracker(seed)

	s := tr.Append([]any{int64(30)})

	require.NotNil(t, s)
	assert.Equal(t, 10.0, s.Start, "start must be preserved from the seed, not the appended batch")
	assert.Equal(t, 30.0, s.End)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 30.0, s.Max)
	assert.Equal(t, 20.0, s.Mean)
}

func TestTracker_appendSkipsNulls(t *testing.T) {
	tr := NewTracker([]any{int64(4)})

	s := tr.Append([]any{nil, int64(6)})

	require.NotNil(t, s)
	assert.Equal(t, 5.0, s.Mean)
}

func TestTracker_emptySeedThenAppend(t *testing.T) {
	tr := NewTracker(nil)

	assert.Nil(t, tr.Append([]any{nil}))

	s := tr.Append([]any{int64(7)})
	require.NotNil(t, s)
	assert.Equal(t, 7.0, s.Start)
}

func TestResume_matchesFullRescan(t *testing.T) {
	history := []any{int64(10), int64(20), int64(30)}
	appended := []any{int64(5), int64(40)}

	full := NewTracker(nil).Append(append(append([]any{}, history...), appended...))

	seed := Calculate(history)
	require.NotNil(t, seed)
	resumed := Resume(*seed, len(history)).Append(appended)

	require.NotNil(t, resumed)
	assert.Equal(t, full.Start, resumed.Start)
	assert.Equal(t, full.End, resumed.End)
	assert.Equal(t, full.Min, resumed.Min)
	assert.Equal(t, full.Max, resumed.Max)
	assert.InDelta(t, full.Mean, resumed.Mean, 1e-9)
}

func TestResume_noAppendedRowsKeepsSnapshot(t *testing.T) {
	seed := schema.Stats{Start: 1, End: 3, Min: 1, Max: 3, Mean: 2}

	s := Resume(seed, 3).Append(nil)

	require.NotNil(t, s)
	assert.Equal(t, seed, *s)
}
