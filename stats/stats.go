// Package stats computes the per-column summary statistics carried on the
// wire inside a Field: start, end, min, max, and mean of that column's raw
// (pre-transform) numeric values.
//
// Ported from the StatsCalculator of the original protobuf-table
// implementation: a column contributes stats only if it is numeric (int,
// uint, or float) and has at least one non-null value; null cells are
// skipped rather than treated as zero.
package stats

import "github.com/mappazzo/pbtable/schema"

// Calculate computes the statistics of one numeric column given its raw
// values in row order, where a nil entry marks a null cell. It returns nil
// if the column has no non-null values, matching the wire rule that an
// absent Stats submessage means "no statistics available" rather than
// "all zero".
func Calculate(values []any) *schema.Stats {
	var (
		s     schema.Stats
		sum   float64
		count int
	)

	for _, v := range values {
		f, ok := toFloat(v)
		if !ok {
			continue
		}

		if count == 0 {
			s.Start = f
			s.Min = f
			s.Max = f
		}

		s.End = f
		if f < s.Min {
			s.Min = f
		}
		if f > s.Max {
			s.Max = f
		}

		sum += f
		count++
	}

	if count == 0 {
		return nil
	}

	s.Mean = sum / float64(count)

	return &s
}

// Tracker extends an existing Stats with values appended after it, as Add
// does. It carries the running sum and count of non-null values, which a
// bare schema.Stats does not hold, so that Append can refold the mean.
type Tracker struct {
	Stats schema.Stats
	sum   float64
	count int
}

// NewTracker seeds a Tracker from a column's full raw history, so that
// subsequent appended rows can be folded in with Append in O(1) per row
// instead of recomputing the mean over the whole column.
func NewTracker(values []any) *Tracker {
	t := &Tracker{}

	for _, v := range values {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		t.observe(f)
	}

	return t
}

// Resume seeds a Tracker from a previously computed Stats snapshot plus
// the row count it was computed over, without rescanning the column's raw
// history. This is what lets table.Add's in-place update stay O(appended
// rows) instead of O(total rows): the wire format only carries count via
// meta.row_count, but that is enough to keep folding in a mean.
func Resume(s schema.Stats, count int) *Tracker {
	return &Tracker{
		Stats: s,
		sum:   s.Mean * float64(count),
		count: count,
	}
}

func (t *Tracker) observe(f float64) {
	if t.count == 0 {
		t.Stats.Start = f
		t.Stats.Min = f
		t.Stats.Max = f
	}

	t.Stats.End = f
	if f < t.Stats.Min {
		t.Stats.Min = f
	}
	if f > t.Stats.Max {
		t.Stats.Max = f
	}

	t.sum += f
	t.count++
	t.Stats.Mean = t.sum / float64(t.count)
}

// Append folds newly appended raw values into the running statistics and
// returns the updated snapshot, or nil if the column still has no
// non-null values.
func (t *Tracker) Append(values []any) *schema.Stats {
	for _, v := range values {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		t.observe(f)
	}

	if t.count == 0 {
		return nil
	}

	snapshot := t.Stats

	return &snapshot
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
