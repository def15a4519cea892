package query

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/stats"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// Group is the aggregate of one partition of a grouped query.
type Group struct {
	Key   any     `json:"key"`
	Value float64 `json:"value"`
}

// Result is the outcome of an aggregation: a scalar, or one value per group
// when the aggregation was grouped. Groups are ordered by key ascending with
// the null group last.
type Result struct {
	Value   float64
	Groups  []Group
	Grouped bool
}

// Scale multiplies every value of the result by factor.
func (r Result) Scale(factor float64) Result {
	out := Result{Value: r.Value * factor, Grouped: r.Grouped}
	if r.Grouped {
		out.Value = 0
		out.Groups = make([]Group, len(r.Groups))
		for i, g := range r.Groups {
			out.Groups[i] = Group{Key: g.Key, Value: g.Value * factor}
		}
	}
	return out
}

// Mapping returns the grouped values keyed by the string form of the group key.
func (r Result) Mapping() map[string]float64 {
	out := make(map[string]float64, len(r.Groups))
	for _, g := range r.Groups {
		out[GroupKeyString(g.Key)] = g.Value
	}
	return out
}

// MarshalJSON encodes a scalar result as a number and a grouped result as an
// object from group key to value, preserving group order.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Grouped {
		return json.Marshal(r.Value)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range r.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(GroupKeyString(g.Key))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(g.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// GroupKeyString renders a group key the way it appears in JSON objects.
func GroupKeyString(key any) string {
	switch k := key.(type) {
	case nil:
		return "null"
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(k)
	default:
		b, _ := json.Marshal(k)
		return string(b)
	}
}

type partition struct {
	key  any
	rows []int
}

// Aggregate reduces column with agg, once for the whole table or once per
// distinct value of groupBy when it is not empty. count ignores column: it
// yields the row count of the table or of each group. Every other
// aggregation works on the non-null values of a number column and fails
// with core.ErrEmptyAggregationTarget when there are none.
func Aggregate(t *table.Table, column string, agg AggregationType, groupBy string) (Result, error) {
	if err := validateAggregation(agg, column); err != nil {
		return Result{}, err
	}

	var target *table.Column
	if agg != AggregationCount {
		col, err := t.Column(column)
		if err != nil {
			return Result{}, err
		}
		if col.Type != schema.TypeNumber {
			return Result{}, errors.Wrapf(core.ErrTypeMismatch,
				"%s of %s column %q", string(agg), col.Type, column)
		}
		target = col
	}

	if groupBy == "" {
		all := make([]int, t.Len())
		for i := range all {
			all[i] = i
		}
		v, err := reduce(target, all, agg)
		if err != nil {
			return Result{}, errors.Wrapf(err, "column %q", column)
		}
		return Result{Value: v}, nil
	}

	parts, err := partitionBy(t, groupBy)
	if err != nil {
		return Result{}, err
	}
	res := Result{Grouped: true, Groups: make([]Group, 0, len(parts))}
	for _, p := range parts {
		v, err := reduce(target, p.rows, agg)
		if err != nil {
			return Result{}, errors.Wrapf(err, "column %q, group %s", column, GroupKeyString(p.key))
		}
		res.Groups = append(res.Groups, Group{Key: p.key, Value: v})
	}
	return res, nil
}

// partitionBy splits the row indices of t by the distinct values of column.
// Null values form their own partition.
func partitionBy(t *table.Table, column string) ([]partition, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	var parts []partition
	for i, v := range col.Values {
		k := table.ValueKey(v)
		p, ok := index[k]
		if !ok {
			p = len(parts)
			index[k] = p
			parts = append(parts, partition{key: v})
		}
		parts[p].rows = append(parts[p].rows, i)
	}
	slices.SortStableFunc(parts, func(a, b partition) int {
		return table.CompareValues(a.key, b.key)
	})
	return parts, nil
}

func reduce(col *table.Column, rows []int, agg AggregationType) (float64, error) {
	if agg == AggregationCount {
		return float64(len(rows)), nil
	}
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := col.Values[r].(float64); ok {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return 0, errors.Wrapf(core.ErrEmptyAggregationTarget, "%s over no values", string(agg))
	}
	var v float64
	switch agg {
	case AggregationSum:
		v = stats.Sum(values)
	case AggregationMean:
		v, _ = stats.Mean(values)
	case AggregationMin:
		v, _ = stats.Min(values)
	case AggregationMax:
		v, _ = stats.Max(values)
	case AggregationMedian:
		v, _ = stats.Median(values)
	default:
		return 0, errors.Wrapf(core.ErrUnsupportedAggregation, "aggregation %q", string(agg))
	}
	return v, nil
}
