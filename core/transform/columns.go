package transform

import (
	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/stats"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

func (e *Executor) applyColumn(t *table.Table, op ColumnOperation) (*table.Table, error) {
	switch o := op.(type) {
	case Select:
		return project(t, o.Columns)
	case Reorder:
		return project(t, o.Columns)
	case Drop:
		return drop(t, o.Columns)
	case Rename:
		return rename(t, o.Mapping)
	case FillNull:
		return fillNull(t, o)
	case DropNullThreshold:
		return dropNullThreshold(t, o.Threshold)
	case nil:
		return nil, errors.Wrap(core.ErrUnknownOperation, "nil column operation")
	default:
		return nil, errors.Wrapf(core.ErrUnknownOperation, "column operation %q", op.Type())
	}
}

// project returns exactly the named columns in the given order.
func project(t *table.Table, names []string) (*table.Table, error) {
	columns := make([]*table.Column, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			return nil, errors.Wrapf(core.ErrInvalidParameter, "column %q listed twice", name)
		}
		seen[name] = struct{}{}
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return t.WithColumns(columns)
}

func drop(t *table.Table, names []string) (*table.Table, error) {
	remove := make(map[string]struct{}, len(names))
	for _, name := range names {
		if !t.HasColumn(name) {
			return nil, errors.Wrapf(core.ErrColumnNotFound, "column %q", name)
		}
		remove[name] = struct{}{}
	}
	columns := make([]*table.Column, 0, t.Width())
	for i := 0; i < t.Width(); i++ {
		if _, ok := remove[t.ColumnAt(i).Name]; !ok {
			columns = append(columns, t.ColumnAt(i))
		}
	}
	return t.WithColumns(columns)
}

// rename walks the columns in table order and renames those present in
// mapping. When two columns end up with the same name the later one wins
// and the earlier one is dropped.
func rename(t *table.Table, mapping map[string]string) (*table.Table, error) {
	for old := range mapping {
		if !t.HasColumn(old) {
			return nil, errors.Wrapf(core.ErrColumnNotFound, "column %q", old)
		}
	}
	renamed := make([]*table.Column, t.Width())
	last := make(map[string]int, t.Width())
	for i := 0; i < t.Width(); i++ {
		col := t.ColumnAt(i)
		name := col.Name
		if n, ok := mapping[name]; ok {
			name = n
			col = col.Renamed(name)
		}
		renamed[i] = col
		last[name] = i
	}
	columns := make([]*table.Column, 0, len(renamed))
	for i, col := range renamed {
		if last[col.Name] == i {
			columns = append(columns, col)
		}
	}
	return t.WithColumns(columns)
}

func dropNullThreshold(t *table.Table, threshold float64) (*table.Table, error) {
	if t.Len() == 0 {
		return t, nil
	}
	columns := make([]*table.Column, 0, t.Width())
	for i := 0; i < t.Width(); i++ {
		col := t.ColumnAt(i)
		ratio := float64(col.NullCount()) / float64(t.Len())
		if ratio > threshold {
			continue
		}
		columns = append(columns, col)
	}
	return t.WithColumns(columns)
}

func fillNull(t *table.Table, op FillNull) (*table.Table, error) {
	idx := t.Index(op.Column)
	if idx < 0 {
		return nil, errors.Wrapf(core.ErrColumnNotFound, "column %q", op.Column)
	}
	src := t.ColumnAt(idx)
	col := src.Clone()

	switch op.Method {
	case FillMean, FillMedian:
		if col.Type != schema.TypeNumber {
			return nil, errors.Wrapf(core.ErrTypeMismatch, "%s fill of %s column %q", op.Method, col.Type, col.Name)
		}
		values := col.Floats()
		fill, ok := stats.Mean(values)
		if op.Method == FillMedian {
			fill, ok = stats.Median(values)
		}
		if !ok {
			return nil, errors.Wrapf(core.ErrEmptyAggregationTarget, "column %q has no values", col.Name)
		}
		fillConstant(col, fill)
	case FillMode:
		fill, ok := mode(col)
		if !ok {
			return nil, errors.Wrapf(core.ErrEmptyAggregationTarget, "column %q has no values", col.Name)
		}
		fillConstant(col, fill)
	case FillConstant:
		if core.IsMissing(op.Value) {
			return nil, errors.Wrapf(core.ErrMissingValue, "constant fill of column %q", col.Name)
		}
		fill, err := col.Normalise(op.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "constant fill of column %q", col.Name)
		}
		fillConstant(col, fill)
	case FillForward:
		var prev any
		for i, v := range col.Values {
			if v == nil {
				col.Values[i] = prev
			} else {
				prev = v
			}
		}
	case FillBackward:
		var next any
		for i := len(col.Values) - 1; i >= 0; i-- {
			if col.Values[i] == nil {
				col.Values[i] = next
			} else {
				next = col.Values[i]
			}
		}
	default:
		return nil, errors.Wrapf(core.ErrUnsupportedFillMethod, "method %q", string(op.Method))
	}

	columns := make([]*table.Column, t.Width())
	for i := range columns {
		columns[i] = t.ColumnAt(i)
	}
	columns[idx] = col
	return t.WithColumns(columns)
}

func fillConstant(col *table.Column, v any) {
	for i := range col.Values {
		if col.Values[i] == nil {
			col.Values[i] = v
		}
	}
}

// mode returns the most frequent non-null value. Ties go to the value seen
// first.
func mode(col *table.Column) (any, bool) {
	counts := make(map[string]int)
	var order []any
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		k := table.ValueKey(v)
		if counts[k] == 0 {
			order = append(order, v)
		}
		counts[k]++
	}
	var best any
	bestCount := 0
	for _, v := range order {
		if c := counts[table.ValueKey(v)]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best, bestCount > 0
}
