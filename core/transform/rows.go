package transform

import (
	"slices"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func (e *Executor) applyRow(t *table.Table, op RowOperation) (*table.Table, error) {
	switch o := op.(type) {
	case Filter:
		return e.processor.Filter(t, o.Conditions, o.Logic)
	case TopN:
		return sortedHead(t, o.Column, o.N, true)
	case BottomN:
		return sortedHead(t, o.Column, o.N, false)
	case RandomSample:
		return e.sample(t, o.N)
	case DropNulls:
		return dropNulls(t), nil
	case RowRange:
		return t.Slice(o.Start, o.End), nil
	case RemoveDuplicates:
		return removeDuplicates(t), nil
	case nil:
		return nil, errors.Wrap(core.ErrUnknownOperation, "nil row operation")
	default:
		return nil, errors.Wrapf(core.ErrUnknownOperation, "row operation %q", op.Type())
	}
}

// sortedHead stably sorts rows by column, descending when desc is set, and
// keeps the first n. Nulls sort last in both directions. n larger than the
// table keeps every row.
func sortedHead(t *table.Table, column string, n int, desc bool) (*table.Table, error) {
	if n < 0 {
		return nil, errors.Wrapf(core.ErrInvalidParameter, "n must not be negative, got %d", n)
	}
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	indices := make([]int, t.Len())
	for i := range indices {
		indices[i] = i
	}
	slices.SortStableFunc(indices, func(a, b int) int {
		va, vb := col.Values[a], col.Values[b]
		if va == nil || vb == nil {
			return table.CompareValues(va, vb)
		}
		if desc {
			return table.CompareValues(vb, va)
		}
		return table.CompareValues(va, vb)
	})
	if n < len(indices) {
		indices = indices[:n]
	}
	return t.Take(indices), nil
}

// sample draws n distinct rows in the order they were drawn.
func (e *Executor) sample(t *table.Table, n int) (*table.Table, error) {
	if n < 0 {
		return nil, errors.Wrapf(core.ErrInvalidParameter, "n must not be negative, got %d", n)
	}
	if n > t.Len() {
		return nil, errors.Wrapf(core.ErrSampleSizeExceedsRows, "sample of %d from %d rows", n, t.Len())
	}
	e.mu.Lock()
	perm := e.rng.Perm(t.Len())
	e.mu.Unlock()
	e.logger.Debug("Sampled rows", zap.Int("n", n), zap.Int("rows", t.Len()))
	return t.Take(perm[:n]), nil
}

func dropNulls(t *table.Table) *table.Table {
	keep := make([]int, 0, t.Len())
rows:
	for i := 0; i < t.Len(); i++ {
		for c := 0; c < t.Width(); c++ {
			if t.ColumnAt(c).IsNull(i) {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	return t.Take(keep)
}

func removeDuplicates(t *table.Table) *table.Table {
	seen := make(map[uint64][]int, t.Len())
	keep := make([]int, 0, t.Len())
rows:
	for i := 0; i < t.Len(); i++ {
		key := t.RowKey(i)
		for _, j := range seen[key] {
			if t.RowsEqual(i, j) {
				continue rows
			}
		}
		seen[key] = append(seen[key], i)
		keep = append(keep, i)
	}
	return t.Take(keep)
}
