// Package stats summarises tables: shape, types, null counts, numeric
// descriptions and categorical summaries. It also holds the numeric
// reductions the rest of the engine aggregates with.
package stats

import (
	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// Shape is the size of a table.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Overview is the cheap summary of a table.
type Overview struct {
	NullCounts map[string]int    `json:"null_counts"`
	DTypes     map[string]string `json:"dtypes"`
	Shape      Shape             `json:"shape"`
}

// NumericSummary describes the non-null values of a number column. Fields
// that cannot be computed are nil.
type NumericSummary struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q25    *float64 `json:"25%"`
	Median *float64 `json:"50%"`
	Q75    *float64 `json:"75%"`
	Max    *float64 `json:"max"`
}

// CategoricalSummary describes a string or boolean column.
type CategoricalSummary struct {
	Unique int `json:"unique"`
	Top    any `json:"top"`
}

// Report is the full profile of a table.
type Report struct {
	Overview
	NumericSummary     map[string]NumericSummary     `json:"numeric_summary"`
	CategoricalSummary map[string]CategoricalSummary `json:"categorical_summary"`
}

// ColumnStats is the description of a single number column.
type ColumnStats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// Summarize returns the shape, column types and null counts of t.
func Summarize(t *table.Table) Overview {
	o := Overview{
		NullCounts: make(map[string]int, t.Width()),
		DTypes:     make(map[string]string, t.Width()),
		Shape:      Shape{Rows: t.Len(), Columns: t.Width()},
	}
	for i := 0; i < t.Width(); i++ {
		col := t.ColumnAt(i)
		o.NullCounts[col.Name] = col.NullCount()
		o.DTypes[col.Name] = col.Type.String()
	}
	return o
}

// Profile returns the full report of t.
func Profile(t *table.Table) Report {
	r := Report{
		Overview:           Summarize(t),
		NumericSummary:     make(map[string]NumericSummary),
		CategoricalSummary: make(map[string]CategoricalSummary),
	}
	for i := 0; i < t.Width(); i++ {
		col := t.ColumnAt(i)
		if col.Type == schema.TypeNumber {
			r.NumericSummary[col.Name] = describeNumeric(col.Floats())
			continue
		}
		r.CategoricalSummary[col.Name] = describeCategorical(col)
	}
	return r
}

// Describe returns the statistics of a number column.
func Describe(t *table.Table, column string) (ColumnStats, error) {
	col, err := t.Column(column)
	if err != nil {
		return ColumnStats{}, err
	}
	if col.Type != schema.TypeNumber {
		return ColumnStats{}, errors.Wrapf(core.ErrTypeMismatch, "column %q is not numeric", column)
	}
	xs := col.Floats()
	return ColumnStats{
		Mean:   ptr(Mean(xs)),
		Median: ptr(Median(xs)),
		Std:    ptr(StdDev(xs)),
		Min:    ptr(Min(xs)),
		Max:    ptr(Max(xs)),
	}, nil
}

func describeNumeric(xs []float64) NumericSummary {
	return NumericSummary{
		Count:  len(xs),
		Mean:   ptr(Mean(xs)),
		Std:    ptr(StdDev(xs)),
		Min:    ptr(Min(xs)),
		Q25:    ptr(Quantile(xs, 0.25)),
		Median: ptr(Median(xs)),
		Q75:    ptr(Quantile(xs, 0.75)),
		Max:    ptr(Max(xs)),
	}
}

// describeCategorical counts distinct non-null values. The top value is the
// most frequent one, the smallest among ties.
func describeCategorical(col *table.Column) CategoricalSummary {
	counts := make(map[string]int)
	values := make(map[string]any)
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		k := table.ValueKey(v)
		counts[k]++
		values[k] = v
	}
	var top any
	best := 0
	for k, n := range counts {
		v := values[k]
		if n > best || (n == best && table.CompareValues(v, top) < 0) {
			top, best = v, n
		}
	}
	return CategoricalSummary{Unique: len(counts), Top: top}
}

func ptr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
