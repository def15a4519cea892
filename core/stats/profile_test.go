package stats

import (
	"encoding/json"
	"testing"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sales() *table.Table {
	return table.MustNew(
		table.MustColumn("region", schema.TypeString, "north", "south", "north", nil, "south"),
		table.MustColumn("units", schema.TypeNumber, 1, 2, 3, 4, nil),
		table.MustColumn("promo", schema.TypeBoolean, true, false, false, nil, true),
	)
}

func TestSummarize(t *testing.T) {
	o := Summarize(sales())
	assert.Equal(t, Shape{Rows: 5, Columns: 3}, o.Shape)
	assert.Equal(t, map[string]int{"region": 1, "units": 1, "promo": 1}, o.NullCounts)
	assert.Equal(t, map[string]string{"region": "string", "units": "number", "promo": "boolean"}, o.DTypes)
}

func TestProfile(t *testing.T) {
	r := Profile(sales())

	require.Contains(t, r.NumericSummary, "units")
	units := r.NumericSummary["units"]
	assert.Equal(t, 4, units.Count)
	assert.Equal(t, 2.5, *units.Mean)
	assert.Equal(t, 1.75, *units.Q25)
	assert.Equal(t, 2.5, *units.Median)
	assert.Equal(t, 3.25, *units.Q75)
	assert.Equal(t, 1.0, *units.Min)
	assert.Equal(t, 4.0, *units.Max)
	assert.InDelta(t, 1.291, *units.Std, 0.001)

	assert.Equal(t, CategoricalSummary{Unique: 2, Top: "north"}, r.CategoricalSummary["region"])
	assert.Equal(t, CategoricalSummary{Unique: 2, Top: false}, r.CategoricalSummary["promo"])
	assert.NotContains(t, r.CategoricalSummary, "units")

	b, err := json.Marshal(r)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Contains(t, decoded, "shape")
	assert.Contains(t, decoded, "null_counts")
	assert.Contains(t, decoded["numeric_summary"].(map[string]any)["units"], "25%")
}

func TestProfile_EmptyNumericColumn(t *testing.T) {
	tb := table.MustNew(table.MustColumn("x", schema.TypeNumber, nil))
	s := Profile(tb).NumericSummary["x"]
	assert.Equal(t, 0, s.Count)
	assert.Nil(t, s.Mean)
	assert.Nil(t, s.Std)
}

func TestDescribe(t *testing.T) {
	s, err := Describe(sales(), "units")
	require.NoError(t, err)
	assert.Equal(t, 2.5, *s.Mean)
	assert.Equal(t, 2.5, *s.Median)
	assert.Equal(t, 1.0, *s.Min)
	assert.Equal(t, 4.0, *s.Max)
	require.NotNil(t, s.Std)

	_, err = Describe(sales(), "region")
	assert.True(t, errors.Is(err, core.ErrTypeMismatch))

	_, err = Describe(sales(), "nope")
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))
}
