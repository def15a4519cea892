package chart

import (
	"testing"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weather() *table.Table {
	return table.MustNew(
		table.MustColumn("city", schema.TypeString, "oslo", "rome", "oslo", "rome", "lima"),
		table.MustColumn("temp", schema.TypeNumber, 2, 18, 4, 22, 19),
		table.MustColumn("rain", schema.TypeNumber, 10, 2, 8, 1, nil),
		table.MustColumn("windy", schema.TypeBoolean, true, false, true, false, true),
	)
}

func TestPrepare_Aggregated(t *testing.T) {
	p := NewPreparer(nil, nil)
	data, err := p.Prepare(weather(), Config{ChartType: Bar, X: "city", Y: "temp", Aggregation: query.AggregationMean})
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "temp"}, data.Table.Columns())
	assert.Equal(t, [][]any{{"lima", 19.0}, {"oslo", 3.0}, {"rome", 20.0}}, data.Table.Snapshot().Rows)
	require.NotNil(t, data.Summary)
	assert.Equal(t, 3.0, *data.Summary.Min)
	assert.Equal(t, 20.0, *data.Summary.Max)
	assert.Equal(t, 14.0, *data.Summary.Mean)
}

func TestPrepare_Filtered(t *testing.T) {
	p := NewPreparer(nil, nil)
	data, err := p.Prepare(weather(), Config{
		ChartType: Scatter, X: "temp", Y: "rain",
		Filters: []query.Condition{query.NewCondition("temp", ">", 3)},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, data.Table.Len())
	assert.Equal(t, 1.0, *data.Summary.Min)
	assert.Equal(t, 8.0, *data.Summary.Max)

	_, err = p.Prepare(weather(), Config{
		ChartType: Line, X: "temp", Y: "rain",
		Filters: []query.Condition{query.NewCondition("temp", ">", 100)},
	})
	assert.True(t, errors.Is(err, core.ErrEmptyResult))
	assert.Equal(t, "no data available after filters", core.ErrEmptyResult.Error())
}

func TestPrepare_Histogram(t *testing.T) {
	data, err := NewPreparer(nil, nil).Prepare(weather(), Config{ChartType: Histogram, X: "temp"})
	require.NoError(t, err)
	assert.Equal(t, 5, data.Table.Len())
	assert.Nil(t, data.Summary)
}

func TestPrepare_Heatmap(t *testing.T) {
	data, err := NewPreparer(nil, nil).Prepare(weather(), Config{ChartType: Heatmap})
	require.NoError(t, err)
	assert.Equal(t, []string{"column", "temp", "rain"}, data.Table.Columns())

	rows := data.Table.Snapshot().Rows
	assert.Equal(t, "temp", rows[0][0])
	assert.InDelta(t, 1.0, rows[0][1], 1e-9)
	assert.InDelta(t, 1.0, rows[1][2], 1e-9)
	assert.Less(t, rows[0][2].(float64), -0.9)
	assert.Equal(t, rows[0][2], rows[1][1])

	flat := table.MustNew(
		table.MustColumn("a", schema.TypeNumber, 1, 2, 3),
		table.MustColumn("b", schema.TypeNumber, 5, 5, 5),
	)
	data, err = NewPreparer(nil, nil).Prepare(flat, Config{ChartType: Heatmap})
	require.NoError(t, err)
	assert.Equal(t, 0.0, data.Table.Snapshot().Rows[0][2])

	one := table.MustNew(table.MustColumn("a", schema.TypeNumber, 1))
	_, err = NewPreparer(nil, nil).Prepare(one, Config{ChartType: Heatmap})
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}

func TestPrepare_Errors(t *testing.T) {
	p := NewPreparer(nil, nil)
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown type", Config{ChartType: "pie", X: "city"}, core.ErrUnsupportedChartType},
		{"bar without y", Config{ChartType: Bar, X: "city"}, core.ErrInvalidParameter},
		{"box without x", Config{ChartType: Box, Y: "temp"}, core.ErrInvalidParameter},
		{"histogram without x", Config{ChartType: Histogram}, core.ErrInvalidParameter},
		{"missing column", Config{ChartType: Line, X: "city", Y: "humidity"}, core.ErrColumnNotFound},
		{"missing color", Config{ChartType: Line, X: "city", Y: "temp", Color: "hue"}, core.ErrColumnNotFound},
		{"aggregate text", Config{ChartType: Bar, X: "temp", Y: "city", Aggregation: query.AggregationSum}, core.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Prepare(weather(), tt.cfg)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
