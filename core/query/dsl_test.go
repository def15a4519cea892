package query

import (
	"encoding/json"
	"testing"

	"github.com/asaidimu/datainsight/core"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonOperator_IsStandard(t *testing.T) {
	tests := []struct {
		operator ComparisonOperator
		expected bool
	}{
		{ComparisonOperatorEq, true},
		{ComparisonOperatorGt, true},
		{ComparisonOperatorLt, true},
		{ComparisonOperatorGte, true},
		{ComparisonOperatorLte, true},
		{"!=", false},
		{"contains", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.operator), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.operator.IsStandard())
		})
	}
}

func TestGetStandardComparisonOperators(t *testing.T) {
	operators := GetStandardComparisonOperators()
	assert.Len(t, operators, 5)

	delete(operators, ComparisonOperatorEq)
	assert.True(t, ComparisonOperatorEq.IsStandard())
}

func TestLogicalOperator_Resolve(t *testing.T) {
	tests := []struct {
		in   LogicalOperator
		want LogicalOperator
	}{
		{"", LogicalOperatorAnd},
		{"AND", LogicalOperatorAnd},
		{"and", LogicalOperatorAnd},
		{" or ", LogicalOperatorOr},
		{"OR", LogicalOperatorOr},
	}
	for _, tt := range tests {
		got, err := tt.in.Resolve()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := LogicalOperator("XOR").Resolve()
	assert.True(t, errors.Is(err, core.ErrUnsupportedOperator))
}

func TestStructuredQuery_Validate(t *testing.T) {
	tests := []struct {
		name  string
		query StructuredQuery
		want  error
	}{
		{"missing aggregation", StructuredQuery{Column: "a"}, core.ErrMissingAggregation},
		{"unsupported aggregation", StructuredQuery{Aggregation: "mode", Column: "a"}, core.ErrUnsupportedAggregation},
		{"missing column", StructuredQuery{Aggregation: AggregationSum}, core.ErrMissingColumn},
		{"count needs no column", StructuredQuery{Aggregation: AggregationCount}, nil},
		{"complete", StructuredQuery{Aggregation: AggregationMedian, Column: "a"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestStructuredQuery_JSON(t *testing.T) {
	var q StructuredQuery
	err := json.Unmarshal([]byte(`{
		"filters": [{"column": "age", "operator": ">=", "value": 30}],
		"groupby": "city",
		"aggregation": "mean",
		"column": "salary",
		"multiply": 0.5
	}`), &q)
	require.NoError(t, err)

	assert.Equal(t, []Condition{{Column: "age", Operator: ComparisonOperatorGte, Value: 30.0}}, q.Filters)
	assert.Equal(t, "city", q.GroupBy)
	assert.Equal(t, AggregationMean, q.Aggregation)
	require.NotNil(t, q.Multiply)
	assert.Equal(t, 0.5, *q.Multiply)
}

func TestMask_Count(t *testing.T) {
	assert.Equal(t, 2, Mask{true, false, true}.Count())
	assert.Equal(t, 0, Mask{}.Count())
}
