// Package query defines the structured query language the engine consumes
// and the processor that evaluates it against a table: comparison
// conditions, AND/OR filters, grouping, aggregation and scaling.
package query

import (
	"maps"
	"strings"

	"github.com/asaidimu/datainsight/core"
	"github.com/cockroachdb/errors"
)

// ComparisonOperator defines the set of operators that can be used in a condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq  ComparisonOperator = "=="
	ComparisonOperatorGt  ComparisonOperator = ">"
	ComparisonOperatorLt  ComparisonOperator = "<"
	ComparisonOperatorGte ComparisonOperator = ">="
	ComparisonOperatorLte ComparisonOperator = "<="
)

var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:  {},
	ComparisonOperatorGt:  {},
	ComparisonOperatorLt:  {},
	ComparisonOperatorGte: {},
	ComparisonOperatorLte: {},
}

// IsStandard checks if a comparison operator is one of the built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// GetStandardComparisonOperators returns the set of built-in comparison operators.
func GetStandardComparisonOperators() map[ComparisonOperator]struct{} {
	return maps.Clone(standardComparisonOperators)
}

// LogicalOperator combines condition masks.
type LogicalOperator string

// Logical operators for combining conditions.
const (
	LogicalOperatorAnd LogicalOperator = "AND"
	LogicalOperatorOr  LogicalOperator = "OR"
)

// Resolve returns the canonical form of l. The empty operator means AND;
// matching is case-insensitive.
func (l LogicalOperator) Resolve() (LogicalOperator, error) {
	switch LogicalOperator(strings.ToUpper(strings.TrimSpace(string(l)))) {
	case "", LogicalOperatorAnd:
		return LogicalOperatorAnd, nil
	case LogicalOperatorOr:
		return LogicalOperatorOr, nil
	default:
		return "", errors.Wrapf(core.ErrUnsupportedOperator, "logic %q", string(l))
	}
}

// Condition is a single comparison between a column and a literal.
type Condition struct {
	Column   string             `json:"column"`
	Operator ComparisonOperator `json:"operator"`
	Value    any                `json:"value"`
}

// Filter is a set of conditions combined with one logical operator.
type Filter struct {
	Conditions []Condition     `json:"conditions"`
	Logic      LogicalOperator `json:"logic,omitempty"`
}

// AggregationType names a reduction over a column.
type AggregationType string

// Supported aggregations.
const (
	AggregationMean   AggregationType = "mean"
	AggregationSum    AggregationType = "sum"
	AggregationCount  AggregationType = "count"
	AggregationMin    AggregationType = "min"
	AggregationMax    AggregationType = "max"
	AggregationMedian AggregationType = "median"
)

// IsValid reports whether a is one of the supported aggregations.
func (a AggregationType) IsValid() bool {
	switch a {
	case AggregationMean, AggregationSum, AggregationCount, AggregationMin, AggregationMax, AggregationMedian:
		return true
	default:
		return false
	}
}

// StructuredQuery is a declarative filter, group and aggregate request.
type StructuredQuery struct {
	Filters     []Condition     `json:"filters,omitempty"`
	Logic       LogicalOperator `json:"logic,omitempty"`
	GroupBy     string          `json:"groupby,omitempty"`
	Aggregation AggregationType `json:"aggregation"`
	Column      string          `json:"column,omitempty"`
	Multiply    *float64        `json:"multiply,omitempty"`
}

// Validate checks the shape of the query without looking at any data.
func (q StructuredQuery) Validate() error {
	if q.Aggregation == "" {
		return core.ErrMissingAggregation
	}
	return validateAggregation(q.Aggregation, q.Column)
}

func validateAggregation(agg AggregationType, column string) error {
	if !agg.IsValid() {
		return errors.Wrapf(core.ErrUnsupportedAggregation, "aggregation %q", string(agg))
	}
	if column == "" && agg != AggregationCount {
		return errors.Wrapf(core.ErrMissingColumn, "aggregation %q needs a column", string(agg))
	}
	return nil
}

// Mask marks selected rows, one entry per row.
type Mask []bool

// Count returns the number of selected rows.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}
