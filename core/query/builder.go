package query

import (
	"fmt"
	"strings"
)

// QueryBuilder provides a fluent API for building StructuredQuery values.
type QueryBuilder struct {
	query StructuredQuery
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build returns the constructed query.
func (qb *QueryBuilder) Build() StructuredQuery {
	q := qb.query
	q.Filters = append([]Condition(nil), qb.query.Filters...)
	return q
}

// Clone creates a copy of the builder that can be extended independently.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{query: qb.Build()}
}

// Reset clears the builder.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = StructuredQuery{}
	return qb
}

// Where begins a condition on column.
func (qb *QueryBuilder) Where(column string) *ConditionBuilder {
	return &ConditionBuilder{parent: qb, column: column}
}

// MatchAny combines the conditions with OR.
func (qb *QueryBuilder) MatchAny() *QueryBuilder {
	qb.query.Logic = LogicalOperatorOr
	return qb
}

// MatchAll combines the conditions with AND. This is the default.
func (qb *QueryBuilder) MatchAll() *QueryBuilder {
	qb.query.Logic = LogicalOperatorAnd
	return qb
}

// GroupBy partitions the rows by the distinct values of column.
func (qb *QueryBuilder) GroupBy(column string) *QueryBuilder {
	qb.query.GroupBy = column
	return qb
}

// Aggregate sets the aggregation and its target column.
func (qb *QueryBuilder) Aggregate(agg AggregationType, column string) *QueryBuilder {
	qb.query.Aggregation = agg
	qb.query.Column = column
	return qb
}

// Count counts rows.
func (qb *QueryBuilder) Count() *QueryBuilder {
	return qb.Aggregate(AggregationCount, "")
}

// Sum adds up column.
func (qb *QueryBuilder) Sum(column string) *QueryBuilder {
	return qb.Aggregate(AggregationSum, column)
}

// Mean averages column.
func (qb *QueryBuilder) Mean(column string) *QueryBuilder {
	return qb.Aggregate(AggregationMean, column)
}

// Median takes the median of column.
func (qb *QueryBuilder) Median(column string) *QueryBuilder {
	return qb.Aggregate(AggregationMedian, column)
}

// Min takes the minimum of column.
func (qb *QueryBuilder) Min(column string) *QueryBuilder {
	return qb.Aggregate(AggregationMin, column)
}

// Max takes the maximum of column.
func (qb *QueryBuilder) Max(column string) *QueryBuilder {
	return qb.Aggregate(AggregationMax, column)
}

// Multiply scales the result by factor.
func (qb *QueryBuilder) Multiply(factor float64) *QueryBuilder {
	qb.query.Multiply = &factor
	return qb
}

// Validate checks the query built so far.
func (qb *QueryBuilder) Validate() error {
	return qb.query.Validate()
}

// String renders the query in a compact, human readable form.
func (qb *QueryBuilder) String() string {
	q := qb.query
	var parts []string
	if len(q.Filters) > 0 {
		logic, err := q.Logic.Resolve()
		if err != nil {
			logic = q.Logic
		}
		conds := make([]string, len(q.Filters))
		for i, c := range q.Filters {
			conds[i] = fmt.Sprintf("%s %s %v", c.Column, c.Operator, c.Value)
		}
		parts = append(parts, "WHERE "+strings.Join(conds, " "+string(logic)+" "))
	}
	if q.GroupBy != "" {
		parts = append(parts, "GROUP BY "+q.GroupBy)
	}
	if q.Column != "" {
		parts = append(parts, fmt.Sprintf("%s(%s)", strings.ToUpper(string(q.Aggregation)), q.Column))
	} else {
		parts = append(parts, fmt.Sprintf("%s(*)", strings.ToUpper(string(q.Aggregation))))
	}
	if q.Multiply != nil {
		parts = append(parts, fmt.Sprintf("* %g", *q.Multiply))
	}
	return strings.Join(parts, " ")
}

// ConditionBuilder builds a single condition.
type ConditionBuilder struct {
	parent *QueryBuilder
	column string
}

// Eq adds an equality condition.
func (cb *ConditionBuilder) Eq(value any) *QueryBuilder {
	return cb.add(ComparisonOperatorEq, value)
}

// Gt adds a greater-than condition.
func (cb *ConditionBuilder) Gt(value any) *QueryBuilder {
	return cb.add(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal condition.
func (cb *ConditionBuilder) Gte(value any) *QueryBuilder {
	return cb.add(ComparisonOperatorGte, value)
}

// Lt adds a less-than condition.
func (cb *ConditionBuilder) Lt(value any) *QueryBuilder {
	return cb.add(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal condition.
func (cb *ConditionBuilder) Lte(value any) *QueryBuilder {
	return cb.add(ComparisonOperatorLte, value)
}

// Custom adds a condition using a registered operator.
func (cb *ConditionBuilder) Custom(operator ComparisonOperator, value any) *QueryBuilder {
	return cb.add(operator, value)
}

func (cb *ConditionBuilder) add(operator ComparisonOperator, value any) *QueryBuilder {
	cb.parent.query.Filters = append(cb.parent.query.Filters, NewCondition(cb.column, operator, value))
	return cb.parent
}

// NewCondition creates a Condition.
func NewCondition(column string, operator ComparisonOperator, value any) Condition {
	return Condition{Column: column, Operator: operator, Value: value}
}

// NewFilter creates a Filter from conditions.
func NewFilter(logic LogicalOperator, conditions ...Condition) Filter {
	return Filter{Conditions: conditions, Logic: logic}
}
