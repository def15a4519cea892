package core

import (
	"github.com/cockroachdb/errors"
)

// Errors returned by the engine. All of them describe a malformed request
// and are never retried. Call sites wrap them with context; match with
// errors.Is.
var (
	// ErrColumnNotFound is returned when a referenced column is absent from the table.
	ErrColumnNotFound = errors.New("column not found")

	// ErrUnsupportedOperator is returned for a comparison or logical operator
	// outside the supported set.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrUnsupportedAggregation is returned for an aggregation name outside
	// mean, sum, count, min, max and median.
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")

	// ErrUnknownOperation is returned for a row or column operation tag that
	// the pipeline does not know.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrEmptyConditionSet is returned when a filter carries no conditions.
	ErrEmptyConditionSet = errors.New("empty condition set")

	// ErrTypeMismatch is returned when a value cannot be compared with, or
	// stored in, a column of a given type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrMissingColumn is returned when an aggregation other than count has no column.
	ErrMissingColumn = errors.New("missing column")

	// ErrMissingAggregation is returned when a structured query has no aggregation.
	ErrMissingAggregation = errors.New("missing aggregation")

	// ErrMissingValue is returned when fill_null uses the constant method without a value.
	ErrMissingValue = errors.New("missing value")

	// ErrSampleSizeExceedsRows is returned when a sample asks for more rows than exist.
	ErrSampleSizeExceedsRows = errors.New("sample size exceeds rows")

	// ErrEmptyAggregationTarget is returned when an aggregate has no non-null value to work on.
	ErrEmptyAggregationTarget = errors.New("empty aggregation target")

	// ErrInvalidParameter is returned for out-of-domain operation parameters
	// such as a negative row count.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnsupportedFillMethod is returned for a fill_null method outside the supported set.
	ErrUnsupportedFillMethod = errors.New("unsupported fill method")

	// ErrUnsupportedChartType is returned for an unknown chart type.
	ErrUnsupportedChartType = errors.New("unsupported chart type")

	// ErrEmptyResult is returned when filtering leaves nothing to chart.
	ErrEmptyResult = errors.New("no data available after filters")

	// ErrNoDataset is returned by stores that have not been given a dataset yet.
	ErrNoDataset = errors.New("no dataset uploaded")
)

var kinds = []struct {
	err  error
	code string
}{
	{ErrColumnNotFound, "COLUMN_NOT_FOUND"},
	{ErrUnsupportedOperator, "UNSUPPORTED_OPERATOR"},
	{ErrUnsupportedAggregation, "UNSUPPORTED_AGGREGATION"},
	{ErrUnknownOperation, "UNKNOWN_OPERATION"},
	{ErrEmptyConditionSet, "EMPTY_CONDITION_SET"},
	{ErrTypeMismatch, "TYPE_MISMATCH"},
	{ErrMissingColumn, "MISSING_COLUMN"},
	{ErrMissingAggregation, "MISSING_AGGREGATION"},
	{ErrMissingValue, "MISSING_VALUE"},
	{ErrSampleSizeExceedsRows, "SAMPLE_SIZE_EXCEEDS_ROWS"},
	{ErrEmptyAggregationTarget, "EMPTY_AGGREGATION_TARGET"},
	{ErrInvalidParameter, "INVALID_PARAMETER"},
	{ErrUnsupportedFillMethod, "UNSUPPORTED_FILL_METHOD"},
	{ErrUnsupportedChartType, "UNSUPPORTED_CHART_TYPE"},
	{ErrEmptyResult, "EMPTY_RESULT"},
	{ErrNoDataset, "NO_DATASET"},
}

// Kind returns a stable code for an engine error, or "INTERNAL" when the
// error is not part of the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "INTERNAL"
}

// IsRequestError reports whether err belongs to the engine taxonomy, i.e.
// describes a malformed request rather than an internal fault.
func IsRequestError(err error) bool {
	k := Kind(err)
	return k != "" && k != "INTERNAL" && k != "NO_DATASET"
}
