package core

import "math"

// ToFloat64 converts a Go numeric value to a float64. Strings are not
// converted: callers that need parsing do it explicitly so that a numeric
// string never silently compares against a number column.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// IsMissing reports whether a value is the null marker or a float that
// cannot be represented in a table (NaN, +Inf, -Inf).
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok {
		return math.IsNaN(f) || math.IsInf(f, 0)
	}
	if f, ok := v.(float32); ok {
		return math.IsNaN(float64(f)) || math.IsInf(float64(f), 0)
	}
	return false
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
