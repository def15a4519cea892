package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Validator checks that documents conform to a schema definition. It
// reports unknown columns, missing columns and values whose type does not
// match the declared column type, coercing where the conversion is lossless
// (integers to float64, "true"/"false" strings to bool, numeric strings to
// float64, the string "null" to nil).
type Validator struct {
	schema *SchemaDefinition
	issues []Issue
}

// NewValidator creates a new Validator for a given schema. The validator
// can be reused for multiple documents but is not safe for concurrent use.
func NewValidator(schema *SchemaDefinition) *Validator {
	return &Validator{
		schema: schema,
		issues: make([]Issue, 0),
	}
}

// Coerce validates data and returns a copy holding only schema columns, with
// every value converted to the representation its column type requires. The
// loose flag treats missing columns as null instead of reporting them.
func (v *Validator) Coerce(data map[string]any, loose bool) (map[string]any, []Issue) {
	v.issues = make([]Issue, 0)
	out := make(map[string]any, len(v.schema.Columns))

	for _, col := range v.schema.Columns {
		value, exists := data[col.Name]
		if !exists {
			if !loose {
				v.addIssue("MISSING_COLUMN", fmt.Sprintf("Column '%s' is missing", col.Name), col.Name)
			}
			out[col.Name] = nil
			continue
		}
		coerced, ok := coerceValue(value, col.Type)
		if !ok {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected %s, got %T", col.Type, value), col.Name)
			continue
		}
		out[col.Name] = coerced
	}

	for key := range data {
		if _, exists := v.schema.Column(key); !exists {
			v.addIssue("UNKNOWN_COLUMN", fmt.Sprintf("Column '%s' is not defined in schema", key), key)
		}
	}

	return out, v.issues
}

// coerceValue converts value to the canonical representation of dataType.
func coerceValue(value any, dataType DataType) (any, bool) {
	if value == nil {
		return nil, true
	}
	if str, ok := value.(string); ok && strings.EqualFold(strings.TrimSpace(str), "null") {
		return nil, true
	}

	switch dataType {
	case TypeNumber:
		switch val := value.(type) {
		case float64:
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return nil, true
			}
			return val, true
		case float32:
			return coerceValue(float64(val), dataType)
		case int:
			return float64(val), true
		case int32:
			return float64(val), true
		case int64:
			return float64(val), true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return value, false
			}
			return coerceValue(f, dataType)
		}
	case TypeBoolean:
		switch val := value.(type) {
		case bool:
			return val, true
		case string:
			switch strings.ToLower(strings.TrimSpace(val)) {
			case "true":
				return true, true
			case "false":
				return false, true
			}
		}
	case TypeString:
		if s, ok := value.(string); ok {
			return s, true
		}
	}
	return value, false
}

// addIssue is a helper function to add a new validation issue.
func (v *Validator) addIssue(code, message, path string) {
	v.issues = append(v.issues, Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: "error",
	})
}
