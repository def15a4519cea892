// Package schema describes the shape of a table: the ordered columns it
// holds and the type every value of a column must have. It also provides a
// Validator that checks loosely typed documents against a schema before they
// are turned into a table.
package schema

import (
	"encoding/json"
	"fmt"
)

// DataType is the declared element type of a column.
type DataType string

const (
	TypeNumber  DataType = "number"  // float64 values
	TypeString  DataType = "string"  // string values
	TypeBoolean DataType = "boolean" // bool values
)

// String returns the string representation of a DataType.
func (dt DataType) String() string {
	return string(dt)
}

// IsValid reports whether dt is one of the supported data types.
func (dt DataType) IsValid() bool {
	switch dt {
	case TypeNumber, TypeString, TypeBoolean:
		return true
	default:
		return false
	}
}

// UnmarshalJSON rejects data types outside the supported set.
func (dt *DataType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t := DataType(s)
	if !t.IsValid() {
		return fmt.Errorf("unsupported data type %q", s)
	}
	*dt = t
	return nil
}

// Accepts reports whether a non-null value can be stored in a column of
// this type without conversion. Numbers must already be float64.
func (dt DataType) Accepts(value any) bool {
	switch dt {
	case TypeNumber:
		_, ok := value.(float64)
		return ok
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	default:
		return false
	}
}

// ColumnOrderMetadataKey is the file metadata key under which column
// oriented formats that do not keep field order store the column names, as a
// JSON array.
const ColumnOrderMetadataKey = "datainsight.columns"

// ColumnDefinition defines one column of a table.
type ColumnDefinition struct {
	Name string   `json:"name"`
	Type DataType `json:"type"`
}

// SchemaDefinition is the ordered list of columns of a table. Column order
// is significant: it drives previews and exports.
type SchemaDefinition struct {
	Name    string             `json:"name,omitempty"`
	Columns []ColumnDefinition `json:"columns"`
}

// Names returns the column names in order.
func (s SchemaDefinition) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the definition of the named column.
func (s SchemaDefinition) Column(name string) (ColumnDefinition, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// Types returns a map from column name to the string form of its type.
func (s SchemaDefinition) Types() map[string]string {
	out := make(map[string]string, len(s.Columns))
	for _, c := range s.Columns {
		out[c.Name] = c.Type.String()
	}
	return out
}

// Issue describes a single validation problem.
type Issue struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Path        string `json:"path,omitempty"`
	Severity    string `json:"severity,omitempty"` // e.g., "error", "warning"
	Description string `json:"description,omitempty"`
}
