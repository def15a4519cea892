package table

import (
	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/cockroachdb/errors"
)

// Column is a named, typed sequence of values. Every non-null value has the
// Go representation of the column type: float64 for numbers, string for
// strings, bool for booleans. nil is the only null marker.
type Column struct {
	Name   string
	Type   schema.DataType
	Values []any
}

// NewColumn builds a column, normalising values to the representation of
// dataType. Integers become float64; NaN and infinities become nil. A value
// that cannot be represented fails with core.ErrTypeMismatch.
func NewColumn(name string, dataType schema.DataType, values []any) (*Column, error) {
	if !dataType.IsValid() {
		return nil, errors.Wrapf(core.ErrTypeMismatch, "column %q: unsupported data type %q", name, dataType)
	}
	normalised := make([]any, len(values))
	for i, v := range values {
		nv, err := normalise(v, dataType)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q row %d", name, i)
		}
		normalised[i] = nv
	}
	return &Column{Name: name, Type: dataType, Values: normalised}, nil
}

// MustColumn is like NewColumn but panics on error. It is intended for
// fixtures and examples.
func MustColumn(name string, dataType schema.DataType, values ...any) *Column {
	c, err := NewColumn(name, dataType, values)
	if err != nil {
		panic(err)
	}
	return c
}

func normalise(v any, dataType schema.DataType) (any, error) {
	if core.IsMissing(v) {
		return nil, nil
	}
	switch dataType {
	case schema.TypeNumber:
		if f, ok := core.ToFloat64(v); ok {
			return f, nil
		}
	case schema.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, errors.Wrapf(core.ErrTypeMismatch, "cannot store %T in %s column", v, dataType)
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// IsNull reports whether the value at row i is null.
func (c *Column) IsNull(i int) bool {
	return c.Values[i] == nil
}

// NullCount returns the number of null values.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Floats returns the non-null values of a number column in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a copy of the column that shares no mutable state with c.
func (c *Column) Clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: values}
}

// Renamed returns a copy of the column under a new name.
func (c *Column) Renamed(name string) *Column {
	out := c.Clone()
	out.Name = name
	return out
}

// take returns a new column holding the values at indices, in that order.
func (c *Column) take(indices []int) *Column {
	values := make([]any, len(indices))
	for i, idx := range indices {
		values[i] = c.Values[idx]
	}
	return &Column{Name: c.Name, Type: c.Type, Values: values}
}

// Accepts reports whether v can be stored in the column as-is or after
// numeric normalisation.
func (c *Column) Accepts(v any) bool {
	_, err := normalise(v, c.Type)
	return err == nil
}

// Normalise converts v to the representation of the column type.
func (c *Column) Normalise(v any) (any, error) {
	return normalise(v, c.Type)
}
