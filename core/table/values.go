package table

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/asaidimu/datainsight/core/schema"
)

// CompareValues orders two cell values. nil sorts after every other value;
// values of different kinds order boolean < number < string. It returns a
// negative number when a < b, zero when equal and a positive number otherwise.
func CompareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		default:
			return -1
		}
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return strings.Compare(av, b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

// ValueKey returns a string that is equal for two values exactly when the
// values are equal. The kind is part of the key, so 1 and "1" differ.
func ValueKey(v any) string {
	switch val := v.(type) {
	case nil:
		return "n:"
	case bool:
		return "b:" + strconv.FormatBool(val)
	case float64:
		if val == 0 {
			val = 0 // folds -0 into +0
		}
		return "f:" + strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return "s:" + val
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// RowKey hashes every value of row i. Rows with equal values produce equal
// keys; callers resolving collisions compare the rows with RowsEqual.
func (t *Table) RowKey(i int) uint64 {
	h := fnv.New64a()
	for _, c := range t.columns {
		k := ValueKey(c.Values[i])
		_, _ = h.Write([]byte(strconv.Itoa(len(k))))
		_, _ = h.Write([]byte{':'})
		_, _ = h.Write([]byte(k))
	}
	return h.Sum64()
}

// RowsEqual reports whether rows i and j hold equal values in every column.
func (t *Table) RowsEqual(i, j int) bool {
	for _, c := range t.columns {
		if ValueKey(c.Values[i]) != ValueKey(c.Values[j]) {
			return false
		}
	}
	return true
}

// InferType guesses the data type of raw values: number when every non-null
// value is numeric, boolean when every non-null value is a bool, string
// otherwise. A column of nulls only is numeric.
func InferType(values []any) schema.DataType {
	number, boolean := true, true
	for _, v := range values {
		if v == nil {
			continue
		}
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			continue
		}
		switch v.(type) {
		case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			boolean = false
		case bool:
			number = false
		default:
			return schema.TypeString
		}
	}
	switch {
	case number:
		return schema.TypeNumber
	case boolean:
		return schema.TypeBoolean
	default:
		return schema.TypeString
	}
}

// Snapshot is a plain value view of a table, suitable for equality checks
// and diffing.
type Snapshot struct {
	Columns []string
	Types   []schema.DataType
	Rows    [][]any
}

// Snapshot returns the plain value view of t.
func (t *Table) Snapshot() Snapshot {
	s := Snapshot{
		Columns: t.Columns(),
		Types:   make([]schema.DataType, len(t.columns)),
		Rows:    make([][]any, t.rows),
	}
	for i, c := range t.columns {
		s.Types[i] = c.Type
	}
	for r := range s.Rows {
		s.Rows[r] = t.Row(r)
	}
	return s
}
