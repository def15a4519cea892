package ingest

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
)

// Parquet reads a parquet file. Only flat schemas are supported: every
// top-level field must be a primitive leaf.
func Parquet(r io.ReaderAt, size int64) (*table.Table, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open parquet file")
	}

	fields := file.Schema().Fields()
	names := make([]string, len(fields))
	types := make([]schema.DataType, len(fields))
	for i, field := range fields {
		typ, err := parquetType(field)
		if err != nil {
			return nil, err
		}
		names[i] = field.Name()
		types[i] = typ
	}
	if stored, ok := file.Lookup(schema.ColumnOrderMetadataKey); ok {
		names, types = reorder(stored, names, types)
	}

	values := make([][]any, len(fields))
	reader := parquet.NewReader(file)
	defer func() { _ = reader.Close() }()

	for n := 0; ; n++ {
		row := make(map[string]any, len(fields))
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "failed to read parquet row %d", n)
		}
		for i, name := range names {
			values[i] = append(values[i], parquetValue(types[i], row[name]))
		}
	}

	columns := make([]*table.Column, len(fields))
	for i, name := range names {
		col, err := table.NewColumn(name, types[i], values[i])
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return table.New(columns...)
}

// reorder arranges names and types in the order stored in the file
// metadata. The stored order is ignored unless it names exactly the fields of
// the file.
func reorder(stored string, names []string, types []schema.DataType) ([]string, []schema.DataType) {
	var order []string
	if err := json.Unmarshal([]byte(stored), &order); err != nil || len(order) != len(names) {
		return names, types
	}
	byName := make(map[string]schema.DataType, len(names))
	for i, name := range names {
		byName[name] = types[i]
	}
	ordered := make([]schema.DataType, len(order))
	for i, name := range order {
		typ, ok := byName[name]
		if !ok {
			return names, types
		}
		ordered[i] = typ
		delete(byName, name)
	}
	return order, ordered
}

// parquetType maps a leaf field to a column type. Date and time logical
// types are read as strings.
func parquetType(field parquet.Field) (schema.DataType, error) {
	if !field.Leaf() || field.Repeated() {
		return "", errors.Wrapf(core.ErrTypeMismatch, "parquet column %q is not a primitive value", field.Name())
	}
	if lt := field.Type().LogicalType(); lt != nil {
		name := lt.String()
		if strings.HasPrefix(name, "TIMESTAMP") || strings.HasPrefix(name, "DATE") || strings.HasPrefix(name, "TIME") {
			return schema.TypeString, nil
		}
	}
	switch field.Type().Kind() {
	case parquet.Boolean:
		return schema.TypeBoolean, nil
	case parquet.Int32, parquet.Int64, parquet.Float, parquet.Double:
		return schema.TypeNumber, nil
	case parquet.ByteArray:
		return schema.TypeString, nil
	}
	return "", errors.Wrapf(core.ErrTypeMismatch, "parquet column %q has unsupported type %s", field.Name(), field.Type().Kind())
}

func parquetValue(typ schema.DataType, v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	if typ == schema.TypeString {
		if f, ok := core.ToFloat64(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return v
}
