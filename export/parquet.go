package export

import (
	"encoding/json"
	"io"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
)

// ParquetFormatter writes the table as a snappy compressed parquet file.
// Every column is an optional leaf; the table's column order is kept in the
// file metadata since parquet groups sort their fields by name.
type ParquetFormatter struct {
	writer io.Writer
}

// NewParquetFormatter creates a new Parquet formatter
func NewParquetFormatter(w io.Writer) *ParquetFormatter {
	return &ParquetFormatter{writer: w}
}

// SetOutput sets the output writer
func (p *ParquetFormatter) SetOutput(w io.Writer) {
	p.writer = w
}

// Format writes t as parquet. The output writer is never closed.
func (p *ParquetFormatter) Format(t *table.Table) error {
	if t.Width() == 0 {
		return errors.Wrap(core.ErrInvalidParameter, "parquet needs at least one column")
	}

	group := make(parquet.Group, t.Width())
	for i := 0; i < t.Width(); i++ {
		col := t.ColumnAt(i)
		group[col.Name] = parquet.Optional(parquetNode(col.Type))
	}
	sch := parquet.NewSchema("dataset", group)

	order, err := json.Marshal(t.Columns())
	if err != nil {
		return err
	}
	writer := parquet.NewWriter(p.writer, sch,
		parquet.Compression(&parquet.Snappy),
		parquet.KeyValueMetadata(schema.ColumnOrderMetadataKey, string(order)),
	)

	// Leaf i of the schema holds the column named by its path.
	leaves := sch.Columns()
	columns := make([]*table.Column, len(leaves))
	for i, path := range leaves {
		col, err := t.Column(path[0])
		if err != nil {
			return err
		}
		columns[i] = col
	}

	rows := make([]parquet.Row, t.Len())
	for r := range rows {
		row := make(parquet.Row, len(columns))
		for i, col := range columns {
			if v := col.Values[r]; v != nil {
				row[i] = parquetValue(v).Level(0, 1, i)
			} else {
				row[i] = parquet.NullValue().Level(0, 0, i)
			}
		}
		rows[r] = row
	}
	if _, err := writer.WriteRows(rows); err != nil {
		_ = writer.Close()
		return errors.Wrap(err, "failed to write parquet")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed to close parquet writer")
	}
	return nil
}

func parquetNode(typ schema.DataType) parquet.Node {
	switch typ {
	case schema.TypeNumber:
		return parquet.Leaf(parquet.DoubleType)
	case schema.TypeBoolean:
		return parquet.Leaf(parquet.BooleanType)
	}
	return parquet.String()
}

func parquetValue(v any) parquet.Value {
	switch val := v.(type) {
	case float64:
		return parquet.DoubleValue(val)
	case bool:
		return parquet.BooleanValue(val)
	case string:
		return parquet.ByteArrayValue([]byte(val))
	}
	return parquet.NullValue()
}
