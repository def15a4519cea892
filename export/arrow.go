package export

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// ArrowFormatter writes the table as an Arrow IPC stream holding a single
// record batch.
type ArrowFormatter struct {
	writer io.Writer
	pool   memory.Allocator
}

// NewArrowFormatter creates a new Arrow IPC formatter
func NewArrowFormatter(w io.Writer) *ArrowFormatter {
	return &ArrowFormatter{writer: w, pool: memory.NewGoAllocator()}
}

// SetOutput sets the output writer
func (a *ArrowFormatter) SetOutput(w io.Writer) {
	a.writer = w
}

// Format writes t as an Arrow IPC stream
func (a *ArrowFormatter) Format(t *table.Table) error {
	rec, err := toRecord(a.pool, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	w := ipc.NewWriter(a.writer, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(a.pool))
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "failed to write arrow record")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to close arrow stream")
	}
	return nil
}

// arrowSchema maps column types to nullable arrow fields: float64, utf8
// and bool.
func arrowSchema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, t.Width())
	for i := 0; i < t.Width(); i++ {
		col := t.ColumnAt(i)
		var dt arrow.DataType
		switch col.Type {
		case schema.TypeString:
			dt = arrow.BinaryTypes.String
		case schema.TypeBoolean:
			dt = arrow.FixedWidthTypes.Boolean
		default:
			dt = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: col.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// toRecord copies t into a single arrow record. The caller releases it.
func toRecord(pool memory.Allocator, t *table.Table) (arrow.Record, error) {
	b := array.NewRecordBuilder(pool, arrowSchema(t))
	defer b.Release()

	for i := 0; i < t.Width(); i++ {
		col := t.ColumnAt(i)
		builder := b.Field(i)
		builder.Reserve(col.Len())
		for _, v := range col.Values {
			if v == nil {
				builder.AppendNull()
				continue
			}
			switch fb := builder.(type) {
			case *array.Float64Builder:
				fb.Append(v.(float64))
			case *array.StringBuilder:
				fb.Append(v.(string))
			case *array.BooleanBuilder:
				fb.Append(v.(bool))
			default:
				return nil, errors.Newf("column %q: unexpected arrow builder %T", col.Name, builder)
			}
		}
	}
	return b.NewRecord(), nil
}
