package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/asaidimu/datainsight/ingest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *table.Table {
	return table.MustNew(
		table.MustColumn("id", schema.TypeNumber, 1, 2.5, nil),
		table.MustColumn("name", schema.TypeString, "ama", nil, "a,b"),
		table.MustColumn("ok", schema.TypeBoolean, true, false, nil),
	)
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(&buf).Format(sample()))
	assert.Equal(t, "id,name,ok\n1,ama,true\n2.5,,false\n,\"a,b\",\n", buf.String())

	back, err := ingest.CSV(&buf, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, sample().Snapshot(), back.Snapshot())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(sample()))
	assert.True(t, strings.HasPrefix(buf.String(), `[{"id":1,"name":"ama","ok":true}`))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Nil(t, records[2]["id"])
	assert.Equal(t, "a,b", records[2]["name"])

	back, err := ingest.JSON(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, sample().Snapshot(), back.Snapshot())

	buf.Reset()
	require.NoError(t, NewJSONFormatter(&buf).Format(table.MustNew(table.MustColumn("x", schema.TypeNumber))))
	assert.Equal(t, "[]\n", buf.String())
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(sample()))
	out := buf.String()
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "ama")
	assert.Contains(t, out, "null")
	assert.Contains(t, out, "2.5")
}

func TestArrowFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewArrowFormatter(&buf).Format(sample()))

	r, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer r.Release()

	s := r.Schema()
	require.Equal(t, 3, s.NumFields())
	assert.Equal(t, arrow.PrimitiveTypes.Float64, s.Field(0).Type)
	assert.Equal(t, arrow.BinaryTypes.String, s.Field(1).Type)
	assert.Equal(t, arrow.FixedWidthTypes.Boolean, s.Field(2).Type)

	require.True(t, r.Next())
	rec := r.Record()
	assert.Equal(t, int64(3), rec.NumRows())

	ids := rec.Column(0).(*array.Float64)
	assert.Equal(t, 2.5, ids.Value(1))
	assert.True(t, ids.IsNull(2))
	names := rec.Column(1).(*array.String)
	assert.Equal(t, "a,b", names.Value(2))
	assert.True(t, names.IsNull(1))
}

func TestParquetFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewParquetFormatter(&buf).Format(sample()))

	back, err := ingest.Parquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, sample().Snapshot(), back.Snapshot())
}

func TestParquetFormatter_ColumnOrder(t *testing.T) {
	in := table.MustNew(
		table.MustColumn("zone", schema.TypeString, "b", "a"),
		table.MustColumn("Area", schema.TypeNumber, 2, 1),
		table.MustColumn("active", schema.TypeBoolean, nil, true),
	)
	var buf bytes.Buffer
	require.NoError(t, NewParquetFormatter(&buf).Format(in))

	back, err := ingest.Parquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, in.Snapshot(), back.Snapshot())
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestParquetFormatter_LeavesWriterOpen(t *testing.T) {
	w := &closeRecorder{}
	require.NoError(t, NewParquetFormatter(w).Format(sample()))
	assert.False(t, w.closed)
	assert.NotZero(t, w.Len())

	err := NewParquetFormatter(w).Format(table.MustNew())
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}

func TestNew(t *testing.T) {
	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			formatter, err := New(f, &bytes.Buffer{})
			require.NoError(t, err)
			formatter.SetOutput(&buf)
			require.NoError(t, formatter.Format(sample()))
			assert.NotZero(t, buf.Len())
			assert.NotEmpty(t, f.ContentType())
		})
	}

	_, err := New("xlsx", &bytes.Buffer{})
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
	assert.Equal(t, "txt", FormatText.Extension())
	assert.Equal(t, "parquet", FormatParquet.Extension())
}
