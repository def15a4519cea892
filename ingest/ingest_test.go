package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV_TypeInference(t *testing.T) {
	input := "name,age,active,score\n" +
		"ama,31,true,1.5\n" +
		"kofi,,FALSE,NaN\n" +
		"esi,40,true,inf\n"

	tb, err := CSV(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "active", "score"}, tb.Columns())
	assert.Equal(t, 3, tb.Len())

	assert.Equal(t, map[string]string{"name": "string", "age": "number", "active": "boolean", "score": "number"}, tb.Schema().Types())

	snap := tb.Snapshot()
	assert.Equal(t, []any{"kofi", nil, false, nil}, snap.Rows[1])
	assert.Equal(t, []any{"esi", 40.0, true, nil}, snap.Rows[2])
}

func TestCSV_MixedColumnsAreStrings(t *testing.T) {
	tb, err := CSV(strings.NewReader("code,flag\n1,true\nA2,1\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"code": "string", "flag": "string"}, tb.Schema().Types())
	assert.Equal(t, []any{"1", "true"}, tb.Row(0))
}

func TestCSV_AllNullColumn(t *testing.T) {
	tb, err := CSV(strings.NewReader("a,b\n1,\n2,NA\n"), Options{})
	require.NoError(t, err)
	col, err := tb.Column("b")
	require.NoError(t, err)
	assert.Equal(t, schema.TypeNumber, col.Type)
	assert.Equal(t, 2, col.NullCount())
}

func TestCSV_Headers(t *testing.T) {
	tb, err := CSV(strings.NewReader("\ufeffa,a,,a\n1,2,3,4\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2"}, tb.Columns())
}

func TestCSV_Options(t *testing.T) {
	tb, err := CSV(strings.NewReader("x;y\n1;-\n"), Options{Comma: ';', NullValues: []string{"-"}})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, nil}, tb.Row(0))
}

func TestCSV_Errors(t *testing.T) {
	_, err := CSV(strings.NewReader("a,b\n1,2,3\n"), Options{})
	assert.Error(t, err)

	tb, err := CSV(strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, tb.Width())

	tb, err = CSV(strings.NewReader("a,b\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tb.Columns())
	assert.Equal(t, 0, tb.Len())
}

type sensorRow struct {
	Station string   `parquet:"station"`
	Reading *float64 `parquet:"reading,optional"`
	Count   int32    `parquet:"count"`
	Online  bool     `parquet:"online"`
}

func writeParquet(t *testing.T, rows []sensorRow) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[sensorRow](&buf)
	_, err := w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParquet(t *testing.T) {
	v := 21.5
	data := writeParquet(t, []sensorRow{
		{Station: "north", Reading: &v, Count: 3, Online: true},
		{Station: "south", Reading: nil, Count: 7, Online: false},
	})

	tb, err := Parquet(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"station", "reading", "count", "online"}, tb.Columns())
	assert.Equal(t, 2, tb.Len())

	station, _ := tb.Column("station")
	assert.Equal(t, schema.TypeString, station.Type)
	assert.Equal(t, []any{"north", "south"}, station.Values)

	reading, _ := tb.Column("reading")
	assert.Equal(t, schema.TypeNumber, reading.Type)
	assert.Equal(t, []any{21.5, nil}, reading.Values)

	count, _ := tb.Column("count")
	assert.Equal(t, []any{3.0, 7.0}, count.Values)

	online, _ := tb.Column("online")
	assert.Equal(t, schema.TypeBoolean, online.Type)
	assert.Equal(t, []any{true, false}, online.Values)
}

func TestParquet_Invalid(t *testing.T) {
	data := []byte("not a parquet file")
	_, err := Parquet(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"data.csv", FormatCSV},
		{"DATA.CSV", FormatCSV},
		{"data.tsv", FormatTSV},
		{"data.parquet", FormatParquet},
		{"records.JSON", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Detect("report.xlsx")
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,x\n"), 0o644))
	tb, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, "x"}, tb.Row(0))

	pqPath := filepath.Join(dir, "sensors.parquet")
	require.NoError(t, os.WriteFile(pqPath, writeParquet(t, []sensorRow{{Station: "east", Count: 1}}), 0o644))
	tb, err = ReadFile(pqPath)
	require.NoError(t, err)
	assert.Equal(t, 1, tb.Len())

	tsv, err := Read(FormatTSV, []byte("a\tb\n1\t2\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, tsv.Row(0))

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	in := `[
		{"city": "accra", "pop": 2.5, "coastal": true},
		{"pop": null, "city": "kumasi", "coastal": false, "region": "ashanti"},
		{"city": "tamale", "coastal": null}
	]`
	tb, err := JSON(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "pop", "coastal", "region"}, tb.Columns())
	assert.Equal(t, map[string]string{
		"city": "string", "pop": "number", "coastal": "boolean", "region": "string",
	}, tb.Schema().Types())
	assert.Equal(t, []any{"kumasi", nil, false, "ashanti"}, tb.Row(1))
	assert.Equal(t, []any{"tamale", nil, nil, nil}, tb.Row(2))

	empty, err := Read(FormatJSON, []byte("[]"))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Width())

	keysOnly, err := JSON(strings.NewReader(`[{}, {}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, keysOnly.Len())
}

func TestJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"mixed types", `[{"a": 1}, {"a": "x"}]`, core.ErrTypeMismatch},
		{"nested value", `[{"a": {"b": 1}}]`, core.ErrTypeMismatch},
		{"not an array", `{"a": 1}`, core.ErrInvalidParameter},
		{"not a record", `[1, 2]`, core.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSON(strings.NewReader(tt.in))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := JSON(strings.NewReader(`[{"a": 1}] [`))
	assert.Error(t, err)
	_, err = JSON(strings.NewReader(`[{"a": 1}`))
	assert.Error(t, err)
}
