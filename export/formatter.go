// Package export writes tables out in the formats the API and CLI offer:
// CSV, JSON records, Arrow IPC streams, Parquet and a text grid.
//
// Example usage:
//
//	f, err := export.New(export.FormatCSV, os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := f.Format(t); err != nil {
//	    log.Fatal(err)
//	}
package export

import (
	"io"
	"strconv"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// Formatter writes a table to an output.
type Formatter interface {
	// Format writes t in the formatter's format.
	Format(t *table.Table) error

	// SetOutput changes the output writer.
	SetOutput(w io.Writer)
}

// Format names an output format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatArrow   Format = "arrow"
	FormatParquet Format = "parquet"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatText, FormatArrow, FormatParquet}
}

// New returns the formatter for format writing to w.
func New(format Format, w io.Writer) (Formatter, error) {
	switch format {
	case FormatCSV:
		return NewCSVFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatArrow:
		return NewArrowFormatter(w), nil
	case FormatParquet:
		return NewParquetFormatter(w), nil
	}
	return nil, errors.Wrapf(core.ErrInvalidParameter, "unsupported export format %q", string(format))
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatArrow:
		return "application/vnd.apache.arrow.stream"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	}
	return "text/plain; charset=utf-8"
}

// Extension is the file extension of the format, without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// cellString renders a cell for text based formats. Nulls render as null.
func cellString(v any, null string) string {
	switch val := v.(type) {
	case nil:
		return null
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	}
	return null
}
