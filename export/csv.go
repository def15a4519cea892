package export

import (
	"encoding/csv"
	"io"

	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// CSVFormatter writes a header row followed by one record per row. Nulls
// are written as empty cells.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes t as CSV
func (c *CSVFormatter) Format(t *table.Table) error {
	w := csv.NewWriter(c.writer)
	if t.Width() > 0 {
		if err := w.Write(t.Columns()); err != nil {
			return errors.Wrap(err, "failed to write CSV header")
		}
	}

	record := make([]string, t.Width())
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			record[j] = cellString(v, "")
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write CSV row %d", i)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush CSV writer")
	}
	return nil
}
