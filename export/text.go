package export

import (
	"io"

	"github.com/asaidimu/datainsight/core/table"
	"github.com/olekukonko/tablewriter"
)

// TextFormatter renders the table as a bordered grid for terminals.
type TextFormatter struct {
	writer io.Writer
	// Null is printed in place of null cells.
	Null string
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w, Null: "null"}
}

// SetOutput sets the output writer
func (f *TextFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format renders t
func (f *TextFormatter) Format(t *table.Table) error {
	tw := tablewriter.NewWriter(f.writer)
	tw.SetHeader(t.Columns())
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v, f.Null)
		}
		tw.Append(cells)
	}
	tw.Render()
	return nil
}
