package export

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// JSONFormatter writes the table as an array of records. Keys keep the
// table's column order.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes t as a JSON array of objects
func (j *JSONFormatter) Format(t *table.Table) error {
	keys := make([][]byte, t.Width())
	for i, name := range t.Columns() {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for c, v := range t.Row(i) {
			if c > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[c])
			buf.WriteByte(':')
			b, err := json.Marshal(v)
			if err != nil {
				return errors.Wrapf(err, "failed to encode row %d", i)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]\n")

	if _, err := j.writer.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write JSON")
	}
	return nil
}
