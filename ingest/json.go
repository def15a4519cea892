package ingest

import (
	"encoding/json"
	"io"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// JSON reads an array of records, the layout export.JSONFormatter writes.
// Columns appear in the order their keys are first seen; a key missing from
// a record is null there. Each column's type is inferred from its non-null
// values, and a column mixing types is rejected with core.ErrTypeMismatch.
func JSON(r io.Reader) (*table.Table, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var (
		order []string
		seen  = make(map[string]bool)
		docs  []map[string]any
	)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, errors.Wrapf(err, "record %d", len(docs))
		}
		doc := make(map[string]any)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrapf(err, "record %d", len(docs))
			}
			key, ok := tok.(string)
			if !ok {
				return nil, errors.Wrapf(core.ErrInvalidParameter, "record %d: expected a key, got %v", len(docs), tok)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, errors.Wrapf(err, "record %d, key %q", len(docs), key)
			}
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
			doc[key] = v
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, errors.Wrapf(err, "record %d", len(docs))
		}
		docs = append(docs, doc)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON array")
	}

	def := schema.SchemaDefinition{Columns: make([]schema.ColumnDefinition, len(order))}
	for i, name := range order {
		values := make([]any, len(docs))
		for r, doc := range docs {
			values[r] = doc[name]
		}
		def.Columns[i] = schema.ColumnDefinition{Name: name, Type: table.InferType(values)}
	}
	t, err := table.FromDocuments(def, docs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read JSON records")
	}
	return t, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrapf(core.ErrInvalidParameter, "expected %q: %v", want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.Wrapf(core.ErrInvalidParameter, "expected %q, got %v", want, tok)
	}
	return nil
}
