// Package table provides the in-memory columnar dataset the engine operates
// on. A Table is an ordered collection of named, typed columns that all share
// the same row count.
//
// Tables are treated as values: every method that produces a different shape
// returns a new Table, and Clone gives callers a working copy that shares no
// mutable state with the original.
package table

import (
	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/cockroachdb/errors"
)

// Table is an ordered set of equally long columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates a table from columns. All columns must have the same length
// and distinct names.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c == nil {
			return nil, errors.Newf("column %d is nil", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, errors.Wrapf(core.ErrInvalidParameter, "duplicate column %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, errors.Wrapf(core.ErrInvalidParameter,
				"column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromDocuments builds a table with the given schema from row documents.
// Values are validated and coerced with a schema.Validator; missing keys are
// treated as null.
func FromDocuments(def schema.SchemaDefinition, docs []map[string]any) (*Table, error) {
	validator := schema.NewValidator(&def)
	values := make([][]any, len(def.Columns))
	for i := range values {
		values[i] = make([]any, len(docs))
	}
	for r, doc := range docs {
		coerced, issues := validator.Coerce(doc, true)
		if len(issues) > 0 {
			return nil, errors.Wrapf(core.ErrTypeMismatch, "row %d: %s", r, issues[0].Message)
		}
		for c, col := range def.Columns {
			values[c][r] = coerced[col.Name]
		}
	}
	columns := make([]*Column, len(def.Columns))
	for c, col := range def.Columns {
		column, err := NewColumn(col.Name, col.Type, values[c])
		if err != nil {
			return nil, err
		}
		columns[c] = column
	}
	t, err := New(columns...)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		t.rows = len(docs)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Schema returns the schema definition of the table.
func (t *Table) Schema() schema.SchemaDefinition {
	def := schema.SchemaDefinition{Columns: make([]schema.ColumnDefinition, len(t.columns))}
	for i, c := range t.columns {
		def.Columns[i] = schema.ColumnDefinition{Name: c.Name, Type: c.Type}
	}
	return def
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column. The returned column is owned by the
// table; callers that intend to modify it must Clone it first.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.Wrapf(core.ErrColumnNotFound, "column %q", name)
	}
	return t.columns[i], nil
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) *Column {
	return t.columns[i]
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	columns := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		columns[i] = c.Clone()
	}
	return t.withColumns(columns, t.rows)
}

// WithColumns returns a new table made of the given columns. It is the
// building block for column projections.
func (t *Table) WithColumns(columns []*Column) (*Table, error) {
	out, err := New(columns...)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		out.rows = t.rows
	}
	return out, nil
}

func (t *Table) withColumns(columns []*Column, rows int) *Table {
	out := &Table{columns: columns, index: make(map[string]int, len(columns)), rows: rows}
	for i, c := range columns {
		out.index[c.Name] = i
	}
	return out
}

// Take returns a new table holding the rows at indices, in that order.
// Indices may repeat.
func (t *Table) Take(indices []int) *Table {
	columns := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		columns[i] = c.take(indices)
	}
	return t.withColumns(columns, len(indices))
}

// Filter returns the rows whose mask entry is true. The mask must have one
// entry per row.
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.rows {
		return nil, errors.Newf("mask has %d entries, table has %d rows", len(mask), t.rows)
	}
	indices := make([]int, 0, t.rows)
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return t.Take(indices), nil
}

// Slice returns rows [start, end). Bounds are clamped to the table.
func (t *Table) Slice(start, end int) *Table {
	start = clamp(start, 0, t.rows)
	end = clamp(end, 0, t.rows)
	if end < start {
		end = start
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return t.Take(indices)
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	return t.Slice(0, n)
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Values[i]
	}
	return row
}

// Document returns row i keyed by column name.
func (t *Table) Document(i int) core.Document {
	doc := make(core.Document, len(t.columns))
	for _, col := range t.columns {
		doc[col.Name] = col.Values[i]
	}
	return doc
}

// Documents returns every row as a document.
func (t *Table) Documents() []core.Document {
	docs := make([]core.Document, t.rows)
	for i := range docs {
		docs[i] = t.Document(i)
	}
	return docs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
