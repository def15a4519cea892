// Package transform reshapes tables through pipelines of row operations
// followed by column operations. Operations are closed sets of types: a
// pipeline decoded from JSON is rejected up front when it names an unknown
// operation.
package transform

import (
	"encoding/json"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/cockroachdb/errors"
)

// RowOperation is a table to table transform that works on rows. The set of
// implementations is closed.
type RowOperation interface {
	Type() string
	rowOperation()
}

// ColumnOperation is a table to table transform that works on columns. The
// set of implementations is closed.
type ColumnOperation interface {
	Type() string
	columnOperation()
}

// Filter keeps the rows selected by its conditions.
type Filter struct {
	Conditions []query.Condition     `json:"conditions"`
	Logic      query.LogicalOperator `json:"logic,omitempty"`
}

// TopN keeps the N rows with the largest values of Column.
type TopN struct {
	Column string `json:"column"`
	N      int    `json:"n"`
}

// BottomN keeps the N rows with the smallest values of Column.
type BottomN struct {
	Column string `json:"column"`
	N      int    `json:"n"`
}

// RandomSample draws N rows without replacement.
type RandomSample struct {
	N int `json:"n"`
}

// DropNulls removes every row holding a null.
type DropNulls struct{}

// RowRange keeps rows [Start, End).
type RowRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RemoveDuplicates keeps the first occurrence of every distinct row.
type RemoveDuplicates struct{}

func (Filter) Type() string           { return "filter" }
func (TopN) Type() string             { return "top_n" }
func (BottomN) Type() string          { return "bottom_n" }
func (RandomSample) Type() string     { return "random_sample" }
func (DropNulls) Type() string        { return "drop_nulls" }
func (RowRange) Type() string         { return "row_range" }
func (RemoveDuplicates) Type() string { return "remove_duplicates" }

func (Filter) rowOperation()           {}
func (TopN) rowOperation()             {}
func (BottomN) rowOperation()          {}
func (RandomSample) rowOperation()     {}
func (DropNulls) rowOperation()        {}
func (RowRange) rowOperation()         {}
func (RemoveDuplicates) rowOperation() {}

// FillMethod selects how FillNull computes replacement values.
type FillMethod string

// Supported fill methods.
const (
	FillMean     FillMethod = "mean"
	FillMedian   FillMethod = "median"
	FillMode     FillMethod = "mode"
	FillConstant FillMethod = "constant"
	FillForward  FillMethod = "ffill"
	FillBackward FillMethod = "bfill"
)

// Select projects the table onto Columns, in that order.
type Select struct {
	Columns []string `json:"columns"`
}

// Drop removes Columns.
type Drop struct {
	Columns []string `json:"columns"`
}

// Rename renames columns from the keys of Mapping to its values.
type Rename struct {
	Mapping map[string]string `json:"mapping"`
}

// Reorder puts the table's columns in the order of Columns.
type Reorder struct {
	Columns []string `json:"columns"`
}

// FillNull replaces the nulls of Column.
type FillNull struct {
	Column string     `json:"column"`
	Method FillMethod `json:"method"`
	Value  any        `json:"value,omitempty"`
}

// DropNullThreshold drops every column whose null fraction is strictly
// greater than Threshold.
type DropNullThreshold struct {
	Threshold float64 `json:"threshold"`
}

func (Select) Type() string            { return "select" }
func (Drop) Type() string              { return "drop" }
func (Rename) Type() string            { return "rename" }
func (Reorder) Type() string           { return "reorder" }
func (FillNull) Type() string          { return "fill_null" }
func (DropNullThreshold) Type() string { return "drop_null_threshold" }

func (Select) columnOperation()            {}
func (Drop) columnOperation()              {}
func (Rename) columnOperation()            {}
func (Reorder) columnOperation()           {}
func (FillNull) columnOperation()          {}
func (DropNullThreshold) columnOperation() {}

// Pipeline is an ordered list of row operations followed by an ordered list
// of column operations.
type Pipeline struct {
	RowOperations    []RowOperation
	ColumnOperations []ColumnOperation
}

type wirePipeline struct {
	RowOperations    []json.RawMessage `json:"row_operations"`
	ColumnOperations []json.RawMessage `json:"column_operations"`
}

type wireTag struct {
	Type string `json:"type"`
}

// UnmarshalJSON decodes a pipeline, failing with core.ErrUnknownOperation on
// any operation whose type is not known.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	var wire wirePipeline
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out, err := DecodePipeline(wire.RowOperations, wire.ColumnOperations)
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// DecodePipeline decodes lists of tagged row and column operations. Errors
// name the position of the operation that failed.
func DecodePipeline(rows, columns []json.RawMessage) (Pipeline, error) {
	var p Pipeline
	for i, raw := range rows {
		op, err := DecodeRowOperation(raw)
		if err != nil {
			return Pipeline{}, errors.Wrapf(err, "row_operations[%d]", i)
		}
		p.RowOperations = append(p.RowOperations, op)
	}
	for i, raw := range columns {
		op, err := DecodeColumnOperation(raw)
		if err != nil {
			return Pipeline{}, errors.Wrapf(err, "column_operations[%d]", i)
		}
		p.ColumnOperations = append(p.ColumnOperations, op)
	}
	return p, nil
}

// MarshalJSON encodes the pipeline in the same shape UnmarshalJSON reads.
func (p Pipeline) MarshalJSON() ([]byte, error) {
	wire := wirePipeline{
		RowOperations:    make([]json.RawMessage, 0, len(p.RowOperations)),
		ColumnOperations: make([]json.RawMessage, 0, len(p.ColumnOperations)),
	}
	for _, op := range p.RowOperations {
		raw, err := encodeTagged(op.Type(), op)
		if err != nil {
			return nil, err
		}
		wire.RowOperations = append(wire.RowOperations, raw)
	}
	for _, op := range p.ColumnOperations {
		raw, err := encodeTagged(op.Type(), op)
		if err != nil {
			return nil, err
		}
		wire.ColumnOperations = append(wire.ColumnOperations, raw)
	}
	return json.Marshal(wire)
}

// DecodeRowOperation decodes one tagged row operation.
func DecodeRowOperation(raw []byte) (RowOperation, error) {
	var tag wireTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	var op RowOperation
	switch tag.Type {
	case "filter":
		op = &Filter{}
	case "top_n":
		op = &TopN{}
	case "bottom_n":
		op = &BottomN{}
	case "random_sample":
		op = &RandomSample{}
	case "drop_nulls":
		return DropNulls{}, nil
	case "row_range":
		op = &RowRange{}
	case "remove_duplicates":
		return RemoveDuplicates{}, nil
	default:
		return nil, errors.Wrapf(core.ErrUnknownOperation, "row operation %q", tag.Type)
	}
	if err := json.Unmarshal(raw, op); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", tag.Type)
	}
	return deref(op).(RowOperation), nil
}

// DecodeColumnOperation decodes one tagged column operation.
func DecodeColumnOperation(raw []byte) (ColumnOperation, error) {
	var tag wireTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	var op ColumnOperation
	switch tag.Type {
	case "select":
		op = &Select{}
	case "drop":
		op = &Drop{}
	case "rename":
		op = &Rename{}
	case "reorder":
		op = &Reorder{}
	case "fill_null":
		op = &FillNull{}
	case "drop_null_threshold":
		op = &DropNullThreshold{}
	default:
		return nil, errors.Wrapf(core.ErrUnknownOperation, "column operation %q", tag.Type)
	}
	if err := json.Unmarshal(raw, op); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", tag.Type)
	}
	return deref(op).(ColumnOperation), nil
}

// deref turns the pointer used for decoding back into the value type the
// executor switches on.
func deref(op any) any {
	switch v := op.(type) {
	case *Filter:
		return *v
	case *TopN:
		return *v
	case *BottomN:
		return *v
	case *RandomSample:
		return *v
	case *RowRange:
		return *v
	case *Select:
		return *v
	case *Drop:
		return *v
	case *Rename:
		return *v
	case *Reorder:
		return *v
	case *FillNull:
		return *v
	case *DropNullThreshold:
		return *v
	}
	return op
}

func encodeTagged(tag string, op any) (json.RawMessage, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(tag)
	return json.Marshal(fields)
}
