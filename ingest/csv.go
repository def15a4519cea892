// Package ingest reads uploaded files into typed tables.
package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// DefaultNullValues are the cell values read as null.
var DefaultNullValues = []string{"", "NaN", "nan", "-NaN", "NA", "N/A", "n/a", "null", "NULL", "None", "inf", "-inf", "Inf", "-Inf"}

// Options controls CSV parsing.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// NullValues replaces DefaultNullValues when set.
	NullValues []string
}

// CSV reads a CSV document with a header row. Column types are inferred
// from the non-null cells: number when every cell parses as a float,
// boolean when every cell is true or false, string otherwise.
func CSV(r io.Reader, opts Options) (*table.Table, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	headers, err := reader.Read()
	if err == io.EOF {
		return table.New()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}
	names := headerNames(headers)

	nulls := opts.NullValues
	if nulls == nil {
		nulls = DefaultNullValues
	}
	isNull := make(map[string]bool, len(nulls))
	for _, v := range nulls {
		isNull[v] = true
	}

	cells := make([][]string, len(names))
	missing := make([][]bool, len(names))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV line %d", line)
		}
		for i, v := range record {
			cells[i] = append(cells[i], v)
			missing[i] = append(missing[i], isNull[strings.TrimSpace(v)])
		}
	}

	columns := make([]*table.Column, len(names))
	for i, name := range names {
		col, err := parseColumn(name, cells[i], missing[i])
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return table.New(columns...)
}

// headerNames fills in blank headers and suffixes repeated ones so every
// column gets a distinct name.
func headerNames(headers []string) []string {
	names := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := 1; seen[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func parseColumn(name string, cells []string, missing []bool) (*table.Column, error) {
	typ := inferCSVType(cells, missing)
	values := make([]any, len(cells))
	for i, cell := range cells {
		if missing[i] {
			continue
		}
		cell = strings.TrimSpace(cell)
		switch typ {
		case schema.TypeNumber:
			f, _ := strconv.ParseFloat(cell, 64)
			values[i] = f
		case schema.TypeBoolean:
			values[i] = strings.EqualFold(cell, "true")
		default:
			values[i] = cells[i]
		}
	}
	return table.NewColumn(name, typ, values)
}

func inferCSVType(cells []string, missing []bool) schema.DataType {
	numbers, bools, present := true, true, 0
	for i, cell := range cells {
		if missing[i] {
			continue
		}
		present++
		cell = strings.TrimSpace(cell)
		if numbers {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numbers = false
			}
		}
		if bools && !strings.EqualFold(cell, "true") && !strings.EqualFold(cell, "false") {
			bools = false
		}
		if !numbers && !bools {
			return schema.TypeString
		}
	}
	switch {
	case present == 0 || numbers:
		return schema.TypeNumber
	case bools:
		return schema.TypeBoolean
	}
	return schema.TypeString
}
