package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
)

// Format is an input file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

// Detect picks the format of a file from its extension.
func Detect(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.Wrapf(core.ErrInvalidParameter, "unsupported file type %q", filename)
}

// Read parses data in the given format.
func Read(format Format, data []byte) (*table.Table, error) {
	switch format {
	case FormatCSV:
		return CSV(bytes.NewReader(data), Options{})
	case FormatTSV:
		return CSV(bytes.NewReader(data), Options{Comma: '\t'})
	case FormatParquet:
		return Parquet(bytes.NewReader(data), int64(len(data)))
	case FormatJSON:
		return JSON(bytes.NewReader(data))
	}
	return nil, errors.Wrapf(core.ErrInvalidParameter, "unsupported format %q", string(format))
}

// ReadFile detects the format of path and reads it.
func ReadFile(path string) (*table.Table, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if format == FormatParquet {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open file")
		}
		defer func() { _ = f.Close() }()
		stat, err := f.Stat()
		if err != nil {
			return nil, errors.Wrap(err, "failed to stat file")
		}
		return Parquet(f, stat.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return Read(format, data)
}
