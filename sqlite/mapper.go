package sqlite

import (
	"strconv"
	"strings"

	"github.com/asaidimu/datainsight/core/schema"
)

// Options configures how the store lays out its tables.
type Options struct {
	// TablePrefix is prepended to every table the store creates.
	TablePrefix string
	// Keep is the number of snapshots retained after each save. Zero keeps
	// every snapshot.
	Keep int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{Keep: 10}
}

// quoteIdentifier safely quotes a table or column name.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// storageColumn is the name a column is stored under. Dataset column names
// are kept in the snapshot schema; SQLite compares identifiers without
// case, so "a" and "A" could not coexist as real column names.
func storageColumn(i int) string {
	return "c" + strconv.Itoa(i)
}

// getColumnType maps a column type to its SQLite column type.
func getColumnType(t schema.DataType) string {
	switch t {
	case schema.TypeString:
		return "TEXT"
	case schema.TypeBoolean:
		return "INTEGER"
	default:
		return "REAL"
	}
}

func (s *Store) metaTable() string {
	return quoteIdentifier(s.options.TablePrefix + "datasets")
}

func (s *Store) dataTable(id string) string {
	return s.options.TablePrefix + "dataset_" + strings.ReplaceAll(id, "-", "")
}

func (s *Store) createMetaTableSQL() string {
	return "CREATE TABLE IF NOT EXISTS " + s.metaTable() + " (\n" +
		"    seq INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
		"    id TEXT NOT NULL UNIQUE,\n" +
		"    created_at INTEGER NOT NULL,\n" +
		"    row_count INTEGER NOT NULL,\n" +
		"    schema TEXT NOT NULL\n" +
		");"
}

// createDataTableSQL generates the DDL for the table holding the rows of
// one snapshot.
func createDataTableSQL(name string, def schema.SchemaDefinition) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE " + quoteIdentifier(name) + " (\n    row_id INTEGER PRIMARY KEY")
	for i, c := range def.Columns {
		col := storageColumn(i)
		sb.WriteString(",\n    " + col + " " + getColumnType(c.Type))
		if c.Type == schema.TypeBoolean {
			sb.WriteString(" CHECK(" + col + " IN (0, 1))")
		}
	}
	sb.WriteString("\n);")
	return sb.String()
}

func insertRowSQL(name string, width int) string {
	cols := make([]string, width+1)
	marks := make([]string, width+1)
	cols[0], marks[0] = "row_id", "?"
	for i := 0; i < width; i++ {
		cols[i+1], marks[i+1] = storageColumn(i), "?"
	}
	return "INSERT INTO " + quoteIdentifier(name) + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

// toStorage converts a cell to the value bound for its SQLite column.
func toStorage(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}
