package sqlite

import (
	"database/sql"
	"strings"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// SqliteQueryGeneratorFactory implements query.QueryGeneratorFactory for SQLite.
type SqliteQueryGeneratorFactory struct{}

// NewSqliteQueryGeneratorFactory creates a new instance of SqliteQueryGeneratorFactory.
func NewSqliteQueryGeneratorFactory() *SqliteQueryGeneratorFactory {
	return &SqliteQueryGeneratorFactory{}
}

// CreateGenerator creates a SqliteQuery for the given snapshot schema.
func (f *SqliteQueryGeneratorFactory) CreateGenerator(def *schema.SchemaDefinition) (query.QueryGenerator, error) {
	return NewSqliteQuery(def)
}

// SqliteQuery generates SELECT statements over a snapshot data table.
type SqliteQuery struct {
	schema *schema.SchemaDefinition
}

var _ query.QueryGenerator = (*SqliteQuery)(nil)

// NewSqliteQuery creates a query generator for the snapshot table def.Name.
func NewSqliteQuery(def *schema.SchemaDefinition) (*SqliteQuery, error) {
	if def == nil {
		return nil, errors.New("schema definition cannot be nil")
	}
	if def.Name == "" {
		return nil, errors.New("schema must define a table name")
	}
	return &SqliteQuery{schema: def}, nil
}

// GenerateSelectSQL selects the rows matching conditions in insertion
// order. No conditions selects every row.
func (s *SqliteQuery) GenerateSelectSQL(conditions []query.Condition, logic query.LogicalOperator) (string, []any, error) {
	cols := make([]string, len(s.schema.Columns))
	for i := range s.schema.Columns {
		cols[i] = storageColumn(i)
	}
	if len(cols) == 0 {
		cols = []string{"row_id"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + strings.Join(cols, ", ") + " FROM " + quoteIdentifier(s.schema.Name))

	var params []any
	if len(conditions) > 0 {
		op, err := logic.Resolve()
		if err != nil {
			return "", nil, err
		}
		clauses := make([]string, len(conditions))
		for i, cond := range conditions {
			clause, err := s.buildCondition(cond, &params)
			if err != nil {
				return "", nil, err
			}
			clauses[i] = clause
		}
		sb.WriteString(" WHERE (" + strings.Join(clauses, ") "+string(op)+" (") + ")")
	}
	sb.WriteString(" ORDER BY row_id")
	return sb.String(), params, nil
}

var sqlOperators = map[query.ComparisonOperator]string{
	query.ComparisonOperatorEq:  "=",
	query.ComparisonOperatorGt:  ">",
	query.ComparisonOperatorLt:  "<",
	query.ComparisonOperatorGte: ">=",
	query.ComparisonOperatorLte: "<=",
}

// buildCondition translates one condition. SQL comparisons against NULL
// are never true, which matches the engine's null policy.
func (s *SqliteQuery) buildCondition(cond query.Condition, params *[]any) (string, error) {
	idx := -1
	for i, c := range s.schema.Columns {
		if c.Name == cond.Column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", errors.Wrapf(core.ErrColumnNotFound, "column %q", cond.Column)
	}
	op, ok := sqlOperators[cond.Operator]
	if !ok {
		return "", errors.Wrapf(core.ErrUnsupportedOperator, "operator %q", string(cond.Operator))
	}

	typ := s.schema.Columns[idx].Type
	value, err := (&table.Column{Name: cond.Column, Type: typ}).Normalise(cond.Value)
	if err != nil {
		return "", errors.Wrapf(core.ErrTypeMismatch, "condition on %q: %v", cond.Column, err)
	}
	if value == nil {
		return "1 = 0", nil
	}
	*params = append(*params, toStorage(value))
	return storageColumn(idx) + " " + op + " ?", nil
}

// readRows reads the rows of a snapshot into typed columns.
func readRows(logger *zap.Logger, def *schema.SchemaDefinition, rows *sql.Rows) ([]*table.Column, error) {
	width := len(def.Columns)
	values := make([][]any, width)

	scan := make([]any, max(width, 1))
	for rows.Next() {
		raw := make([]any, len(scan))
		for i := range raw {
			scan[i] = &raw[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		for i := 0; i < width; i++ {
			values[i] = append(values[i], fromStorage(logger, def.Columns[i], raw[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error after scanning rows")
	}

	columns := make([]*table.Column, width)
	for i, c := range def.Columns {
		col, err := table.NewColumn(c.Name, c.Type, values[i])
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return columns, nil
}

// fromStorage converts a scanned value back to the column representation.
func fromStorage(logger *zap.Logger, c schema.ColumnDefinition, val any) any {
	if val == nil {
		return nil
	}
	switch c.Type {
	case schema.TypeBoolean:
		switch v := val.(type) {
		case int64:
			return v != 0
		case bool:
			return v
		}
	case schema.TypeString:
		switch v := val.(type) {
		case []byte:
			return string(v)
		case string:
			return v
		}
	case schema.TypeNumber:
		switch v := val.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		}
	}
	logger.Warn("Unexpected stored value, using raw value",
		zap.String("column", c.Name),
		zap.String("type", c.Type.String()))
	return val
}
