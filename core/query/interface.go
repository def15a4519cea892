package query

import "github.com/asaidimu/datainsight/core/schema"

// QueryGeneratorFactory creates query generators bound to a stored table.
type QueryGeneratorFactory interface {
	// CreateGenerator creates a QueryGenerator for the table described by def.
	// def.Name is the name of the table in the backend.
	CreateGenerator(def *schema.SchemaDefinition) (QueryGenerator, error)
}

// QueryGenerator translates filter conditions into a backend query, so that
// stores able to filter rows themselves do not have to load a whole dataset.
// A generator must select exactly the rows Processor.Mask selects for the
// same conditions, and must fail with core.ErrUnsupportedOperator for any
// operator it cannot translate.
type QueryGenerator interface {
	// GenerateSelectSQL returns a SELECT statement and its parameters that
	// read the matching rows in stored order.
	GenerateSelectSQL(conditions []Condition, logic LogicalOperator) (string, []any, error)
}
