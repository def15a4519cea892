package query

import (
	"sync"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// PredicateFunction decides whether a non-null cell value satisfies a
// custom operator against the condition's literal.
type PredicateFunction func(value any, operand any) (bool, error)

// Processor evaluates conditions, filters and structured queries against
// tables. It is safe for concurrent use.
type Processor struct {
	predicates map[ComparisonOperator]PredicateFunction
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		predicates: make(map[ComparisonOperator]PredicateFunction),
		logger:     logger,
	}
}

// RegisterPredicate registers a Go function for an operator outside the
// standard set. Standard operators cannot be overridden.
func (p *Processor) RegisterPredicate(operator ComparisonOperator, fn PredicateFunction) error {
	if operator.IsStandard() {
		return errors.Newf("operator %q is built in", string(operator))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predicates[operator] = fn
	p.logger.Info("Registered predicate", zap.String("operator", string(operator)))
	return nil
}

// Evaluate returns the mask of rows of t whose cond.Column value satisfies
// cond. Null cells are never selected and neither is any row when the
// literal itself is null. The literal must have the column's type; numbers
// of any Go numeric type are accepted for number columns.
func (p *Processor) Evaluate(t *table.Table, cond Condition) (Mask, error) {
	col, err := t.Column(cond.Column)
	if err != nil {
		return nil, err
	}

	mask := make(Mask, t.Len())
	if !cond.Operator.IsStandard() {
		p.mu.RLock()
		fn, ok := p.predicates[cond.Operator]
		p.mu.RUnlock()
		if !ok {
			return nil, errors.Wrapf(core.ErrUnsupportedOperator, "operator %q", string(cond.Operator))
		}
		for i, v := range col.Values {
			if v == nil {
				continue
			}
			if mask[i], err = fn(v, cond.Value); err != nil {
				return nil, errors.Wrapf(err, "operator %q on column %q", string(cond.Operator), cond.Column)
			}
		}
		return mask, nil
	}

	literal, err := col.Normalise(cond.Value)
	if err != nil {
		return nil, errors.Wrapf(core.ErrTypeMismatch, "comparing %s column %q with %T",
			col.Type, cond.Column, cond.Value)
	}
	if literal == nil {
		return mask, nil
	}

	for i, v := range col.Values {
		if v == nil {
			continue
		}
		mask[i] = compare(table.CompareValues(v, literal), cond.Operator)
	}
	return mask, nil
}

func compare(c int, op ComparisonOperator) bool {
	switch op {
	case ComparisonOperatorEq:
		return c == 0
	case ComparisonOperatorGt:
		return c > 0
	case ComparisonOperatorLt:
		return c < 0
	case ComparisonOperatorGte:
		return c >= 0
	case ComparisonOperatorLte:
		return c <= 0
	}
	return false
}

// Combine merges masks with AND or OR. All masks must have the same length.
func Combine(masks []Mask, logic LogicalOperator) (Mask, error) {
	if len(masks) == 0 {
		return nil, core.ErrEmptyConditionSet
	}
	logic, err := logic.Resolve()
	if err != nil {
		return nil, err
	}
	identity := logic == LogicalOperatorAnd
	out := make(Mask, len(masks[0]))
	for i := range out {
		out[i] = identity
	}
	for n, m := range masks {
		if len(m) != len(out) {
			return nil, errors.Newf("mask %d has %d entries, expected %d", n, len(m), len(out))
		}
		for i, v := range m {
			if identity {
				out[i] = out[i] && v
			} else {
				out[i] = out[i] || v
			}
		}
	}
	return out, nil
}

// Mask evaluates every condition and combines the results with logic.
func (p *Processor) Mask(t *table.Table, conditions []Condition, logic LogicalOperator) (Mask, error) {
	if len(conditions) == 0 {
		return nil, core.ErrEmptyConditionSet
	}
	masks := make([]Mask, 0, len(conditions))
	for _, cond := range conditions {
		m, err := p.Evaluate(t, cond)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	return Combine(masks, logic)
}

// Filter returns the rows of t selected by conditions combined with logic.
func (p *Processor) Filter(t *table.Table, conditions []Condition, logic LogicalOperator) (*table.Table, error) {
	mask, err := p.Mask(t, conditions, logic)
	if err != nil {
		return nil, err
	}
	out, err := t.Filter(mask)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Rows remaining after filter",
		zap.Int("conditions", len(conditions)),
		zap.Int("rows", out.Len()))
	return out, nil
}

// Execute runs a structured query: filters, then grouping and aggregation,
// then scaling by the optional multiplier.
func (p *Processor) Execute(t *table.Table, q StructuredQuery) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	working := t
	if len(q.Filters) > 0 {
		var err error
		if working, err = p.Filter(t, q.Filters, q.Logic); err != nil {
			return Result{}, err
		}
	}

	res, err := Aggregate(working, q.Column, q.Aggregation, q.GroupBy)
	if err != nil {
		return Result{}, err
	}
	if q.Multiply != nil {
		res = res.Scale(*q.Multiply)
	}
	p.logger.Debug("Executed query",
		zap.String("aggregation", string(q.Aggregation)),
		zap.String("groupby", q.GroupBy),
		zap.Int("rows", working.Len()))
	return res, nil
}
