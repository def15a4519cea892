package transform

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Option configures an Executor.
type Option func(*Executor)

// WithSeed makes random sampling reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Executor) {
		e.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithProcessor sets the processor used by filter operations, e.g. one with
// custom predicates registered.
func WithProcessor(p *query.Processor) Option {
	return func(e *Executor) {
		e.processor = p
	}
}

// Executor runs pipelines. It is safe for concurrent use.
type Executor struct {
	processor *query.Processor
	logger    *zap.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewExecutor creates an Executor. Without WithSeed, sampling is seeded from
// the clock.
func NewExecutor(logger *zap.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := uint64(time.Now().UnixNano())
	e := &Executor{
		logger: logger,
		rng:    rand.New(rand.NewPCG(now, now>>1)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.processor == nil {
		e.processor = query.NewProcessor(logger)
	}
	return e
}

// Run applies every row operation and then every column operation of p, in
// order, to a copy of t. The first failing operation aborts the run.
func (e *Executor) Run(t *table.Table, p Pipeline) (*table.Table, error) {
	working := t.Clone()
	var err error

	for i, op := range p.RowOperations {
		if working, err = e.applyRow(working, op); err != nil {
			return nil, errors.Wrapf(err, "row operation %d (%s)", i, typeOf(op))
		}
		e.logger.Debug("Applied row operation",
			zap.Int("step", i),
			zap.String("operation", typeOf(op)),
			zap.Int("rows", working.Len()))
	}

	for i, op := range p.ColumnOperations {
		if working, err = e.applyColumn(working, op); err != nil {
			return nil, errors.Wrapf(err, "column operation %d (%s)", i, typeOf(op))
		}
		e.logger.Debug("Applied column operation",
			zap.Int("step", i),
			zap.String("operation", typeOf(op)),
			zap.Int("columns", working.Width()))
	}

	return working, nil
}

// ApplyRow applies a single row operation to a copy of t.
func (e *Executor) ApplyRow(t *table.Table, op RowOperation) (*table.Table, error) {
	return e.Run(t, Pipeline{RowOperations: []RowOperation{op}})
}

// ApplyColumn applies a single column operation to a copy of t.
func (e *Executor) ApplyColumn(t *table.Table, op ColumnOperation) (*table.Table, error) {
	return e.Run(t, Pipeline{ColumnOperations: []ColumnOperation{op}})
}

func typeOf(op interface{ Type() string }) string {
	if op == nil {
		return "<nil>"
	}
	return op.Type()
}
