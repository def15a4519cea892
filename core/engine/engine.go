// Package engine is the entry point to the transformation and query
// engine. It runs pipelines, structured queries, chart preparation and
// profiling on a private copy of the caller's table and reports every
// operation on an event bus.
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/chart"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/stats"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/asaidimu/datainsight/core/transform"
	"github.com/asaidimu/go-events"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine runs operations on tables.
type Engine struct {
	processor *query.Processor
	executor  *transform.Executor
	charts    *chart.Preparer
	logger    *zap.Logger

	bus           *events.TypedEventBus[Event]
	subscriptions map[string]*Subscription
	subMu         sync.RWMutex
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	seed      *uint64
	processor *query.Processor
}

// WithSeed makes random sampling deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithProcessor sets the query processor, typically one with custom
// predicates registered.
func WithProcessor(p *query.Processor) Option {
	return func(o *options) { o.processor = p }
}

// New creates an Engine.
func New(logger *zap.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.processor == nil {
		o.processor = query.NewProcessor(logger)
	}

	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize event bus")
	}

	execOpts := []transform.Option{transform.WithProcessor(o.processor)}
	if o.seed != nil {
		execOpts = append(execOpts, transform.WithSeed(*o.seed))
	}

	return &Engine{
		processor:     o.processor,
		executor:      transform.NewExecutor(logger, execOpts...),
		charts:        chart.NewPreparer(o.processor, logger),
		logger:        logger,
		bus:           bus,
		subscriptions: make(map[string]*Subscription),
	}, nil
}

// Processor returns the query processor shared by all operations.
func (e *Engine) Processor() *query.Processor {
	return e.processor
}

// Transform runs a pipeline and returns the resulting table.
func (e *Engine) Transform(t *table.Table, p transform.Pipeline) (*table.Table, error) {
	out, err := e.run("transform", t, p, func(in *table.Table) (any, error) {
		return e.executor.Run(in, p)
	})
	if err != nil {
		return nil, err
	}
	return out.(*table.Table), nil
}

// Query executes a structured query.
func (e *Engine) Query(t *table.Table, q query.StructuredQuery) (query.Result, error) {
	out, err := e.run("query", t, q, func(in *table.Table) (any, error) {
		return e.processor.Execute(in, q)
	})
	if err != nil {
		return query.Result{}, err
	}
	return out.(query.Result), nil
}

// Chart prepares the data behind a chart.
func (e *Engine) Chart(t *table.Table, cfg chart.Config) (chart.Data, error) {
	out, err := e.run("chart", t, cfg, func(in *table.Table) (any, error) {
		return e.charts.Prepare(in, cfg)
	})
	if err != nil {
		return chart.Data{}, err
	}
	return out.(chart.Data), nil
}

// Profile returns the full profile of t.
func (e *Engine) Profile(t *table.Table) stats.Report {
	out, _ := e.run("profile", t, nil, func(in *table.Table) (any, error) {
		return stats.Profile(in), nil
	})
	return out.(stats.Report)
}

// Describe returns the statistics of one number column.
func (e *Engine) Describe(t *table.Table, column string) (stats.ColumnStats, error) {
	return stats.Describe(t, column)
}

// run clones the input, emits the start event, runs fn and emits the
// success or failure event.
func (e *Engine) run(operation string, t *table.Table, input any, fn func(*table.Table) (any, error)) (any, error) {
	if t == nil {
		t = table.MustNew()
	}
	s := stages[operation]
	started := time.Now()
	rows := t.Len()

	e.emit(newEvent(s.start, operation, rows, input, nil, nil, started))

	out, err := fn(t.Clone())
	if err != nil {
		e.emit(newEvent(s.failed, operation, rows, input, nil, core.StringPtr(err.Error()), started))
		e.logger.Debug("Engine operation failed",
			zap.String("operation", operation),
			zap.Int("rows", rows),
			zap.Error(err))
		return nil, err
	}

	e.emit(newEvent(s.success, operation, rows, input, output(out), nil, started))
	e.logger.Debug("Engine operation finished",
		zap.String("operation", operation),
		zap.Int("rows", rows),
		zap.Duration("elapsed", time.Since(started)))
	return out, nil
}

// output is what success events carry: tables are reduced to their shape.
func output(v any) any {
	switch o := v.(type) {
	case *table.Table:
		return stats.Shape{Rows: o.Len(), Columns: o.Width()}
	case chart.Data:
		if o.Table == nil {
			return nil
		}
		return stats.Shape{Rows: o.Table.Len(), Columns: o.Table.Width()}
	default:
		return v
	}
}

func (e *Engine) emit(event Event) {
	if e.bus != nil {
		e.bus.Emit(string(event.Type), event)
	}
}

// Subscribe registers a callback for an event type and returns the id of
// the subscription.
func (e *Engine) Subscribe(event EventType, callback Callback) string {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	unsubscribe := e.bus.Subscribe(string(event), callback)
	id := uuid.New().String()
	e.subscriptions[id] = &Subscription{ID: id, Event: event, unsubscribe: unsubscribe}
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (e *Engine) Unsubscribe(id string) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	if sub, ok := e.subscriptions[id]; ok {
		sub.unsubscribe()
		delete(e.subscriptions, id)
	}
}

// Subscriptions lists the active subscriptions ordered by event type.
func (e *Engine) Subscriptions() []Subscription {
	e.subMu.RLock()
	defer e.subMu.RUnlock()

	subs := make([]Subscription, 0, len(e.subscriptions))
	for _, s := range e.subscriptions {
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Event != subs[j].Event {
			return subs[i].Event < subs[j].Event
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}
