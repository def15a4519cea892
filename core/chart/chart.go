// Package chart prepares the data behind a chart: it filters the table,
// optionally aggregates y by x and checks that the chart type has the
// columns it needs. Rendering is left to the caller.
package chart

import (
	"math"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/stats"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Type is a chart type.
type Type string

// Supported chart types.
const (
	Bar       Type = "bar"
	Line      Type = "line"
	Scatter   Type = "scatter"
	Histogram Type = "histogram"
	Box       Type = "box"
	Heatmap   Type = "heatmap"
)

// Config describes the chart a caller wants to draw.
type Config struct {
	ChartType   Type                  `json:"chart_type"`
	X           string                `json:"x,omitempty"`
	Y           string                `json:"y,omitempty"`
	Aggregation query.AggregationType `json:"aggregation,omitempty"`
	Color       string                `json:"color,omitempty"`
	Filters     []query.Condition     `json:"filters,omitempty"`
}

// Summary holds the min, max and mean of the y values.
type Summary struct {
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
	Mean *float64 `json:"mean"`
}

// Data is the reduced table a chart is drawn from. For heatmaps the table is
// the correlation matrix, with a leading "column" label column.
type Data struct {
	Config  Config       `json:"config"`
	Table   *table.Table `json:"-"`
	Summary *Summary     `json:"summary,omitempty"`
}

// Preparer turns chart configs into chart data.
type Preparer struct {
	processor *query.Processor
	logger    *zap.Logger
}

// NewPreparer creates a Preparer. A nil processor gets a default one.
func NewPreparer(processor *query.Processor, logger *zap.Logger) *Preparer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if processor == nil {
		processor = query.NewProcessor(logger)
	}
	return &Preparer{processor: processor, logger: logger}
}

// Prepare filters t with the config's conditions (combined with AND),
// aggregates y by x when an aggregation is set, and returns the result.
// It fails with core.ErrEmptyResult when the filters leave no rows.
func (p *Preparer) Prepare(t *table.Table, cfg Config) (Data, error) {
	if err := validate(cfg); err != nil {
		return Data{}, err
	}

	working := t
	if len(cfg.Filters) > 0 {
		var err error
		if working, err = p.processor.Filter(t, cfg.Filters, query.LogicalOperatorAnd); err != nil {
			return Data{}, err
		}
	}
	if working.Len() == 0 {
		return Data{}, core.ErrEmptyResult
	}

	if cfg.Aggregation != "" && cfg.X != "" && cfg.Y != "" {
		var err error
		if working, err = aggregate(working, cfg); err != nil {
			return Data{}, err
		}
	}

	for _, name := range []string{cfg.X, cfg.Y, cfg.Color} {
		if name != "" && cfg.ChartType != Heatmap && !working.HasColumn(name) {
			return Data{}, errors.Wrapf(core.ErrColumnNotFound, "column %q", name)
		}
	}

	if cfg.ChartType == Heatmap {
		corr, err := correlation(working)
		if err != nil {
			return Data{}, err
		}
		return Data{Config: cfg, Table: corr}, nil
	}

	data := Data{Config: cfg, Table: working}
	if cfg.Y != "" {
		data.Summary = summarize(working, cfg.Y)
	}
	p.logger.Debug("Prepared chart",
		zap.String("chart_type", string(cfg.ChartType)),
		zap.Int("rows", working.Len()))
	return data, nil
}

func validate(cfg Config) error {
	switch cfg.ChartType {
	case Bar, Line, Scatter, Box:
		if cfg.X == "" || cfg.Y == "" {
			return errors.Wrapf(core.ErrInvalidParameter, "%s chart requires x and y", string(cfg.ChartType))
		}
	case Histogram:
		if cfg.X == "" {
			return errors.Wrap(core.ErrInvalidParameter, "histogram requires x")
		}
	case Heatmap:
	default:
		return errors.Wrapf(core.ErrUnsupportedChartType, "chart type %q", string(cfg.ChartType))
	}
	return nil
}

// aggregate groups y by x and returns a two column table of group keys and
// aggregated values.
func aggregate(t *table.Table, cfg Config) (*table.Table, error) {
	xcol, err := t.Column(cfg.X)
	if err != nil {
		return nil, err
	}
	res, err := query.Aggregate(t, cfg.Y, cfg.Aggregation, cfg.X)
	if err != nil {
		return nil, err
	}
	keys := make([]any, len(res.Groups))
	values := make([]any, len(res.Groups))
	for i, g := range res.Groups {
		keys[i] = g.Key
		values[i] = g.Value
	}
	kc, err := table.NewColumn(cfg.X, xcol.Type, keys)
	if err != nil {
		return nil, err
	}
	if cfg.X == cfg.Y {
		return table.New(kc)
	}
	vc, err := table.NewColumn(cfg.Y, schema.TypeNumber, values)
	if err != nil {
		return nil, err
	}
	return table.New(kc, vc)
}

// correlation returns the Pearson correlation matrix of the number columns
// of t, computed over rows where both columns are non-null. Undefined
// coefficients are reported as 0.
func correlation(t *table.Table) (*table.Table, error) {
	var numeric []*table.Column
	for i := 0; i < t.Width(); i++ {
		if c := t.ColumnAt(i); c.Type == schema.TypeNumber {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) < 2 {
		return nil, errors.Wrap(core.ErrInvalidParameter, "heatmap requires at least 2 numeric columns")
	}

	labels := make([]any, len(numeric))
	for i, c := range numeric {
		labels[i] = c.Name
	}
	columns := []*table.Column{table.MustColumn("column", schema.TypeString, labels...)}
	for _, a := range numeric {
		values := make([]any, len(numeric))
		for j, b := range numeric {
			values[j] = pairwise(a, b)
		}
		c, err := table.NewColumn(a.Name, schema.TypeNumber, values)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return table.New(columns...)
}

func pairwise(a, b *table.Column) float64 {
	var xs, ys []float64
	for i := range a.Values {
		x, okx := a.Values[i].(float64)
		y, oky := b.Values[i].(float64)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	r, ok := stats.Pearson(xs, ys)
	if !ok || math.IsNaN(r) {
		return 0
	}
	return r
}

func summarize(t *table.Table, column string) *Summary {
	col, err := t.Column(column)
	if err != nil || col.Type != schema.TypeNumber {
		return nil
	}
	xs := col.Floats()
	if len(xs) == 0 {
		return nil
	}
	lo, _ := stats.Min(xs)
	hi, _ := stats.Max(xs)
	avg, _ := stats.Mean(xs)
	return &Summary{Min: &lo, Max: &hi, Mean: &avg}
}
