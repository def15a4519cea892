package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/asaidimu/datainsight/config"
	"github.com/asaidimu/datainsight/core/chart"
	"github.com/asaidimu/datainsight/core/engine"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/asaidimu/datainsight/core/transform"
	"github.com/asaidimu/datainsight/export"
	"github.com/asaidimu/datainsight/ingest"
	"github.com/asaidimu/datainsight/utils"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

func specFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "spec",
		Aliases: []string{"s"},
		Usage:   "JSON request inline, @path to read it from a file, or - for STDIN",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "name of the file to output to. Defaults to STDOUT.",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format: csv, json, text, arrow or parquet",
		Value:   string(export.FormatText),
	}
}

// NewProfileCommand returns a cli.Command for "datainsight profile".
func NewProfileCommand() *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "Print the profile of a data file as JSON.",
		UsageText: `datainsight profile [options] file`,
		Flags:     []cli.Flag{outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, t, err := setup(cmd)
			if err != nil {
				return err
			}
			return withOutput(cmd, func(w io.Writer) error {
				return writeJSON(w, e.Profile(t))
			})
		},
	}
}

// NewQueryCommand returns a cli.Command for "datainsight query".
func NewQueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run a structured query against a data file.",
		UsageText: `datainsight query -s '{"aggregation":"mean","column":"price","groupby":"region"}' file`,
		Flags:     []cli.Flag{specFlag(), outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, t, err := setup(cmd)
			if err != nil {
				return err
			}
			q, err := decodeSpec[query.StructuredQuery](cmd)
			if err != nil {
				return err
			}
			res, err := e.Query(t, q)
			if err != nil {
				return err
			}
			return withOutput(cmd, func(w io.Writer) error {
				return writeJSON(w, res)
			})
		},
	}
}

// NewTransformCommand returns a cli.Command for "datainsight transform".
func NewTransformCommand() *cli.Command {
	return &cli.Command{
		Name:      "transform",
		Usage:     "Apply a transformation pipeline to a data file.",
		UsageText: `datainsight transform -s @pipeline.json -f parquet -o out.parquet file`,
		Flags:     []cli.Flag{specFlag(), formatFlag(), outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, t, err := setup(cmd)
			if err != nil {
				return err
			}
			p, err := decodeSpec[transform.Pipeline](cmd)
			if err != nil {
				return err
			}
			out, err := e.Transform(t, p)
			if err != nil {
				return err
			}
			return writeTable(cmd, out)
		},
	}
}

// NewChartCommand returns a cli.Command for "datainsight chart".
func NewChartCommand() *cli.Command {
	return &cli.Command{
		Name:      "chart",
		Usage:     "Print the data behind a chart.",
		UsageText: `datainsight chart -s '{"chart_type":"bar","x":"region","y":"price","aggregation":"sum"}' file`,
		Flags:     []cli.Flag{specFlag(), formatFlag(), outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, t, err := setup(cmd)
			if err != nil {
				return err
			}
			cfg, err := decodeSpec[chart.Config](cmd)
			if err != nil {
				return err
			}
			data, err := e.Chart(t, cfg)
			if err != nil {
				return err
			}
			return writeTable(cmd, data.Table)
		},
	}
}

// setup builds a quiet engine from the config and reads the file argument.
func setup(cmd *cli.Command) (*engine.Engine, *table.Table, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, nil, errors.New(cmd.UsageText)
	}
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, nil, err
	}

	var opts []engine.Option
	if cfg.Engine.SampleSeed != nil {
		opts = append(opts, engine.WithSeed(*cfg.Engine.SampleSeed))
	}
	e, err := engine.New(logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	t, err := ingest.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return e, t, nil
}

func decodeSpec[T any](cmd *cli.Command) (T, error) {
	var zero T
	spec := cmd.String("spec")
	var r io.Reader
	switch {
	case spec == "":
		return zero, errors.New("missing --spec")
	case spec == "-":
		r = os.Stdin
	case strings.HasPrefix(spec, "@"):
		f, err := os.Open(spec[1:])
		if err != nil {
			return zero, err
		}
		defer f.Close()
		r = f
	default:
		r = strings.NewReader(spec)
	}
	v, err := utils.DecodeStrict[T](r)
	if err != nil {
		return zero, errors.Wrap(err, "invalid --spec")
	}
	return v, nil
}

func withOutput(cmd *cli.Command, fn func(io.Writer) error) error {
	name := cmd.String("output")
	if name == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeTable(cmd *cli.Command, t *table.Table) error {
	return withOutput(cmd, func(w io.Writer) error {
		formatter, err := export.New(export.Format(cmd.String("format")), w)
		if err != nil {
			return err
		}
		return formatter.Format(t)
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
