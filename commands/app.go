// Package commands holds the datainsight command line.
package commands

import (
	"github.com/urfave/cli/v3"
)

// NewApp creates the datainsight command.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "datainsight",
		Usage: "Profile, query, transform and chart tabular data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				Sources: cli.EnvVars("DATAINSIGHT_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewProfileCommand(),
			NewQueryCommand(),
			NewTransformCommand(),
			NewChartCommand(),
		},
	}
}
