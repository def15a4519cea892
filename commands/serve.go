package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/asaidimu/datainsight/config"
	"github.com/asaidimu/datainsight/core/engine"
	"github.com/asaidimu/datainsight/server"
	"github.com/asaidimu/datainsight/sqlite"
	"github.com/asaidimu/datainsight/store"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewServeCommand returns a cli.Command for "datainsight serve".
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Run the HTTP API.",
		UsageText: `datainsight serve [options]`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, overrides server.addr",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			if addr := cmd.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var opts []engine.Option
	if cfg.Engine.SampleSeed != nil {
		opts = append(opts, engine.WithSeed(*cfg.Engine.SampleSeed))
	}
	e, err := engine.New(logger, opts...)
	if err != nil {
		return err
	}

	api := server.NewAPIServer(e, st, logger,
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		server.WithPreviewRows(cfg.Engine.PreviewRows),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(ctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Received shutdown signal")
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemory(logger), func() {}, nil
	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.DSN, logger, &sqlite.Options{Keep: cfg.Keep})
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Error("Failed to close store", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, errors.Newf("unknown store driver %q", cfg.Driver)
}
