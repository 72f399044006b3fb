package main

import (
	"context"

	"github.com/natsukagami/kjudge-core/db"
	"github.com/natsukagami/kjudge-core/internal/config"
	"github.com/natsukagami/kjudge-core/internal/logger"
	"github.com/natsukagami/kjudge-core/internal/metrics"
	"github.com/natsukagami/kjudge-core/sandbox"
	"github.com/natsukagami/kjudge-core/server"
	"github.com/natsukagami/kjudge-core/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the judge server and grading pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output})
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.Bootstrap(); err != nil {
		return err
	}

	backend := sandbox.NewBackend(ctx, cfg.Grading.TempDir)
	if _, ok := backend.(*sandbox.UnsandboxedBackend); ok {
		log.Warn("isolate not available, falling back to the unsandboxed backend")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	coord := worker.NewCoordinator(database, backend, cfg.Grading.TempDir, log, m)
	pool := worker.NewPool(cfg.Grading.NumWorkers, backend, database, log, coord, m)
	coord.AttachPool(pool)

	srv := server.New(database, coord, log, m)
	log.Info("serving", logger.Field{Key: "address", Value: cfg.Server.Address})
	return srv.Start(cfg.Server.Address)
}
