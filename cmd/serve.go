package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"scanorch/internal/api"
	"scanorch/internal/api/handler/v1handler"
	"scanorch/internal/config"
	"scanorch/internal/orchestrator"
	"scanorch/internal/worker"
	"scanorch/pkg/logger"
	"scanorch/pkg/storage/postgres"
	"scanorch/pkg/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupTelemetry(ctx context.Context, cfg *config.Config) func(ctx context.Context) {
	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Probability: cfg.Tracing.Probability,
	})
	if err != nil {
		logger.Fatal(ctx, "could not set up telemetry", zap.Error(err))
	}

	return func(ctx context.Context) {
		if err := shutdown(ctx); err != nil {
			logger.Warn(ctx, "could not flush telemetry", zap.Error(err))
		}
	}
}

func setupServer(
	ctx context.Context,
	cfg *config.Config,
	orch orchestrator.Orchestrator,
	strg *postgres.PgSQL,
) func(ctx context.Context) {
	server, err := api.NewServer(api.Deps{
		Deps: v1handler.Deps{Orchestrator: orch, Health: strg},
	}, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func setupWorker(
	ctx context.Context,
	cfg *config.Config,
	orch orchestrator.Orchestrator,
	strg *postgres.PgSQL,
) func(ctx context.Context) {
	riverClient, err := worker.Start(ctx, strg.Pool, orch, worker.Options{
		MaxWorkers: cfg.Worker.MaxWorkers,
		JobTimeout: cfg.Worker.JobTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "could not start workers", zap.Error(err))
	}
	logger.Info(ctx, "workers started", zap.Int("maxWorkers", cfg.Worker.MaxWorkers))

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping workers...")
		if err := riverClient.Stop(ctx); err != nil {
			logger.Error(ctx, "could not stop workers", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stopTelemetry := setupTelemetry(ctx, cfg)

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			orch, err := newOrchestrator(ctx, cfg, strg)
			if err != nil {
				logger.Fatal(ctx, "could not create orchestrator", zap.Error(err))
			}

			// workers get their own context so in-flight tasks can finish on shutdown
			stopWorkers := setupWorker(context.WithoutCancel(ctx), cfg, orch, strg)
			stopWebserver := setupServer(ctx, cfg, orch, strg)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			stopWorkers(shutdownCtx)
			stopTelemetry(shutdownCtx)
		},
	}

	return cmd
}
