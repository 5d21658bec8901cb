package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"article-enricher/config"
	"article-enricher/orchestrator"
	"article-enricher/utils/logger"
	"article-enricher/utils/otel"
)

// Run is the main application entry point. It initializes all dependencies,
// starts the server and background jobs, then waits for a shutdown signal.
func Run(ctx context.Context) error {
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
		}
	}()

	loggerCfg := logger.LoadConfigFromEnv()
	loggerCfg.OTelEnabled = otelCfg.Enabled
	log := logger.New(loggerCfg)

	log.Info("starting article enricher service",
		"log_level", loggerCfg.Level,
		"otel_enabled", otelCfg.Enabled,
		"service", loggerCfg.ServiceName)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	deps, cleanup, err := BuildDependencies(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	httpServer := NewHTTPServer(deps, otelCfg.Enabled, loggerCfg.ServiceName)
	StartHTTPServer(httpServer, cfg.Server.Port, log)

	jobs := startJobs(ctx, deps, log)

	log.Info("article enricher service started")
	waitForShutdown(httpServer, jobs, cfg.Server.ShutdownTimeout, log)

	return nil
}

// startJobs launches the background sweep that enriches unprocessed
// articles on an interval. Disabled unless SWEEP_ENABLED is true.
func startJobs(ctx context.Context, deps *Dependencies, log *slog.Logger) *orchestrator.JobGroup {
	group := orchestrator.NewJobGroup(ctx, log)

	if getEnvOrDefault("SWEEP_ENABLED", "false") != "true" {
		log.Info("unprocessed article sweep disabled")
		return group
	}

	interval := 5 * time.Minute
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			interval = parsed
		}
	}

	group.Add(orchestrator.NewJobRunner(orchestrator.JobConfig{
		Name:           "unprocessed-sweep",
		Interval:       interval,
		RunImmediately: true,
	}, func(ctx context.Context) error {
		ids, err := deps.Pipeline.GetUnprocessedArticles(ctx, deps.Config.Enrichment.BatchSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if _, err := deps.Pipeline.EnrichBatch(ctx, ids, deps.Defaults); err != nil {
			return err
		}
		log.InfoContext(ctx, "sweep started batch", "articles", len(ids))
		return nil
	}, log))

	return group
}

func waitForShutdown(httpServer interface{ Shutdown(context.Context) error }, jobs *orchestrator.JobGroup, timeout time.Duration, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down article enricher service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error shutting down HTTP server", "error", err)
	}

	jobs.StopAll()

	log.Info("article enricher service stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
