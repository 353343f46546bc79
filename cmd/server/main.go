package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/agingmap/internal/config"
	"github.com/JonMunkholm/agingmap/internal/core"
	"github.com/JonMunkholm/agingmap/internal/logging"
	"github.com/JonMunkholm/agingmap/internal/source"
	"github.com/JonMunkholm/agingmap/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"dataset", config.MaskURI(cfg.Dataset.URI),
		"min_population", cfg.Dataset.MinPopulation,
		"reload_interval", cfg.Dataset.ReloadInterval.String(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	// Resolve the dataset source; nothing is read yet
	src, err := source.Open(cfg.Dataset.URI, source.Options{
		Format:       cfg.Dataset.Format,
		Encoding:     cfg.Dataset.Encoding,
		Sheet:        cfg.Dataset.Sheet,
		Table:        cfg.Dataset.Table,
		FetchTimeout: cfg.Dataset.FetchTimeout,
		Pool: source.PoolOptions{
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		},
	})
	if err != nil {
		slog.Error("failed to open dataset source", "error", err)
		os.Exit(1)
	}
	defer source.Close(src)

	session := core.NewSession(src, core.SessionConfig{
		Load:         core.LoadOptions{MinPopulation: cfg.Dataset.MinPopulation},
		ReloadWait:   cfg.Dataset.ReloadWait,
		CacheTTL:     cfg.Cache.TTL,
		CacheCleanup: cfg.Cache.Cleanup,
	})

	// Initial load. A failure is not fatal: the server starts, reports
	// "loading" on /healthz and the scheduler or an admin reload retries.
	if err := session.Reload(context.Background()); err != nil {
		slog.Error("initial dataset load failed",
			"source", src.Describe(),
			"error", err,
			"code", core.MapError(err).Code,
		)
	}

	// Create server with config
	server := web.NewServer(session, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Start reload scheduler
	go session.StartReloadScheduler(jobCtx, cfg.Dataset.ReloadInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for a running reload to finish (with timeout)
		if err := session.WaitForReloads(shutdownCtx); err != nil {
			slog.Warn("reload did not complete in time", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
