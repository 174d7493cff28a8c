package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackmichael/reddit-monitor/internal/backup"
	"github.com/blackmichael/reddit-monitor/internal/config"
	"github.com/blackmichael/reddit-monitor/internal/domain"
	"github.com/blackmichael/reddit-monitor/internal/ingest"
	"github.com/blackmichael/reddit-monitor/internal/metrics"
	"github.com/blackmichael/reddit-monitor/internal/reddit"
	"github.com/blackmichael/reddit-monitor/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.CheckCredentials(); err != nil {
		return fmt.Errorf("check credentials: %w", err)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	backupWriter, err := backup.NewWriter(cfg.BackupDir)
	if err != nil {
		return fmt.Errorf("create backup writer: %w", err)
	}

	repo, err := sqlite.NewRepository(cfg.DBPath, backupWriter, logger)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()
	logger.Info("store opened", "db", cfg.DBPath, "backups", cfg.BackupDir)

	service := domain.NewWatchService(cfg.Watchlist.Subreddits, cfg.Watchlist.Terms, repo, logger)

	client := reddit.NewClient(reddit.Config{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.UserAgent,
		PollInterval: cfg.PollInterval,
	}, logger)

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	supervisor := ingest.NewSupervisor(client, service, cfg.Watchlist.Subreddits, cfg.StreamBackoff, logger)
	done := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(done)
	}()

	// Metrics/health endpoint for the ingestion process
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server exited with error", "error", err)
		}
	}()

	logger.Info("monitor started",
		"subreddits", cfg.Watchlist.Subreddits,
		"terms", len(cfg.Watchlist.Terms),
		"metrics_addr", cfg.MetricsAddr,
	)

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	// Let in-flight inserts finish before the store closes.
	<-done

	if err := metricsServer.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down metrics server", "error", err)
	}

	return nil
}
