package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/locusaudit/merchant-validation/internal/batch"
	"github.com/locusaudit/merchant-validation/internal/config"
	"github.com/locusaudit/merchant-validation/internal/database"
	"github.com/locusaudit/merchant-validation/internal/directory"
	"github.com/locusaudit/merchant-validation/internal/events"
	"github.com/locusaudit/merchant-validation/internal/handlers"
	"github.com/locusaudit/merchant-validation/internal/metrics"
	"github.com/locusaudit/merchant-validation/internal/registry"
	"github.com/locusaudit/merchant-validation/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	logger.Info("Starting Merchant Validation Service",
		"http_port", cfg.Server.HTTPPort,
		"database_enabled", cfg.Database.Enabled,
		"cache_enabled", cfg.Cache.Enabled,
		"kafka_enabled", cfg.Kafka.Enabled)

	// Initialize metrics collector
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// Initialize the optional batch-job store
	var persister batch.Persister
	if cfg.Database.Enabled {
		repository, err := database.NewRepository(cfg.Database, cfg.DatabaseDSN(), logger)
		if err != nil {
			logger.Error("Failed to initialize database repository", "error", err)
			os.Exit(1)
		}
		defer repository.Close()

		if err := repository.Migrate(); err != nil {
			logger.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		persister = repository
	}

	// Initialize the registry lookup, with a Redis cache when enabled
	var registryLookup registry.Lookup = registry.NewClient(cfg.Registry, logger)
	if cfg.Cache.Enabled {
		cached := registry.NewCachedLookup(registryLookup, cfg.Cache, cfg.RedisAddr(), logger)
		defer cached.Close()
		registryLookup = cached
	}

	// Initialize the directory client
	directoryClient := directory.NewClient(cfg.Directory, logger)

	// Initialize the validator
	validator := validation.NewValidator(directoryClient, registryLookup, collector, logger)

	// Initialize the optional event publisher
	var publisher batch.Publisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Initialize the batch orchestrator
	orchestrator := batch.NewOrchestrator(
		validator,
		batch.NewStore(),
		cfg.Batch,
		persister,
		publisher,
		collector,
		logger,
	)

	// Setup HTTP router
	httpHandler := handlers.NewHTTPHandler(validator, orchestrator, directoryClient, registryLookup, logger)

	router := mux.NewRouter()
	httpHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("Shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	logger.Info("Shutdown complete")
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
