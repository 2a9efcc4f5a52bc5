// Package main is the entry point for the notification gateway API server.
//
// It loads configuration, builds the channel transport registry and the
// dispatch engine, wires the HTTP handlers onto the core chassis
// (middleware, routing, health check), and starts listening for requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
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

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"notifygate/internal/api/handlers"
	"notifygate/internal/config"
	"notifygate/internal/core"
	"notifygate/internal/dispatch"
	"notifygate/internal/recipient"
	"notifygate/internal/transport"
	"notifygate/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("notification gateway starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	// Channel transports: stubs in local mode, real providers otherwise.
	registry, err := transport.NewRegistry(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building transport registry: %w", err)
	}
	logger.Info("channel transports ready", "channels", registry.Channels())

	metrics, err := newMetrics(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building metrics collector: %w", err)
	}

	normalizer := recipient.NewNormalizer(cfg.SMS.DefaultRegion, cfg.SMS.DefaultCallingCode)
	engine := dispatch.NewEngine(registry, normalizer, metrics, cfg.Dispatch.MaxParallel, logger)

	// Build the server chassis.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	emailHandler := handlers.NewEmailHandler(engine, registry.DefaultEmail(), srv.Validator, logger)
	smsHandler := handlers.NewSmsHandler(engine, types.Channel(cfg.SMS.Channel), srv.Validator, logger)
	pushHandler := handlers.NewPushHandler(engine, srv.Validator, logger)

	srv.V1Registrars = append(srv.V1Registrars,
		emailHandler.RegisterRoutes,
		smsHandler.RegisterRoutes,
		pushHandler.RegisterRoutes,
	)
	// Pre-versioning aliases: /email and /sms predate the /v1 prefix and
	// stay mounted at the root for existing callers.
	srv.RootRegistrars = append(srv.RootRegistrars,
		emailHandler.RegisterRoutes,
		smsHandler.RegisterRoutes,
	)

	srv.MountRoutes()

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newMetrics builds the dispatch metrics collector. CloudWatch is used when
// metrics are enabled outside local mode; everything else gets the no-op
// collector so the engine never branches on configuration.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dispatch.Metrics, error) {
	if cfg.IsLocal() || !cfg.Observability.EnableMetrics {
		return dispatch.NoopMetrics{}, nil
	}

	awsCfg, err := transport.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for metrics: %w", err)
	}

	client := cloudwatch.NewFromConfig(awsCfg)
	return dispatch.NewCloudWatchMetrics(client, cfg.Observability.MetricNamespace, logger), nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
