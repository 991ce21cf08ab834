package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skypro1111/station-broker/internal/broker"
	"github.com/skypro1111/station-broker/internal/config"
	"github.com/skypro1111/station-broker/internal/credential"
	"github.com/skypro1111/station-broker/internal/metrics"
	"github.com/skypro1111/station-broker/internal/registry"
	"github.com/skypro1111/station-broker/internal/server"
	"github.com/skypro1111/station-broker/internal/session"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "station-broker"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("udp_port", cfg.Server.UDPPort),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("buffer_size", cfg.Server.BufferSize),
		slog.Int("client_timeout", cfg.Session.ClientTimeout),
		slog.Int("sweep_interval", cfg.Session.SweepInterval),
		slog.String("credentials_path", cfg.Credentials.Path),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Load station credentials
	creds, err := credential.Load(cfg.Credentials.Path)
	if err != nil {
		logger.Error("Failed to load credentials", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Credential store loaded", slog.Int("stations", creds.Count()))

	// Shared broker state
	reg := registry.New()
	sessions := session.NewTable(logger, cfg.Session.GetClientTimeout(), cfg.Session.GetSweepInterval())
	logger.Info("Session table initialized",
		slog.Duration("client_timeout", cfg.Session.GetClientTimeout()),
		slog.Duration("sweep_interval", cfg.Session.GetSweepInterval()),
	)

	// UDP server and router; the server is also the router's sender, so
	// the handler is attached after the router exists.
	udpServer := server.NewUDPServer(&cfg.Server, logger, appMetrics)
	router := broker.NewRouter(logger, creds, reg, sessions, appMetrics, udpServer)
	udpServer.SetHandler(router)
	logger.Info("UDP server initialized")

	// Status reporter
	reporter := broker.NewReporter(logger, reg, sessions, appMetrics, cfg.Session.GetReportInterval())

	// HTTP monitoring server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, reg, sessions, udpServer, appMetrics)
		logger.Info("HTTP monitoring server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	if err := udpServer.Start(); err != nil {
		logger.Error("Failed to start UDP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("udp_address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.UDPPort)),
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stop UDP server (stop accepting new datagrams)
	if err := udpServer.Stop(); err != nil {
		logger.Error("Error stopping UDP server", slog.String("error", err.Error()))
	}

	// Stop background loops
	reporter.Stop()
	sessions.Stop()

	stats := udpServer.GetStatistics()
	logger.Info("Final server statistics",
		slog.Uint64("packets_received", stats.PacketsReceived),
		slog.Uint64("packets_processed", stats.PacketsProcessed),
		slog.Uint64("parse_errors", stats.ParseErrors),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
