// Command quizgen-admin serves the HTTP control plane for generation runs:
// direct scans plus workflow start, progress, and cancel.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"

	"github.com/ahrav/go-quizgen/internal/admin"
	"github.com/ahrav/go-quizgen/internal/config"
	"github.com/ahrav/go-quizgen/internal/engine"
	"github.com/ahrav/go-quizgen/internal/logging"
	"github.com/ahrav/go-quizgen/internal/scan"
	"github.com/ahrav/go-quizgen/internal/tracking"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCfg := cfg.Logging
	logCfg.Service = "quizgen-admin"
	logger := logging.Setup(logCfg)

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    log.NewStructuredLogger(logger),
	})
	if err != nil {
		logger.Error("failed to connect to temporal", "error", err, "host_port", cfg.Temporal.HostPort)
		os.Exit(1)
	}
	defer temporalClient.Close()

	eng, err := engine.New(temporalClient, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	trackingStore, err := tracking.NewStore(cfg.Paths.TrackingFile, logger)
	if err != nil {
		logger.Error("failed to open tracking store", "error", err)
		os.Exit(1)
	}
	scanner, err := scan.NewScanner(cfg.Paths.SourceDir, trackingStore, logger)
	if err != nil {
		logger.Error("failed to build scanner", "error", err)
		os.Exit(1)
	}

	server, err := admin.New(cfg, eng, scanner, logger)
	if err != nil {
		logger.Error("failed to build admin service", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Error("admin service failed", "error", err)
		os.Exit(1)
	}
}
