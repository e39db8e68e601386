// Command quizgen-worker hosts the Temporal worker that executes the
// question-generation workflow and its activities.
package main

import (
	"flag"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-quizgen/internal/config"
	"github.com/ahrav/go-quizgen/internal/llm"
	"github.com/ahrav/go-quizgen/internal/logging"
	"github.com/ahrav/go-quizgen/internal/worker"
	"github.com/ahrav/go-quizgen/internal/workflow"
	"github.com/ahrav/go-quizgen/pkg/events"
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
	logCfg.Service = "quizgen-worker"
	logger := logging.Setup(logCfg)

	llmClient, err := llm.New(&cfg.LLM, logger)
	if err != nil {
		logger.Error("failed to build llm client", "error", err)
		os.Exit(1)
	}

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

	components, err := worker.Build(cfg, llmClient, events.NewSlogSink(logger), logger)
	if err != nil {
		logger.Error("failed to assemble pipeline", "error", err)
		os.Exit(1)
	}

	w := sdkworker.New(temporalClient, workflow.TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, components)

	logger.Info("worker starting",
		"task_queue", workflow.TaskQueue,
		"namespace", cfg.Temporal.Namespace,
		"source_dir", cfg.Paths.SourceDir)
	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
