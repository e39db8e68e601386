// Package worker assembles the question-generation pipeline and registers
// its workflow and activities with a Temporal worker.
package worker

import (
	"fmt"
	"log/slog"

	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-quizgen/internal/catalog"
	"github.com/ahrav/go-quizgen/internal/config"
	"github.com/ahrav/go-quizgen/internal/correction"
	"github.com/ahrav/go-quizgen/internal/generation"
	"github.com/ahrav/go-quizgen/internal/llm"
	"github.com/ahrav/go-quizgen/internal/scan"
	"github.com/ahrav/go-quizgen/internal/tracking"
	"github.com/ahrav/go-quizgen/internal/validation"
	"github.com/ahrav/go-quizgen/internal/workflow"
	"github.com/ahrav/go-quizgen/pkg/activity"
	"github.com/ahrav/go-quizgen/pkg/events"
)

// Components holds the activity instances for one worker process.
// Build wires them from configuration; RegisterAll hands them to the
// Temporal worker.
type Components struct {
	Scan       *scan.Activities
	Generation *generation.Activities
	Validation *validation.Activities
	Correction *correction.Activities
	Catalog    *catalog.Activities
	Tracking   *tracking.Activities
}

// Build constructs the full activity set from configuration. The tracking
// store doubles as the scanner's completion index, so the scan and the
// post-sync update read and write the same seguimiento file.
func Build(cfg *config.Config, llmClient llm.Client, sink events.EventSink, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker: config is required")
	}
	if sink == nil {
		sink = events.NewNoOpEventSink()
	}

	trackingStore, err := tracking.NewStore(cfg.Paths.TrackingFile, logger)
	if err != nil {
		return nil, fmt.Errorf("build tracking store: %w", err)
	}

	scanner, err := scan.NewScanner(cfg.Paths.SourceDir, trackingStore, logger)
	if err != nil {
		return nil, fmt.Errorf("build scanner: %w", err)
	}

	generator, err := generation.NewGenerator(llmClient, cfg.LLM.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	engine, err := validation.NewEngine(llmClient, validation.Config{
		Threshold:     cfg.Pipeline.ValidationThreshold,
		QuestionDelay: cfg.Pipeline.QuestionDelay,
		Model:         cfg.LLM.Model,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build validation engine: %w", err)
	}

	corrector, err := correction.NewCorrector(llmClient, logger)
	if err != nil {
		return nil, fmt.Errorf("build corrector: %w", err)
	}

	catalogStore, err := catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.MirrorFile, logger)
	if err != nil {
		return nil, fmt.Errorf("build catalog store: %w", err)
	}

	base := activity.NewBaseActivities(sink)

	return &Components{
		Scan:       scan.NewActivities(base, scanner),
		Generation: generation.NewActivities(base, generator),
		Validation: validation.NewActivities(base, engine),
		Correction: correction.NewActivities(base, corrector),
		Catalog:    catalog.NewActivities(base, catalogStore),
		Tracking:   tracking.NewActivities(base, trackingStore),
	}, nil
}

// RegisterAll registers the workflow and every pipeline activity with the
// Temporal worker. It must be called once during startup, before the worker
// runs; registration is not safe for concurrent use.
func RegisterAll(w sdkworker.Worker, c *Components) {
	w.RegisterWorkflow(workflow.GenerationWorkflow)

	w.RegisterActivity(c.Scan.ScanDocuments)
	w.RegisterActivity(c.Generation.PrepareDocument)
	w.RegisterActivity(c.Generation.GenerateQuestions)
	w.RegisterActivity(c.Validation.ValidateBatch)
	w.RegisterActivity(c.Correction.CorrectBatch)
	w.RegisterActivity(c.Catalog.SyncBatch)
	w.RegisterActivity(c.Tracking.UpdateTracking)
}
