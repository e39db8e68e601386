// Package engine starts, watches, and cancels generation runs from the
// client side. It owns the run-at-a-time policy: every run starts under
// the fixed workflow id, so Temporal itself rejects a second start while
// one is active.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/workflow"
)

// TemporalClient is the slice of client.Client the engine needs. Narrow
// on purpose so tests and callers can substitute fakes.
type TemporalClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error)
	CancelWorkflow(ctx context.Context, workflowID, runID string) error
}

// Engine drives generation runs through a Temporal client.
type Engine struct {
	client TemporalClient
	logger *slog.Logger
}

// New creates an engine around an established Temporal client.
func New(temporalClient TemporalClient, logger *slog.Logger) (*Engine, error) {
	if temporalClient == nil {
		return nil, fmt.Errorf("engine: temporal client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: temporalClient, logger: logger.With("component", "engine")}, nil
}

// RunHandle identifies a freshly started run.
type RunHandle struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// Start launches a generation run. A run already in flight surfaces as
// domain.ErrWorkflowConflict; completed runs never conflict because the
// default id reuse policy allows restarting a closed workflow id.
func (e *Engine) Start(ctx context.Context, req domain.GenerationRequest) (*RunHandle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	options := client.StartWorkflowOptions{
		ID:        workflow.GenerationWorkflowID,
		TaskQueue: workflow.TaskQueue,
	}
	run, err := e.client.ExecuteWorkflow(ctx, options, workflow.GenerationWorkflow, req)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return nil, domain.ErrWorkflowConflict
		}
		return nil, fmt.Errorf("start generation workflow: %w", err)
	}

	e.logger.Info("generation run started",
		"request_id", req.ID,
		"requested_by", req.RequestedBy,
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID())
	return &RunHandle{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}

// Progress queries the run's progress snapshot. Closed runs still answer
// while their history is retained; a workflow id that never ran surfaces
// as domain.ErrNoActiveRun.
func (e *Engine) Progress(ctx context.Context) (*domain.ProgressSnapshot, error) {
	value, err := e.client.QueryWorkflow(ctx, workflow.GenerationWorkflowID, "", workflow.ProgressQueryType)
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil, domain.ErrNoActiveRun
		}
		return nil, fmt.Errorf("query generation progress: %w", err)
	}

	var snapshot domain.ProgressSnapshot
	if err := value.Get(&snapshot); err != nil {
		return nil, fmt.Errorf("decode progress snapshot: %w", err)
	}
	return &snapshot, nil
}

// Cancel requests cooperative cancellation of the active run. The
// workflow marks unfinished items cancelled and returns its partial
// result; nothing already synced or tracked is reverted.
func (e *Engine) Cancel(ctx context.Context) error {
	if err := e.client.CancelWorkflow(ctx, workflow.GenerationWorkflowID, ""); err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return domain.ErrNoActiveRun
		}
		return fmt.Errorf("cancel generation workflow: %w", err)
	}
	e.logger.Info("generation run cancellation requested")
	return nil
}

// Watch polls the progress query until the run reaches a terminal state
// or ctx ends, handing every snapshot to fn. It returns the final
// snapshot.
func (e *Engine) Watch(ctx context.Context, interval time.Duration, fn func(domain.ProgressSnapshot)) (*domain.ProgressSnapshot, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snapshot, err := e.Progress(ctx)
		if err != nil {
			return nil, err
		}
		if fn != nil {
			fn(*snapshot)
		}
		if snapshot.State.Terminal() {
			return snapshot, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
