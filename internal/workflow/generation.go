package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ahrav/go-quizgen/internal/catalog"
	"github.com/ahrav/go-quizgen/internal/correction"
	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/generation"
	"github.com/ahrav/go-quizgen/internal/scan"
	"github.com/ahrav/go-quizgen/internal/tracking"
	"github.com/ahrav/go-quizgen/internal/validation"
)

// Workflow identifiers shared by the worker and the admin engine.
const (
	// TaskQueue is the Temporal task queue quizgen workers poll.
	TaskQueue = "quizgen"

	// GenerationWorkflowID is the fixed workflow id for generation runs.
	// Combined with a reject-duplicate reuse policy it allows at most one
	// active run per namespace.
	GenerationWorkflowID = "question-generation"

	// ProgressQueryType names the query serving domain.ProgressSnapshot.
	ProgressQueryType = "progress"
)

// GenerationWorkflow scans the procedure directory and drives every queued
// revision through prepare, generate, validate, correct, and sync, then
// records the revision in the tracking store. Items fail independently;
// only a scan failure fails the whole run. Cancellation marks the active
// and remaining items cancelled and returns the partial result.
func GenerationWorkflow(
	ctx workflow.Context,
	req domain.GenerationRequest,
) (*domain.GenerationResult, error) {
	// Version gate enables safe evolution of the step sequence.
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "generation.v", workflow.DefaultVersion, currentVersion)

	// Validate request early to fail fast on invalid input.
	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid generation request",
			"Validation",
			err,
		)
	}

	logger := workflow.GetLogger(ctx)
	tracker := newProgressTracker(workflow.Now(ctx))

	if err := workflow.SetQueryHandler(ctx, ProgressQueryType, tracker.snapshot); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"register progress query",
			"Setup",
			err,
		)
	}

	logger.Info("Generation run starting",
		"request_id", req.ID,
		"requested_by", req.RequestedBy,
		"source_dir", req.SourceDir)

	var scanActs *scan.Activities
	scanCtx := workflow.WithActivityOptions(ctx, ioOptions())

	var scanned scan.ScanResult
	err := workflow.ExecuteActivity(scanCtx, scanActs.ScanDocuments,
		scan.ScanDocumentsInput{SourceDir: req.SourceDir}).Get(scanCtx, &scanned)
	if err != nil {
		if runCancelled(ctx, err) {
			tracker.cancel()
			return tracker.result(req, workflow.Now(ctx)), nil
		}
		tracker.fail()
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	tracker.enqueue(scanned)
	logger.Info("Scan completed", "found", scanned.FoundFiles, "queued", len(scanned.Queue))

	for i := range tracker.tasks {
		if i > 0 && req.ItemDelay > 0 {
			if err := workflow.Sleep(ctx, req.ItemDelay); err != nil {
				tracker.cancelFrom(i)
				break
			}
		}
		if ctx.Err() != nil {
			tracker.cancelFrom(i)
			break
		}

		tracker.startItem(i, workflow.Now(ctx))
		if err := processItem(ctx, tracker, i); err != nil {
			if runCancelled(ctx, err) {
				tracker.cancelFrom(i)
				break
			}
			tracker.failItem(i, err, workflow.Now(ctx))
			logger.Error("Item failed",
				"procedure", tracker.tasks[i].Identity.String(),
				"step", tracker.tasks[i].StepName,
				"error", err)
			continue
		}
		tracker.completeItem(i)
		logger.Info("Item completed",
			"procedure", tracker.tasks[i].Identity.String(),
			"batch_id", tracker.tasks[i].BatchID)
	}

	tracker.finish()
	result := tracker.result(req, workflow.Now(ctx))
	logger.Info("Generation run finished",
		"state", result.State,
		"completed", result.Completed,
		"failed", result.Failed,
		"cancelled", result.Cancelled)
	return result, nil
}

// processItem drives one queued procedure through the five numbered steps
// and the closing tracking update. It returns the first step failure; the
// caller decides whether that fails or cancels the task.
func processItem(ctx workflow.Context, tracker *progressTracker, idx int) error {
	item := tracker.queue[idx]

	ioCtx := workflow.WithActivityOptions(ctx, ioOptions())
	llmCtx := workflow.WithActivityOptions(ctx, llmOptions())
	syncCtx := workflow.WithActivityOptions(ctx, syncOptions())

	var (
		genActs   *generation.Activities
		valActs   *validation.Activities
		corActs   *correction.Activities
		catActs   *catalog.Activities
		trackActs *tracking.Activities
	)

	tracker.enterStep(idx, domain.StepPrepare, domain.RunGenerating)
	var prepared generation.PrepareDocumentOutput
	if err := workflow.ExecuteActivity(ioCtx, genActs.PrepareDocument,
		generation.PrepareDocumentInput{Item: item}).Get(ioCtx, &prepared); err != nil {
		return fmt.Errorf("prepare document: %w", err)
	}
	tracker.finishStep(idx, workflow.Now(ctx))

	tracker.enterStep(idx, domain.StepGenerate, domain.RunGenerating)
	var generated generation.GenerateQuestionsOutput
	if err := workflow.ExecuteActivity(llmCtx, genActs.GenerateQuestions,
		generation.GenerateQuestionsInput{
			Item:         item,
			DocumentText: prepared.DocumentText,
		}).Get(llmCtx, &generated); err != nil {
		return fmt.Errorf("generate questions: %w", err)
	}
	tracker.setBatch(idx, generated.Batch.ID)
	tracker.finishStep(idx, workflow.Now(ctx))

	tracker.enterStep(idx, domain.StepValidate, domain.RunValidating)
	var validated validation.ValidateBatchOutput
	if err := workflow.ExecuteActivity(llmCtx, valActs.ValidateBatch,
		validation.ValidateBatchInput{Batch: generated.Batch}).Get(llmCtx, &validated); err != nil {
		return fmt.Errorf("validate batch: %w", err)
	}
	tracker.finishStep(idx, workflow.Now(ctx))

	tracker.enterStep(idx, domain.StepCorrect, domain.RunCorrecting)
	var corrected correction.CorrectBatchOutput
	if err := workflow.ExecuteActivity(llmCtx, corActs.CorrectBatch,
		correction.CorrectBatchInput{
			Batch:         validated.Batch,
			ProcedureText: prepared.DocumentText,
		}).Get(llmCtx, &corrected); err != nil {
		return fmt.Errorf("correct batch: %w", err)
	}
	tracker.finishStep(idx, workflow.Now(ctx))

	tracker.enterStep(idx, domain.StepSync, domain.RunSyncing)
	var synced catalog.SyncBatchOutput
	if err := workflow.ExecuteActivity(syncCtx, catActs.SyncBatch,
		catalog.SyncBatchInput{
			Batch:     corrected.Batch,
			Procedure: catalog.ProcedureInfo{Name: prepared.Title, Scope: prepared.Scope},
		}).Get(syncCtx, &synced); err != nil {
		return fmt.Errorf("sync batch: %w", err)
	}
	tracker.finishStep(idx, workflow.Now(ctx))

	// Not a numbered step: the tracking record is what makes the revision
	// invisible to the next scan, so it is written only after a full pass.
	if err := workflow.ExecuteActivity(ioCtx, trackActs.UpdateTracking,
		tracking.UpdateTrackingInput{
			Key: item.Identity.TrackingKey(),
			Record: domain.TrackingRecord{
				BatchID:         synced.Batch.ID,
				QuestionCount:   synced.Result.QuestionsAdded,
				ValidationScore: synced.Batch.ValidationScore,
				Model:           generated.Model,
			},
		}).Get(ioCtx, nil); err != nil {
		return fmt.Errorf("update tracking: %w", err)
	}
	return nil
}

// runCancelled reports whether err, or the workflow context itself, means
// the run was cancelled rather than the step genuinely failing.
func runCancelled(ctx workflow.Context, err error) bool {
	return ctx.Err() != nil || temporal.IsCanceledError(err)
}

// ioOptions covers scan, prepare, and tracking: local file work that is
// safe to retry.
func ioOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
}

// llmOptions covers generate, validate, and correct. One attempt: the LLM
// client owns transport retries, and a Temporal retry on top would re-bill
// a whole batch of calls. The heartbeat window fits the longest single
// model call, so a worker lost mid-batch surfaces well before the
// start-to-close deadline.
func llmOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    3 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}

// syncOptions covers the catalog append. One attempt: the workbook write
// is read-modify-save with no rollback, and a blind retry after a partial
// save could append the same questions twice.
func syncOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}
