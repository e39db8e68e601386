package correction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/pkg/activity"
	"github.com/ahrav/go-quizgen/pkg/events"
)

// CorrectBatchInput carries the validated batch and the procedure text the
// corrections are grounded on.
type CorrectBatchInput struct {
	Batch         *domain.Batch `json:"batch"`
	ProcedureText string        `json:"procedure_text"`
}

// CorrectBatchOutput returns the batch after the correction pass.
type CorrectBatchOutput struct {
	Batch  *domain.Batch `json:"batch"`
	Result Result        `json:"result"`
}

// batchCorrectedEvent is the payload of quizgen.batch.corrected.
type batchCorrectedEvent struct {
	TrackingKey string                   `json:"tracking_key"`
	BatchID     string                   `json:"batch_id"`
	Outcome     domain.CorrectionOutcome `json:"outcome"`
	Flagged     int                      `json:"flagged"`
	Revised     int                      `json:"revised"`
	CorrectedAt time.Time                `json:"corrected_at"`
}

// Activities host the correction step.
type Activities struct {
	activity.BaseActivities
	corrector *Corrector
}

// NewActivities creates correction activities around corrector.
func NewActivities(base activity.BaseActivities, corrector *Corrector) *Activities {
	return &Activities{BaseActivities: base, corrector: corrector}
}

// CorrectBatch revises flagged questions in one model pass. The stage
// fails open inside the corrector, so the only errors surfacing here are
// a missing batch and cancellation.
func (a *Activities) CorrectBatch(ctx context.Context, input CorrectBatchInput) (*CorrectBatchOutput, error) {
	if input.Batch == nil {
		return nil, temporal.NewNonRetryableApplicationError("missing batch", "CorrectBatch", nil)
	}

	a.RecordHeartbeat(ctx, fmt.Sprintf("Correcting batch %s", input.Batch.ID))
	result, err := a.corrector.CorrectBatch(ctx, input.Batch, input.ProcedureText)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, temporal.NewApplicationError("batch correction failed", "CorrectBatch", err)
	}

	a.emitBatchCorrected(ctx, input.Batch, result)
	activity.SafeLog(ctx, "CorrectBatch completed",
		"batch_id", input.Batch.ID,
		"outcome", result.Outcome,
		"revised", result.Revised)
	return &CorrectBatchOutput{Batch: input.Batch, Result: *result}, nil
}

func (a *Activities) emitBatchCorrected(ctx context.Context, batch *domain.Batch, result *Result) {
	wfCtx := a.GetWorkflowContext(ctx)

	payload, err := json.Marshal(batchCorrectedEvent{
		TrackingKey: batch.Procedure.TrackingKey(),
		BatchID:     batch.ID,
		Outcome:     result.Outcome,
		Flagged:     result.Flagged,
		Revised:     result.Revised,
		CorrectedAt: time.Now().UTC(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal correction event",
			"batch_id", batch.ID, "error", err)
		return
	}

	a.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           events.TypeBatchCorrected,
		Source:         "correction-activity",
		Version:        events.SchemaVersion,
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s", events.TypeBatchCorrected, batch.ID),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, fmt.Sprintf("BatchCorrected[%s]", batch.ID))
}
