package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/pkg/activity"
	"github.com/ahrav/go-quizgen/pkg/events"
)

// ValidateBatchInput carries the batch to judge.
type ValidateBatchInput struct {
	Batch *domain.Batch `json:"batch"`
}

// ValidateBatchOutput returns the batch with verdicts folded in.
type ValidateBatchOutput struct {
	Batch *domain.Batch `json:"batch"`
}

// batchValidatedEvent is the payload of quizgen.batch.validated.
type batchValidatedEvent struct {
	TrackingKey     string    `json:"tracking_key"`
	BatchID         string    `json:"batch_id"`
	ValidationScore float64   `json:"validation_score"`
	Approved        int       `json:"approved"`
	NeedsCorrection int       `json:"needs_correction"`
	ValidatedAt     time.Time `json:"validated_at"`
}

// Activities host the validation step.
type Activities struct {
	activity.BaseActivities
	engine *Engine
}

// NewActivities creates validation activities around engine.
func NewActivities(base activity.BaseActivities, engine *Engine) *Activities {
	return &Activities{BaseActivities: base, engine: engine}
}

// ValidateBatch judges one batch. A critical-validator abort with
// unusable model output is non-retryable; transport exhaustion stays
// retryable for policies that allow it.
func (a *Activities) ValidateBatch(ctx context.Context, input ValidateBatchInput) (*ValidateBatchOutput, error) {
	if input.Batch == nil {
		return nil, temporal.NewNonRetryableApplicationError("missing batch", "ValidateBatch", nil)
	}

	if err := a.engine.ValidateBatch(ctx, input.Batch); err != nil {
		if errors.Is(err, domain.ErrMalformedResponse) {
			return nil, temporal.NewNonRetryableApplicationError("validator output unusable", "ValidateBatch", err)
		}
		return nil, temporal.NewApplicationError("batch validation failed", "ValidateBatch", err)
	}

	a.emitBatchValidated(ctx, input.Batch)
	activity.SafeLog(ctx, "ValidateBatch completed",
		"batch_id", input.Batch.ID,
		"score", input.Batch.ValidationScore)
	return &ValidateBatchOutput{Batch: input.Batch}, nil
}

func (a *Activities) emitBatchValidated(ctx context.Context, batch *domain.Batch) {
	wfCtx := a.GetWorkflowContext(ctx)

	approved := 0
	for i := range batch.Questions {
		if batch.Questions[i].Status == domain.StatusCompleted {
			approved++
		}
	}

	payload, err := json.Marshal(batchValidatedEvent{
		TrackingKey:     batch.Procedure.TrackingKey(),
		BatchID:         batch.ID,
		ValidationScore: batch.ValidationScore,
		Approved:        approved,
		NeedsCorrection: len(batch.Questions) - approved,
		ValidatedAt:     time.Now().UTC(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal validation event",
			"batch_id", batch.ID, "error", err)
		return
	}

	a.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           events.TypeBatchValidated,
		Source:         "validation-activity",
		Version:        events.SchemaVersion,
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s", events.TypeBatchValidated, batch.ID),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, fmt.Sprintf("BatchValidated[%s]", batch.ID))
}
