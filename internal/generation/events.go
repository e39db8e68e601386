package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/pkg/activity"
	"github.com/ahrav/go-quizgen/pkg/events"
)

// batchGeneratedEvent is the payload of quizgen.batch.generated.
type batchGeneratedEvent struct {
	TrackingKey   string    `json:"tracking_key"`
	BatchID       string    `json:"batch_id"`
	QuestionCount int       `json:"question_count"`
	GeneratedAt   time.Time `json:"generated_at"`
}

func (a *Activities) emitBatchGenerated(ctx context.Context, batch *domain.Batch) {
	wfCtx := a.GetWorkflowContext(ctx)

	payload, err := json.Marshal(batchGeneratedEvent{
		TrackingKey:   batch.Procedure.TrackingKey(),
		BatchID:       batch.ID,
		QuestionCount: len(batch.Questions),
		GeneratedAt:   time.Now().UTC(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal generation event",
			"batch_id", batch.ID, "error", err)
		return
	}

	a.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           events.TypeBatchGenerated,
		Source:         "generation-activity",
		Version:        events.SchemaVersion,
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s", events.TypeBatchGenerated, batch.ID),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, fmt.Sprintf("BatchGenerated[%s]", batch.ID))
}
