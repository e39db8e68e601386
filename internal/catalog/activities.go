package catalog

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

// SyncBatchInput carries the batch to persist and its catalog-facing
// procedure description.
type SyncBatchInput struct {
	Batch     *domain.Batch `json:"batch"`
	Procedure ProcedureInfo `json:"procedure"`
}

// SyncBatchOutput returns the synced batch and what the pass wrote.
type SyncBatchOutput struct {
	Batch  *domain.Batch `json:"batch"`
	Result SyncResult    `json:"result"`
}

// batchSyncedEvent is the payload of quizgen.batch.synced.
type batchSyncedEvent struct {
	TrackingKey    string    `json:"tracking_key"`
	BatchID        string    `json:"batch_id"`
	ProcedureAdded bool      `json:"procedure_added"`
	QuestionsAdded int       `json:"questions_added"`
	SyncedAt       time.Time `json:"synced_at"`
}

// Activities host the sync step.
type Activities struct {
	activity.BaseActivities
	store *Store
}

// NewActivities creates sync activities around store.
func NewActivities(base activity.BaseActivities, store *Store) *Activities {
	return &Activities{BaseActivities: base, store: store}
}

// SyncBatch persists one batch into the workbook and the mirror. The
// workbook append is read-modify-write with no rollback, so the workflow
// registers this activity with a single attempt: a blind retry after a
// partial write could double-append questions.
func (a *Activities) SyncBatch(ctx context.Context, input SyncBatchInput) (*SyncBatchOutput, error) {
	if input.Batch == nil {
		return nil, temporal.NewNonRetryableApplicationError("missing batch", "SyncBatch", nil)
	}

	result, err := a.store.Sync(input.Batch, input.Procedure)
	if err != nil {
		return nil, temporal.NewApplicationError("sync failed", "SyncBatch", err)
	}

	a.emitBatchSynced(ctx, input.Batch, result)
	activity.SafeLog(ctx, "SyncBatch completed",
		"batch_id", input.Batch.ID,
		"procedure_added", result.ProcedureAdded,
		"questions_added", result.QuestionsAdded)
	return &SyncBatchOutput{Batch: input.Batch, Result: *result}, nil
}

func (a *Activities) emitBatchSynced(ctx context.Context, batch *domain.Batch, result *SyncResult) {
	wfCtx := a.GetWorkflowContext(ctx)

	payload, err := json.Marshal(batchSyncedEvent{
		TrackingKey:    batch.Procedure.TrackingKey(),
		BatchID:        batch.ID,
		ProcedureAdded: result.ProcedureAdded,
		QuestionsAdded: result.QuestionsAdded,
		SyncedAt:       time.Now().UTC(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal sync event",
			"batch_id", batch.ID, "error", err)
		return
	}

	a.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           events.TypeBatchSynced,
		Source:         "catalog-activity",
		Version:        events.SchemaVersion,
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s", events.TypeBatchSynced, batch.ID),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, fmt.Sprintf("BatchSynced[%s]", batch.ID))
}
