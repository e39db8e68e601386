package tracking

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

// UpdateTrackingInput records one finished revision under its tracking
// key. Status defaults to completed; skipped records carry a reason.
type UpdateTrackingInput struct {
	Key    string                `json:"key"`
	Record domain.TrackingRecord `json:"record"`
}

// trackingUpdatedEvent is the payload of quizgen.tracking.updated.
type trackingUpdatedEvent struct {
	Key             string    `json:"tracking_key"`
	Status          string    `json:"status"`
	BatchID         string    `json:"batch_id,omitempty"`
	QuestionCount   int       `json:"question_count,omitempty"`
	ValidationScore float64   `json:"validation_score,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Activities exposes the tracking store to the workflow.
type Activities struct {
	activity.BaseActivities
	store *Store
}

// NewActivities creates tracking activities backed by store.
func NewActivities(base activity.BaseActivities, store *Store) *Activities {
	return &Activities{BaseActivities: base, store: store}
}

// UpdateTracking persists the outcome of one processed revision. File I/O
// failures are retryable; a missing key is a caller bug and is not.
func (a *Activities) UpdateTracking(ctx context.Context, input UpdateTrackingInput) error {
	if input.Key == "" {
		return nonRetryable("UpdateTracking", fmt.Errorf("tracking key is required"), "invalid input")
	}

	var err error
	switch input.Record.Status {
	case domain.TrackingSkipped:
		err = a.store.MarkSkipped(input.Key, input.Record.Reason)
	default:
		err = a.store.MarkCompleted(input.Key, input.Record)
	}
	if err != nil {
		return retryable("UpdateTracking", err, "tracking update failed")
	}

	a.emitTrackingUpdated(ctx, input)
	return nil
}

func (a *Activities) emitTrackingUpdated(ctx context.Context, input UpdateTrackingInput) {
	wfCtx := a.GetWorkflowContext(ctx)

	payload, err := json.Marshal(trackingUpdatedEvent{
		Key:             input.Key,
		Status:          input.Record.Status,
		BatchID:         input.Record.BatchID,
		QuestionCount:   input.Record.QuestionCount,
		ValidationScore: input.Record.ValidationScore,
		UpdatedAt:       time.Now().UTC(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal tracking event", "key", input.Key, "error", err)
		return
	}

	a.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           events.TypeTrackingUpdated,
		Source:         "tracking-activity",
		Version:        events.SchemaVersion,
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", events.TypeTrackingUpdated, input.Key, input.Record.BatchID),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, fmt.Sprintf("TrackingUpdated[%s]", input.Key))
}

func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}

func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}
