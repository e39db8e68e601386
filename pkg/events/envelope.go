// Package events defines the event envelope activities emit at each
// pipeline stage and the sink interface that receives them. Emission is
// best-effort observability: a sink failure never fails the activity that
// produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types emitted by the generation pipeline, one per stage.
const (
	TypeScanCompleted   = "quizgen.scan.completed"
	TypeBatchGenerated  = "quizgen.batch.generated"
	TypeBatchValidated  = "quizgen.batch.validated"
	TypeBatchCorrected  = "quizgen.batch.corrected"
	TypeBatchSynced     = "quizgen.batch.synced"
	TypeTrackingUpdated = "quizgen.tracking.updated"
)

// SchemaVersion stamps every envelope so payload shapes can evolve.
const SchemaVersion = "1.0.0"

// Envelope wraps a stage event with the metadata consumers need for
// routing, deduplication, and workflow correlation. Payload schemas vary
// by Type and are versioned independently of the pipeline.
type Envelope struct {
	// ID uniquely identifies this emission.
	ID string `json:"id"`

	// Type is one of the quizgen.* event type constants.
	Type string `json:"type"`

	// Source names the emitting activity, e.g. "scan-activity".
	Source string `json:"source"`

	// Version is the envelope schema version.
	Version string `json:"version"`

	// Timestamp records wall-clock emission time.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey is deterministic per logical event so sinks can
	// drop duplicates produced by activity retries.
	IdempotencyKey string `json:"idempotency_key"`

	// WorkflowID and RunID tie the event back to the Temporal execution
	// that produced it.
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`

	// Payload is the stage-specific event body.
	Payload json.RawMessage `json:"payload"`
}

// EventSink receives emitted envelopes. Implementations must treat
// duplicate idempotency keys as no-ops and return quickly; events carry
// observability, not correctness, so callers never fail on sink errors.
type EventSink interface {
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink discards every envelope. Used in tests and when event
// emission is disabled.
type NoOpEventSink struct{}

// Append implements EventSink by doing nothing.
func (n *NoOpEventSink) Append(_ context.Context, _ Envelope) error { return nil }

// NewNoOpEventSink returns a sink that drops all events.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }
