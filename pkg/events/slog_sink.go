package events

import (
	"context"
	"log/slog"
)

// SlogSink writes envelopes to a structured logger. It is the worker's
// default sink: every stage event becomes one log line with the payload
// attached raw.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink logging through logger, or slog.Default()
// when logger is nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With("component", "events")}
}

// Append implements EventSink. It never returns an error; a log line that
// cannot be written is not worth failing an activity over.
func (s *SlogSink) Append(ctx context.Context, envelope Envelope) error {
	s.logger.InfoContext(ctx, "pipeline event",
		"event_type", envelope.Type,
		"event_id", envelope.ID,
		"source", envelope.Source,
		"idempotency_key", envelope.IdempotencyKey,
		"workflow_id", envelope.WorkflowID,
		"run_id", envelope.RunID,
		"payload", string(envelope.Payload),
	)
	return nil
}
