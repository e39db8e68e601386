// Package resilience provides the observability and caching layers of the
// LLM pipeline: structured request/response logging with optional prompt
// redaction, a pluggable metrics interface, and an in-process idempotency
// cache that absorbs duplicate calls from activity retries.
package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

// ContentTruncationLimit caps prompt and response bodies in logs.
const ContentTruncationLimit = 200

// Metrics collects observability data from LLM operations with tag-based
// dimensionality.
type Metrics interface {
	IncrementCounter(name string, tags map[string]string, value float64)
	RecordHistogram(name string, tags map[string]string, value float64)
}

// NoOpMetrics discards all metrics. Used where collection is not wired up,
// keeping the middleware free of nil checks.
type NoOpMetrics struct{}

// NewNoOpMetrics returns a metrics collector that discards all data.
func NewNoOpMetrics() *NoOpMetrics { return &NoOpMetrics{} }

func (n *NoOpMetrics) IncrementCounter(_ string, _ map[string]string, _ float64) {}
func (n *NoOpMetrics) RecordHistogram(_ string, _ map[string]string, _ float64)  {}

// loggingMiddleware captures structured logs and metrics for every request
// through the pipeline.
type loggingMiddleware struct {
	logger        *slog.Logger
	metrics       Metrics
	redactPrompts bool
}

// NewLoggingMiddleware creates observability middleware. Nil logger and
// metrics fall back to slog.Default and a no-op collector.
func NewLoggingMiddleware(cfg configuration.ObservabilityConfig, logger *slog.Logger, metrics Metrics) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}

	lm := &loggingMiddleware{
		logger:        logger.With("component", "llm"),
		metrics:       metrics,
		redactPrompts: cfg.RedactPrompts,
	}

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			baseTags := map[string]string{
				"provider":  req.Provider,
				"model":     req.Model,
				"operation": string(req.Operation),
			}

			lm.logRequest(req)
			lm.metrics.IncrementCounter("llm.requests.total", baseTags, 1)

			start := time.Now()
			resp, err := next.Handle(ctx, req)
			duration := time.Since(start)

			lm.metrics.RecordHistogram("llm.request.duration_ms", baseTags, float64(duration.Milliseconds()))

			if err != nil {
				lm.logError(req, err, duration, baseTags)
			} else if resp != nil {
				lm.logSuccess(req, resp, duration, baseTags)
			}

			return resp, err
		})
	}
}

func (m *loggingMiddleware) logRequest(req *transport.Request) {
	fields := []any{
		"provider", req.Provider,
		"model", req.Model,
		"operation", req.Operation,
		"max_tokens", req.MaxTokens,
		"temperature", req.Temperature,
	}

	if m.redactPrompts {
		fields = append(fields, "content_length", len(req.UserContent))
	} else {
		content := req.UserContent
		if len(content) > ContentTruncationLimit {
			content = content[:ContentTruncationLimit] + "..."
		}
		fields = append(fields, "content_preview", content)
	}

	m.logger.Info("llm request started", fields...)
}

func (m *loggingMiddleware) logError(
	req *transport.Request, err error, duration time.Duration, baseTags map[string]string,
) {
	errorTags := copyTags(baseTags)
	errorTags["error_type"] = llmerrors.TypeOf(err)

	m.metrics.IncrementCounter("llm.requests.errors", errorTags, 1)

	m.logger.Error("llm request failed",
		"provider", req.Provider,
		"model", req.Model,
		"operation", req.Operation,
		"duration_ms", duration.Milliseconds(),
		"error_type", errorTags["error_type"],
		"error", err)
}

func (m *loggingMiddleware) logSuccess(
	req *transport.Request, resp *transport.Response, duration time.Duration, baseTags map[string]string,
) {
	m.metrics.IncrementCounter("llm.requests.success", baseTags, 1)
	m.metrics.RecordHistogram("llm.tokens.total", baseTags, float64(resp.Usage.TotalTokens))

	fields := []any{
		"provider", req.Provider,
		"model", req.Model,
		"operation", req.Operation,
		"duration_ms", duration.Milliseconds(),
		"finish_reason", resp.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	}

	if m.redactPrompts {
		fields = append(fields, "response_length", len(resp.Content))
	} else {
		content := resp.Content
		if len(content) > ContentTruncationLimit {
			content = content[:ContentTruncationLimit] + "..."
		}
		fields = append(fields, "response_preview", content)
	}

	m.logger.Info("llm request completed", fields...)
}

// copyTags copies a metric tag map so per-call tags never leak between
// metric calls.
func copyTags(original map[string]string) map[string]string {
	tagsCopy := make(map[string]string, len(original))
	for k, v := range original {
		tagsCopy[k] = v
	}
	return tagsCopy
}
