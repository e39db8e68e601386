// Package retry provides transparent retry handling for LLM requests with
// exponential backoff and jitter.
//
// The middleware classifies failures through the shared error taxonomy and
// retries only transient conditions (rate limits, timeouts, transport
// errors, provider 5xx). Provider-specified Retry-After delays take
// precedence over the computed backoff.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

// retryMiddleware wraps a transport.Handler with automatic retries.
type retryMiddleware struct {
	config configuration.RetryConfig
	logger *slog.Logger
}

// NewMiddleware returns retry middleware configured by cfg.
// It validates the configuration and fails fast on invalid policies.
func NewMiddleware(cfg configuration.RetryConfig) (transport.Middleware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	rm := &retryMiddleware{
		config: cfg,
		logger: slog.Default().With("component", "retry"),
	}

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			return rm.execute(ctx, req, next)
		})
	}, nil
}

// execute runs the request with retry handling.
// Non-retryable errors and context cancellation abort immediately;
// exhausting all attempts surfaces llmerrors.ErrRetriesExhausted wrapping
// the last failure.
func (r *retryMiddleware) execute(
	ctx context.Context, req *transport.Request, next transport.Handler,
) (*transport.Response, error) {
	var lastErr error
	start := time.Now()

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := next.Handle(ctx, req)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("request succeeded after retry",
					"operation", req.Operation,
					"attempt", attempt)
			}
			return resp, nil
		}
		lastErr = err

		if !llmerrors.IsRetryable(err) {
			return nil, err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.calculateBackoff(attempt, err)
		if r.config.MaxElapsedTime > 0 && time.Since(start)+delay > r.config.MaxElapsedTime {
			r.logger.Warn("retry budget exhausted",
				"operation", req.Operation,
				"attempt", attempt,
				"elapsed", time.Since(start))
			break
		}

		r.logger.Debug("retrying request",
			"operation", req.Operation,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w",
		llmerrors.ErrRetriesExhausted, r.config.MaxAttempts, lastErr)
}
