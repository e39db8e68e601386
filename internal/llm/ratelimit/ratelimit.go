// Package ratelimit throttles LLM requests with per-key token buckets.
//
// Keys combine provider, model, and operation so each upstream budget is
// tracked independently. When a bucket is empty the middleware fails the
// call with a RateLimitError carrying retry-after timing; the retry layer
// above converts that into a delayed re-attempt instead of a busy loop.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

// rateLimitMiddleware enforces local token-bucket limits per request key.
// Key cardinality is bounded by the configured provider/model/operation
// combinations, so limiters live for the process lifetime.
type rateLimitMiddleware struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	config   configuration.RateLimitConfig
	logger   *slog.Logger
}

// NewMiddleware returns token-bucket rate limiting middleware.
// It validates the configuration and fails fast on buckets that could
// never admit a request.
func NewMiddleware(cfg configuration.RateLimitConfig) (transport.Middleware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}

	rlm := &rateLimitMiddleware{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
		logger:   slog.Default().With("component", "ratelimit"),
	}

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := rlm.checkLimit(buildKey(req)); err != nil {
				return nil, err
			}
			return next.Handle(ctx, req)
		})
	}, nil
}

// buildKey constructs the limiter key from request metadata. The
// provider:model:operation shape keeps separate upstream budgets from
// starving each other.
func buildKey(req *transport.Request) string {
	return fmt.Sprintf("%s:%s:%s", req.Provider, req.Model, req.Operation)
}

// checkLimit admits the request or fails with retry-after timing.
// The delay is computed via a cancelled reservation so a denied request
// never consumes bucket capacity.
func (r *rateLimitMiddleware) checkLimit(key string) error {
	limiter := r.getOrCreateLimiter(key)

	if limiter.Allow() {
		return nil
	}

	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()

	retryAfter := int(math.Ceil(delay.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	r.logger.Debug("request rate limited", "key", key, "retry_after_s", retryAfter)

	return &llmerrors.RateLimitError{
		Provider:   "local",
		Message:    fmt.Sprintf("bucket %s exhausted", key),
		RetryAfter: retryAfter,
	}
}

// getOrCreateLimiter returns the bucket for key, creating it on first use.
// Double-checked locking keeps the hot path on the read lock.
func (r *rateLimitMiddleware) getOrCreateLimiter(key string) *rate.Limiter {
	r.mu.RLock()
	if lim, ok := r.limiters[key]; ok {
		r.mu.RUnlock()
		return lim
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if lim, ok := r.limiters[key]; ok {
		return lim
	}

	lim := rate.NewLimiter(rate.Limit(r.config.RequestsPerSecond), r.config.Burst)
	r.limiters[key] = lim
	return lim
}
