package retry

import (
	"math/rand/v2"
	"time"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
)

// calculateBackoff computes the delay before the next attempt. A
// provider-specified Retry-After takes precedence; otherwise exponential
// backoff with optional full jitter applies.
func (r *retryMiddleware) calculateBackoff(attempt int, err error) time.Duration {
	if retryAfter := llmerrors.RetryAfterOf(err); retryAfter > 0 {
		return retryAfter
	}
	return ExponentialBackoff(attempt, r.config)
}

// ExponentialBackoff calculates the delay for an attempt (1-based) under a
// retry policy. Full jitter draws uniformly from [0, backoff] when enabled.
// Thread-safe via math/rand/v2. Returns zero for non-positive attempts.
func ExponentialBackoff(attempt int, config configuration.RetryConfig) time.Duration {
	if attempt <= 0 {
		return 0
	}

	backoff := config.InitialInterval
	if backoff <= 0 {
		backoff = time.Millisecond
	}
	multiplier := config.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * multiplier)
		if backoff > config.MaxInterval {
			backoff = config.MaxInterval
			break
		}
	}

	if config.UseJitter {
		jitterMs := rand.Int64N(backoff.Milliseconds() + 1) // #nosec G404 -- non-cryptographic jitter
		return time.Duration(jitterMs) * time.Millisecond
	}
	return backoff
}
