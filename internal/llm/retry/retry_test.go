package retry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
	"github.com/ahrav/go-quizgen/internal/llm/retry"
	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

func testRetryConfig(maxAttempts int) configuration.RetryConfig {
	return configuration.RetryConfig{
		MaxAttempts:     maxAttempts,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  5 * time.Second,
		UseJitter:       false,
	}
}

func testRequest() *transport.Request {
	return &transport.Request{
		Operation:   transport.OpGeneration,
		Provider:    "test",
		Model:       "test-model",
		UserContent: "generate questions",
	}
}

func serverError() error {
	return &llmerrors.ProviderError{
		Provider:   "test",
		StatusCode: 500,
		Message:    "server error",
		Type:       llmerrors.ErrorTypeProvider,
	}
}

func TestNewMiddleware_InvalidConfig(t *testing.T) {
	cfg := testRetryConfig(0)

	middleware, err := retry.NewMiddleware(cfg)
	require.Error(t, err)
	assert.Nil(t, middleware)
}

func TestRetryMiddleware_MaxAttempts(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
	}{
		{name: "single attempt", maxAttempts: 1},
		{name: "three attempts", maxAttempts: 3},
		{name: "five attempts", maxAttempts: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var callCount int32
			failing := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
				atomic.AddInt32(&callCount, 1)
				return nil, serverError()
			})

			middleware, err := retry.NewMiddleware(testRetryConfig(tt.maxAttempts))
			require.NoError(t, err)

			_, retryErr := middleware(failing).Handle(context.Background(), testRequest())
			require.Error(t, retryErr)
			assert.ErrorIs(t, retryErr, llmerrors.ErrRetriesExhausted)
			assert.Equal(t, int32(tt.maxAttempts), atomic.LoadInt32(&callCount))
		})
	}
}

func TestRetryMiddleware_SuccessAfterRetry(t *testing.T) {
	var callCount int32
	handler := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		if atomic.AddInt32(&callCount, 1) < 3 {
			return nil, serverError()
		}
		return &transport.Response{Content: "ok"}, nil
	})

	middleware, err := retry.NewMiddleware(testRetryConfig(5))
	require.NoError(t, err)

	resp, err := middleware(handler).Handle(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&callCount))
}

func TestRetryMiddleware_NonRetryableFailsFast(t *testing.T) {
	var callCount int32
	handler := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		atomic.AddInt32(&callCount, 1)
		return nil, &llmerrors.ProviderError{
			Provider:   "test",
			StatusCode: 401,
			Message:    "invalid api key",
			Type:       llmerrors.ErrorTypeAuth,
		}
	})

	middleware, err := retry.NewMiddleware(testRetryConfig(5))
	require.NoError(t, err)

	_, retryErr := middleware(handler).Handle(context.Background(), testRequest())
	require.Error(t, retryErr)
	assert.NotErrorIs(t, retryErr, llmerrors.ErrRetriesExhausted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&callCount))
}

// throttledError simulates a provider push-back with sub-second
// granularity, which RateLimitError's whole-second field cannot express in
// a fast test.
type throttledError struct{ after time.Duration }

func (e *throttledError) Error() string                { return "throttled" }
func (e *throttledError) GetRetryAfter() time.Duration { return e.after }

func TestRetryMiddleware_HonorsRetryAfter(t *testing.T) {
	var callCount int32
	handler := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		if atomic.AddInt32(&callCount, 1) == 1 {
			return nil, &throttledError{after: 50 * time.Millisecond}
		}
		return &transport.Response{Content: "ok"}, nil
	})

	middleware, err := retry.NewMiddleware(testRetryConfig(3))
	require.NoError(t, err)

	start := time.Now()
	resp, err := middleware(handler).Handle(context.Background(), testRequest())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond, "should wait out Retry-After before the second attempt")
}

func TestRetryMiddleware_ContextCancelledDuringBackoff(t *testing.T) {
	cfg := testRetryConfig(3)
	cfg.InitialInterval = 10 * time.Second
	cfg.MaxInterval = 10 * time.Second
	cfg.MaxElapsedTime = time.Minute

	var callCount int32
	handler := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		atomic.AddInt32(&callCount, 1)
		return nil, serverError()
	})

	middleware, err := retry.NewMiddleware(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, retryErr := middleware(handler).Handle(ctx, testRequest())
	require.Error(t, retryErr)
	assert.ErrorIs(t, retryErr, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&callCount))
}

func TestRetryMiddleware_ContextCancelledBeforeCall(t *testing.T) {
	handler := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		t.Fatal("handler must not be called with a cancelled context")
		return nil, nil
	})

	middleware, err := retry.NewMiddleware(testRetryConfig(3))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, retryErr := middleware(handler).Handle(ctx, testRequest())
	assert.ErrorIs(t, retryErr, context.Canceled)
}

func TestRetryMiddleware_MaxElapsedTimeStopsEarly(t *testing.T) {
	cfg := testRetryConfig(10)
	cfg.InitialInterval = 40 * time.Millisecond
	cfg.MaxInterval = 40 * time.Millisecond
	cfg.MaxElapsedTime = 60 * time.Millisecond

	var callCount int32
	handler := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		atomic.AddInt32(&callCount, 1)
		time.Sleep(30 * time.Millisecond)
		return nil, serverError()
	})

	middleware, err := retry.NewMiddleware(cfg)
	require.NoError(t, err)

	_, retryErr := middleware(handler).Handle(context.Background(), testRequest())
	require.Error(t, retryErr)
	assert.ErrorIs(t, retryErr, llmerrors.ErrRetriesExhausted)
	assert.Less(t, atomic.LoadInt32(&callCount), int32(10), "budget should stop retries before max attempts")
}

func TestRetryMiddleware_WrapsLastError(t *testing.T) {
	handler := transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		return nil, serverError()
	})

	middleware, err := retry.NewMiddleware(testRetryConfig(2))
	require.NoError(t, err)

	_, retryErr := middleware(handler).Handle(context.Background(), testRequest())
	require.Error(t, retryErr)

	var provErr *llmerrors.ProviderError
	require.True(t, errors.As(retryErr, &provErr), "exhaustion error should wrap the last provider error")
	assert.Equal(t, 500, provErr.StatusCode)
}

func TestExponentialBackoff(t *testing.T) {
	cfg := configuration.RetryConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		Multiplier:      2.0,
		UseJitter:       false,
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "zero attempt", attempt: 0, want: 0},
		{name: "first attempt", attempt: 1, want: 100 * time.Millisecond},
		{name: "second attempt", attempt: 2, want: 200 * time.Millisecond},
		{name: "third attempt", attempt: 3, want: 400 * time.Millisecond},
		{name: "capped at max", attempt: 10, want: 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retry.ExponentialBackoff(tt.attempt, cfg))
		})
	}
}

func TestExponentialBackoff_JitterBounded(t *testing.T) {
	cfg := configuration.RetryConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		Multiplier:      2.0,
		UseJitter:       true,
	}

	for range 50 {
		got := retry.ExponentialBackoff(3, cfg)
		assert.GreaterOrEqual(t, got, time.Duration(0))
		assert.LessOrEqual(t, got, 400*time.Millisecond)
	}
}
