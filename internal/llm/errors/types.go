// Package errors defines the typed error taxonomy for LLM calls. Transport
// and provider failures carry enough classification for the retry
// middleware to decide eligibility and for activities to map outcomes onto
// workflow error types.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies provider failures for retry decisions.
type ErrorType string

const (
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeProvider  ErrorType = "provider"
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeBadInput  ErrorType = "bad_request"
	ErrorTypeMalformed ErrorType = "malformed_response"
)

// Sentinel errors surfaced by the client stack.
var (
	// ErrRetriesExhausted tags the final failure after the retry policy has
	// spent every attempt. Wraps the last underlying error.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrUnknownProvider means no adapter is configured for the requested
	// provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyResponse means the provider returned a syntactically valid
	// reply with no usable content.
	ErrEmptyResponse = errors.New("empty response content")
)

// ProviderError carries provider or HTTP failure detail. RetryAfter is in
// seconds when the provider supplied one.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Type       ErrorType
	RetryAfter int
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsRetryable reports whether the failure class is transient. Server-side
// errors retry; auth and request-shape errors never do.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeNetwork:
		return true
	case ErrorTypeProvider:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// GetRetryAfter returns the provider-requested wait, satisfying the retry
// middleware's RetryAfterProvider interface.
func (e *ProviderError) GetRetryAfter() time.Duration {
	if e.RetryAfter <= 0 {
		return 0
	}
	return time.Duration(e.RetryAfter) * time.Second
}

// RateLimitError is a 429 with optional provider-requested delay in
// seconds.
type RateLimitError struct {
	Provider   string
	Message    string
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %ds", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// GetRetryAfter returns the provider-requested wait.
func (e *RateLimitError) GetRetryAfter() time.Duration {
	if e.RetryAfter <= 0 {
		return 0
	}
	return time.Duration(e.RetryAfter) * time.Second
}
