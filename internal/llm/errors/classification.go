package errors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// RetryAfterProvider is implemented by error types that can recommend a
// wait before the next attempt.
type RetryAfterProvider interface {
	GetRetryAfter() time.Duration
}

// IsRetryable walks err for a retryability verdict. Rate limits, timeouts,
// network failures, and 5xx provider errors retry; everything else fails
// fast.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.IsRetryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	var after RetryAfterProvider
	if errors.As(err, &after) {
		return true
	}

	return false
}

// RetryAfterOf extracts a provider-requested delay when the error carries
// one.
func RetryAfterOf(err error) time.Duration {
	var after RetryAfterProvider
	if errors.As(err, &after) {
		return after.GetRetryAfter()
	}
	return 0
}

// TypeOf classifies err into the taxonomy for logging and metrics tags.
// Unclassifiable errors report as "unknown".
func TypeOf(err error) string {
	if err == nil {
		return ""
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return string(ErrorTypeRateLimit)
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return string(providerErr.Type)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return string(ErrorTypeTimeout)
	}
	if errors.Is(err, ErrEmptyResponse) {
		return string(ErrorTypeMalformed)
	}
	if isNetworkError(err) {
		return string(ErrorTypeNetwork)
	}

	return "unknown"
}

// isNetworkError detects network failures by type before falling back to
// string patterns for wrapped transport errors.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var netErr net.Error
		if errors.As(urlErr.Err, &netErr) {
			return netErr.Timeout()
		}
		return containsNetworkIndicator(urlErr.Err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return containsNetworkIndicator(err.Error())
}

func containsNetworkIndicator(errStr string) bool {
	lowered := strings.ToLower(errStr)
	for _, indicator := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	} {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}
