package providers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
)

// ErrUnsupportedOperation indicates an operation the adapter cannot route.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// classifyErrorType maps HTTP status and provider error codes onto the
// shared taxonomy. Provider codes win over status codes because some
// providers return 400 for rate-limit conditions.
func classifyErrorType(statusCode int, errorCode string) llmerrors.ErrorType {
	lowerCode := strings.ToLower(errorCode)
	if strings.Contains(lowerCode, "rate") || strings.Contains(lowerCode, "limit") {
		return llmerrors.ErrorTypeRateLimit
	}
	if strings.Contains(lowerCode, "timeout") {
		return llmerrors.ErrorTypeTimeout
	}
	if strings.Contains(lowerCode, "auth") || strings.Contains(lowerCode, "unauthorized") ||
		strings.Contains(lowerCode, "permission") || strings.Contains(lowerCode, "forbidden") {
		return llmerrors.ErrorTypeAuth
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return llmerrors.ErrorTypeRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmerrors.ErrorTypeAuth
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return llmerrors.ErrorTypeTimeout
	case http.StatusBadRequest:
		return llmerrors.ErrorTypeBadInput
	default:
		if statusCode >= http.StatusInternalServerError {
			return llmerrors.ErrorTypeProvider
		}
		return llmerrors.ErrorTypeBadInput
	}
}

// retryAfterSeconds parses the Retry-After header as whole seconds.
// The HTTP-date form is not supported and reads as zero.
func retryAfterSeconds(header http.Header) int {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
