package generation

import "go.temporal.io/sdk/temporal"

// nonRetryable marks permanent failures (bad input, unusable model
// output) so Temporal never re-runs the attempt.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}

// retryable marks failures that could succeed on another attempt. LLM
// activities still run with MaximumAttempts 1; the classification is for
// the activities that do carry a retry policy.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}
