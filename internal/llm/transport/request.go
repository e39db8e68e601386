// Package transport defines the provider-agnostic request pipeline for LLM
// calls: normalized request/response types, the Handler abstraction, the
// middleware chain, and the terminal HTTP handler that speaks to a
// provider through its adapter.
package transport

import (
	"errors"
	"fmt"
	"time"
)

// OperationType distinguishes the three pipeline call sites. Offline mode
// keys its canned payloads on it; call parameters are resolved per
// operation.
type OperationType string

const (
	OpGeneration OperationType = "generation"
	OpValidation OperationType = "validation"
	OpCorrection OperationType = "correction"
)

var (
	errMissingOperation = errors.New("request operation is required")
	errMissingModel     = errors.New("request model is required")
	errMissingContent   = errors.New("request user content is required")
)

// Request is one provider-agnostic LLM call.
type Request struct {
	Operation    OperationType `json:"operation"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	UserContent  string        `json:"user_content"`
	MaxTokens    int64         `json:"max_tokens,omitempty"`
	Temperature  float64       `json:"temperature,omitempty"`

	// Timeout bounds this call end to end; zero falls back to the
	// handler's default.
	Timeout time.Duration `json:"timeout,omitempty"`

	// IdempotencyKey deduplicates retried calls at the provider and in the
	// response cache.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Validate rejects requests the terminal handler could not serve.
func (r *Request) Validate() error {
	if r.Operation == "" {
		return errMissingOperation
	}
	if r.Model == "" {
		return errMissingModel
	}
	if r.UserContent == "" {
		return errMissingContent
	}
	return nil
}

// Usage is the normalized token and latency accounting of one call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}

// Response is the normalized LLM reply. Content is raw model text; parsing
// it is the caller's concern.
type Response struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Clone returns a shallow copy, used by the cache to keep stored responses
// immutable.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// String renders a short form for logs.
func (r *Response) String() string {
	return fmt.Sprintf("%s/%s: %d tokens in %dms",
		r.Provider, r.Model, r.Usage.TotalTokens, r.Usage.LatencyMs)
}
