package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
)

// Handler executes an LLM request. Implementations must be safe for
// concurrent use.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Handle calls f(ctx, req).
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Handler with cross-cutting behavior.
type Middleware func(Handler) Handler

// Chain composes middlewares so the first argument wraps outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// ProviderAdapter converts between the normalized request/response and one
// provider's wire format.
type ProviderAdapter interface {
	// Name identifies the provider for logs and error reporting.
	Name() string
	// Build produces the outbound HTTP request.
	Build(ctx context.Context, req *Request) (*http.Request, error)
	// Parse normalizes the provider reply, mapping failures onto the error
	// taxonomy.
	Parse(resp *http.Response) (*Response, error)
}

// Router picks the adapter serving a provider name.
type Router interface {
	Pick(provider string) (ProviderAdapter, error)
}

// HTTPHandler is the terminal handler: route to an adapter, bound the call
// with a timeout, execute, normalize.
type HTTPHandler struct {
	client  *http.Client
	router  Router
	timeout time.Duration
}

// NewHTTPHandler builds the terminal handler. The timeout applies when a
// request does not carry its own.
func NewHTTPHandler(client *http.Client, router Router, timeout time.Duration) *HTTPHandler {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPHandler{client: client, router: router, timeout: timeout}
}

// Handle executes one request against its provider.
func (h *HTTPHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm request: %w", err)
	}

	adapter, err := h.router.Pick(req.Provider)
	if err != nil {
		return nil, err
	}

	timeout := h.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := adapter.Build(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", adapter.Name(), err)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &llmerrors.ProviderError{
				Provider: adapter.Name(),
				Message:  fmt.Sprintf("request timed out after %v", timeout),
				Type:     llmerrors.ErrorTypeTimeout,
			}
		}
		return nil, &llmerrors.ProviderError{
			Provider: adapter.Name(),
			Message:  err.Error(),
			Type:     llmerrors.ErrorTypeNetwork,
		}
	}
	defer httpResp.Body.Close()

	resp, err := adapter.Parse(httpResp)
	if err != nil {
		return nil, err
	}

	resp.Usage.LatencyMs = time.Since(start).Milliseconds()
	if resp.Provider == "" {
		resp.Provider = adapter.Name()
	}
	if resp.Model == "" {
		resp.Model = req.Model
	}
	return resp, nil
}
