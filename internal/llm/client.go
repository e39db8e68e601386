// Package llm provides a resilient client for the three LLM call sites of
// the question pipeline: generation, validation, and correction.
//
// Architecture:
//   - Provider-agnostic transport with one adapter per upstream API
//   - Middleware chain: logging, idempotency cache, retry, rate limiting
//   - Offline mode swaps the HTTP terminal for canned responses while the
//     full middleware stack stays in place
//   - Request/response only, no streaming
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	"github.com/ahrav/go-quizgen/internal/llm/providers"
	"github.com/ahrav/go-quizgen/internal/llm/ratelimit"
	"github.com/ahrav/go-quizgen/internal/llm/resilience"
	"github.com/ahrav/go-quizgen/internal/llm/retry"
	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

// Convenience aliases so callers outside the pipeline only import this
// package.
type (
	Config   = configuration.Config
	Response = transport.Response
)

// HTTP transport tuning for provider connections.
const (
	defaultMaxIdleConns    = 10
	defaultIdleConnTimeout = 90 * time.Second
	defaultTLSTimeout      = 10 * time.Second
)

// Client issues the pipeline's LLM calls. Each method resolves the
// per-operation parameters from configuration and runs the request through
// the full middleware stack. Implementations are safe for concurrent use.
type Client interface {
	// Generate asks the model to draft a question batch from a procedure
	// document.
	Generate(ctx context.Context, systemPrompt, userContent string) (*Response, error)

	// Validate asks the model for a verdict on a single question.
	Validate(ctx context.Context, systemPrompt, userContent string) (*Response, error)

	// Correct asks the model to rewrite flagged questions.
	Correct(ctx context.Context, systemPrompt, userContent string) (*Response, error)
}

type client struct {
	config  *configuration.Config
	handler transport.Handler
}

// New builds the client: terminal handler per the offline flag, then
// rate limiting inside retry so every attempt re-enters the bucket, then
// the idempotency cache and logging outside retry so a replayed call is
// served from memory before any backoff spins up.
func New(cfg *configuration.Config, logger *slog.Logger) (Client, error) {
	if cfg == nil {
		cfg = configuration.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	var terminal transport.Handler
	if cfg.Offline {
		terminal = providers.NewOfflineHandler(logger)
	} else {
		router, err := providers.NewRouter(cfg.Providers)
		if err != nil {
			return nil, fmt.Errorf("initialize provider router: %w", err)
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				IdleConnTimeout:     defaultIdleConnTimeout,
				TLSHandshakeTimeout: defaultTLSTimeout,
			},
		}
		terminal = transport.NewHTTPHandler(httpClient, router, cfg.HTTPTimeout)
	}

	rateLimitMiddleware, err := ratelimit.NewMiddleware(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("initialize rate limiter: %w", err)
	}
	retryMiddleware, err := retry.NewMiddleware(cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("initialize retry middleware: %w", err)
	}

	middlewares := []transport.Middleware{
		resilience.NewLoggingMiddleware(cfg.Observability, logger, nil),
	}
	if cfg.Cache.Enabled {
		middlewares = append(middlewares, resilience.NewCacheMiddleware(cfg.Cache))
	}
	middlewares = append(middlewares, retryMiddleware, rateLimitMiddleware)

	return &client{
		config:  cfg,
		handler: transport.Chain(middlewares...)(terminal),
	}, nil
}

// Generate implements Client.
func (c *client) Generate(ctx context.Context, systemPrompt, userContent string) (*Response, error) {
	return c.call(ctx, transport.OpGeneration, c.config.Generation, systemPrompt, userContent)
}

// Validate implements Client.
func (c *client) Validate(ctx context.Context, systemPrompt, userContent string) (*Response, error) {
	return c.call(ctx, transport.OpValidation, c.config.Validation, systemPrompt, userContent)
}

// Correct implements Client.
func (c *client) Correct(ctx context.Context, systemPrompt, userContent string) (*Response, error) {
	return c.call(ctx, transport.OpCorrection, c.config.Correction, systemPrompt, userContent)
}

func (c *client) call(
	ctx context.Context,
	op transport.OperationType,
	params configuration.CallParams,
	systemPrompt, userContent string,
) (*Response, error) {
	req := &transport.Request{
		Operation:    op,
		Provider:     c.config.Provider,
		Model:        c.config.Model,
		SystemPrompt: systemPrompt,
		UserContent:  userContent,
		MaxTokens:    params.MaxTokens,
		Temperature:  params.Temperature,
		Timeout:      params.Timeout,
	}
	req.IdempotencyKey = transport.GenerateIdemKey(req).String()

	return c.handler.Handle(ctx, req)
}
