// Package providers implements the provider-specific halves of the LLM
// pipeline: one adapter per upstream API plus the offline handler that
// serves canned payloads without network access.
package providers

import (
	"fmt"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-quizgen/internal/llm/errors"
	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

// Supported provider identifiers. These match the keys used in
// configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// NewRouter creates a router over the configured provider adapters.
// Unknown provider names in the configuration fail construction rather
// than the first request.
func NewRouter(configs map[string]configuration.ProviderConfig) (transport.Router, error) {
	adapters := make(map[string]transport.ProviderAdapter, len(configs))

	for name, cfg := range configs {
		switch name {
		case ProviderOpenAI:
			adapters[name] = NewOpenAIAdapter(cfg)
		case ProviderAnthropic:
			adapters[name] = NewAnthropicAdapter(cfg)
		case ProviderGoogle:
			adapters[name] = NewGoogleAdapter(cfg)
		default:
			return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, name)
		}
	}

	return &router{adapters: adapters}, nil
}

type router struct {
	adapters map[string]transport.ProviderAdapter
}

// Pick selects the adapter for the given provider name.
func (r *router) Pick(provider string) (transport.ProviderAdapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, provider)
	}
	return adapter, nil
}
