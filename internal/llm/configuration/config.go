// Package configuration holds the LLM client stack's runtime configuration:
// provider endpoints, per-operation call parameters, and the tuning knobs of
// the retry, rate-limit, and cache middleware.
package configuration

import (
	"errors"
	"fmt"
	"time"
)

// Configuration validation errors.
var (
	errNoProvider             = errors.New("default provider not configured")
	errProviderNotFound       = errors.New("default provider has no provider entry")
	errNoModel                = errors.New("default model not configured")
	errMaxAttemptsInvalid     = errors.New("retry max attempts must be greater than 0")
	errInitialIntervalInvalid = errors.New("retry initial interval must be greater than 0")
	errMaxIntervalInvalid     = errors.New("retry max interval must be >= initial interval")
	errMultiplierInvalid      = errors.New("retry multiplier must be >= 1.0")
	errMaxElapsedInvalid      = errors.New("retry max elapsed time must be >= 0")
	errRateInvalid            = errors.New("rate limit requests per second must be > 0")
	errBurstInvalid           = errors.New("rate limit burst must be >= 1")
)

// ProviderConfig describes one upstream endpoint.
type ProviderConfig struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// APIKey authenticates requests. Loaded from the environment by the
	// application config layer, never committed.
	APIKey string `json:"-" yaml:"-"`
}

// RetryConfig tunes the reusable retry policy. One policy serves every call
// site; the middleware returns a tagged exhaustion error instead of raising
// generically.
type RetryConfig struct {
	MaxAttempts     int           `json:"max_attempts" yaml:"max_attempts"`
	InitialInterval time.Duration `json:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `json:"max_interval" yaml:"max_interval"`
	Multiplier      float64       `json:"multiplier" yaml:"multiplier"`
	MaxElapsedTime  time.Duration `json:"max_elapsed_time" yaml:"max_elapsed_time"`
	UseJitter       bool          `json:"use_jitter" yaml:"use_jitter"`
}

// Validate rejects retry tunings that would hot-loop or never retry.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, c.MaxAttempts)
	}
	if c.InitialInterval <= 0 {
		return fmt.Errorf("%w, got %v", errInitialIntervalInvalid, c.InitialInterval)
	}
	if c.MaxInterval < c.InitialInterval {
		return fmt.Errorf("%w, max %v initial %v", errMaxIntervalInvalid, c.MaxInterval, c.InitialInterval)
	}
	if c.Multiplier < 1.0 {
		return fmt.Errorf("%w, got %f", errMultiplierInvalid, c.Multiplier)
	}
	if c.MaxElapsedTime < 0 {
		return fmt.Errorf("%w, got %v", errMaxElapsedInvalid, c.MaxElapsedTime)
	}
	return nil
}

// RateLimitConfig tunes the local token bucket applied per provider:model.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// Validate rejects buckets that would block forever.
func (c RateLimitConfig) Validate() error {
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w, got %f", errRateInvalid, c.RequestsPerSecond)
	}
	if c.Burst < 1 {
		return fmt.Errorf("%w, got %d", errBurstInvalid, c.Burst)
	}
	return nil
}

// CacheConfig tunes the in-process idempotency cache.
type CacheConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	TTL        time.Duration `json:"ttl" yaml:"ttl"`
	MaxEntries int           `json:"max_entries" yaml:"max_entries"`
}

// ObservabilityConfig tunes the request logging middleware.
type ObservabilityConfig struct {
	// RedactPrompts replaces prompt and response bodies in logs with their
	// lengths. Procedure documents can carry internal material.
	RedactPrompts bool `json:"redact_prompts" yaml:"redact_prompts"`
}

// CallParams are the per-operation request parameters, resolved once at
// construction.
type CallParams struct {
	Temperature float64       `json:"temperature" yaml:"temperature"`
	MaxTokens   int64         `json:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// Config is the complete LLM stack configuration. Offline selects the
// canned-response handler explicitly; there is no implicit fallback to it.
type Config struct {
	Offline       bool                      `json:"offline" yaml:"offline"`
	Provider      string                    `json:"provider" yaml:"provider"`
	Model         string                    `json:"model" yaml:"model"`
	HTTPTimeout   time.Duration             `json:"http_timeout" yaml:"http_timeout"`
	Providers     map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Retry         RetryConfig               `json:"retry" yaml:"retry"`
	RateLimit     RateLimitConfig           `json:"rate_limit" yaml:"rate_limit"`
	Cache         CacheConfig               `json:"cache" yaml:"cache"`
	Observability ObservabilityConfig       `json:"observability" yaml:"observability"`
	Generation    CallParams                `json:"generation" yaml:"generation"`
	Validation    CallParams                `json:"validation" yaml:"validation"`
	Correction    CallParams                `json:"correction" yaml:"correction"`
}

// Validate checks the whole stack configuration. Provider entries are only
// required for online operation.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errNoModel
	}
	if !c.Offline {
		if c.Provider == "" {
			return errNoProvider
		}
		if _, ok := c.Providers[c.Provider]; !ok {
			return fmt.Errorf("%w: %q", errProviderNotFound, c.Provider)
		}
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	return c.RateLimit.Validate()
}
