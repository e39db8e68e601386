package configuration

import "time"

// Default tuning values. Generation and correction calls run long against
// slow models; validation calls are short, low-temperature verdicts.
const (
	DefaultHTTPTimeout = 30 * time.Second

	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 250 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
	DefaultMultiplier      = 2.0
	DefaultMaxElapsedTime  = 45 * time.Second

	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 20

	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 256

	DefaultGenerationTemperature = 0.7
	DefaultGenerationMaxTokens   = 2000
	DefaultGenerationTimeout     = 120 * time.Second

	DefaultValidationTemperature = 0.1
	DefaultValidationMaxTokens   = 500
	DefaultValidationTimeout     = 30 * time.Second

	DefaultCorrectionTemperature = 0.3
	DefaultCorrectionMaxTokens   = 2000
	DefaultCorrectionTimeout     = 120 * time.Second
)

// Default returns the stock configuration. Callers overlay provider
// endpoints and credentials before use.
func Default() *Config {
	return &Config{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		HTTPTimeout: DefaultHTTPTimeout,
		Providers:   map[string]ProviderConfig{},
		Retry: RetryConfig{
			MaxAttempts:     DefaultMaxAttempts,
			InitialInterval: DefaultInitialInterval,
			MaxInterval:     DefaultMaxInterval,
			Multiplier:      DefaultMultiplier,
			MaxElapsedTime:  DefaultMaxElapsedTime,
			UseJitter:       true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheMaxEntries,
		},
		Generation: CallParams{
			Temperature: DefaultGenerationTemperature,
			MaxTokens:   DefaultGenerationMaxTokens,
			Timeout:     DefaultGenerationTimeout,
		},
		Validation: CallParams{
			Temperature: DefaultValidationTemperature,
			MaxTokens:   DefaultValidationMaxTokens,
			Timeout:     DefaultValidationTimeout,
		},
		Correction: CallParams{
			Temperature: DefaultCorrectionTemperature,
			MaxTokens:   DefaultCorrectionMaxTokens,
			Timeout:     DefaultCorrectionTimeout,
		},
	}
}
