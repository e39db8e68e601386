package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

// cacheEntry holds one cached response with its expiry.
type cacheEntry struct {
	response *transport.Response
	expires  time.Time
}

// cacheMiddleware deduplicates LLM calls by idempotency key. Activity
// retries replay the same key, so a successful response is served from
// memory instead of re-billing the provider. Only successful responses are
// stored; errors always propagate for the retry layer to classify.
type cacheMiddleware struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	logger     *slog.Logger
}

// NewCacheMiddleware creates idempotency caching middleware. Requests
// without an idempotency key bypass the cache entirely.
func NewCacheMiddleware(cfg configuration.CacheConfig) transport.Middleware {
	cm := &cacheMiddleware{
		entries:    make(map[string]cacheEntry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		logger:     slog.Default().With("component", "cache"),
	}

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if req.IdempotencyKey == "" {
				return next.Handle(ctx, req)
			}

			key := cacheKey(req)
			if cached := cm.get(key); cached != nil {
				cm.logger.Debug("cache hit",
					"operation", req.Operation,
					"idempotency_key", req.IdempotencyKey)
				return cached, nil
			}

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			cm.put(key, resp)
			return resp, nil
		})
	}
}

// cacheKey scopes the idempotency key by call target so a reused key can
// never serve a response from a different operation or model.
func cacheKey(req *transport.Request) string {
	return fmt.Sprintf("%s:%s:%s:%s", req.Operation, req.Provider, req.Model, req.IdempotencyKey)
}

// get returns a clone of the cached response, or nil on miss or expiry.
func (c *cacheMiddleware) get(key string) *transport.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil
	}
	return entry.response.Clone()
}

// put stores a clone of resp, evicting expired entries first and the
// soonest-to-expire entry when full.
func (c *cacheMiddleware) put(key string, resp *transport.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, k)
		}
	}

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldestExpiry time.Time
		for k, entry := range c.entries {
			if oldestKey == "" || entry.expires.Before(oldestExpiry) {
				oldestKey = k
				oldestExpiry = entry.expires
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[key] = cacheEntry{
		response: resp.Clone(),
		expires:  now.Add(c.ttl),
	}
}
