package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-quizgen/internal/llm"
	"github.com/ahrav/go-quizgen/internal/llm/configuration"
)

func offlineConfig() *configuration.Config {
	cfg := configuration.Default()
	cfg.Offline = true
	return cfg
}

func TestNew_OnlineRequiresProviderEntry(t *testing.T) {
	cfg := configuration.Default()
	// Default config names a provider but carries no endpoint entry.
	_, err := llm.New(cfg, nil)
	require.Error(t, err)
}

func TestNew_OfflineNeedsNoProviders(t *testing.T) {
	c, err := llm.New(offlineConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestClient_OfflineGenerateReturnsParsableBatch(t *testing.T) {
	c, err := llm.New(offlineConfig(), nil)
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), "system", "document text")
	require.NoError(t, err)

	var drafts []struct {
		Text    string   `json:"pregunta"`
		Options []string `json:"opciones"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &drafts))
	assert.Len(t, drafts, 5)
}

func TestClient_OfflineValidatePasses(t *testing.T) {
	c, err := llm.New(offlineConfig(), nil)
	require.NoError(t, err)

	resp, err := c.Validate(context.Background(), "system", "question text")
	require.NoError(t, err)

	var verdict struct {
		Score int `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &verdict))
	assert.Equal(t, 1, verdict.Score)
}

func TestClient_RoundTripAgainstFakeProvider(t *testing.T) {
	var mu sync.Mutex
	seenKeys := []string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seenKeys = append(seenKeys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()

		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"content": "respuesta"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
		}`))
	}))
	defer server.Close()

	cfg := configuration.Default()
	cfg.Providers = map[string]configuration.ProviderConfig{
		"openai": {BaseURL: server.URL, APIKey: "test-key"},
	}
	cfg.Cache.Enabled = false
	cfg.HTTPTimeout = 5 * time.Second

	c, err := llm.New(cfg, nil)
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), "system", "same content")
	require.NoError(t, err)
	assert.Equal(t, "respuesta", resp.Content)
	assert.Equal(t, int64(5), resp.Usage.TotalTokens)
	assert.GreaterOrEqual(t, resp.Usage.LatencyMs, int64(0))

	_, err = c.Generate(context.Background(), "system", "same content")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seenKeys, 2)
	assert.NotEmpty(t, seenKeys[0])
	assert.Equal(t, seenKeys[0], seenKeys[1], "equal calls must share an idempotency key")
}

func TestClient_CacheAbsorbsRepeatCalls(t *testing.T) {
	var mu sync.Mutex
	hits := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "cached"}, "finish_reason": "stop"}],
			"usage": {"total_tokens": 4}
		}`))
	}))
	defer server.Close()

	cfg := configuration.Default()
	cfg.Providers = map[string]configuration.ProviderConfig{
		"openai": {BaseURL: server.URL, APIKey: "test-key"},
	}

	c, err := llm.New(cfg, nil)
	require.NoError(t, err)

	for range 3 {
		resp, err := c.Validate(context.Background(), "system", "identical question")
		require.NoError(t, err)
		assert.Equal(t, "cached", resp.Content)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits, "repeat calls should be served from the cache")
}
