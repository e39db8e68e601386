package tracking_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/tracking"
	"github.com/ahrav/go-quizgen/pkg/activity"
	"github.com/ahrav/go-quizgen/pkg/events"
)

func newStore(t *testing.T) (*tracking.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracking.json")
	store, err := tracking.NewStore(path, nil)
	require.NoError(t, err)
	return store, path
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := tracking.NewStore("", nil)
	require.Error(t, err)
}

func TestStore_MissingFileReadsEmpty(t *testing.T) {
	store, _ := newStore(t)

	_, ok, err := store.Get("PEP-PRO-1141_v2")
	require.NoError(t, err)
	assert.False(t, ok)

	completed, err := store.IsCompleted("PEP-PRO-1141_v2")
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestStore_MarkCompletedRoundTrip(t *testing.T) {
	store, path := newStore(t)

	err := store.MarkCompleted("PEP-PRO-1141_v2", domain.TrackingRecord{
		BatchID:         "batch_PEP-PRO-1141_2_20250101120000",
		QuestionCount:   5,
		ValidationScore: 0.85,
		Model:           "gpt-4o-mini",
	})
	require.NoError(t, err)

	rec, ok, err := store.Get("PEP-PRO-1141_v2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.TrackingCompleted, rec.Status)
	assert.Equal(t, "batch_PEP-PRO-1141_2_20250101120000", rec.BatchID)
	assert.Equal(t, 5, rec.QuestionCount)
	assert.InDelta(t, 0.85, rec.ValidationScore, 1e-9)
	assert.False(t, rec.SyncedAt.IsZero())

	completed, err := store.IsCompleted("PEP-PRO-1141_v2")
	require.NoError(t, err)
	assert.True(t, completed)

	// The persisted document uses the canonical top-level keys.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "generated_questions")
	assert.Contains(t, raw, "last_scan")
}

func TestStore_MarkSkippedIsNotCompleted(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.MarkSkipped("PRO-SEG-001_v1", "manual hold"))

	rec, ok, err := store.Get("PRO-SEG-001_v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.TrackingSkipped, rec.Status)
	assert.Equal(t, "manual hold", rec.Reason)

	completed, err := store.IsCompleted("PRO-SEG-001_v1")
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestStore_CompletedOverwritesSkipped(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.MarkSkipped("PRO-SEG-001_v1", "hold"))
	require.NoError(t, store.MarkCompleted("PRO-SEG-001_v1", domain.TrackingRecord{QuestionCount: 5}))

	completed, err := store.IsCompleted("PRO-SEG-001_v1")
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestStore_RecordScanCapsHistory(t *testing.T) {
	store, _ := newStore(t)

	for i := 0; i < domain.ScanHistoryLimit+3; i++ {
		require.NoError(t, store.RecordScan(10+i, i))
	}

	history, err := store.History()
	require.NoError(t, err)
	require.Len(t, history, domain.ScanHistoryLimit)

	// Oldest entries were dropped; the newest survives at the tail.
	assert.Equal(t, domain.ScanHistoryLimit+2, history[len(history)-1].Queued)
	assert.Equal(t, 3, history[0].Queued)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking.json")

	first, err := tracking.NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.MarkCompleted("PEP-PRO-1141_v2", domain.TrackingRecord{QuestionCount: 5}))

	second, err := tracking.NewStore(path, nil)
	require.NoError(t, err)
	completed, err := second.IsCompleted("PEP-PRO-1141_v2")
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestStore_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := tracking.NewStore(path, nil)
	require.NoError(t, err)

	_, _, err = store.Get("any")
	require.Error(t, err)

	// A corrupt file is never silently replaced.
	err = store.MarkCompleted("any", domain.TrackingRecord{})
	require.Error(t, err)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "{not json", string(data))
}

func TestStore_ConcurrentWritesAreSerialized(t *testing.T) {
	store, _ := newStore(t)

	var wg sync.WaitGroup
	keys := []string{"A-B-1_v1", "A-B-2_v1", "A-B-3_v1", "A-B-4_v1", "A-B-5_v1"}
	for _, key := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			assert.NoError(t, store.MarkCompleted(k, domain.TrackingRecord{QuestionCount: 5}))
		}(key)
	}
	wg.Wait()

	for _, key := range keys {
		completed, err := store.IsCompleted(key)
		require.NoError(t, err)
		assert.True(t, completed, key)
	}
}

// capturingSink records emitted envelopes for assertions.
type capturingSink struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (c *capturingSink) Append(_ context.Context, envelope events.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envelopes = append(c.envelopes, envelope)
	return nil
}

func TestActivities_UpdateTracking(t *testing.T) {
	store, _ := newStore(t)
	sink := &capturingSink{}
	acts := tracking.NewActivities(activity.NewBaseActivities(sink), store)

	input := tracking.UpdateTrackingInput{
		Key: "PEP-PRO-1141_v2",
		Record: domain.TrackingRecord{
			BatchID:         "batch_PEP-PRO-1141_2_20250101120000",
			QuestionCount:   5,
			ValidationScore: 0.9,
			Model:           "gpt-4o-mini",
		},
	}
	require.NoError(t, acts.UpdateTracking(context.Background(), input))

	completed, err := store.IsCompleted("PEP-PRO-1141_v2")
	require.NoError(t, err)
	assert.True(t, completed)

	require.Len(t, sink.envelopes, 1)
	envelope := sink.envelopes[0]
	assert.Equal(t, events.TypeTrackingUpdated, envelope.Type)
	assert.Contains(t, envelope.IdempotencyKey, "PEP-PRO-1141_v2")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "completed", payload["status"])
	assert.Equal(t, "PEP-PRO-1141_v2", payload["tracking_key"])
}

func TestActivities_UpdateTrackingSkipped(t *testing.T) {
	store, _ := newStore(t)
	acts := tracking.NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()), store)

	input := tracking.UpdateTrackingInput{
		Key:    "PRO-SEG-009_v1",
		Record: domain.TrackingRecord{Status: domain.TrackingSkipped, Reason: "no content"},
	}
	require.NoError(t, acts.UpdateTracking(context.Background(), input))

	rec, ok, err := store.Get("PRO-SEG-009_v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.TrackingSkipped, rec.Status)
	assert.Equal(t, "no content", rec.Reason)
}

func TestActivities_UpdateTrackingRequiresKey(t *testing.T) {
	store, _ := newStore(t)
	acts := tracking.NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()), store)

	err := acts.UpdateTracking(context.Background(), tracking.UpdateTrackingInput{})
	require.Error(t, err)
}
