package domain

import "time"

// Tracking statuses. A key only ever moves to completed or skipped and is
// never deleted; absence means the revision still needs generation.
const (
	TrackingCompleted = "completed"
	TrackingSkipped   = "skipped"
)

// TrackingRecord is the per-revision generation outcome stored under its
// TrackingKey.
type TrackingRecord struct {
	Status          string    `json:"status"`
	BatchID         string    `json:"batch_id,omitempty"`
	QuestionCount   int       `json:"question_count,omitempty"`
	ValidationScore float64   `json:"validation_score,omitempty"`
	Model           string    `json:"model,omitempty"`
	SyncedAt        time.Time `json:"synced_at,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// ScanHistoryLimit caps how many scan summaries the tracking file retains.
const ScanHistoryLimit = 10

// ScanHistoryEntry is one scan's summary, retained up to ScanHistoryLimit
// entries.
type ScanHistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Found     int       `json:"found_files"`
	Queued    int       `json:"queued"`
}
