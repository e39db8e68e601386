package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-quizgen/pkg/activity"
	"github.com/ahrav/go-quizgen/pkg/events"
)

// ScanDocumentsInput selects the directory to scan. An empty SourceDir
// uses the scanner's configured directory.
type ScanDocumentsInput struct {
	SourceDir string `json:"source_dir,omitempty"`
}

// scanCompletedEvent is the payload of quizgen.scan.completed.
type scanCompletedEvent struct {
	SourceDir  string    `json:"source_dir"`
	FoundFiles int       `json:"found_files"`
	Queued     int       `json:"queued"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// Activities exposes the scanner to the workflow.
type Activities struct {
	activity.BaseActivities
	scanner *Scanner
}

// NewActivities creates scan activities around scanner.
func NewActivities(base activity.BaseActivities, scanner *Scanner) *Activities {
	return &Activities{BaseActivities: base, scanner: scanner}
}

// ScanDocuments runs one directory scan and returns the queue. I/O
// failures are retryable; the scan itself is idempotent apart from its
// history entry.
func (a *Activities) ScanDocuments(ctx context.Context, input ScanDocumentsInput) (*ScanResult, error) {
	dir := input.SourceDir
	if dir == "" {
		dir = a.scanner.sourceDir
	}

	result, err := a.scanner.ScanDir(ctx, dir)
	if err != nil {
		return nil, temporal.NewApplicationError("scan failed", "ScanDocuments", err)
	}

	a.emitScanCompleted(ctx, dir, result)
	activity.SafeLog(ctx, "ScanDocuments completed",
		"found", result.FoundFiles, "queued", len(result.Queue))
	return result, nil
}

func (a *Activities) emitScanCompleted(ctx context.Context, dir string, result *ScanResult) {
	wfCtx := a.GetWorkflowContext(ctx)

	payload, err := json.Marshal(scanCompletedEvent{
		SourceDir:  dir,
		FoundFiles: result.FoundFiles,
		Queued:     len(result.Queue),
		ScannedAt:  time.Now().UTC(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal scan event", "error", err)
		return
	}

	a.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           events.TypeScanCompleted,
		Source:         "scan-activity",
		Version:        events.SchemaVersion,
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", events.TypeScanCompleted, wfCtx.WorkflowID, wfCtx.ActivityID),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, "ScanCompleted")
}
