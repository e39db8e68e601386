// Package scan discovers procedure documents that still need question
// generation. A scan enumerates the source directory, derives each
// document's identity from its filename, drops revisions already recorded
// as completed, and returns the remainder as an ordered queue.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-quizgen/internal/document"
	"github.com/ahrav/go-quizgen/internal/domain"
)

// Tracker is the slice of the tracking store a scan needs: completed-key
// lookups for exclusion and scan-history recording.
type Tracker interface {
	IsCompleted(key string) (bool, error)
	RecordScan(found, queued int) error
}

// ScanResult reports one directory scan. FoundFiles counts the candidate
// documents seen; Queue holds those still awaiting generation, in
// directory order.
type ScanResult struct {
	FoundFiles int                `json:"found_files"`
	Queue      []domain.QueueItem `json:"queue"`
}

// Scanner enumerates a source directory of .docx procedures.
type Scanner struct {
	sourceDir string
	tracker   Tracker
	logger    *slog.Logger
}

// NewScanner builds a scanner over sourceDir using tracker for completed
// lookups.
func NewScanner(sourceDir string, tracker Tracker, logger *slog.Logger) (*Scanner, error) {
	if sourceDir == "" {
		return nil, fmt.Errorf("scanner: source directory is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("scanner: tracker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		sourceDir: sourceDir,
		tracker:   tracker,
		logger:    logger.With("component", "scan"),
	}, nil
}

// Scan enumerates the configured source directory.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	return s.ScanDir(ctx, s.sourceDir)
}

// ScanDir enumerates dir (non-recursive) and queues every .docx whose
// tracking key is not completed. Documents with unparseable names are
// queued under the sentinel identity with the error flag set so the run
// reports them explicitly instead of dropping them. A missing directory
// yields an empty result, not an error.
func (s *Scanner) ScanDir(ctx context.Context, dir string) (*ScanResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("source directory does not exist", "dir", dir)
			if recErr := s.tracker.RecordScan(0, 0); recErr != nil {
				return nil, fmt.Errorf("record scan: %w", recErr)
			}
			return &ScanResult{}, nil
		}
		return nil, fmt.Errorf("read source directory %s: %w", dir, err)
	}

	result := &ScanResult{}
	skippedCompleted := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".docx") || document.IsTemporary(name) {
			continue
		}
		result.FoundFiles++

		path := filepath.Join(dir, name)
		identity, ok := domain.ParseProcedureFilename(name)
		item := domain.QueueItem{Identity: identity, Path: path}

		if !ok {
			item.Err = fmt.Sprintf("unrecognized procedure filename %q", name)
			s.logger.Warn("queueing document with unrecognized name", "file", name)
			result.Queue = append(result.Queue, item)
			continue
		}

		completed, err := s.tracker.IsCompleted(identity.TrackingKey())
		if err != nil {
			return nil, fmt.Errorf("tracking lookup for %s: %w", identity.TrackingKey(), err)
		}
		if completed {
			skippedCompleted++
			continue
		}

		// Title and scope are cosmetic; extraction failures leave them
		// empty and never exclude the document.
		if meta, err := document.ReadMetadata(path); err == nil {
			item.Title = meta.Title
			item.Scope = meta.Subject
		}

		result.Queue = append(result.Queue, item)
	}

	if err := s.tracker.RecordScan(result.FoundFiles, len(result.Queue)); err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}

	s.logger.Info("scan completed",
		"dir", dir,
		"found", result.FoundFiles,
		"queued", len(result.Queue),
		"skipped_completed", skippedCompleted)
	return result, nil
}
