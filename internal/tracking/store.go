// Package tracking persists per-revision generation outcomes in a single
// JSON file. The file is the scanner's idempotence source: revisions whose
// key is marked completed are never queued again. All access is
// load-mutate-save under one mutex; the design assumes a single worker
// process owns the file.
package tracking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ahrav/go-quizgen/internal/domain"
)

// File is the on-disk shape of the tracking store.
type File struct {
	GeneratedQuestions map[string]domain.TrackingRecord `json:"generated_questions"`
	LastScan           time.Time                        `json:"last_scan"`
	ScanHistory        []domain.ScanHistoryEntry        `json:"scan_history"`
}

// Store reads and writes the tracking file. Writes are atomic (temp file
// in the same directory, then rename) so a crash mid-write never leaves a
// truncated file behind.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewStore returns a store persisting to path. The file and its directory
// are created lazily on first write.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("tracking store: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger.With("component", "tracking")}, nil
}

// Get returns the record stored under key, if any.
func (s *Store) Get(key string) (domain.TrackingRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return domain.TrackingRecord{}, false, err
	}
	rec, ok := file.GeneratedQuestions[key]
	return rec, ok, nil
}

// IsCompleted reports whether key has been recorded as completed. Skipped
// and absent keys both report false; only completed excludes a revision
// from future scans.
func (s *Store) IsCompleted(key string) (bool, error) {
	rec, ok, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return ok && rec.Status == domain.TrackingCompleted, nil
}

// MarkCompleted records a successful run for key, overwriting any prior
// record. The status is forced to completed; a zero SyncedAt is stamped
// with the current time.
func (s *Store) MarkCompleted(key string, rec domain.TrackingRecord) error {
	if key == "" {
		return fmt.Errorf("tracking store: key is required")
	}
	rec.Status = domain.TrackingCompleted
	if rec.SyncedAt.IsZero() {
		rec.SyncedAt = time.Now().UTC()
	}

	return s.update(func(file *File) {
		file.GeneratedQuestions[key] = rec
		s.logger.Info("tracking record completed",
			"key", key,
			"batch_id", rec.BatchID,
			"question_count", rec.QuestionCount)
	})
}

// MarkSkipped records that key was deliberately passed over, with the
// reason preserved for operators.
func (s *Store) MarkSkipped(key, reason string) error {
	if key == "" {
		return fmt.Errorf("tracking store: key is required")
	}

	return s.update(func(file *File) {
		file.GeneratedQuestions[key] = domain.TrackingRecord{
			Status:   domain.TrackingSkipped,
			Reason:   reason,
			SyncedAt: time.Now().UTC(),
		}
		s.logger.Info("tracking record skipped", "key", key, "reason", reason)
	})
}

// RecordScan stamps the last-scan time and appends a scan-history entry,
// keeping only the most recent domain.ScanHistoryLimit entries.
func (s *Store) RecordScan(found, queued int) error {
	now := time.Now().UTC()

	return s.update(func(file *File) {
		file.LastScan = now
		file.ScanHistory = append(file.ScanHistory, domain.ScanHistoryEntry{
			Timestamp: now,
			Found:     found,
			Queued:    queued,
		})
		if n := len(file.ScanHistory); n > domain.ScanHistoryLimit {
			file.ScanHistory = file.ScanHistory[n-domain.ScanHistoryLimit:]
		}
	})
}

// History returns the retained scan summaries, newest last.
func (s *Store) History() ([]domain.ScanHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScanHistoryEntry, len(file.ScanHistory))
	copy(out, file.ScanHistory)
	return out, nil
}

// update runs one load-mutate-save cycle under the store lock.
func (s *Store) update(mutate func(*File)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}
	mutate(file)
	return s.save(file)
}

// load reads the tracking file. A missing file yields an empty store; a
// file that exists but cannot be parsed is an error, never silently
// replaced.
func (s *Store) load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{GeneratedQuestions: make(map[string]domain.TrackingRecord)}, nil
		}
		return nil, fmt.Errorf("read tracking file %s: %w", s.path, err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tracking file %s: %w", s.path, err)
	}
	if file.GeneratedQuestions == nil {
		file.GeneratedQuestions = make(map[string]domain.TrackingRecord)
	}
	return &file, nil
}

// save writes the file atomically: temp file in the destination directory,
// fsync, close, rename.
func (s *Store) save(file *File) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tracking file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tracking dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tracking-*")
	if err != nil {
		return fmt.Errorf("create temp tracking file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp tracking file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp tracking file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp tracking file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace tracking file %s: %w", s.path, err)
	}
	return nil
}
