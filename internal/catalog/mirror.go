package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ahrav/go-quizgen/internal/domain"
)

// mirrorMetadata is the totals block at the head of the mirror document.
type mirrorMetadata struct {
	TotalProcedures int       `json:"total_procedimientos"`
	TotalQuestions  int       `json:"total_preguntas"`
	LastUpdated     time.Time `json:"actualizado_en"`
}

// mirrorEntry is one procedure revision's slice of the mirror. Question
// content reuses the domain's wire keys.
type mirrorEntry struct {
	Code      string            `json:"codigo"`
	Version   int               `json:"version"`
	Name      string            `json:"nombre,omitempty"`
	Scope     string            `json:"alcance,omitempty"`
	Objective string            `json:"objetivo,omitempty"`
	BatchID   string            `json:"batch_id"`
	SyncedAt  time.Time         `json:"synced_at"`
	Questions []domain.Question `json:"preguntas"`
}

// mirrorFile is the on-disk shape of the JSON mirror, keyed by
// TrackingKey.
type mirrorFile struct {
	Metadata   mirrorMetadata         `json:"metadata"`
	Procedures map[string]mirrorEntry `json:"procedimientos"`
}

// writeMirror loads the mirror, replaces this revision's entry, recomputes
// the metadata block, and rewrites the whole document atomically.
func (s *Store) writeMirror(batch *domain.Batch, info ProcedureInfo, questions []domain.Question) error {
	mirror, err := s.loadMirror()
	if err != nil {
		return err
	}

	mirror.Procedures[batch.Procedure.TrackingKey()] = mirrorEntry{
		Code:      batch.Procedure.Code,
		Version:   batch.Procedure.Version,
		Name:      info.Name,
		Scope:     info.Scope,
		Objective: info.Objective,
		BatchID:   batch.ID,
		SyncedAt:  time.Now().UTC(),
		Questions: questions,
	}

	totalQuestions := 0
	for _, entry := range mirror.Procedures {
		totalQuestions += len(entry.Questions)
	}
	mirror.Metadata = mirrorMetadata{
		TotalProcedures: len(mirror.Procedures),
		TotalQuestions:  totalQuestions,
		LastUpdated:     time.Now().UTC(),
	}

	data, err := json.MarshalIndent(mirror, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	return writeFileAtomic(s.mirrorPath, data)
}

// loadMirror reads the mirror file. Missing yields an empty document; a
// file that exists but cannot be parsed is an error, never silently
// replaced.
func (s *Store) loadMirror() (*mirrorFile, error) {
	data, err := os.ReadFile(s.mirrorPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &mirrorFile{Procedures: make(map[string]mirrorEntry)}, nil
		}
		return nil, fmt.Errorf("read mirror %s: %w", s.mirrorPath, err)
	}

	var mirror mirrorFile
	if err := json.Unmarshal(data, &mirror); err != nil {
		return nil, fmt.Errorf("parse mirror %s: %w", s.mirrorPath, err)
	}
	if mirror.Procedures == nil {
		mirror.Procedures = make(map[string]mirrorEntry)
	}
	return &mirror, nil
}

// writeFileAtomic writes data through a temp file in the destination
// directory, fsync, close, rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".mirror-*")
	if err != nil {
		return fmt.Errorf("create temp mirror file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp mirror file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp mirror file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp mirror file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace mirror file %s: %w", path, err)
	}
	return nil
}
