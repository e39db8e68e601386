// Package catalog persists approved batches into the deliverable store:
// an xlsx workbook holding the Procedures and Questions sheets, and a JSON
// mirror of the same data rewritten in full on every sync. Both targets
// are load-modify-save with no transaction; the design assumes a single
// syncing process, serialized by a process-local mutex.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ahrav/go-quizgen/internal/domain"
)

// Sheet layout of the deliverable workbook.
const (
	proceduresSheet = "Procedures"
	questionsSheet  = "Questions"

	// defaultSheetName is the sheet a fresh workbook starts with; it is
	// dropped once the real sheets exist.
	defaultSheetName = "Sheet1"
)

var (
	proceduresHeader = []interface{}{"Código", "Nombre", "Alcance", "Objetivo"}
	questionsHeader  = []interface{}{"Código", "Pregunta", "Opción A", "Opción B", "Opción C", "Opción D"}
)

// ProcedureInfo is the catalog-facing description of a procedure. All
// fields are cosmetic; identity and dedupe run off the batch's own
// procedure code.
type ProcedureInfo struct {
	Name      string `json:"name,omitempty"`
	Scope     string `json:"scope,omitempty"`
	Objective string `json:"objective,omitempty"`
}

// SyncResult reports what one sync pass wrote.
type SyncResult struct {
	Success        bool   `json:"success"`
	ProcedureAdded bool   `json:"procedure_added"`
	QuestionsAdded int    `json:"questions_added"`
	CatalogPath    string `json:"catalog_path"`
	MirrorPath     string `json:"mirror_path"`
}

// Store writes the deliverable catalog and its JSON mirror.
type Store struct {
	mu          sync.Mutex
	catalogPath string
	mirrorPath  string
	logger      *slog.Logger
}

// NewStore returns a store writing the workbook to catalogPath and the
// mirror to mirrorPath. Files and directories are created lazily on the
// first sync.
func NewStore(catalogPath, mirrorPath string, logger *slog.Logger) (*Store, error) {
	if catalogPath == "" || mirrorPath == "" {
		return nil, fmt.Errorf("catalog store: catalog and mirror paths are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		catalogPath: catalogPath,
		mirrorPath:  mirrorPath,
		logger:      logger.With("component", "catalog"),
	}, nil
}

// Sync commits one processed batch: the procedure row (deduped by code)
// and every deliverable question are appended to the workbook, the JSON
// mirror is rewritten, and the batch moves to synced. The two writes are
// not transactional; a failure between them is reported to the caller and
// never rolled back.
func (s *Store) Sync(batch *domain.Batch, info ProcedureInfo) (*SyncResult, error) {
	if batch == nil {
		return nil, fmt.Errorf("catalog store: batch is required")
	}
	questions := batch.DeliverableQuestions()
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog store: batch %s has no deliverable questions", batch.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	procedureAdded, err := s.appendWorkbook(batch.Procedure, info, questions)
	if err != nil {
		return nil, err
	}
	if err := s.writeMirror(batch, info, questions); err != nil {
		return nil, err
	}

	batch.Status = domain.StatusSynced
	batch.Touch(time.Now())

	s.logger.Info("batch synced",
		"batch_id", batch.ID,
		"procedure", batch.Procedure.Code,
		"procedure_added", procedureAdded,
		"questions_added", len(questions))
	return &SyncResult{
		Success:        true,
		ProcedureAdded: procedureAdded,
		QuestionsAdded: len(questions),
		CatalogPath:    s.catalogPath,
		MirrorPath:     s.mirrorPath,
	}, nil
}

// appendWorkbook loads the workbook, appends the procedure row when its
// code is new, appends one row per deliverable question, and saves.
func (s *Store) appendWorkbook(identity domain.ProcedureIdentity, info ProcedureInfo, questions []domain.Question) (bool, error) {
	book, created, err := s.openWorkbook()
	if err != nil {
		return false, err
	}
	defer func() { _ = book.Close() }()

	rows, err := book.GetRows(proceduresSheet)
	if err != nil {
		return false, fmt.Errorf("read %s sheet: %w", proceduresSheet, err)
	}
	procedureAdded := false
	if !containsCode(rows, identity.Code) {
		cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
		if err != nil {
			return false, err
		}
		row := []interface{}{identity.Code, info.Name, info.Scope, info.Objective}
		if err := book.SetSheetRow(proceduresSheet, cell, &row); err != nil {
			return false, fmt.Errorf("append procedure row: %w", err)
		}
		procedureAdded = true
	}

	qrows, err := book.GetRows(questionsSheet)
	if err != nil {
		return false, fmt.Errorf("read %s sheet: %w", questionsSheet, err)
	}
	next := len(qrows) + 1
	for i := range questions {
		q := &questions[i]
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return false, err
		}
		row := make([]interface{}, 0, 2+len(q.Options))
		row = append(row, identity.Code, q.Text)
		for _, opt := range q.Options {
			row = append(row, opt)
		}
		if err := book.SetSheetRow(questionsSheet, cell, &row); err != nil {
			return false, fmt.Errorf("append question row: %w", err)
		}
		next++
	}

	if created {
		if err := os.MkdirAll(filepath.Dir(s.catalogPath), 0o755); err != nil {
			return false, fmt.Errorf("create catalog dir: %w", err)
		}
		if err := book.SaveAs(s.catalogPath); err != nil {
			return false, fmt.Errorf("write catalog %s: %w", s.catalogPath, err)
		}
		return procedureAdded, nil
	}
	if err := book.Save(); err != nil {
		return false, fmt.Errorf("write catalog %s: %w", s.catalogPath, err)
	}
	return procedureAdded, nil
}

// openWorkbook opens the catalog workbook, building the sheet layout when
// the file or either sheet is missing. The second result reports a fresh
// workbook that must be written with SaveAs.
func (s *Store) openWorkbook() (*excelize.File, bool, error) {
	book, err := excelize.OpenFile(s.catalogPath)
	if err == nil {
		if err := ensureSheets(book); err != nil {
			_ = book.Close()
			return nil, false, err
		}
		return book, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("open catalog %s: %w", s.catalogPath, err)
	}

	book = excelize.NewFile()
	if err := ensureSheets(book); err != nil {
		_ = book.Close()
		return nil, false, err
	}
	_ = book.DeleteSheet(defaultSheetName)
	return book, true, nil
}

// ensureSheets creates any missing sheet with its header row.
func ensureSheets(book *excelize.File) error {
	for _, sheet := range []struct {
		name   string
		header []interface{}
	}{
		{proceduresSheet, proceduresHeader},
		{questionsSheet, questionsHeader},
	} {
		idx, err := book.GetSheetIndex(sheet.name)
		if err != nil {
			return fmt.Errorf("inspect sheet %s: %w", sheet.name, err)
		}
		if idx >= 0 {
			continue
		}
		if _, err := book.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		header := sheet.header
		if err := book.SetSheetRow(sheet.name, "A1", &header); err != nil {
			return fmt.Errorf("write %s header: %w", sheet.name, err)
		}
	}
	return nil
}

// containsCode reports whether any data row records code in its first
// column. The first row is the header.
func containsCode(rows [][]string, code string) bool {
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 0 && row[0] == code {
			return true
		}
	}
	return false
}
