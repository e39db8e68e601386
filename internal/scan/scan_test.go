package scan_test

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/scan"
	"github.com/ahrav/go-quizgen/pkg/activity"
	"github.com/ahrav/go-quizgen/pkg/events"
)

// fakeTracker implements scan.Tracker in memory.
type fakeTracker struct {
	mu        sync.Mutex
	completed map[string]bool
	scans     [][2]int
}

func newFakeTracker(completedKeys ...string) *fakeTracker {
	completed := make(map[string]bool, len(completedKeys))
	for _, key := range completedKeys {
		completed[key] = true
	}
	return &fakeTracker{completed: completed}
}

func (f *fakeTracker) IsCompleted(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed[key], nil
}

func (f *fakeTracker) RecordScan(found, queued int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, [2]int{found, queued})
	return nil
}

func (f *fakeTracker) markCompleted(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[key] = true
}

// touch creates a placeholder document. It is not a valid zip, which is
// fine: metadata extraction fails open and identity comes from the name.
func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644))
}

func writeRealDocx(t *testing.T, dir, name, title, subject string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	body, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = body.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>contenido</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	core, err := zw.Create("docProps/core.xml")
	require.NoError(t, err)
	_, err = core.Write([]byte(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>` + title + `</dc:title><dc:subject>` + subject + `</dc:subject></cp:coreProperties>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func newScanner(t *testing.T, dir string, tracker scan.Tracker) *scan.Scanner {
	t.Helper()
	scanner, err := scan.NewScanner(dir, tracker, nil)
	require.NoError(t, err)
	return scanner
}

func TestScanner_QueuesDocumentsInDirectoryOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "PEP-PRO-1141 V.2.docx")
	touch(t, dir, "PRO-SEG-001.docx")
	touch(t, dir, "~$PEP-PRO-1141 V.2.docx")
	touch(t, dir, "notas.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archivo"), 0o755))
	touch(t, filepath.Join(dir, "archivo"), "PRO-SEG-002.docx")

	tracker := newFakeTracker()
	result, err := newScanner(t, dir, tracker).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.FoundFiles)
	require.Len(t, result.Queue, 2)

	first := result.Queue[0]
	assert.Equal(t, "PEP-PRO-1141", first.Identity.Code)
	assert.Equal(t, 2, first.Identity.Version)
	assert.Equal(t, filepath.Join(dir, "PEP-PRO-1141 V.2.docx"), first.Path)
	assert.Empty(t, first.Err)

	second := result.Queue[1]
	assert.Equal(t, "PRO-SEG-001", second.Identity.Code)
	assert.Equal(t, 1, second.Identity.Version)
}

func TestScanner_ExcludesCompletedRevisions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "PEP-PRO-1141 V.2.docx")
	touch(t, dir, "PRO-SEG-001.docx")

	tracker := newFakeTracker("PEP-PRO-1141_v2")
	result, err := newScanner(t, dir, tracker).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.FoundFiles)
	require.Len(t, result.Queue, 1)
	assert.Equal(t, "PRO-SEG-001", result.Queue[0].Identity.Code)
}

func TestScanner_SecondScanAfterCompletionIsEmpty(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "PEP-PRO-1141 V.2.docx")
	touch(t, dir, "PRO-SEG-001.docx")

	tracker := newFakeTracker()
	scanner := newScanner(t, dir, tracker)

	first, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Queue, 2)

	for _, item := range first.Queue {
		tracker.markCompleted(item.Identity.TrackingKey())
	}

	second, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.FoundFiles)
	assert.Empty(t, second.Queue)
}

func TestScanner_UnrecognizedNameQueuesSentinel(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "informe final.docx")

	tracker := newFakeTracker()
	result, err := newScanner(t, dir, tracker).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Queue, 1)
	item := result.Queue[0]
	assert.Equal(t, domain.SentinelCode, item.Identity.Code)
	assert.NotEmpty(t, item.Err)
}

func TestScanner_RecoversEmbeddedCode(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Copia de PEP-PRO-1141 V.3 (rev).docx")

	tracker := newFakeTracker()
	result, err := newScanner(t, dir, tracker).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Queue, 1)
	item := result.Queue[0]
	assert.Equal(t, "PEP-PRO-1141", item.Identity.Code)
	assert.Equal(t, 3, item.Identity.Version)
	assert.Empty(t, item.Err)
}

func TestScanner_ReadsCosmeticMetadata(t *testing.T) {
	dir := t.TempDir()
	writeRealDocx(t, dir, "PRO-SEG-005.docx", "Trabajo en Alturas", "Seguridad Industrial")

	tracker := newFakeTracker()
	result, err := newScanner(t, dir, tracker).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Queue, 1)
	assert.Equal(t, "Trabajo en Alturas", result.Queue[0].Title)
	assert.Equal(t, "Seguridad Industrial", result.Queue[0].Scope)
}

func TestScanner_MissingDirectoryIsEmptyNotFatal(t *testing.T) {
	tracker := newFakeTracker()
	scanner := newScanner(t, filepath.Join(t.TempDir(), "nope"), tracker)

	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.FoundFiles)
	assert.Empty(t, result.Queue)
	require.Len(t, tracker.scans, 1)
	assert.Equal(t, [2]int{0, 0}, tracker.scans[0])
}

func TestScanner_RecordsScanHistory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "PEP-PRO-1141 V.2.docx")
	touch(t, dir, "PRO-SEG-001.docx")

	tracker := newFakeTracker("PRO-SEG-001_v1")
	_, err := newScanner(t, dir, tracker).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, tracker.scans, 1)
	assert.Equal(t, [2]int{2, 1}, tracker.scans[0])
}

// capturingSink records emitted envelopes.
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

func TestActivities_ScanDocuments(t *testing.T) {
	defaultDir := t.TempDir()
	touch(t, defaultDir, "PRO-SEG-001.docx")
	overrideDir := t.TempDir()
	touch(t, overrideDir, "PEP-PRO-1141 V.2.docx")
	touch(t, overrideDir, "PEP-PRO-1142.docx")

	tracker := newFakeTracker()
	sink := &capturingSink{}
	acts := scan.NewActivities(activity.NewBaseActivities(sink), newScanner(t, defaultDir, tracker))

	result, err := acts.ScanDocuments(context.Background(), scan.ScanDocumentsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FoundFiles)

	result, err = acts.ScanDocuments(context.Background(), scan.ScanDocumentsInput{SourceDir: overrideDir})
	require.NoError(t, err)
	assert.Equal(t, 2, result.FoundFiles)
	require.Len(t, result.Queue, 2)

	require.Len(t, sink.envelopes, 2)
	assert.Equal(t, events.TypeScanCompleted, sink.envelopes[0].Type)
}
