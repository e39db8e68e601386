package document_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-quizgen/internal/document"
)

const sampleBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Objetivo</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Definir los lineamientos </w:t></w:r><w:r><w:t>de seguridad.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Paso 1</w:t><w:tab/><w:t>Verificar EPP</w:t></w:r></w:p>
  </w:body>
</w:document>`

const sampleCore = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Procedimiento de Trabajo en Alturas</dc:title>
  <dc:subject>Seguridad Industrial</dc:subject>
  <dc:creator>HSE</dc:creator>
</cp:coreProperties>`

// writeDocx assembles a zip archive from the given entries and writes it
// under dir.
func writeDocx(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for entryName, content := range entries {
		w, err := zw.Create(entryName)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestRead_ExtractsParagraphText(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "PRO-SEG-001.docx", map[string]string{
		"word/document.xml":   sampleBody,
		"docProps/core.xml":   sampleCore,
		"word/settings.xml":   `<w:settings/>`,
		"[Content_Types].xml": `<Types/>`,
	})

	doc, err := document.Read(path)
	require.NoError(t, err)

	want := "Objetivo\nDefinir los lineamientos de seguridad.\nPaso 1\tVerificar EPP"
	assert.Equal(t, want, doc.Text)
	assert.Equal(t, "Procedimiento de Trabajo en Alturas", doc.Metadata.Title)
	assert.Equal(t, "Seguridad Industrial", doc.Metadata.Subject)
}

func TestRead_MissingCorePropertiesLeavesMetadataEmpty(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "PRO-SEG-002.docx", map[string]string{
		"word/document.xml": sampleBody,
	})

	doc, err := document.Read(path)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Text)
	assert.Empty(t, doc.Metadata.Title)
	assert.Empty(t, doc.Metadata.Subject)
}

func TestRead_MalformedCorePropertiesIsIgnored(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "PRO-SEG-003.docx", map[string]string{
		"word/document.xml": sampleBody,
		"docProps/core.xml": `<unterminated`,
	})

	doc, err := document.Read(path)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Text)
	assert.Empty(t, doc.Metadata.Title)
}

func TestRead_MissingBodyFails(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "PRO-SEG-004.docx", map[string]string{
		"docProps/core.xml": sampleCore,
	})

	_, err := document.Read(path)
	require.ErrorIs(t, err, document.ErrNoBody)
}

func TestRead_NotAZipFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not an archive"), 0o644))

	_, err := document.Read(path)
	require.Error(t, err)
}

func TestReadMetadata(t *testing.T) {
	dir := t.TempDir()

	withCore := writeDocx(t, dir, "with-core.docx", map[string]string{
		"word/document.xml": sampleBody,
		"docProps/core.xml": sampleCore,
	})
	meta, err := document.ReadMetadata(withCore)
	require.NoError(t, err)
	assert.Equal(t, "Procedimiento de Trabajo en Alturas", meta.Title)
	assert.Equal(t, "Seguridad Industrial", meta.Subject)

	withoutCore := writeDocx(t, dir, "without-core.docx", map[string]string{
		"word/document.xml": sampleBody,
	})
	meta, err = document.ReadMetadata(withoutCore)
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
}

func TestIsTemporary(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"~$PRO-SEG-001.docx", true},
		{"/srv/procedures/~$PRO-SEG-001.docx", true},
		{"autosave.tmp", true},
		{"AUTOSAVE.TMP", true},
		{"PRO-SEG-001.docx", false},
		{"PRO-SEG-001 V.2.docx", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, document.IsTemporary(tt.name), tt.name)
	}
}
