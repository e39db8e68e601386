// Package document reads Word procedure documents. A .docx file is a zip
// archive: body text lives in word/document.xml as w:t runs grouped into
// w:p paragraphs, and authoring metadata in docProps/core.xml.
package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	bodyEntry           = "word/document.xml"
	corePropertiesEntry = "docProps/core.xml"
)

// ErrNoBody means the archive opened as a zip but carries no
// word/document.xml, so there is no text to extract.
var ErrNoBody = errors.New("docx missing document body")

// Metadata is the subset of docProps/core.xml surfaced on queue items.
// The fields are cosmetic; parse failures leave them empty.
type Metadata struct {
	Title   string `json:"title,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Document holds the extracted content of one .docx file.
type Document struct {
	Text     string
	Metadata Metadata
}

// IsTemporary reports whether name denotes an editor artifact rather than
// a document: Office lock files ("~$...") and temp saves (".tmp").
func IsTemporary(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return true
	}
	return strings.EqualFold(filepath.Ext(base), ".tmp")
}

// Read opens the .docx at path and extracts its paragraph text and core
// metadata. A missing body is an error; missing or malformed metadata is
// not.
func Read(path string) (*Document, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer archive.Close()

	doc := &Document{}
	bodyFound := false
	for _, entry := range archive.File {
		switch entry.Name {
		case bodyEntry:
			text, err := extractText(entry)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			doc.Text = text
			bodyFound = true
		case corePropertiesEntry:
			if meta, err := extractMetadata(entry); err == nil {
				doc.Metadata = meta
			}
		}
	}
	if !bodyFound {
		return nil, fmt.Errorf("read %s: %w", path, ErrNoBody)
	}
	return doc, nil
}

// ReadMetadata extracts only the core metadata. Scans use it to decorate
// queue items without decoding whole document bodies.
func ReadMetadata(path string) (Metadata, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if entry.Name != corePropertiesEntry {
			continue
		}
		if meta, err := extractMetadata(entry); err == nil {
			return meta, nil
		}
		return Metadata{}, nil
	}
	return Metadata{}, nil
}

// extractText streams word/document.xml and collects the visible text:
// w:t holds character runs, w:tab and w:br render as whitespace, and each
// closed w:p paragraph ends a line.
func extractText(entry *zip.File) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", entry.Name, err)
	}
	defer rc.Close()

	var text strings.Builder
	decoder := xml.NewDecoder(rc)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", entry.Name, err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "t":
				var run string
				if err := decoder.DecodeElement(&run, &tok); err != nil {
					return "", fmt.Errorf("decode %s: %w", entry.Name, err)
				}
				text.WriteString(run)
			case "tab":
				text.WriteByte('\t')
			case "br":
				text.WriteByte('\n')
			}
		case xml.EndElement:
			if tok.Name.Local == "p" {
				text.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func extractMetadata(entry *zip.File) (Metadata, error) {
	rc, err := entry.Open()
	if err != nil {
		return Metadata{}, err
	}
	defer rc.Close()

	var props struct {
		Title   string `xml:"title"`
		Subject string `xml:"subject"`
	}
	if err := xml.NewDecoder(rc).Decode(&props); err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Title:   strings.TrimSpace(props.Title),
		Subject: strings.TrimSpace(props.Subject),
	}, nil
}
