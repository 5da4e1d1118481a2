// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// ConversionMethod is recorded in extraction metadata.
const ConversionMethod = "docx"

// Extractor handles DOCX files.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Supports reports whether the file has a .docx extension.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".docx")
}

// Extract opens the archive and joins paragraph text with newlines.
func (e *Extractor) Extract(ctx context.Context, path string) (string, domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s is not a valid docx archive: %w", domain.ErrInvalidInput, filepath.Base(path), err)
	}
	defer reader.Close()

	content, err := readPart(&reader.Reader, "word/document.xml")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, filepath.Base(path), err)
	}
	if content == nil {
		return "", nil, fmt.Errorf("%w: %s has no word/document.xml", domain.ErrInvalidInput, filepath.Base(path))
	}

	text, err := parseDocumentXML(content)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: parsing document.xml: %w", domain.ErrInvalidInput, filepath.Base(path), err)
	}

	meta := domain.Metadata{domain.MetaConversionMethod: ConversionMethod}
	if title := readTitle(&reader.Reader); title != "" {
		meta[domain.MetaTitle] = title
	}
	return text, meta, nil
}

// readPart returns the bytes of a named archive member, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts paragraph text, one paragraph per line.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				result.WriteString(t.Content)
			}
		}
	}

	return strings.TrimSpace(result.String()), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// readTitle returns the document title, or "" if there is none.
func readTitle(reader *zip.Reader) string {
	content, err := readPart(reader, "docProps/core.xml")
	if err != nil || content == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
