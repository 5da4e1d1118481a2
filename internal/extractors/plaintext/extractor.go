// Package plaintext extracts UTF-8 text files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// ConversionMethod is recorded in extraction metadata.
const ConversionMethod = "plaintext"

// Extractor handles plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt"}
}

// Supports reports whether the file has a .txt extension.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// Extract reads the file as UTF-8. A leading byte order mark is dropped.
func (e *Extractor) Extract(ctx context.Context, path string) (string, domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, filepath.Base(path))
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	return text, domain.Metadata{domain.MetaConversionMethod: ConversionMethod}, nil
}
