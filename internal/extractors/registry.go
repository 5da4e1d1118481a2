package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/docx"
	"github.com/custodia-labs/sercha-rag/internal/extractors/markdown"
	"github.com/custodia-labs/sercha-rag/internal/extractors/pdf"
	"github.com/custodia-labs/sercha-rag/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Extractor is a TextExtractor that declares the extensions it handles.
type Extractor interface {
	driven.TextExtractor

	// Extensions returns lower-case extensions including the dot.
	Extensions() []string
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// NewDefault creates a registry with the built-in extractors:
// .txt, .md, .markdown, .docx and .pdf (via pdftotext).
func NewDefault() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds an extractor. Later registrations replace earlier ones
// for the same extension.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Extensions returns the supported extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether the file extension is in the allow-list.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[extension(path)]
	return ok
}

// Extract runs the extractor registered for the file's extension.
func (r *Registry) Extract(ctx context.Context, path string) (string, domain.Metadata, error) {
	ext := extension(path)
	e, ok := r.byExt[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return "", nil, fmt.Errorf("%w: %s (supported: %s)",
			domain.ErrUnsupportedType, ext, strings.Join(r.Extensions(), ", "))
	}
	return e.Extract(ctx, path)
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
