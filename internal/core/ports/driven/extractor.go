package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// TextExtractor turns a file into plain text plus scalar extraction metadata.
// The pipeline treats the text as opaque.
type TextExtractor interface {
	// Extract reads the file at path and returns its text.
	// Metadata typically carries domain.MetaConversionMethod.
	Extract(ctx context.Context, path string) (string, domain.Metadata, error)

	// Supports reports whether the extractor handles the file at path.
	Supports(path string) bool
}
