package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const (
	truncationMarker = "..."
	unknownFileLabel = "unknown file"
)

// ContextAssembler renders ranked chunks into a prompt context under a
// character budget. Blocks are added greedily in rank order; an earlier
// block is never dropped to make room for a later one.
type ContextAssembler struct {
	maxContextChars int
	maxChunkChars   int
}

// NewContextAssembler creates an assembler. Non-positive limits use the defaults.
func NewContextAssembler(maxContextChars, maxChunkChars int) *ContextAssembler {
	if maxContextChars <= 0 {
		maxContextChars = domain.DefaultMaxContextChars
	}
	if maxChunkChars <= 0 {
		maxChunkChars = domain.DefaultMaxChunkChars
	}
	return &ContextAssembler{
		maxContextChars: maxContextChars,
		maxChunkChars:   maxChunkChars,
	}
}

// MaxContextChars returns the total budget.
func (a *ContextAssembler) MaxContextChars() int {
	return a.maxContextChars
}

// MaxChunkChars returns the per-chunk limit.
func (a *ContextAssembler) MaxChunkChars() int {
	return a.maxChunkChars
}

// Assemble formats results as numbered document blocks joined by newlines.
// The returned string is at most MaxContextChars runes long. An empty
// result list yields domain.NoDocumentsMessage.
func (a *ContextAssembler) Assemble(results []domain.RetrievedChunk) string {
	if len(results) == 0 {
		return domain.NoDocumentsMessage
	}

	parts := make([]string, 0, len(results))
	total := 0
	for i, r := range results {
		block := fmt.Sprintf("Document %d (%s):\n%s\n", i+1, label(r.Metadata), a.truncate(r.Text))

		cost := utf8.RuneCountInString(block)
		if len(parts) > 0 {
			cost++ // join separator
		}
		if total+cost > a.maxContextChars {
			break
		}

		parts = append(parts, block)
		total += cost
	}

	return strings.Join(parts, "\n")
}

// truncate cuts text to maxChunkChars runes and marks the cut.
func (a *ContextAssembler) truncate(text string) string {
	if utf8.RuneCountInString(text) <= a.maxChunkChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:a.maxChunkChars]) + truncationMarker
}

func label(m domain.Metadata) string {
	if name := m.String(domain.MetaFilename); name != "" {
		return name
	}
	return unknownFileLabel
}
