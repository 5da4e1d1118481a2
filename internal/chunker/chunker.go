// Package chunker splits extracted text into overlapping, word-boundary
// respecting chunks of bounded size.
package chunker

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Chunker splits text into chunks. Lengths are counted in runes.
// A Chunker is immutable and safe for concurrent use.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker with the given options.
// Returns an error wrapping domain.ErrChunkingConfig unless
// chunk size is positive and 0 <= overlap < chunk size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	cfg := domain.ChunkingSettings{Size: c.chunkSize, Overlap: c.overlap}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ChunkSize returns the configured maximum chunk length.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into an ordered list of chunks.
//
// Text no longer than the chunk size comes back as a single stripped chunk,
// so empty text yields one empty chunk. Longer text is cut into windows of
// chunk size whose right edge is pulled back to the last space inside the
// window, each window starting overlap characters before the previous end.
// Whitespace-only windows are dropped.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	n := len(runes)

	if n <= c.chunkSize {
		return []string{strings.TrimSpace(text)}
	}

	chunks := make([]string, 0, n/(c.chunkSize-c.overlap)+1)
	start := 0

	for start < n {
		end := start + c.chunkSize

		if end < n {
			// Snap back to the last space strictly after start.
			for i := end - 1; i > start; i-- {
				if runes[i] == ' ' {
					end = i
					break
				}
			}
		}

		stop := end
		if stop > n {
			stop = n
		}
		if chunk := strings.TrimSpace(string(runes[start:stop])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - c.overlap
		if next <= start {
			// A snapped window shorter than the overlap would never advance.
			next = end
		}
		start = next
	}

	return chunks
}
