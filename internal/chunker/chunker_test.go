package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// numberedWords returns n five-character words ("w000 ", "w001 ", ...).
func numberedWords(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "w%03d ", i%1000)
	}
	return b.String()
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultChunkSize, c.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, c.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		c, err := New(WithChunkSize(500), WithOverlap(50))
		require.NoError(t, err)
		assert.Equal(t, 500, c.ChunkSize())
		assert.Equal(t, 50, c.Overlap())
	})

	t.Run("zero overlap allowed", func(t *testing.T) {
		_, err := New(WithChunkSize(10), WithOverlap(0))
		assert.NoError(t, err)
	})

	invalid := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			assert.Nil(t, c)
			assert.ErrorIs(t, err, domain.ErrChunkingConfig)
		})
	}
}

func TestChunk_ShortText(t *testing.T) {
	c, err := New(WithChunkSize(100), WithOverlap(20))
	require.NoError(t, err)

	assert.Equal(t, []string{"hello world"}, c.Chunk("  hello world \n"))
}

func TestChunk_EmptyText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, []string{""}, c.Chunk(""))
	assert.Equal(t, []string{""}, c.Chunk("   \n\t"))
}

func TestChunk_ExactlyChunkSize(t *testing.T) {
	c, err := New(WithChunkSize(10), WithOverlap(2))
	require.NoError(t, err)

	assert.Equal(t, []string{"abcdefghij"}, c.Chunk("abcdefghij"))
}

func TestChunk_LongTextWithSpaces(t *testing.T) {
	c, err := New(WithChunkSize(1000), WithOverlap(200))
	require.NoError(t, err)

	text := numberedWords(500)
	require.Equal(t, 2500, utf8.RuneCountInString(text))

	chunks := c.Chunk(text)
	require.GreaterOrEqual(t, len(chunks), 3)
	require.LessOrEqual(t, len(chunks), 4)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 1000, "chunk %d too long", i)
		assert.Equal(t, strings.TrimSpace(chunk), chunk, "chunk %d not stripped", i)
		// No word is split by a window boundary.
		for _, word := range strings.Fields(chunk) {
			assert.Len(t, word, 4, "chunk %d has split word %q", i, word)
		}
	}

	// Each chunk starts inside the previous one.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 20 {
			head = head[:20]
		}
		assert.Contains(t, chunks[i-1], head, "chunk %d does not overlap chunk %d", i, i-1)
	}

	assert.True(t, strings.HasPrefix(chunks[0], "w000 w001"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "w499"))
}

func TestChunk_NoSpaces(t *testing.T) {
	c, err := New(WithChunkSize(1000), WithOverlap(200))
	require.NoError(t, err)

	chunks := c.Chunk(strings.Repeat("a", 2500))

	require.Len(t, chunks, 4)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 900)
	assert.Len(t, chunks[3], 100)
}

func TestChunk_CountsRunesNotBytes(t *testing.T) {
	c, err := New(WithChunkSize(5), WithOverlap(0))
	require.NoError(t, err)

	chunks := c.Chunk("ééééééééééé")

	require.Len(t, chunks, 3)
	assert.Equal(t, "ééééé", chunks[0])
	assert.Equal(t, "ééééé", chunks[1])
	assert.Equal(t, "é", chunks[2])
}

func TestChunk_SnapShorterThanOverlapStillTerminates(t *testing.T) {
	c, err := New(WithChunkSize(10), WithOverlap(8))
	require.NoError(t, err)

	chunks := c.Chunk("a " + strings.Repeat("b", 30))

	require.NotEmpty(t, chunks)
	assert.Equal(t, "a", chunks[0])
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
	}
}

func TestChunk_DropsWhitespaceOnlyWindows(t *testing.T) {
	c, err := New(WithChunkSize(5), WithOverlap(0))
	require.NoError(t, err)

	chunks := c.Chunk("abcde" + strings.Repeat(" ", 10) + "fghij")

	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk)
	}
	assert.Equal(t, "abcde", chunks[0])
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "j"))
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(WithChunkSize(120), WithOverlap(30))
	require.NoError(t, err)

	text := numberedWords(200)
	assert.Equal(t, c.Chunk(text), c.Chunk(text))
}
