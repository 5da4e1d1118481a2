package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func chunkFor(text, filename string) domain.RetrievedChunk {
	meta := domain.Metadata{}
	if filename != "" {
		meta[domain.MetaFilename] = filename
	}
	return domain.RetrievedChunk{Text: text, Metadata: meta}
}

func TestContextAssembler_Defaults(t *testing.T) {
	a := NewContextAssembler(0, -1)

	assert.Equal(t, domain.DefaultMaxContextChars, a.MaxContextChars())
	assert.Equal(t, domain.DefaultMaxChunkChars, a.MaxChunkChars())
}

func TestContextAssembler_Empty(t *testing.T) {
	a := NewContextAssembler(100, 50)

	assert.Equal(t, domain.NoDocumentsMessage, a.Assemble(nil))
	assert.Equal(t, domain.NoDocumentsMessage, a.Assemble([]domain.RetrievedChunk{}))
}

func TestContextAssembler_Format(t *testing.T) {
	a := NewContextAssembler(1000, 100)

	got := a.Assemble([]domain.RetrievedChunk{
		chunkFor("alpha text", "a.txt"),
		chunkFor("beta text", ""),
	})

	want := "Document 1 (a.txt):\nalpha text\n" + "\n" + "Document 2 (unknown file):\nbeta text\n"
	assert.Equal(t, want, got)
}

func TestContextAssembler_TruncatesChunks(t *testing.T) {
	a := NewContextAssembler(1000, 5)

	got := a.Assemble([]domain.RetrievedChunk{chunkFor("abcdefghij", "f.md")})

	assert.Equal(t, "Document 1 (f.md):\nabcde...\n", got)
}

func TestContextAssembler_TruncatesByRunes(t *testing.T) {
	a := NewContextAssembler(1000, 3)

	got := a.Assemble([]domain.RetrievedChunk{chunkFor("héllo", "f")})

	assert.Contains(t, got, "hél...")
	assert.True(t, utf8.ValidString(got))
}

func TestContextAssembler_StopsAtBudget(t *testing.T) {
	first := chunkFor(strings.Repeat("a", 40), "one")
	second := chunkFor(strings.Repeat("b", 40), "two")
	blockLen := utf8.RuneCountInString("Document 1 (one):\n" + strings.Repeat("a", 40) + "\n")

	t.Run("separator counts against the budget", func(t *testing.T) {
		// Two blocks plus the joining newline need 2*blockLen+1.
		a := NewContextAssembler(2*blockLen, 100)
		got := a.Assemble([]domain.RetrievedChunk{first, second})
		assert.NotContains(t, got, "Document 2")
		assert.Contains(t, got, "Document 1")
	})

	t.Run("exact fit", func(t *testing.T) {
		a := NewContextAssembler(2*blockLen+1, 100)
		got := a.Assemble([]domain.RetrievedChunk{first, second})
		assert.Contains(t, got, "Document 2")
		assert.Equal(t, 2*blockLen+1, utf8.RuneCountInString(got))
	})
}

func TestContextAssembler_FirstBlockTooLarge(t *testing.T) {
	a := NewContextAssembler(10, 100)

	got := a.Assemble([]domain.RetrievedChunk{chunkFor(strings.Repeat("x", 50), "big")})

	assert.Empty(t, got)
}

func TestContextAssembler_NeverExceedsBudget(t *testing.T) {
	results := make([]domain.RetrievedChunk, 0, 20)
	for i := 0; i < 20; i++ {
		results = append(results, chunkFor(strings.Repeat("word ", 30+i*7), "doc.txt"))
	}

	for _, budget := range []int{50, 200, 333, 1000, 3000} {
		a := NewContextAssembler(budget, 120)
		got := a.Assemble(results)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), budget, "budget %d", budget)
		if budget >= 200 {
			// The top-ranked chunk always fits under these budgets.
			assert.True(t, strings.HasPrefix(got, "Document 1 (doc.txt):\n"), "budget %d", budget)
		}
	}
}

func TestContextAssembler_GreedyOrder(t *testing.T) {
	a := NewContextAssembler(60, 100)
	results := []domain.RetrievedChunk{
		chunkFor("short", "a"),
		chunkFor(strings.Repeat("z", 80), "b"),
		chunkFor("tiny", "c"),
	}

	got := a.Assemble(results)

	// Assembly stops at the first block that does not fit.
	assert.Contains(t, got, "Document 1 (a)")
	assert.NotContains(t, got, "(b)")
	assert.NotContains(t, got, "(c)")
}
