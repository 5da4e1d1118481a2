package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RetrievalService runs the ingest and query halves of the pipeline.
type RetrievalService interface {
	// Ingest chunks, embeds and stores a document's text.
	// If embedding fails nothing is stored. A storage failure part-way
	// through returns the partial result together with the error.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestFile extracts text from a file and ingests it.
	IngestFile(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestResult, error)

	// Retrieve embeds the question and returns the nearest chunks.
	// topK <= 0 uses the configured default.
	Retrieve(ctx context.Context, question string, topK int, collection string) ([]domain.RetrievedChunk, error)

	// DeleteDocument removes every chunk of a document. Idempotent.
	DeleteDocument(ctx context.Context, documentID, collection string) (int, error)

	// Clear empties a collection.
	Clear(ctx context.Context, collection string) error

	// AssembleContext renders ranked chunks into a bounded prompt context.
	AssembleContext(results []domain.RetrievedChunk) string
}
