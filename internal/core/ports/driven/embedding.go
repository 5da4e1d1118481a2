// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingProvider generates vector embeddings from text.
//
// Note: This is separate from VectorStore which stores and searches vectors.
// EmbeddingProvider generates vectors; VectorStore stores them. Vectors from
// different providers must never be mixed in one collection.
//
// Implementations include:
//   - Remote: OpenAI-compatible, Gemini and Ollama endpoints
//   - Local: in-process hashing and word-vector models
type EmbeddingProvider interface {
	// Embed generates one vector per input text, in input order.
	// All vectors share one dimension. The whole batch fails or succeeds together.
	// An empty input is an error wrapping domain.ErrEmbeddingBackend.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Kind returns the provider variant ("remote" or "local").
	Kind() string

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Dimensions returns the embedding vector size, or 0 if not yet known.
	// Remote providers learn it from the first successful call unless
	// the model is in the known-dimensions table.
	Dimensions() int

	// Close releases resources. In-flight Embed calls are allowed to finish.
	Close() error
}
