package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap them with context; callers match with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrChunkingConfig indicates an invalid chunk size and overlap pair.
	// Raised when the chunker is constructed, never per call.
	ErrChunkingConfig = errors.New("invalid chunking configuration")

	// ErrEmbeddingBackend indicates the embedding provider failed.
	// Covers remote call failures, malformed responses, missing credentials
	// and local model load or inference failures. Never retried automatically.
	ErrEmbeddingBackend = errors.New("embedding backend error")

	// ErrUnsupportedProvider indicates an unknown embedding provider kind.
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")

	// ErrStorage indicates the vector store failed.
	// Includes dimension mismatches and malformed metadata.
	ErrStorage = errors.New("vector store error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
