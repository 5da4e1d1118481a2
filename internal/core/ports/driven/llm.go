package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// LLMService generates answers from an assembled context.
// This is an optional service - when nil, question answering is disabled.
//
// Implementations talk to any OpenAI-compatible chat completions API,
// including OpenRouter and Ollama's compatibility endpoint.
type LLMService interface {
	// Complete sends a single-turn prompt and returns the answer with token usage.
	// A missing credential is reported here, not at construction.
	Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
