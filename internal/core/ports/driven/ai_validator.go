package driven

import "context"

// EmbeddingValidator checks a provider end to end.
// Implementations embed a short probe text and report the vector dimension.
type EmbeddingValidator interface {
	// ValidateEmbedding returns the observed dimension, or the provider's error.
	ValidateEmbedding(ctx context.Context, provider EmbeddingProvider) (int, error)
}
