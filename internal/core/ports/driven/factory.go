package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// EmbeddingProviderFactory builds embedding providers from settings.
type EmbeddingProviderFactory interface {
	// Create returns the provider selected by settings.Kind.
	// An unknown kind or remote API wraps domain.ErrUnsupportedProvider.
	Create(settings domain.EmbeddingSettings) (EmbeddingProvider, error)

	// SupportedKinds lists the kinds Create accepts. Builds nothing.
	SupportedKinds() []string
}
