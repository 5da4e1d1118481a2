// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/remote"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// SupportedKinds returns the embedding provider kinds Create accepts.
func SupportedKinds() []string {
	kinds := domain.AllEmbeddingKinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}

// Ensure Factory implements the interface.
var _ driven.EmbeddingProviderFactory = (*Factory)(nil)

// Factory creates embedding providers, applying the configured cache.
type Factory struct {
	cache domain.CacheSettings
}

// NewFactory creates a provider factory.
func NewFactory(cacheSettings domain.CacheSettings) *Factory {
	return &Factory{cache: cacheSettings}
}

// SupportedKinds returns the embedding provider kinds Create accepts.
func (f *Factory) SupportedKinds() []string {
	return SupportedKinds()
}

// Create builds the embedding provider selected by settings.Kind.
// An unknown kind is domain.ErrUnsupportedProvider; there is no fallback.
func (f *Factory) Create(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	provider, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return nil, err
	}
	return cache.Wrap(provider, f.cache.Size, f.cache.TTL), nil
}

// CreateEmbeddingProvider builds an uncached embedding provider.
func CreateEmbeddingProvider(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	switch settings.Kind {
	case domain.EmbeddingKindRemote:
		return createRemoteEmbedding(settings)

	case domain.EmbeddingKindLocal:
		return createLocalEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q (supported: %v)",
			domain.ErrUnsupportedProvider, settings.Kind, SupportedKinds())
	}
}

// CreateLLMService creates the answer-generation client.
// A missing credential is reported on first use, not here.
func CreateLLMService(settings domain.LLMSettings) driven.LLMService {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:      settings.APIKey,
		BaseURL:     settings.BaseURL,
		Model:       settings.Model,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
}

// createRemoteEmbedding creates a hosted-API embedding provider.
func createRemoteEmbedding(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	return remote.New(remote.Config{
		API:               settings.API,
		Model:             settings.Model,
		BaseURL:           settings.BaseURL,
		APIKey:            settings.APIKey,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// createLocalEmbedding loads an in-process embedding model.
func createLocalEmbedding(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	return local.New(local.Config{
		Model: settings.LocalModel,
	})
}
