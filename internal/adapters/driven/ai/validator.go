package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// probeTimeout is the maximum time to wait for a probe embedding.
const probeTimeout = 10 * time.Second

// probeText is embedded to check that a provider works end to end.
const probeText = "connectivity check"

// Ensure Validator implements the interface.
var _ driven.EmbeddingValidator = (*Validator)(nil)

// Validator probes embedding providers.
type Validator struct{}

// NewValidator creates a provider validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEmbedding probes the provider and returns its vector dimension.
func (v *Validator) ValidateEmbedding(ctx context.Context, provider driven.EmbeddingProvider) (int, error) {
	return ProbeEmbedding(ctx, provider)
}

// ProbeEmbedding embeds a short text to confirm the provider is usable
// and returns the observed vector dimension.
func ProbeEmbedding(ctx context.Context, provider driven.EmbeddingProvider) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	vectors, err := provider.Embed(ctx, []string{probeText})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("%w: probe returned no vector", domain.ErrEmbeddingBackend)
	}
	return len(vectors[0]), nil
}
