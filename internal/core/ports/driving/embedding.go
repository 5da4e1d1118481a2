package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// EmbeddingService reports on and hot-swaps the active embedding provider.
type EmbeddingService interface {
	// Status describes the provider currently in use.
	Status() domain.EmbeddingStatus

	// SupportedKinds lists the provider kinds the factory can build.
	SupportedKinds() []string

	// Switch persists a new provider kind and swaps the live provider.
	Switch(ctx context.Context, kind domain.EmbeddingKind) error

	// Reload rebuilds the live provider from the current settings.
	// Nothing happens when the embedding settings are unchanged.
	Reload(ctx context.Context) error

	// Probe embeds a short text with the live provider and returns the
	// observed dimension.
	Probe(ctx context.Context) (int, error)
}
