package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// CollectionService manages collection lifecycle.
type CollectionService interface {
	// Create creates a collection, or does nothing if it exists.
	Create(ctx context.Context, name string) error

	// Delete drops a collection and its chunks. Missing is a no-op.
	Delete(ctx context.Context, name string) error

	// List returns all collections with their chunk counts.
	List(ctx context.Context) ([]domain.CollectionInfo, error)
}
