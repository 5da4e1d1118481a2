package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorStore persists chunk vectors partitioned by named collections
// and answers cosine-similarity queries.
//
// Every operation is scoped to a collection. Writes create the collection
// on first use. All failures wrap domain.ErrStorage.
type VectorStore interface {
	// Upsert stores a record. Idempotent on record ID; the last write wins.
	// The first write to a collection fixes its dimension; later vectors
	// with a different length are rejected.
	Upsert(ctx context.Context, collection string, record domain.VectorRecord) error

	// Query returns up to topK records by ascending cosine distance.
	// Empty or nonexistent collections return an empty slice, not an error.
	// Equal distances keep store order.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievedChunk, error)

	// DeleteByFilter removes every record whose metadata matches the filter
	// and returns how many were removed. No match is not an error.
	DeleteByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error)

	// Clear removes every record and leaves the collection existing and empty.
	Clear(ctx context.Context, collection string) error

	// Count returns the number of records in a collection (0 if absent).
	Count(ctx context.Context, collection string) (int, error)

	// CreateCollection creates a collection if it does not exist.
	CreateCollection(ctx context.Context, name string) error

	// DeleteCollection drops a collection and its records. Missing is a no-op.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns collection names in sorted order.
	ListCollections(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
