package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages collection lifecycle.
type CollectionService struct {
	store driven.VectorStore
}

// NewCollectionService creates a new collection service.
func NewCollectionService(store driven.VectorStore) *CollectionService {
	return &CollectionService{store: store}
}

// Create creates a collection, or does nothing if it exists.
func (s *CollectionService) Create(ctx context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}
	return s.store.CreateCollection(ctx, name)
}

// Delete drops a collection and its chunks.
func (s *CollectionService) Delete(ctx context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}
	return s.store.DeleteCollection(ctx, name)
}

// List returns all collections with their chunk counts, sorted by name.
func (s *CollectionService) List(ctx context.Context) ([]domain.CollectionInfo, error) {
	names, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]domain.CollectionInfo, 0, len(names))
	for _, name := range names {
		count, err := s.store.Count(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", name, err)
		}
		infos = append(infos, domain.CollectionInfo{Name: name, Count: count})
	}
	return infos, nil
}
