package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// collection holds entries in insertion order plus an ID index.
type collection struct {
	dimensions int
	entries    []domain.VectorRecord
	index      map[string]int
}

func newCollection() *collection {
	return &collection{index: make(map[string]int)}
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Nothing survives the process; it backs tests and ephemeral sessions.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*collection),
	}
}

// Upsert inserts or replaces an entry by ID, creating the collection if needed.
func (s *VectorStore) Upsert(_ context.Context, name string, record domain.VectorRecord) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}
	if record.ID == "" {
		return fmt.Errorf("%w: record id is required", domain.ErrInvalidInput)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: record %s has an empty vector", domain.ErrStorage, record.ID)
	}
	if err := record.Metadata.Validate(); err != nil {
		return fmt.Errorf("%w: malformed metadata: %w", domain.ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = newCollection()
		s.collections[name] = c
	}

	switch {
	case c.dimensions == 0:
		c.dimensions = len(record.Vector)
	case c.dimensions != len(record.Vector):
		return fmt.Errorf("%w: dimension mismatch: collection %s has %d, record %s has %d",
			domain.ErrStorage, name, c.dimensions, record.ID, len(record.Vector))
	}

	stored := domain.VectorRecord{
		ID:       record.ID,
		Vector:   append([]float32(nil), record.Vector...),
		Text:     record.Text,
		Metadata: record.Metadata.Clone(),
	}

	if i, ok := c.index[record.ID]; ok {
		c.entries[i] = stored
		return nil
	}
	c.index[record.ID] = len(c.entries)
	c.entries = append(c.entries, stored)
	return nil
}

// Query returns up to topK entries nearest to vector by cosine distance.
func (s *VectorStore) Query(_ context.Context, name string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if err := domain.ValidateCollectionName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok || topK <= 0 || len(c.entries) == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	if c.dimensions != len(vector) {
		return nil, fmt.Errorf("%w: dimension mismatch: collection %s has %d, query has %d",
			domain.ErrStorage, name, c.dimensions, len(vector))
	}

	hits := make([]domain.RetrievedChunk, len(c.entries))
	for i, e := range c.entries {
		hits[i] = domain.RetrievedChunk{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: e.Metadata.Clone(),
			Distance: domain.CosineDistance(vector, e.Vector),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByFilter deletes entries whose metadata matches every filter pair.
func (s *VectorStore) DeleteByFilter(_ context.Context, name string, filter domain.Filter) (int, error) {
	if err := domain.ValidateCollectionName(name); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete filter must not be empty", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}

	kept := c.entries[:0]
	deleted := 0
	for _, e := range c.entries {
		if filter.Matches(e.Metadata) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	c.entries = kept

	c.index = make(map[string]int, len(kept))
	for i, e := range kept {
		c.index[e.ID] = i
	}
	return deleted, nil
}

// Clear empties a collection and resets its dimension.
func (s *VectorStore) Clear(_ context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = newCollection()
	return nil
}

// Count returns the number of entries in a collection.
func (s *VectorStore) Count(_ context.Context, name string) (int, error) {
	if err := domain.ValidateCollectionName(name); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.entries), nil
	}
	return 0, nil
}

// CreateCollection creates a collection if it does not exist.
func (s *VectorStore) CreateCollection(_ context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = newCollection()
	}
	return nil
}

// DeleteCollection removes a collection. Missing collections are ignored.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// ListCollections returns collection names in sorted order.
func (s *VectorStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}
