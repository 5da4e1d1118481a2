// Package cache provides an expiring LRU decorator for embedding providers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Provider caches vectors from the wrapped provider, keyed by
// provider identity and text hash.
type Provider struct {
	next  driven.EmbeddingProvider
	cache *expirable.LRU[string, []float32]
}

// Wrap decorates next with a cache of the given size and TTL.
// Returns next unchanged if size or ttl is not positive.
func Wrap(next driven.EmbeddingProvider, size int, ttl time.Duration) driven.EmbeddingProvider {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &Provider{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Embed serves cached vectors and embeds the misses in a single call
// to the wrapped provider.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return p.next.Embed(ctx, texts)
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		keys[i] = p.key(text)
		if cached, ok := p.cache.Get(keys[i]); ok {
			out[i] = clone(cached)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	logger.Debug("embedding cache: %d hits, %d misses", len(texts)-len(missTexts), len(missTexts))

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := p.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, vec := range vectors {
		i := missIdx[j]
		out[i] = vec
		p.cache.Add(keys[i], clone(vec))
	}

	return out, nil
}

// Kind returns the wrapped provider's kind.
func (p *Provider) Kind() string {
	return p.next.Kind()
}

// ModelName returns the wrapped provider's model.
func (p *Provider) ModelName() string {
	return p.next.ModelName()
}

// Dimensions returns the wrapped provider's dimension.
func (p *Provider) Dimensions() int {
	return p.next.Dimensions()
}

// Close purges the cache and closes the wrapped provider.
func (p *Provider) Close() error {
	p.cache.Purge()
	return p.next.Close()
}

func (p *Provider) key(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "embed:" + p.next.Kind() + ":" + p.next.ModelName() + ":" + hex.EncodeToString(hash[:])
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
