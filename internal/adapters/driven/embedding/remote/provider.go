// Package remote provides an embedding provider backed by a hosted API.
//
// One provider type fronts several wire backends (OpenAI-compatible,
// Gemini, Ollama). Every Embed call is a single outbound request carrying
// the whole batch; a failure fails the batch and is never retried.
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Kind is the provider kind reported by Kind().
const Kind = "remote"

// DefaultTimeout bounds a single embedding request.
const DefaultTimeout = 60 * time.Second

// Config holds configuration for the remote embedding provider.
type Config struct {
	// API selects the wire backend (default: openai).
	API domain.RemoteAPI

	// Model is the embedding model name (default depends on API).
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the credential. It is checked on the first Embed call,
	// so a provider without one still constructs.
	APIKey string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// RequestsPerSecond spaces out calls. Zero disables throttling.
	RequestsPerSecond float64

	// Dimensions is the expected vector size if known up front.
	// Zero means it is learned from the first response.
	Dimensions int
}

// backend performs one batched embedding request.
type backend interface {
	embed(ctx context.Context, texts []string) ([][]float32, error)
	close()
}

// Provider generates embeddings through a hosted API.
type Provider struct {
	api     domain.RemoteAPI
	model   string
	apiKey  string
	backend backend
	limiter *rate.Limiter

	mu         sync.RWMutex
	dimensions int
}

// New creates a remote embedding provider.
// Returns domain.ErrUnsupportedProvider for an unknown API.
func New(cfg Config) (*Provider, error) {
	if cfg.API == "" {
		cfg.API = domain.RemoteAPIOpenAI
	}
	if !cfg.API.IsValid() {
		return nil, fmt.Errorf("%w: remote api %q", domain.ErrUnsupportedProvider, cfg.API)
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultEmbeddingModels()[cfg.API]
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}

	p := &Provider{
		api:        cfg.API,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		dimensions: cfg.Dimensions,
	}

	switch cfg.API {
	case domain.RemoteAPIOpenAI:
		p.backend = newOpenAIBackend(cfg)
	case domain.RemoteAPIGemini:
		p.backend = newGeminiBackend(cfg)
	case domain.RemoteAPIOllama:
		p.backend = newOllamaBackend(cfg)
	}

	if cfg.RequestsPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return p, nil
}

// Embed returns one vector per input text, in input order.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrEmbeddingBackend)
	}
	if p.api.RequiresAPIKey() && p.apiKey == "" {
		return nil, fmt.Errorf("%w: %s: API key is not configured", domain.ErrEmbeddingBackend, p.api)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: rate limit wait: %w", domain.ErrEmbeddingBackend, p.api, err)
		}
	}

	vectors, err := p.backend.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingBackend, p.api, err)
	}

	dim, err := checkBatch(texts, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingBackend, p.api, err)
	}

	p.mu.Lock()
	p.dimensions = dim
	p.mu.Unlock()

	return vectors, nil
}

// checkBatch verifies there is one non-empty vector per text and that all
// vectors share a dimension, which it returns.
func checkBatch(texts []string, vectors [][]float32) (int, error) {
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("empty embedding at index %d", i)
		}
		if len(v) != dim {
			return 0, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return dim, nil
}

// Kind returns "remote".
func (p *Provider) Kind() string {
	return Kind
}

// ModelName returns the embedding model name.
func (p *Provider) ModelName() string {
	return p.model
}

// Dimensions returns the vector size, or 0 if not yet known.
func (p *Provider) Dimensions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dimensions
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.backend.close()
	return nil
}
