// Package local provides an in-process embedding provider.
//
// Two model families are supported: built-in feature-hashing models named
// "hash-<dim>", and word-vector files in the word2vec/fastText text format.
// Neither needs network access or a credential.
package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Kind is the provider kind reported by Kind().
const Kind = "local"

// hashModelPrefix prefixes built-in hashing model names.
const hashModelPrefix = "hash-"

// trigramWeight scales character trigram features relative to whole words.
const trigramWeight = 0.5

// tokenPattern matches unicode word tokens.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// builtinDimensions lists the supported built-in hashing models.
var builtinDimensions = map[string]int{
	"hash-256":  256,
	"hash-384":  384,
	"hash-768":  768,
	"hash-1536": 1536,
}

// BuiltinModels returns the names of the built-in models.
func BuiltinModels() []string {
	return []string{"hash-256", "hash-384", "hash-768", "hash-1536"}
}

// Config holds configuration for the local embedding provider.
type Config struct {
	// Model is a built-in model name or a path to a .vec file
	// (default: hash-384).
	Model string
}

// encoder turns tokens into a vector of fixed dimension.
type encoder interface {
	encode(tokens []string) []float32
}

// Provider embeds text in-process.
type Provider struct {
	model      string
	dimensions int
	encoder    encoder
}

// New loads the configured model.
// A model that cannot be loaded is an error wrapping domain.ErrEmbeddingBackend.
func New(cfg Config) (*Provider, error) {
	if cfg.Model == "" {
		cfg.Model = domain.DefaultLocalModel
	}

	if dim, ok := builtinDimensions[cfg.Model]; ok {
		return &Provider{
			model:      cfg.Model,
			dimensions: dim,
			encoder:    hashEncoder{dim: dim},
		}, nil
	}

	if strings.HasPrefix(cfg.Model, hashModelPrefix) {
		if _, err := strconv.Atoi(strings.TrimPrefix(cfg.Model, hashModelPrefix)); err == nil {
			return nil, fmt.Errorf("%w: unsupported hashing dimension %q (have %s)",
				domain.ErrEmbeddingBackend, cfg.Model, strings.Join(BuiltinModels(), ", "))
		}
	}

	vectors, err := loadWordVectors(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: loading local model %q: %w", domain.ErrEmbeddingBackend, cfg.Model, err)
	}

	return &Provider{
		model:      cfg.Model,
		dimensions: vectors.dim,
		encoder:    vectors,
	}, nil
}

// Embed returns one L2-normalised vector per input text.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrEmbeddingBackend)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingBackend, err)
		}
		vec := p.encoder.encode(tokenize(text))
		domain.Normalize(vec)
		out[i] = vec
	}
	return out, nil
}

// Kind returns "local".
func (p *Provider) Kind() string {
	return Kind
}

// ModelName returns the configured model name.
func (p *Provider) ModelName() string {
	return p.model
}

// Dimensions returns the vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// tokenize lowercases text and splits it into word tokens.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// hashEncoder implements signed feature hashing.
type hashEncoder struct {
	dim int
}

func (e hashEncoder) encode(tokens []string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range tokens {
		e.add(vec, "w:"+tok, 1)

		runes := []rune("#" + tok + "#")
		for i := 0; i+3 <= len(runes); i++ {
			e.add(vec, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}
	return vec
}

// add hashes feature into a bucket, using the top bit as the sign.
func (e hashEncoder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(e.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
