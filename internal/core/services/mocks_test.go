package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

const stubDims = 64

// stubProvider is a deterministic hash-to-vector embedding provider.
// Each lower-cased word adds 1 to a hashed bucket.
type stubProvider struct {
	mu       sync.Mutex
	kind     string
	model    string
	embedErr error
	calls    int
	batches  []int
	closed   bool
	closeErr error
}

func newStubProvider() *stubProvider {
	return &stubProvider{kind: "local", model: "stub-hash"}
}

func (p *stubProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	p.batches = append(p.batches, len(texts))
	err := p.embedErr
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, domain.ErrEmbeddingBackend
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = stubVector(text)
	}
	return out, nil
}

func stubVector(text string) []float32 {
	v := make([]float32, stubDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,?!")))
		v[h.Sum32()%stubDims]++
	}
	return domain.Normalize(v)
}

func (p *stubProvider) Kind() string      { return p.kind }
func (p *stubProvider) ModelName() string { return p.model }
func (p *stubProvider) Dimensions() int   { return stubDims }

func (p *stubProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeErr
}

func (p *stubProvider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// failingStore wraps a memory store and fails Upsert after a number of successes.
type failingStore struct {
	*memory.VectorStore
	allowUpserts int
	upserts      int
	upsertErr    error
	queryErr     error
}

func (s *failingStore) Upsert(ctx context.Context, collection string, record domain.VectorRecord) error {
	if s.upsertErr != nil && s.upserts >= s.allowUpserts {
		return s.upsertErr
	}
	s.upserts++
	return s.VectorStore.Upsert(ctx, collection, record)
}

func (s *failingStore) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.VectorStore.Query(ctx, collection, vector, topK)
}

// mockFactory implements driven.EmbeddingProviderFactory.
type mockFactory struct {
	mu        sync.Mutex
	created   []*stubProvider
	settings  []domain.EmbeddingSettings
	createErr error
}

func (f *mockFactory) Create(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if !settings.Kind.IsValid() {
		return nil, domain.ErrUnsupportedProvider
	}
	p := newStubProvider()
	p.kind = settings.Kind.String()
	if settings.Kind == domain.EmbeddingKindLocal {
		p.model = settings.LocalModel
	} else {
		p.model = settings.Model
	}
	f.created = append(f.created, p)
	f.settings = append(f.settings, settings)
	return p, nil
}

func (f *mockFactory) SupportedKinds() []string {
	return []string{"remote", "local"}
}

func (f *mockFactory) last() *stubProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

// mockValidator implements driven.EmbeddingValidator.
type mockValidator struct {
	dims int
	err  error
}

func (v *mockValidator) ValidateEmbedding(_ context.Context, _ driven.EmbeddingProvider) (int, error) {
	return v.dims, v.err
}

// mockLLM implements driven.LLMService.
type mockLLM struct {
	requests []domain.CompletionRequest
	reply    string
	err      error
	closed   bool
}

func (m *mockLLM) Complete(_ context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Completion{
		Text:             m.reply,
		Model:            "mock-llm",
		PromptTokens:     120,
		CompletionTokens: 30,
		TotalTokens:      150,
	}, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { m.closed = true; return nil }

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	loadErr error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found: " + name)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockExtractor implements driven.TextExtractor for a fixed extension.
type mockExtractor struct {
	ext  string
	text string
	meta domain.Metadata
	err  error
}

func (m *mockExtractor) Supports(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), m.ext)
}

func (m *mockExtractor) Extract(_ context.Context, _ string) (string, domain.Metadata, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	return m.text, m.meta.Clone(), nil
}
