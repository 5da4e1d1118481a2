package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// recordingStore counts Set calls on top of the memory store.
type recordingStore struct {
	*memory.ConfigStore
	sets []string
}

func (r *recordingStore) Set(key string, value any) error {
	r.sets = append(r.sets, key)
	return r.ConfigStore.Set(key, value)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAppSettings(), *settings)
	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}

func TestSettingsService_GetFromStore(t *testing.T) {
	store := memory.NewConfigStore()
	values := map[string]any{
		KeyChunkSize:       int64(500),
		KeyChunkOverlap:    "50",
		KeyTopK:            8,
		KeyCollection:      "notes",
		KeyEmbedKind:       "remote",
		KeyEmbedAPI:        "gemini",
		KeyEmbedAPIKey:     "g-key",
		KeyEmbedRPS:        2.5,
		KeyCacheSize:       0,
		KeyCacheTTL:        "30m",
		KeyStoreBackend:    "pgvector",
		KeyStoreDSN:        "postgres://localhost/rag",
		KeyLLMModel:        "meta/llama",
		KeyLLMAPIKey:       "or-key",
		KeyLLMTemperature:  0.0,
		KeyMaxContextChars: 4000,
	}
	for k, v := range values {
		require.NoError(t, store.Set(k, v))
	}
	svc := NewSettingsService(store)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, 500, settings.Chunking.Size)
	assert.Equal(t, 50, settings.Chunking.Overlap)
	assert.Equal(t, 8, settings.Retrieval.TopK)
	assert.Equal(t, 4000, settings.Retrieval.MaxContextChars)
	assert.Equal(t, domain.DefaultMaxChunkChars, settings.Retrieval.MaxChunkChars)
	assert.Equal(t, "notes", settings.Retrieval.Collection)
	assert.Equal(t, domain.RemoteAPIGemini, settings.Embedding.API)
	// Model defaults per API.
	assert.Equal(t, "text-embedding-004", settings.Embedding.Model)
	assert.Equal(t, "g-key", settings.Embedding.APIKey)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 0.001)
	// Explicit zero is kept rather than replaced by the default.
	assert.Zero(t, settings.Cache.Size)
	assert.Equal(t, 30*time.Minute, settings.Cache.TTL)
	assert.Equal(t, domain.StoreBackendPgvector, settings.Store.Backend)
	assert.Equal(t, "postgres://localhost/rag", settings.Store.DSN)
	assert.Equal(t, "meta/llama", settings.LLM.Model)
	assert.Equal(t, "or-key", settings.LLM.APIKey)
	assert.Zero(t, settings.LLM.Temperature)
	assert.Equal(t, domain.DefaultLLMBaseURL, settings.LLM.BaseURL)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	settings := domain.DefaultAppSettings()
	settings.Chunking.Size = 600
	settings.Retrieval.Collection = "papers"
	settings.Embedding.Kind = domain.EmbeddingKindLocal
	settings.Embedding.LocalModel = "/models/glove.vec"
	settings.Cache.TTL = 5 * time.Minute
	settings.Store.DataDir = "/var/lib/rag"
	settings.LLM.APIKey = "secret"
	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_SaveSkipsEmptyCredentials(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	require.NoError(t, svc.Save(&settings))

	_, ok := store.Get(KeyEmbedAPIKey)
	assert.False(t, ok)
	_, ok = store.Get(KeyLLMAPIKey)
	assert.False(t, ok)
}

func TestSettingsService_SetSkipsUnchangedValues(t *testing.T) {
	store := &recordingStore{ConfigStore: memory.NewConfigStore()}
	require.NoError(t, store.ConfigStore.Set(KeyLLMAPIKey, "from-env"))
	svc := NewSettingsService(store)

	settings, err := svc.Get()
	require.NoError(t, err)
	require.NoError(t, svc.Save(settings))
	first := len(store.sets)
	assert.NotContains(t, store.sets, KeyLLMAPIKey)

	require.NoError(t, svc.Save(settings))
	assert.Len(t, store.sets, first, "second save writes nothing")
}

func TestSettingsService_SetEmbedding(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	t.Run("fills defaults", func(t *testing.T) {
		require.NoError(t, svc.SetEmbedding(domain.EmbeddingSettings{
			Kind: domain.EmbeddingKindRemote,
			API:  domain.RemoteAPIOllama,
		}))
		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, domain.DefaultLocalModel, settings.Embedding.LocalModel)
	})

	t.Run("empty api means openai", func(t *testing.T) {
		require.NoError(t, svc.SetEmbedding(domain.EmbeddingSettings{
			Kind:   domain.EmbeddingKindRemote,
			APIKey: "sk-test",
		}))
		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.RemoteAPIOpenAI, settings.Embedding.API)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		err := svc.SetEmbedding(domain.EmbeddingSettings{Kind: "cloud"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	})

	t.Run("rejects unknown api", func(t *testing.T) {
		err := svc.SetEmbedding(domain.EmbeddingSettings{Kind: domain.EmbeddingKindRemote, API: "cohere"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		err := svc.SetEmbedding(domain.EmbeddingSettings{Kind: domain.EmbeddingKindLocal, RequestsPerSecond: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsService_SetLLMAPIKey(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	assert.ErrorIs(t, svc.SetLLMAPIKey(""), domain.ErrInvalidInput)

	require.NoError(t, svc.SetLLMAPIKey("or-123"))
	assert.Equal(t, "or-123", store.GetString(KeyLLMAPIKey))
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr error
	}{
		{name: "defaults", values: nil},
		{name: "overlap equals size", values: map[string]any{KeyChunkSize: 100, KeyChunkOverlap: 100}, wantErr: domain.ErrChunkingConfig},
		{name: "zero chunk size", values: map[string]any{KeyChunkSize: 0}, wantErr: domain.ErrChunkingConfig},
		{name: "unknown kind", values: map[string]any{KeyEmbedKind: "gpu"}, wantErr: domain.ErrUnsupportedProvider},
		{name: "unknown api", values: map[string]any{KeyEmbedAPI: "cohere"}, wantErr: domain.ErrUnsupportedProvider},
		{name: "local ignores api", values: map[string]any{KeyEmbedKind: "local", KeyEmbedAPI: "cohere"}},
		{name: "unknown backend", values: map[string]any{KeyStoreBackend: "redis"}, wantErr: domain.ErrInvalidInput},
		{name: "pgvector without dsn", values: map[string]any{KeyStoreBackend: "pgvector"}, wantErr: domain.ErrInvalidInput},
		{name: "pgvector with dsn", values: map[string]any{KeyStoreBackend: "pgvector", KeyStoreDSN: "postgres://x"}},
		{name: "zero top k", values: map[string]any{KeyTopK: 0}, wantErr: domain.ErrInvalidInput},
		{name: "zero context", values: map[string]any{KeyMaxContextChars: 0}, wantErr: domain.ErrInvalidInput},
		{name: "bad collection", values: map[string]any{KeyCollection: "a b"}, wantErr: domain.ErrInvalidInput},
		{name: "negative cache", values: map[string]any{KeyCacheSize: -1}, wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.values {
				require.NoError(t, store.Set(k, v))
			}
			err := NewSettingsService(store).Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
