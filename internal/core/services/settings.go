package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyChunkSize       = "chunking.size"
	KeyChunkOverlap    = "chunking.overlap"
	KeyTopK            = "retrieval.top_k"
	KeyMaxContextChars = "retrieval.max_context_chars"
	KeyMaxChunkChars   = "retrieval.max_chunk_chars"
	KeyCollection      = "retrieval.collection"
	KeyEmbedKind       = "embedding.kind"
	KeyEmbedAPI        = "embedding.api"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedLocalModel = "embedding.local_model"
	KeyEmbedRPS        = "embedding.requests_per_second"
	KeyCacheSize       = "cache.size"
	KeyCacheTTL        = "cache.ttl"
	KeyStoreBackend    = "store.backend"
	KeyStoreDataDir    = "store.data_dir"
	KeyStoreDSN        = "store.dsn"
	KeyLLMBaseURL      = "llm.base_url"
	KeyLLMModel        = "llm.model"
	KeyLLMAPIKey       = "llm.api_key"
	KeyLLMMaxTokens    = "llm.max_tokens"
	KeyLLMTemperature  = "llm.temperature"
)

// SettingsService maps config keys to domain.AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Absent keys take defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(KeyChunkSize, d.Chunking.Size),
			Overlap: s.getInt(KeyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(KeyTopK, d.Retrieval.TopK),
			MaxContextChars: s.getInt(KeyMaxContextChars, d.Retrieval.MaxContextChars),
			MaxChunkChars:   s.getInt(KeyMaxChunkChars, d.Retrieval.MaxChunkChars),
			Collection:      s.getString(KeyCollection, d.Retrieval.Collection),
		},
		Embedding: domain.EmbeddingSettings{
			Kind:              domain.EmbeddingKind(s.getString(KeyEmbedKind, d.Embedding.Kind.String())),
			API:               domain.RemoteAPI(s.getString(KeyEmbedAPI, d.Embedding.API.String())),
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL),
			APIKey:            s.configStore.GetString(KeyEmbedAPIKey),
			LocalModel:        s.getString(KeyEmbedLocalModel, d.Embedding.LocalModel),
			RequestsPerSecond: s.getFloat(KeyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		Cache: domain.CacheSettings{
			Size: s.getInt(KeyCacheSize, d.Cache.Size),
			TTL:  s.getDuration(KeyCacheTTL, d.Cache.TTL),
		},
		Store: domain.StoreSettings{
			Backend: domain.StoreBackend(s.getString(KeyStoreBackend, d.Store.Backend.String())),
			DataDir: s.configStore.GetString(KeyStoreDataDir),
			DSN:     s.configStore.GetString(KeyStoreDSN),
		},
		LLM: domain.LLMSettings{
			BaseURL:     s.getString(KeyLLMBaseURL, d.LLM.BaseURL),
			Model:       s.getString(KeyLLMModel, d.LLM.Model),
			APIKey:      s.configStore.GetString(KeyLLMAPIKey),
			MaxTokens:   s.getInt(KeyLLMMaxTokens, d.LLM.MaxTokens),
			Temperature: s.getFloat(KeyLLMTemperature, d.LLM.Temperature),
		},
	}

	// The remote model default depends on the API.
	settings.Embedding.Model = s.configStore.GetString(KeyEmbedModel)
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.API]
	}

	return settings, nil
}

// Save persists application settings.
// Credentials are only written when non-empty.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	pairs := []struct {
		key   string
		value any
	}{
		{KeyChunkSize, settings.Chunking.Size},
		{KeyChunkOverlap, settings.Chunking.Overlap},
		{KeyTopK, settings.Retrieval.TopK},
		{KeyMaxContextChars, settings.Retrieval.MaxContextChars},
		{KeyMaxChunkChars, settings.Retrieval.MaxChunkChars},
		{KeyCollection, settings.Retrieval.Collection},
		{KeyCacheSize, settings.Cache.Size},
		{KeyCacheTTL, settings.Cache.TTL.String()},
		{KeyStoreBackend, settings.Store.Backend.String()},
		{KeyStoreDataDir, settings.Store.DataDir},
		{KeyStoreDSN, settings.Store.DSN},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMMaxTokens, settings.LLM.MaxTokens},
		{KeyLLMTemperature, settings.LLM.Temperature},
	}
	for _, p := range pairs {
		if err := s.set(p.key, p.value); err != nil {
			return err
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.set(KeyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return err
		}
	}
	return s.saveEmbedding(settings.Embedding)
}

// SetEmbedding replaces the embedding settings after validating them.
// An empty remote model takes the API's default.
func (s *SettingsService) SetEmbedding(settings domain.EmbeddingSettings) error {
	if !settings.Kind.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Kind)
	}
	if settings.API == "" {
		settings.API = domain.RemoteAPIOpenAI
	}
	if !settings.API.IsValid() {
		return fmt.Errorf("%w: remote api %q", domain.ErrUnsupportedProvider, settings.API)
	}
	if settings.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second must not be negative", domain.ErrInvalidInput)
	}
	if settings.Model == "" {
		settings.Model = domain.DefaultEmbeddingModels()[settings.API]
	}
	if settings.LocalModel == "" {
		settings.LocalModel = domain.DefaultLocalModel
	}
	return s.saveEmbedding(settings)
}

// SetLLMAPIKey stores the LLM credential.
func (s *SettingsService) SetLLMAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%w: API key is empty", domain.ErrInvalidInput)
	}
	return s.set(KeyLLMAPIKey, apiKey)
}

// Validate checks that the current settings can build a working pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Chunking.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.Kind.IsValid() {
		return fmt.Errorf("%w: embedding.kind %q (supported: remote, local)",
			domain.ErrUnsupportedProvider, settings.Embedding.Kind)
	}
	if settings.Embedding.Kind == domain.EmbeddingKindRemote && !settings.Embedding.API.IsValid() {
		return fmt.Errorf("%w: embedding.api %q (supported: openai, gemini, ollama)",
			domain.ErrUnsupportedProvider, settings.Embedding.API)
	}
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: store.backend %q (supported: sqlite, memory, pgvector)",
			domain.ErrInvalidInput, settings.Store.Backend)
	}
	if settings.Store.Backend == domain.StoreBackendPgvector && settings.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required for the pgvector backend", domain.ErrInvalidInput)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrInvalidInput)
	}
	if settings.Retrieval.MaxContextChars <= 0 || settings.Retrieval.MaxChunkChars <= 0 {
		return fmt.Errorf("%w: retrieval character limits must be positive", domain.ErrInvalidInput)
	}
	if err := domain.ValidateCollectionName(settings.Retrieval.Collection); err != nil {
		return fmt.Errorf("retrieval.collection: %w", err)
	}
	if settings.Cache.Size < 0 {
		return fmt.Errorf("%w: cache.size must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// saveEmbedding writes the embedding group.
func (s *SettingsService) saveEmbedding(e domain.EmbeddingSettings) error {
	pairs := []struct {
		key   string
		value any
	}{
		{KeyEmbedKind, e.Kind.String()},
		{KeyEmbedAPI, e.API.String()},
		{KeyEmbedModel, e.Model},
		{KeyEmbedBaseURL, e.BaseURL},
		{KeyEmbedLocalModel, e.LocalModel},
		{KeyEmbedRPS, e.RequestsPerSecond},
	}
	for _, p := range pairs {
		if err := s.set(p.key, p.value); err != nil {
			return err
		}
	}
	if e.APIKey != "" {
		return s.set(KeyEmbedAPIKey, e.APIKey)
	}
	return nil
}

// set writes a key unless the store already returns the same value, so
// values supplied by the environment are not copied into the file.
func (s *SettingsService) set(key string, value any) error {
	if current, ok := s.configStore.Get(key); ok && fmt.Sprint(current) == fmt.Sprint(value) {
		return nil
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, def time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetDuration(key)
}
