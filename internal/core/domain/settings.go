package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingKind identifies an embedding provider variant.
type EmbeddingKind string

// Supported embedding kinds.
const (
	// EmbeddingKindRemote calls a hosted embedding API.
	EmbeddingKindRemote EmbeddingKind = "remote"

	// EmbeddingKindLocal runs an in-process embedding model.
	EmbeddingKindLocal EmbeddingKind = "local"
)

// IsValid returns true if the kind is recognised.
func (k EmbeddingKind) IsValid() bool {
	switch k {
	case EmbeddingKindRemote, EmbeddingKindLocal:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k EmbeddingKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the kind.
func (k EmbeddingKind) Description() string {
	switch k {
	case EmbeddingKindRemote:
		return "Remote (hosted embedding API)"
	case EmbeddingKindLocal:
		return "Local (in-process model)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingKinds returns the supported embedding kinds.
func AllEmbeddingKinds() []EmbeddingKind {
	return []EmbeddingKind{
		EmbeddingKindRemote,
		EmbeddingKindLocal,
	}
}

// RemoteAPI identifies the hosted API used by the remote embedding provider.
type RemoteAPI string

// Supported remote APIs.
const (
	// RemoteAPIOpenAI is any OpenAI-compatible /embeddings endpoint.
	RemoteAPIOpenAI RemoteAPI = "openai"

	// RemoteAPIGemini is the Google Gemini API.
	RemoteAPIGemini RemoteAPI = "gemini"

	// RemoteAPIOllama is an Ollama server.
	RemoteAPIOllama RemoteAPI = "ollama"
)

// IsValid returns true if the API is recognised.
func (a RemoteAPI) IsValid() bool {
	switch a {
	case RemoteAPIOpenAI, RemoteAPIGemini, RemoteAPIOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this API needs a credential.
func (a RemoteAPI) RequiresAPIKey() bool {
	return a == RemoteAPIOpenAI || a == RemoteAPIGemini
}

// String returns the string representation.
func (a RemoteAPI) String() string {
	return string(a)
}

// Description returns a human-readable description of the API.
func (a RemoteAPI) Description() string {
	switch a {
	case RemoteAPIOpenAI:
		return "OpenAI-compatible (cloud)"
	case RemoteAPIGemini:
		return "Google Gemini (cloud)"
	case RemoteAPIOllama:
		return "Ollama (self-hosted)"
	default:
		return unknownDescription
	}
}

// AllRemoteAPIs returns the supported remote APIs.
func AllRemoteAPIs() []RemoteAPI {
	return []RemoteAPI{
		RemoteAPIOpenAI,
		RemoteAPIGemini,
		RemoteAPIOllama,
	}
}

// StoreBackend identifies a vector store implementation.
type StoreBackend string

// Supported store backends.
const (
	// StoreBackendSQLite is the embedded default.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendMemory keeps vectors in process memory only.
	StoreBackendMemory StoreBackend = "memory"

	// StoreBackendPgvector uses PostgreSQL with the pgvector extension.
	StoreBackendPgvector StoreBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendMemory, StoreBackendPgvector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by adjacent chunks.
	Overlap int
}

// Validate checks the chunk size and overlap pair.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrChunkingConfig, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrChunkingConfig, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings holds query and context assembly configuration.
type RetrievalSettings struct {
	// TopK is the default number of chunks returned by a query.
	TopK int

	// MaxContextChars bounds the assembled context.
	MaxContextChars int

	// MaxChunkChars bounds each chunk inside the assembled context.
	MaxChunkChars int

	// Collection is the default collection.
	Collection string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Kind selects the provider variant.
	Kind EmbeddingKind

	// API selects the hosted API for the remote kind.
	API RemoteAPI

	// Model is the remote embedding model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the credential for the remote API.
	// Checked on first use, not at construction.
	APIKey string

	// LocalModel names the in-process model (built-in name or .vec file path).
	LocalModel string

	// RequestsPerSecond throttles remote calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the provider can embed without further setup.
func (e EmbeddingSettings) IsConfigured() bool {
	switch e.Kind {
	case EmbeddingKindLocal:
		return e.LocalModel != ""
	case EmbeddingKindRemote:
		if !e.API.IsValid() {
			return false
		}
		return !e.API.RequiresAPIKey() || e.APIKey != ""
	default:
		return false
	}
}

// Identity returns "kind/model", the provider identity stored with chunks.
func (e EmbeddingSettings) Identity() string {
	if e.Kind == EmbeddingKindLocal {
		return e.Kind.String() + "/" + e.LocalModel
	}
	return e.Kind.String() + "/" + e.Model
}

// CacheSettings holds embedding cache configuration.
type CacheSettings struct {
	// Size is the number of cached vectors. Zero disables the cache.
	Size int

	// TTL is how long a cached vector stays valid.
	TTL time.Duration
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Backend selects the store implementation.
	Backend StoreBackend

	// DataDir is where the sqlite database lives.
	DataDir string

	// DSN is the PostgreSQL connection string for pgvector.
	DSN string
}

// LLMSettings holds answer-generation configuration.
type LLMSettings struct {
	// BaseURL is the OpenAI-compatible chat completions endpoint.
	BaseURL string

	// Model is the chat model name.
	Model string

	// APIKey is the credential (checked on first use).
	APIKey string

	// MaxTokens caps the answer length.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64
}

// IsConfigured returns true if an LLM credential is present.
func (l LLMSettings) IsConfigured() bool {
	return l.APIKey != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	Cache     CacheSettings
	Store     StoreSettings
	LLM       LLMSettings
}

// Default values.
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultTopK            = 5
	DefaultMaxContextChars = 3000
	DefaultMaxChunkChars   = 800

	DefaultRemoteModel = "text-embedding-ada-002"
	DefaultLocalModel  = "hash-384"

	DefaultCacheSize = 1024
	DefaultCacheTTL  = time.Hour

	DefaultLLMBaseURL     = "https://openrouter.ai/api/v1"
	DefaultLLMModel       = "openai/gpt-4o-mini"
	DefaultLLMMaxTokens   = 500
	DefaultLLMTemperature = 0.3
)

// DefaultAppSettings returns settings with sensible defaults.
// The remote provider is selected but has no credential until one is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:            DefaultTopK,
			MaxContextChars: DefaultMaxContextChars,
			MaxChunkChars:   DefaultMaxChunkChars,
			Collection:      DefaultCollection,
		},
		Embedding: EmbeddingSettings{
			Kind:       EmbeddingKindRemote,
			API:        RemoteAPIOpenAI,
			Model:      DefaultRemoteModel,
			LocalModel: DefaultLocalModel,
		},
		Cache: CacheSettings{
			Size: DefaultCacheSize,
			TTL:  DefaultCacheTTL,
		},
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
		},
		LLM: LLMSettings{
			BaseURL:     DefaultLLMBaseURL,
			Model:       DefaultLLMModel,
			MaxTokens:   DefaultLLMMaxTokens,
			Temperature: DefaultLLMTemperature,
		},
	}
}

// DefaultEmbeddingModels returns default models for each remote API.
func DefaultEmbeddingModels() map[RemoteAPI]string {
	return map[RemoteAPI]string{
		RemoteAPIOpenAI: DefaultRemoteModel,
		RemoteAPIGemini: "text-embedding-004",
		RemoteAPIOllama: "nomic-embed-text",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// OpenAI models
		"text-embedding-ada-002": 1536,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
	}
}

// EmbeddingStatus describes the live embedding provider.
type EmbeddingStatus struct {
	Kind           string   `json:"kind"`
	API            string   `json:"api,omitempty"`
	Model          string   `json:"model"`
	Dimensions     int      `json:"dimensions"`
	Configured     bool     `json:"configured"`
	SupportedKinds []string `json:"supported_kinds"`

	// Error is the last build failure when no provider could be created.
	Error string `json:"error,omitempty"`
}
