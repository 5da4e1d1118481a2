package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbedding replaces the embedding settings after validating them.
	SetEmbedding(settings domain.EmbeddingSettings) error

	// SetLLMAPIKey stores the LLM credential.
	SetLLMAPIKey(apiKey string) error

	// Validate checks that the current settings can build a working pipeline.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
