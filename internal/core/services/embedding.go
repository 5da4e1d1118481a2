package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driving.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService builds the live provider from settings and swaps it
// into the shared handle.
type EmbeddingService struct {
	handle    *EmbeddingHandle
	settings  driving.SettingsService
	factory   driven.EmbeddingProviderFactory
	validator driven.EmbeddingValidator

	mu      sync.Mutex
	active  *domain.EmbeddingSettings
	lastErr error
}

// NewEmbeddingService creates an embedding service. Call Reload to build
// the first provider.
func NewEmbeddingService(
	handle *EmbeddingHandle,
	settings driving.SettingsService,
	factory driven.EmbeddingProviderFactory,
) *EmbeddingService {
	return &EmbeddingService{
		handle:   handle,
		settings: settings,
		factory:  factory,
	}
}

// SetValidator sets the validator used by Probe.
func (s *EmbeddingService) SetValidator(v driven.EmbeddingValidator) {
	s.validator = v
}

// Status describes the provider currently in use.
func (s *EmbeddingService) Status() domain.EmbeddingStatus {
	s.mu.Lock()
	active := s.active
	lastErr := s.lastErr
	s.mu.Unlock()

	status := domain.EmbeddingStatus{
		SupportedKinds: s.factory.SupportedKinds(),
	}
	if lastErr != nil {
		status.Error = lastErr.Error()
	}

	provider := s.handle.Current()
	if provider == nil {
		return status
	}

	status.Kind = provider.Kind()
	status.Model = provider.ModelName()
	status.Dimensions = provider.Dimensions()
	if active != nil {
		status.Configured = active.IsConfigured()
		if active.Kind == domain.EmbeddingKindRemote {
			status.API = active.API.String()
		}
	}
	return status
}

// SupportedKinds lists the provider kinds the factory can build.
func (s *EmbeddingService) SupportedKinds() []string {
	return s.factory.SupportedKinds()
}

// Switch persists a new provider kind and swaps the live provider.
// Other embedding settings are kept.
func (s *EmbeddingService) Switch(ctx context.Context, kind domain.EmbeddingKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q (supported: %v)", domain.ErrUnsupportedProvider, kind, s.factory.SupportedKinds())
	}

	settings, err := s.settings.Get()
	if err != nil {
		return err
	}
	embedding := settings.Embedding
	embedding.Kind = kind

	// Build before persisting so a failed switch leaves config untouched.
	provider, err := s.factory.Create(embedding)
	if err != nil {
		return err
	}
	if err := s.settings.SetEmbedding(embedding); err != nil {
		_ = provider.Close()
		return err
	}

	logger.Info("Switching embedding provider to %s", embedding.Identity())
	return s.install(provider, embedding)
}

// Reload rebuilds the live provider if the embedding settings changed.
func (s *EmbeddingService) Reload(_ context.Context) error {
	settings, err := s.settings.Get()
	if err != nil {
		return err
	}
	embedding := settings.Embedding

	s.mu.Lock()
	unchanged := s.active != nil && *s.active == embedding && s.handle.Current() != nil
	s.mu.Unlock()
	if unchanged {
		logger.Debug("Embedding settings unchanged (%s)", embedding.Identity())
		return nil
	}

	provider, err := s.factory.Create(embedding)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		logger.Warn("Building embedding provider %s failed: %v", embedding.Identity(), err)
		return err
	}

	logger.Debug("Embedding provider built: %s", embedding.Identity())
	return s.install(provider, embedding)
}

// Probe embeds a short text with the live provider.
func (s *EmbeddingService) Probe(ctx context.Context) (int, error) {
	provider := s.handle.Current()
	if provider == nil {
		return 0, errNoProvider
	}
	if s.validator == nil {
		return provider.Dimensions(), nil
	}
	return s.validator.ValidateEmbedding(ctx, provider)
}

// install swaps provider in and records the settings it was built from.
func (s *EmbeddingService) install(provider driven.EmbeddingProvider, embedding domain.EmbeddingSettings) error {
	s.mu.Lock()
	s.active = &embedding
	s.lastErr = nil
	s.mu.Unlock()

	if err := s.handle.Swap(provider); err != nil {
		logger.Warn("%v", err)
	}
	return nil
}
