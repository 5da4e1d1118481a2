// Command sercha-rag ingests documents into a vector store and answers
// questions from them.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/extractors"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetInitializer(initialize)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// initialize wires the adapters into the services used by the CLI.
func initialize(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	logger.Section("Startup")

	base, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	configDir := filepath.Dir(base.Path())

	configStore, err := env.New(base, env.WithEnvFiles(".env", filepath.Join(configDir, ".env")))
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		logger.Warn("Invalid settings: %v", err)
	}

	store, storeInfo, err := openStore(ctx, settings.Store, configDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Vector store: %s (%s)", storeInfo.Backend, storeInfo.Location)

	ch, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	handle := services.NewEmbeddingHandle(nil)
	embeddingService := services.NewEmbeddingService(handle, settingsService, ai.NewFactory(settings.Cache))
	embeddingService.SetValidator(ai.NewValidator())
	if err := embeddingService.Reload(ctx); err != nil {
		// Commands that do not embed still work; the error shows in status.
		logger.Warn("Embedding provider unavailable: %v", err)
	}

	assembler := services.NewContextAssembler(settings.Retrieval.MaxContextChars, settings.Retrieval.MaxChunkChars)
	retrievalService := services.NewRetrievalService(ch, handle, store, assembler)
	retrievalService.SetTextExtractor(extractors.NewDefault())
	retrievalService.SetDefaults(settings.Retrieval.TopK, settings.Retrieval.Collection)

	llmSettings := settings.LLM
	answerService := services.NewAnswerService(retrievalService, newLLM(llmSettings))

	promptStore, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		logger.Warn("Custom prompts disabled: %v", err)
	} else {
		answerService.SetPromptStore(promptStore)
	}

	reload := func(ctx context.Context) error {
		if err := configStore.Load(); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
		if promptStore != nil {
			promptStore.Reload()
		}
		current, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if current.LLM != llmSettings {
			llmSettings = current.LLM
			answerService.SetLLM(newLLM(llmSettings))
			logger.Info("LLM client rebuilt for %s", llmSettings.Model)
		}
		return embeddingService.Reload(ctx)
	}

	return &cli.Services{
		Retrieval:  retrievalService,
		Answer:     answerService,
		Collection: services.NewCollectionService(store),
		Embedding:  embeddingService,
		Settings:   settingsService,
		Store:      storeInfo,
		ConfigPath: base.Path(),
		Reload:     reload,
		Close: func() error {
			answerService.SetLLM(nil)
			return errors.Join(handle.Close(), store.Close())
		},
	}, nil
}

// newLLM builds the answer client, or returns nil when no key is configured.
func newLLM(settings domain.LLMSettings) driven.LLMService {
	if !settings.IsConfigured() {
		return nil
	}
	return ai.CreateLLMService(settings)
}

// openStore opens the configured vector store backend.
func openStore(ctx context.Context, settings domain.StoreSettings, configDir string) (driven.VectorStore, cli.StoreInfo, error) {
	switch settings.Backend {
	case domain.StoreBackendMemory:
		return memory.NewVectorStore(), cli.StoreInfo{Backend: "memory", Location: "process memory"}, nil

	case domain.StoreBackendPgvector:
		store, err := pgvector.Open(ctx, settings.DSN)
		if err != nil {
			return nil, cli.StoreInfo{}, fmt.Errorf("failed to open pgvector store: %w", err)
		}
		return store, cli.StoreInfo{Backend: "pgvector", Location: redactedHost(settings.DSN)}, nil

	case domain.StoreBackendSQLite, "":
		dataDir := settings.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(configDir, "data")
		}
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, cli.StoreInfo{}, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, cli.StoreInfo{Backend: "sqlite", Location: store.Path()}, nil

	default:
		return nil, cli.StoreInfo{}, fmt.Errorf("%w: store.backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

// redactedHost reduces a DSN to host and database for display.
func redactedHost(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Host + u.Path
}
