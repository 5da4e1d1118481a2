package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

// --- Mock implementations ---

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	results  []domain.RetrievedChunk
	result   *domain.IngestResult
	deleted  int
	err      error
	ingested []domain.IngestRequest
	files    []string
	fileOpts []domain.IngestOptions
	cleared  []string
	topK     int
}

func (m *mockRetrievalService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.ingested = append(m.ingested, req)
	return m.result, m.err
}

func (m *mockRetrievalService) IngestFile(
	_ context.Context, path string, opts domain.IngestOptions,
) (*domain.IngestResult, error) {
	m.files = append(m.files, path)
	m.fileOpts = append(m.fileOpts, opts)
	return m.result, m.err
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, _ string, topK int, _ string,
) ([]domain.RetrievedChunk, error) {
	m.topK = topK
	return m.results, m.err
}

func (m *mockRetrievalService) DeleteDocument(_ context.Context, _, _ string) (int, error) {
	return m.deleted, m.err
}

func (m *mockRetrievalService) Clear(_ context.Context, collection string) error {
	m.cleared = append(m.cleared, collection)
	return m.err
}

func (m *mockRetrievalService) AssembleContext(results []domain.RetrievedChunk) string {
	return services.NewContextAssembler(0, 0).Assemble(results)
}

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, _ domain.AskOptions) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockCollectionService implements driving.CollectionService for testing.
type mockCollectionService struct {
	infos   []domain.CollectionInfo
	created []string
	removed []string
	err     error
}

func (m *mockCollectionService) Create(_ context.Context, name string) error {
	m.created = append(m.created, name)
	return m.err
}

func (m *mockCollectionService) Delete(_ context.Context, name string) error {
	m.removed = append(m.removed, name)
	return m.err
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.CollectionInfo, error) {
	return m.infos, m.err
}

// mockEmbeddingService implements driving.EmbeddingService for testing.
type mockEmbeddingService struct {
	status    domain.EmbeddingStatus
	switched  []domain.EmbeddingKind
	reloads   int
	err       error
	probeDims int
	probeErr  error
}

func (m *mockEmbeddingService) Status() domain.EmbeddingStatus {
	return m.status
}

func (m *mockEmbeddingService) SupportedKinds() []string {
	return []string{"remote", "local"}
}

func (m *mockEmbeddingService) Switch(_ context.Context, kind domain.EmbeddingKind) error {
	m.switched = append(m.switched, kind)
	return m.err
}

func (m *mockEmbeddingService) Reload(_ context.Context) error {
	m.reloads++
	return m.err
}

func (m *mockEmbeddingService) Probe(_ context.Context) (int, error) {
	return m.probeDims, m.probeErr
}

// testServices exposes the mocks installed by setupTestServices.
type testServices struct {
	retrieval  *mockRetrievalService
	answer     *mockAnswerService
	collection *mockCollectionService
	embedding  *mockEmbeddingService
	settings   *services.SettingsService
	config     *memory.ConfigStore
}

// setupTestServices installs mock services and returns a cleanup function.
func setupTestServices() func() {
	_, cleanup := setupTestServicesWithMocks()
	return cleanup
}

func setupTestServicesWithMocks() (*testServices, func()) {
	config := memory.NewConfigStore()
	ts := &testServices{
		retrieval: &mockRetrievalService{
			results: []domain.RetrievedChunk{{
				ID:   "doc-1_0",
				Text: "Tomatoes need full sun.",
				Metadata: domain.Metadata{
					domain.MetaDocumentID:  "doc-1",
					domain.MetaChunkIndex:  0,
					domain.MetaTotalChunks: 2,
					domain.MetaFilename:    "garden.txt",
				},
				Distance: 0.1234,
			}},
			result: &domain.IngestResult{
				DocumentID: "doc-1",
				Collection: "documents",
				Filename:   "garden.txt",
				Chunks:     2,
				Stored:     2,
				Provider:   "local",
				Model:      "hash-384",
			},
		},
		answer: &mockAnswerService{answer: &domain.Answer{
			Question:    "what do tomatoes need?",
			Text:        "Full sun.",
			Model:       "openai/gpt-4o-mini",
			TotalTokens: 100,
		}},
		collection: &mockCollectionService{infos: []domain.CollectionInfo{{Name: "documents", Count: 2}}},
		embedding: &mockEmbeddingService{status: domain.EmbeddingStatus{
			Kind:           "local",
			Model:          "hash-384",
			Dimensions:     384,
			Configured:     true,
			SupportedKinds: []string{"remote", "local"},
		}},
		settings: services.NewSettingsService(config),
		config:   config,
	}

	oldStore, oldPath, oldInit := storeInfo, configPath, initializer

	initializer = nil
	SetServices(&Services{
		Retrieval:  ts.retrieval,
		Answer:     ts.answer,
		Collection: ts.collection,
		Embedding:  ts.embedding,
		Settings:   ts.settings,
		Store:      StoreInfo{Backend: "memory", Location: ":memory:"},
		ConfigPath: "/tmp/sercha-rag/config.toml",
	})

	return ts, func() {
		retrievalService = nil
		answerService = nil
		collectionService = nil
		embeddingService = nil
		settingsService = nil
		reloadFunc = nil
		closeFunc = nil
		storeInfo = oldStore
		configPath = oldPath
		initializer = oldInit
		resetFlags()
	}
}

// resetFlags restores flag variables, which persist between Execute calls.
func resetFlags() {
	verbose = false
	configDir = ""
	timeout = 2 * time.Minute

	ingestID, ingestCollection, ingestReplace, ingestJSON = "", "", false, false
	ingestTextCollection, ingestTextFilename = "", ""
	deleteCollection, clearCollection = "", ""

	queryLimit, queryCollection, queryJSON, queryContext = 0, "", false, false
	askLimit, askCollection, askJSON = 0, "", false

	collectionListJSON = false
	embeddingShowJSON, embeddingShowProbe = false, false
	embeddingAPI, embeddingModel, embeddingBaseURL, embeddingAPIKey = "", "", "", ""
	embeddingPromptKey = false
	llmKeyPrompt = false
	settingsJSON = false
	statusJSON, statusProbe = false, false
	serveHTTP, serveNoWatch = "", false
}
