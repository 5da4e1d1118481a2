package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results    []domain.RetrievedChunk
	result     *domain.IngestResult
	assembled  string
	err        error
	deleteErr  error
	ingested   []domain.IngestRequest
	files      []string
	fileOpts   []domain.IngestOptions
	deleted    []string
	retrieveTK int
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
	m.retrieveTK = topK
	return m.results, m.err
}

func (m *mockRetrievalService) DeleteDocument(_ context.Context, documentID, _ string) (int, error) {
	m.deleted = append(m.deleted, documentID)
	return 0, m.deleteErr
}

func (m *mockRetrievalService) Clear(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRetrievalService) AssembleContext(_ []domain.RetrievedChunk) string {
	return m.assembled
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	opts   domain.AskOptions
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, opts domain.AskOptions) (*domain.Answer, error) {
	m.opts = opts
	return m.answer, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	infos []domain.CollectionInfo
	err   error
}

func (m *mockCollectionService) Create(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCollectionService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.CollectionInfo, error) {
	return m.infos, m.err
}

// mockEmbeddingService is a mock implementation of driving.EmbeddingService.
type mockEmbeddingService struct {
	status domain.EmbeddingStatus
	err    error
}

func (m *mockEmbeddingService) Status() domain.EmbeddingStatus {
	return m.status
}

func (m *mockEmbeddingService) SupportedKinds() []string {
	return m.status.SupportedKinds
}

func (m *mockEmbeddingService) Switch(_ context.Context, _ domain.EmbeddingKind) error {
	return m.err
}

func (m *mockEmbeddingService) Reload(_ context.Context) error {
	return m.err
}

func (m *mockEmbeddingService) Probe(_ context.Context) (int, error) {
	return m.status.Dimensions, m.err
}
