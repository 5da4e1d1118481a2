package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// errNoProvider is returned when no embedding provider has been built.
var errNoProvider = fmt.Errorf("%w: no embedding provider is active", domain.ErrEmbeddingBackend)

// RetrievalService runs ingestion and query over one vector store.
type RetrievalService struct {
	chunker   *chunker.Chunker
	embedding *EmbeddingHandle
	store     driven.VectorStore
	assembler *ContextAssembler
	extractor driven.TextExtractor

	defaultTopK       int
	defaultCollection string
	newID             func() string
}

// NewRetrievalService creates a retrieval pipeline.
// The text extractor is optional; without it IngestFile fails.
func NewRetrievalService(
	ch *chunker.Chunker,
	embedding *EmbeddingHandle,
	store driven.VectorStore,
	assembler *ContextAssembler,
) *RetrievalService {
	if assembler == nil {
		assembler = NewContextAssembler(0, 0)
	}
	return &RetrievalService{
		chunker:           ch,
		embedding:         embedding,
		store:             store,
		assembler:         assembler,
		defaultTopK:       domain.DefaultTopK,
		defaultCollection: domain.DefaultCollection,
		newID:             uuid.NewString,
	}
}

// SetTextExtractor sets the extractor used by IngestFile.
func (s *RetrievalService) SetTextExtractor(extractor driven.TextExtractor) {
	s.extractor = extractor
}

// SetDefaults sets the top-k and collection used when callers pass zero values.
func (s *RetrievalService) SetDefaults(topK int, collection string) {
	if topK > 0 {
		s.defaultTopK = topK
	}
	if collection != "" {
		s.defaultCollection = collection
	}
}

// DefaultCollection returns the collection used for empty names.
func (s *RetrievalService) DefaultCollection() string {
	return s.defaultCollection
}

// Ingest chunks, embeds and stores a document's text.
func (s *RetrievalService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: document %s has no text", domain.ErrInvalidInput, documentID)
	}
	collection, err := s.resolveCollection(req.Collection)
	if err != nil {
		return nil, err
	}

	provider := s.embedding.Current()
	if provider == nil {
		return nil, errNoProvider
	}

	chunks := s.chunker.Chunk(req.Text)
	logger.Debug("Document %s: %d chars -> %d chunks (size=%d, overlap=%d)",
		documentID, utf8.RuneCountInString(req.Text), len(chunks), s.chunker.ChunkSize(), s.chunker.Overlap())

	vectors, err := provider.Embed(ctx, chunks)
	if err != nil {
		logger.Warn("Embedding %d chunks of %s failed: %v", len(chunks), documentID, err)
		return nil, fmt.Errorf("embedding document %s: %w", documentID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingBackend, len(vectors), len(chunks))
	}
	logger.Debug("Embedded with %s/%s (%d dims)", provider.Kind(), provider.ModelName(), len(vectors[0]))

	if req.Replace {
		deleted, err := s.store.DeleteByFilter(ctx, collection, domain.DocumentFilter(documentID))
		if err != nil {
			return nil, fmt.Errorf("replacing document %s: %w", documentID, err)
		}
		logger.Debug("Replace: removed %d existing chunks", deleted)
	}

	result := &domain.IngestResult{
		DocumentID: documentID,
		Collection: collection,
		Filename:   req.Metadata.String(domain.MetaFilename),
		Chunks:     len(chunks),
		Provider:   provider.Kind(),
		Model:      provider.ModelName(),
	}

	source := domain.SanitizeSourceMetadata(req.Metadata)
	for i, text := range chunks {
		meta := domain.ChunkMetadata{
			DocumentID:        documentID,
			ChunkIndex:        i,
			ChunkSize:         utf8.RuneCountInString(text),
			TotalChunks:       len(chunks),
			EmbeddingProvider: provider.Kind(),
			EmbeddingModel:    provider.ModelName(),
			Source:            source,
		}
		record := domain.VectorRecord{
			ID:       domain.ChunkID(documentID, i),
			Vector:   vectors[i],
			Text:     text,
			Metadata: meta.ToMap(),
		}
		if err := s.store.Upsert(ctx, collection, record); err != nil {
			logger.Warn("Partial write for %s in %s: stored %d/%d chunks: %v",
				documentID, collection, result.Stored, len(chunks), err)
			if !errors.Is(err, domain.ErrStorage) {
				err = fmt.Errorf("%w: %w", domain.ErrStorage, err)
			}
			return result, fmt.Errorf("storing chunk %d of %s: %w", i, documentID, err)
		}
		result.Stored++
	}

	logger.Info("Ingested %s into %s: %d chunks", documentID, collection, result.Stored)
	return result, nil
}

// IngestFile extracts a file's text and ingests it with file metadata.
func (s *RetrievalService) IngestFile(
	ctx context.Context, path string, opts domain.IngestOptions,
) (*domain.IngestResult, error) {
	logger.Section("Ingest File")
	logger.Debug("Path: %s", path)

	if s.extractor == nil || !s.extractor.Supports(path) {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	text, extracted, err := s.extractor.Extract(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}

	documentID := strings.TrimSpace(opts.DocumentID)
	if documentID == "" {
		documentID = s.newID()
	}
	logger.Debug("Document id: %s", documentID)

	meta := extracted.Clone()
	if meta == nil {
		meta = make(domain.Metadata)
	}
	meta[domain.MetaFilename] = filepath.Base(absPath)
	meta[domain.MetaFileSize] = info.Size()
	meta[domain.MetaFileType] = strings.ToLower(filepath.Ext(absPath))
	meta[domain.MetaOriginalPath] = absPath

	return s.Ingest(ctx, domain.IngestRequest{
		DocumentID: documentID,
		Text:       text,
		Metadata:   meta,
		Collection: opts.Collection,
		Replace:    opts.Replace,
	})
}

// Retrieve embeds the question and returns the nearest chunks.
func (s *RetrievalService) Retrieve(
	ctx context.Context, question string, topK int, collection string,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Retrieve")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}
	collection, err := s.resolveCollection(collection)
	if err != nil {
		return nil, err
	}
	logger.Debug("Question: %q, top_k=%d, collection=%s", question, topK, collection)

	provider := s.embedding.Current()
	if provider == nil {
		return nil, errNoProvider
	}

	vectors, err := provider.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 question", domain.ErrEmbeddingBackend, len(vectors))
	}

	results, err := s.store.Query(ctx, collection, vectors[0], topK)
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d chunks", len(results))
	return results, nil
}

// DeleteDocument removes every chunk of a document from a collection.
func (s *RetrievalService) DeleteDocument(ctx context.Context, documentID, collection string) (int, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	collection, err := s.resolveCollection(collection)
	if err != nil {
		return 0, err
	}

	deleted, err := s.store.DeleteByFilter(ctx, collection, domain.DocumentFilter(documentID))
	if err != nil {
		return 0, err
	}
	logger.Debug("Deleted %d chunks of %s from %s", deleted, documentID, collection)
	return deleted, nil
}

// Clear empties a collection.
func (s *RetrievalService) Clear(ctx context.Context, collection string) error {
	collection, err := s.resolveCollection(collection)
	if err != nil {
		return err
	}
	logger.Debug("Clearing %s", collection)
	return s.store.Clear(ctx, collection)
}

// AssembleContext renders ranked chunks into a bounded prompt context.
func (s *RetrievalService) AssembleContext(results []domain.RetrievedChunk) string {
	return s.assembler.Assemble(results)
}

// resolveCollection applies the default and validates the name.
func (s *RetrievalService) resolveCollection(name string) (string, error) {
	if name == "" {
		name = s.defaultCollection
	}
	if err := domain.ValidateCollectionName(name); err != nil {
		return "", err
	}
	return name, nil
}
