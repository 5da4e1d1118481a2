package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestExtractCollectionName(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid collection URI",
			uri:      "sercha-rag://collections/notes",
			expected: "notes",
		},
		{
			name:     "invalid prefix",
			uri:      "file://collections/notes",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "sercha-rag://collections/notes/extra",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractCollectionName(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleCollectionsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil collection service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		result, err := server.handleCollectionsResource(ctx, makeReadResourceRequest("sercha-rag://collections"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns collections", func(t *testing.T) {
		collections := &mockCollectionService{infos: []domain.CollectionInfo{
			{Name: "documents", Count: 12},
			{Name: "notes", Count: 0},
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Collection: collections})
		require.NoError(t, err)

		result, err := server.handleCollectionsResource(ctx, makeReadResourceRequest("sercha-rag://collections"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var infos []domain.CollectionInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		assert.Equal(t, collections.infos, infos)
	})

	t.Run("empty store returns empty array", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Collection: &mockCollectionService{}})
		require.NoError(t, err)

		result, err := server.handleCollectionsResource(ctx, makeReadResourceRequest("sercha-rag://collections"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		collections := &mockCollectionService{err: errors.New("db closed")}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Collection: collections})
		require.NoError(t, err)

		_, err = server.handleCollectionsResource(ctx, makeReadResourceRequest("sercha-rag://collections"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing collections")
	})
}

func TestServer_handleCollectionResource(t *testing.T) {
	ctx := context.Background()
	collections := &mockCollectionService{infos: []domain.CollectionInfo{{Name: "notes", Count: 7}}}
	server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Collection: collections})
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		result, err := server.handleCollectionResource(ctx, makeReadResourceRequest("sercha-rag://collections/notes"))

		require.NoError(t, err)
		var info domain.CollectionInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, domain.CollectionInfo{Name: "notes", Count: 7}, info)
	})

	t.Run("unknown collection", func(t *testing.T) {
		_, err := server.handleCollectionResource(ctx, makeReadResourceRequest("sercha-rag://collections/other"))
		assert.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		_, err := server.handleCollectionResource(ctx, makeReadResourceRequest("sercha-rag://collections/"))
		assert.Error(t, err)
	})

	t.Run("nil collection service", func(t *testing.T) {
		bare, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, err = bare.handleCollectionResource(ctx, makeReadResourceRequest("sercha-rag://collections/notes"))
		assert.Error(t, err)
	})
}

func TestServer_handleEmbeddingResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns status", func(t *testing.T) {
		embedding := &mockEmbeddingService{status: domain.EmbeddingStatus{
			Kind:           "local",
			Model:          "hash-384",
			Dimensions:     384,
			Configured:     true,
			SupportedKinds: []string{"remote", "local"},
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Embedding: embedding})
		require.NoError(t, err)

		result, err := server.handleEmbeddingResource(ctx, makeReadResourceRequest("sercha-rag://embedding"))

		require.NoError(t, err)
		var status domain.EmbeddingStatus
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &status))
		assert.Equal(t, embedding.status, status)
	})

	t.Run("nil embedding service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, err = server.handleEmbeddingResource(ctx, makeReadResourceRequest("sercha-rag://embedding"))
		assert.Error(t, err)
	})
}
