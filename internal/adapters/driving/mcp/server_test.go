package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil retrieval service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"nil retrieval service", &Ports{}, ErrMissingRetrievalService},
		{"retrieval only", &Ports{Retrieval: &mockRetrievalService{}}, nil},
		{"all ports", &Ports{
			Retrieval:  &mockRetrievalService{},
			Answer:     &mockAnswerService{},
			Collection: &mockCollectionService{},
			Embedding:  &mockEmbeddingService{},
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// connect returns a client session talking to server over in-memory transports.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestServer_ListTools(t *testing.T) {
	t.Run("ask is hidden without an answer service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		res, err := connect(t, server).ListTools(context.Background(), nil)
		require.NoError(t, err)

		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"retrieve", "ingest"}, names)
	})

	t.Run("ask is listed with an answer service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: &mockAnswerService{}})
		require.NoError(t, err)

		res, err := connect(t, server).ListTools(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, res.Tools, 3)
	})
}

func TestServer_CallRetrieveTool(t *testing.T) {
	retrieval := &mockRetrievalService{results: []domain.RetrievedChunk{sampleChunk()}}
	server, err := NewServer(&Ports{Retrieval: retrieval})
	require.NoError(t, err)

	res, err := connect(t, server).CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "retrieve",
		Arguments: map[string]any{"question": "what is it?", "top_k": 2},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 2, retrieval.retrieveTK)
	require.NotEmpty(t, res.Content)
}

func TestServer_Serve_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
