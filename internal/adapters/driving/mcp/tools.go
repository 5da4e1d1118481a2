package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question       string `json:"question" jsonschema:"the question to find relevant chunks for"`
	TopK           int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default from settings)"`
	Collection     string `json:"collection,omitempty" jsonschema:"collection to search (default from settings)"`
	IncludeContext bool   `json:"include_context,omitempty" jsonschema:"also return the assembled prompt context"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
	Context string        `json:"context,omitempty"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Distance   float64 `json:"distance"`
	Text       string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the stored documents"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of chunks to ground the answer on"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer      string        `json:"answer"`
	Sources     []ChunkOutput `json:"sources"`
	Model       string        `json:"model,omitempty"`
	TotalTokens int           `json:"total_tokens"`
}

// IngestInput is the input schema for the ingest tool.
// Either Path or DocumentID with Text must be given.
type IngestInput struct {
	Path       string `json:"path,omitempty" jsonschema:"file to ingest (.txt, .md, .markdown, .docx, .pdf)"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"document identifier (generated for files when empty)"`
	Text       string `json:"text,omitempty" jsonschema:"raw text to ingest instead of a file"`
	Filename   string `json:"filename,omitempty" jsonschema:"filename recorded for raw text"`
	Collection string `json:"collection,omitempty" jsonschema:"target collection"`
	Replace    bool   `json:"replace,omitempty" jsonschema:"replace existing chunks of the document once the new ones are embedded"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
	Stored     int    `json:"stored"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the document chunks most similar to a question",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Chunk, embed and store a file or a piece of text",
	}, s.handleIngest)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using only the stored documents",
		}, s.handleAsk)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	results, err := s.ports.Retrieval.Retrieve(ctx, input.Question, input.TopK, input.Collection)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: toChunkOutputs(results),
		Count:   len(results),
	}
	if input.IncludeContext {
		output.Context = s.ports.Retrieval.AssembleContext(results)
	}
	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Question, domain.AskOptions{
		TopK:       input.TopK,
		Collection: input.Collection,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:      answer.Text,
		Sources:     toChunkOutputs(answer.Sources),
		Model:       answer.Model,
		TotalTokens: answer.TotalTokens,
	}, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	var (
		result *domain.IngestResult
		err    error
	)

	switch {
	case input.Path != "":
		result, err = s.ports.Retrieval.IngestFile(ctx, input.Path, domain.IngestOptions{
			DocumentID: input.DocumentID,
			Collection: input.Collection,
			Replace:    input.Replace,
		})
	case strings.TrimSpace(input.Text) != "":
		meta := domain.Metadata{}
		if input.Filename != "" {
			meta[domain.MetaFilename] = input.Filename
		}
		result, err = s.ports.Retrieval.Ingest(ctx, domain.IngestRequest{
			DocumentID: input.DocumentID,
			Text:       input.Text,
			Metadata:   meta,
			Collection: input.Collection,
			Replace:    input.Replace,
		})
	default:
		return nil, IngestOutput{}, errors.New("either path or text is required")
	}
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID: result.DocumentID,
		Collection: result.Collection,
		Chunks:     result.Chunks,
		Stored:     result.Stored,
	}, nil
}

func toChunkOutputs(results []domain.RetrievedChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(results))
	for i := range results {
		meta := domain.ChunkMetadataFromMap(results[i].Metadata)
		out[i] = ChunkOutput{
			ID:         results[i].ID,
			DocumentID: meta.DocumentID,
			Filename:   results[i].Metadata.String(domain.MetaFilename),
			ChunkIndex: meta.ChunkIndex,
			Distance:   results[i].Distance,
			Text:       results[i].Text,
		}
	}
	return out
}
