package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval runs ingestion and query.
	Retrieval driving.RetrievalService

	// Answer generates answers. The ask tool is only registered when set.
	Answer driving.AnswerService

	// Collection lists collections for the collections resource.
	Collection driving.CollectionService

	// Embedding reports the live provider for the status resource.
	Embedding driving.EmbeddingService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
