package domain

// VectorRecord is one chunk as written to a vector store.
type VectorRecord struct {
	// ID is the chunk identifier. Upserts are idempotent on it.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Text is the chunk content.
	Text string

	// Metadata holds scalar fields only.
	Metadata Metadata
}

// RetrievedChunk is a single query hit.
type RetrievedChunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`

	// Distance is the cosine distance to the query (lower is closer).
	Distance float64 `json:"distance"`
}

// IngestRequest describes text to chunk, embed and store.
type IngestRequest struct {
	// DocumentID identifies the document. Required.
	DocumentID string

	// Text is the extracted plain text.
	Text string

	// Metadata holds caller source fields. Only allow-listed scalars are kept.
	Metadata Metadata

	// Collection is the target collection (default "documents").
	Collection string

	// Replace removes the document's existing chunks once embedding has succeeded.
	Replace bool
}

// IngestOptions configures file ingestion.
type IngestOptions struct {
	// DocumentID overrides the generated identifier.
	DocumentID string

	// Collection is the target collection (default "documents").
	Collection string

	// Replace swaps out existing chunks of the document after the new ones are embedded.
	Replace bool
}

// IngestResult reports the outcome of an ingest.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Collection string `json:"collection"`
	Filename   string `json:"filename,omitempty"`
	Chunks     int    `json:"chunks"`
	Stored     int    `json:"stored"`
	Provider   string `json:"embedding_provider"`
	Model      string `json:"embedding_model"`
}
