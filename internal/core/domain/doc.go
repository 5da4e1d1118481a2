// Package domain defines the core entities of the retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Metadata: Scalar key/value fields stored with every vector
//   - ChunkMetadata: The fixed metadata schema stored with every chunk
//   - RetrievedChunk: A ranked query hit with its cosine distance
//   - AppSettings: Chunking, embedding, storage and LLM configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
