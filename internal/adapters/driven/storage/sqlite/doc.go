// Package sqlite provides the default vector store, backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Vectors are stored as little-endian
// float32 blobs next to their text and JSON metadata, partitioned by collection.
//
// # Search
//
// Queries are an exact scan: every vector in the collection is compared to the
// query by cosine distance. Ties keep insertion order. This is adequate for
// personal-scale corpora; there is no approximate index.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-rag/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
