// Package pgvector provides a PostgreSQL vector store using the pgvector
// extension. Distances use the cosine operator (<=>) and metadata is kept
// in a jsonb column so exact-match deletes become containment queries.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// schema creates the extension and tables if missing.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS rag_collections (
		name TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rag_chunks (
		seq BIGSERIAL,
		collection TEXT NOT NULL REFERENCES rag_collections(name) ON DELETE CASCADE,
		id TEXT NOT NULL,
		text TEXT NOT NULL,
		embedding vector NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rag_chunks_metadata ON rag_chunks USING GIN (metadata)`,
}

// Store is a PostgreSQL/pgvector vector store.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: pgvector store requires a DSN", domain.ErrStorage)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStorage, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connecting to database: %w", domain.ErrStorage, err)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. The schema is not touched.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the extension, tables and indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrating schema: %w", domain.ErrStorage, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Collections ====================

// CreateCollection creates a collection if it does not exist.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO rag_collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("%w: creating collection %s: %w", domain.ErrStorage, name, err)
	}
	return nil
}

// DeleteCollection removes a collection; chunks cascade.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rag_collections WHERE name = $1`, name); err != nil {
		return fmt.Errorf("%w: deleting collection %s: %w", domain.ErrStorage, name, err)
	}
	return nil
}

// ListCollections returns collection names in sorted order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM rag_collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing collections: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scanning collection: %w", domain.ErrStorage, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing collections: %w", domain.ErrStorage, err)
	}
	return names, nil
}

// Clear deletes every entry in a collection and resets its dimension.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if err := domain.ValidateCollectionName(collection); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rag_chunks WHERE collection = $1`, collection); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rag_collections (name, dimensions) VALUES ($1, 0)
			ON CONFLICT (name) DO UPDATE SET dimensions = 0
		`, collection); err != nil {
			return fmt.Errorf("resetting collection: %w", err)
		}
		return nil
	})
}

// Count returns the number of entries in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := domain.ValidateCollectionName(collection); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rag_chunks WHERE collection = $1`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %w", domain.ErrStorage, err)
	}
	return n, nil
}

// ==================== Vectors ====================

// Upsert inserts or replaces an entry by ID, creating the collection if needed.
func (s *Store) Upsert(ctx context.Context, collection string, record domain.VectorRecord) error {
	if err := domain.ValidateCollectionName(collection); err != nil {
		return err
	}
	if record.ID == "" {
		return fmt.Errorf("%w: record id is required", domain.ErrInvalidInput)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: record %s has an empty vector", domain.ErrStorage, record.ID)
	}
	if err := record.Metadata.Validate(); err != nil {
		return fmt.Errorf("%w: malformed metadata: %w", domain.ErrStorage, err)
	}

	metadata := record.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%w: malformed metadata: %w", domain.ErrStorage, err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rag_collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, collection); err != nil {
			return fmt.Errorf("creating collection: %w", err)
		}

		var dim int
		if err := tx.QueryRowContext(ctx,
			`SELECT dimensions FROM rag_collections WHERE name = $1 FOR UPDATE`, collection).Scan(&dim); err != nil {
			return fmt.Errorf("reading collection dimension: %w", err)
		}

		switch {
		case dim == 0:
			if _, err := tx.ExecContext(ctx,
				`UPDATE rag_collections SET dimensions = $2 WHERE name = $1`, collection, len(record.Vector)); err != nil {
				return fmt.Errorf("setting collection dimension: %w", err)
			}
		case dim != len(record.Vector):
			return fmt.Errorf("dimension mismatch: collection %s has %d, record %s has %d",
				collection, dim, record.ID, len(record.Vector))
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rag_chunks (collection, id, text, embedding, metadata)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (collection, id) DO UPDATE SET
				text = EXCLUDED.text,
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata
		`, collection, record.ID, record.Text, pgv.NewVector(record.Vector), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
		return nil
	})
}

// Query returns up to topK entries nearest to vector by cosine distance.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if err := domain.ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	var dim int
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions FROM rag_collections WHERE name = $1`, collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.RetrievedChunk{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading collection: %w", domain.ErrStorage, err)
	}
	if dim == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	if dim != len(vector) {
		return nil, fmt.Errorf("%w: dimension mismatch: collection %s has %d, query has %d",
			domain.ErrStorage, collection, dim, len(vector))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, metadata, embedding <=> $2 AS distance
		FROM rag_chunks
		WHERE collection = $1
		ORDER BY distance, seq
		LIMIT $3
	`, collection, pgv.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	hits := []domain.RetrievedChunk{}
	for rows.Next() {
		var hit domain.RetrievedChunk
		var metadataJSON []byte
		if err := rows.Scan(&hit.ID, &hit.Text, &metadataJSON, &hit.Distance); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk: %w", domain.ErrStorage, err)
		}
		hit.Metadata, err = domain.MetadataFromJSON(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed metadata for %s: %w", domain.ErrStorage, hit.ID, err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStorage, err)
	}
	return hits, nil
}

// DeleteByFilter deletes entries whose metadata contains every filter pair.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	if err := domain.ValidateCollectionName(collection); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete filter must not be empty", domain.ErrInvalidInput)
	}
	for k, v := range filter {
		if !domain.IsScalar(v) {
			return 0, fmt.Errorf("%w: filter value for %q is not a scalar", domain.ErrInvalidInput, k)
		}
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("%w: encoding filter: %w", domain.ErrInvalidInput, err)
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM rag_chunks WHERE collection = $1 AND metadata @> $2::jsonb`,
		collection, string(filterJSON))
	if err != nil {
		return 0, fmt.Errorf("%w: deleting chunks: %w", domain.ErrStorage, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: deleting chunks: %w", domain.ErrStorage, err)
	}
	return int(n), nil
}

// withTx runs fn in a transaction and wraps any failure with ErrStorage.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStorage, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrStorage, err)
	}
	return nil
}
