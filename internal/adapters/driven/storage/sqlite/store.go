package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// dbFileName is the database file inside the data directory.
const dbFileName = "vectors.db"

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-rag/data/vectors.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-rag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrStorage, err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL mode for concurrent readers; foreign keys on every pooled connection.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStorage, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStorage, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Collections ====================

// CreateCollection creates a collection if it does not exist.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO collections (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("%w: creating collection %s: %w", domain.ErrStorage, name, err)
	}
	return nil
}

// DeleteCollection removes a collection and its entries.
// Deleting a nonexistent collection is a no-op.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := domain.ValidateCollectionName(name); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", name); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
			return fmt.Errorf("deleting collection: %w", err)
		}
		return nil
	})
}

// ListCollections returns collection names in sorted order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
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
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", collection); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO collections (name, dimensions) VALUES (?, 0)
			ON CONFLICT(name) DO UPDATE SET dimensions = 0
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
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %w", domain.ErrStorage, err)
	}
	return n, nil
}

// ==================== Vectors ====================

// Upsert inserts or replaces an entry by ID, creating the collection if needed.
// The first vector written to a collection fixes its dimension.
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
			"INSERT OR IGNORE INTO collections (name) VALUES (?)", collection); err != nil {
			return fmt.Errorf("creating collection: %w", err)
		}

		var dim int
		if err := tx.QueryRowContext(ctx,
			"SELECT dimensions FROM collections WHERE name = ?", collection).Scan(&dim); err != nil {
			return fmt.Errorf("reading collection dimension: %w", err)
		}

		switch {
		case dim == 0:
			if _, err := tx.ExecContext(ctx,
				"UPDATE collections SET dimensions = ? WHERE name = ?", len(record.Vector), collection); err != nil {
				return fmt.Errorf("setting collection dimension: %w", err)
			}
		case dim != len(record.Vector):
			return fmt.Errorf("dimension mismatch: collection %s has %d, record %s has %d",
				collection, dim, record.ID, len(record.Vector))
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (collection, id, text, embedding, metadata)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				text = excluded.text,
				embedding = excluded.embedding,
				metadata = excluded.metadata
		`, collection, record.ID, record.Text, float32SliceToBytes(record.Vector), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
		return nil
	})
}

// Query returns up to topK entries nearest to vector by cosine distance.
// An empty or nonexistent collection yields an empty result.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if err := domain.ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	var dim int
	err := s.db.QueryRowContext(ctx,
		"SELECT dimensions FROM collections WHERE name = ?", collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.RetrievedChunk{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading collection: %w", domain.ErrStorage, err)
	}
	if dim != 0 && dim != len(vector) {
		return nil, fmt.Errorf("%w: dimension mismatch: collection %s has %d, query has %d",
			domain.ErrStorage, collection, dim, len(vector))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, embedding, metadata FROM chunks
		WHERE collection = ?
		ORDER BY seq
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	hits := []domain.RetrievedChunk{}
	for rows.Next() {
		var hit domain.RetrievedChunk
		var blob []byte
		var metadataJSON string
		if err := rows.Scan(&hit.ID, &hit.Text, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk: %w", domain.ErrStorage, err)
		}
		hit.Metadata, err = domain.MetadataFromJSON([]byte(metadataJSON))
		if err != nil {
			return nil, fmt.Errorf("%w: malformed metadata for %s: %w", domain.ErrStorage, hit.ID, err)
		}
		hit.Distance = domain.CosineDistance(vector, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStorage, err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByFilter deletes entries whose metadata matches every filter pair.
// Returns the number deleted.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	if err := domain.ValidateCollectionName(collection); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete filter must not be empty", domain.ErrInvalidInput)
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []string
	args := []any{collection}
	for _, k := range keys {
		v := filter[k]
		if !domain.IsScalar(v) {
			return 0, fmt.Errorf("%w: filter value for %q is not a scalar", domain.ErrInvalidInput, k)
		}
		clauses = append(clauses, "json_extract(metadata, ?) = ?")
		args = append(args, jsonPath(k), filterValue(v))
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE collection = ? AND "+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting chunks: %w", domain.ErrStorage, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: deleting chunks: %w", domain.ErrStorage, err)
	}
	return int(n), nil
}

// ==================== Helpers ====================

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

// jsonPath quotes a metadata key as a JSON path.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

// filterValue maps a filter value to what json_extract returns for it.
func filterValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if floats == nil {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
