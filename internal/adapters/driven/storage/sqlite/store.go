package sqlite

import (
	"context"
	"database/sql"
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

	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// DatabaseFile is the file name created inside the data directory.
const DatabaseFile = "index.db"

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: sqlite data directory is required", domain.ErrConfiguration)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
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

// migrate applies every NNN_*.up.sql newer than the recorded version.
// Each migration and its version row commit together.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// OpenCollection returns the named collection, creating it on first use.
func (s *Store) OpenCollection(ctx context.Context, spec domain.CollectionSpec) (driven.Collection, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrConfiguration)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored domain.CollectionSpec
	err = tx.QueryRowContext(ctx,
		"SELECT name, embedding_model, dimensions FROM collections WHERE name = ?", spec.Name,
	).Scan(&stored.Name, &stored.EmbeddingModel, &stored.Dimensions)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO collections (name, embedding_model, dimensions) VALUES (?, ?, ?)",
			spec.Name, spec.EmbeddingModel, spec.Dimensions,
		); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		stored = spec
	case err != nil:
		return nil, fmt.Errorf("reading collection: %w", err)
	case !stored.Compatible(spec):
		return nil, fmt.Errorf("%w: collection %q was created with %s (%d dims), configured embedder is %s (%d dims)",
			domain.ErrConfiguration, spec.Name, stored.EmbeddingModel, stored.Dimensions,
			spec.EmbeddingModel, spec.Dimensions)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return &collection{db: s.db, spec: stored}, nil
}

// collection implements driven.Collection.
type collection struct {
	db   *sql.DB
	spec domain.CollectionSpec
}

var _ driven.Collection = (*collection)(nil)

func (c *collection) Spec() domain.CollectionSpec {
	return c.spec
}

// HasSource reports whether any entry has the exact source path.
func (c *collection) HasSource(ctx context.Context, source string) (bool, error) {
	var exists int
	err := c.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM entries WHERE collection = ? AND source = ?)",
		c.spec.Name, source,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking source: %w", err)
	}
	return exists == 1, nil
}

// Add inserts all entries in one transaction.
func (c *collection) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := rank.CheckDimensions(e.Vector, c.spec.Dimensions); err != nil {
			return fmt.Errorf("chunk %s: %w", e.Chunk.ID, err)
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, collection, source, page, position, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		metadataJSON, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, e.Chunk.ID, c.spec.Name, e.Chunk.Source, e.Chunk.Page,
			e.Chunk.Position, e.Chunk.Text, string(metadataJSON), float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search scans the collection in one statement and keeps the k nearest.
func (c *collection) Search(ctx context.Context, vector []float32, k int) (domain.RetrievalResult, error) {
	if err := rank.CheckDimensions(vector, c.spec.Dimensions); err != nil {
		return nil, err
	}
	if k <= 0 {
		return domain.RetrievalResult{}, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, id, source, page, position, text, metadata, embedding
		FROM entries WHERE collection = ? ORDER BY seq
	`, c.spec.Name)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	top := rank.NewTopK(vector, k)
	for rows.Next() {
		var (
			seq          int64
			chunk        domain.Chunk
			metadataJSON string
			blob         []byte
		)
		if err := rows.Scan(&seq, &chunk.ID, &chunk.Source, &chunk.Page, &chunk.Position,
			&chunk.Text, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		stored := bytesToFloat32Slice(blob)
		if len(stored) != len(vector) {
			continue
		}
		if metadataJSON != "" && metadataJSON != jsonNull {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata: %w", err)
			}
		}
		top.Offer(chunk, stored, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return top.Result(), nil
}

func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE collection = ?", c.spec.Name,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

func (c *collection) Sources(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT DISTINCT source FROM entries WHERE collection = ? ORDER BY source", c.spec.Name)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
