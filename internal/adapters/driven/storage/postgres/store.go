// Package postgres provides a VectorStore on PostgreSQL with the pgvector
// extension. Distances are computed by the database with the cosine
// operator (<=>).
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a pgvector-backed vector store.
type Store struct {
	db *sqlx.DB
}

// NewStore connects to dsn and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrConfiguration)
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := &Store{db: db}
	if err := s.applyMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// applyMigrations runs every statement of every migration file. All
// statements are idempotent.
func (s *Store) applyMigrations(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return err
		}
		for _, q := range strings.Split(string(content), ";") {
			q = strings.TrimSpace(q)
			if q == "" {
				continue
			}
			if _, err := s.db.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("execute query in %s: %w", file, err)
			}
		}
	}
	return nil
}

type collectionRow struct {
	Name           string `db:"name"`
	EmbeddingModel string `db:"embedding_model"`
	Dimensions     int    `db:"dimensions"`
}

// OpenCollection returns the named collection, creating it on first use.
func (s *Store) OpenCollection(ctx context.Context, spec domain.CollectionSpec) (driven.Collection, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrConfiguration)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO lm_collections (name, embedding_model, dimensions)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`, spec.Name, spec.EmbeddingModel, spec.Dimensions); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	var row collectionRow
	if err := s.db.GetContext(ctx, &row,
		"SELECT name, embedding_model, dimensions FROM lm_collections WHERE name = $1", spec.Name,
	); err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}

	stored := domain.CollectionSpec{Name: row.Name, EmbeddingModel: row.EmbeddingModel, Dimensions: row.Dimensions}
	if !stored.Compatible(spec) {
		return nil, fmt.Errorf("%w: collection %q was created with %s (%d dims), configured embedder is %s (%d dims)",
			domain.ErrConfiguration, spec.Name, stored.EmbeddingModel, stored.Dimensions,
			spec.EmbeddingModel, spec.Dimensions)
	}
	return &collection{db: s.db, spec: stored}, nil
}

type collection struct {
	db   *sqlx.DB
	spec domain.CollectionSpec
}

var _ driven.Collection = (*collection)(nil)

func (c *collection) Spec() domain.CollectionSpec {
	return c.spec
}

func (c *collection) HasSource(ctx context.Context, source string) (bool, error) {
	var exists bool
	if err := c.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM lm_entries WHERE collection = $1 AND source = $2)",
		c.spec.Name, source,
	); err != nil {
		return false, fmt.Errorf("checking source: %w", err)
	}
	return exists, nil
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

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO lm_entries (id, collection, source, page, position, text, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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
			e.Chunk.Position, e.Chunk.Text, string(metadataJSON), pgvector.NewVector(e.Vector)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type hitRow struct {
	ID       string  `db:"id"`
	Source   string  `db:"source"`
	Page     int     `db:"page"`
	Position int     `db:"position"`
	Text     string  `db:"text"`
	Metadata []byte  `db:"metadata"`
	Distance float64 `db:"distance"`
}

// Search orders by cosine distance, then insertion sequence. pgvector
// yields NaN for a zero vector; it is reported as distance 1 like the
// in-process stores.
func (c *collection) Search(ctx context.Context, vector []float32, k int) (domain.RetrievalResult, error) {
	if err := rank.CheckDimensions(vector, c.spec.Dimensions); err != nil {
		return nil, err
	}
	if k <= 0 {
		return domain.RetrievalResult{}, nil
	}

	var rows []hitRow
	if err := c.db.SelectContext(ctx, &rows, `
		SELECT id, source, page, position, text, metadata,
			COALESCE(NULLIF(embedding <=> $2, 'NaN'::float8), 1) AS distance
		FROM lm_entries
		WHERE collection = $1
		ORDER BY distance, seq
		LIMIT $3
	`, c.spec.Name, pgvector.NewVector(vector), k); err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}

	result := make(domain.RetrievalResult, 0, len(rows))
	for _, r := range rows {
		chunk := domain.Chunk{ID: r.ID, Source: r.Source, Page: r.Page, Position: r.Position, Text: r.Text}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata: %w", err)
			}
		}
		result = append(result, domain.ScoredChunk{Chunk: chunk, Distance: r.Distance})
	}
	return result, nil
}

func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM lm_entries WHERE collection = $1", c.spec.Name); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

func (c *collection) Sources(ctx context.Context) ([]string, error) {
	var sources []string
	err := c.db.SelectContext(ctx, &sources,
		"SELECT DISTINCT source FROM lm_entries WHERE collection = $1 ORDER BY source", c.spec.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	return sources, nil
}
