package driven

import (
	"context"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// VectorStore opens named collections. Implementations: sqlite (default,
// persistent), memory (tests, ephemeral runs) and postgres with pgvector.
type VectorStore interface {
	// OpenCollection returns the named collection, creating it with spec
	// if it does not exist. Opening an existing collection with an
	// incompatible embedder returns domain.ErrConfiguration.
	OpenCollection(ctx context.Context, spec domain.CollectionSpec) (Collection, error)

	// Close releases the underlying connection.
	Close() error
}

// Collection is a persistent set of embedded chunks.
type Collection interface {
	// Spec returns the collection identity as stored.
	Spec() domain.CollectionSpec

	// HasSource reports whether any chunk with the given source path exists.
	HasSource(ctx context.Context, source string) (bool, error)

	// Add stores entries atomically. Either every entry is stored or none.
	// Seq values on the input are ignored and assigned by the store.
	Add(ctx context.Context, entries []domain.IndexEntry) error

	// Search returns up to k entries nearest to vector by cosine distance,
	// ordered by distance then insertion sequence. An empty collection
	// yields an empty result.
	Search(ctx context.Context, vector []float32, k int) (domain.RetrievalResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Sources returns the distinct source paths in the collection.
	Sources(ctx context.Context) ([]string, error)
}
