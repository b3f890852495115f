package driving

import (
	"context"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// IndexStore is an open collection bound to the embedder that fills it.
// It is returned by initialisation and passed explicitly to Sync and Ask.
type IndexStore interface {
	// Spec returns the collection identity.
	Spec() domain.CollectionSpec

	// HasSource reports whether the source path was already ingested.
	HasSource(ctx context.Context, source string) (bool, error)

	// Insert embeds the chunks and stores them atomically.
	Insert(ctx context.Context, chunks []domain.Chunk) error

	// Retrieve embeds query and returns up to k nearest chunks.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Sources returns the ingested source paths.
	Sources(ctx context.Context) ([]string, error)
}
