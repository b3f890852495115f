package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
	"github.com/custodia-labs/loremaster/internal/core/ports/driving"
	"github.com/custodia-labs/loremaster/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driving.IndexStore = (*IndexStore)(nil)

// IndexStore binds a collection to the embedder that fills and queries it.
type IndexStore struct {
	collection driven.Collection
	embedder   driven.EmbeddingService
	batchSize  int
}

// IndexOption configures an IndexStore.
type IndexOption func(*IndexStore)

// WithBatchSize sets how many chunks are embedded per request.
// Non-positive values keep the default.
func WithBatchSize(n int) IndexOption {
	return func(s *IndexStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Initialize opens (or creates) the named collection for embedder. It is
// safe to call repeatedly; reopening a collection created by a different
// embedding model or dimension returns domain.ErrConfiguration.
func Initialize(
	ctx context.Context,
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	collection string,
	opts ...IndexOption,
) (*IndexStore, error) {
	if store == nil || embedder == nil {
		return nil, fmt.Errorf("%w: vector store and embedder are required", domain.ErrConfiguration)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrConfiguration)
	}

	spec := domain.CollectionSpec{
		Name:           collection,
		EmbeddingModel: embedder.ModelName(),
		Dimensions:     embedder.Dimensions(),
	}
	coll, err := store.OpenCollection(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}

	s := &IndexStore{
		collection: coll,
		embedder:   embedder,
		batchSize:  domain.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Debug("Opened collection %q (model %s, %d dimensions)", spec.Name, spec.EmbeddingModel, spec.Dimensions)
	return s, nil
}

// Spec returns the collection identity.
func (s *IndexStore) Spec() domain.CollectionSpec {
	return s.collection.Spec()
}

// HasSource reports whether any chunk of source is stored.
func (s *IndexStore) HasSource(ctx context.Context, source string) (bool, error) {
	return s.collection.HasSource(ctx, source)
}

// Insert embeds chunks in batches and adds them in a single atomic write.
// Nothing is written unless every chunk received a vector.
func (s *IndexStore) Insert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	entries := make([]domain.IndexEntry, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embed chunks %d-%d: %w", domain.ErrGeneration, start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
				domain.ErrGeneration, len(vectors), len(batch))
		}

		for i, c := range batch {
			entries = append(entries, domain.IndexEntry{Chunk: c, Vector: vectors[i]})
		}
	}

	if err := s.collection.Add(ctx, entries); err != nil {
		return fmt.Errorf("add %d entries: %w", len(entries), err)
	}
	return nil
}

// Retrieve returns up to k chunks nearest to query. A non-positive k or an
// empty collection yields an empty result.
func (s *IndexStore) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return domain.RetrievalResult{}, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrGeneration, err)
	}

	result, err := s.collection.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search collection: %w", err)
	}
	logger.Debug("Retrieved %d of k=%d chunks", len(result), k)
	return result, nil
}

// Count returns the number of stored chunks.
func (s *IndexStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(ctx)
}

// Sources returns the ingested source paths.
func (s *IndexStore) Sources(ctx context.Context) ([]string, error) {
	return s.collection.Sources(ctx)
}
