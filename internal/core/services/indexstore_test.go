package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/loremaster/internal/core/domain"
)

func chunksFor(source string, texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		out[i] = domain.Chunk{
			ID:       fmt.Sprintf("%s-%d", source, i),
			Source:   source,
			Page:     1,
			Position: i,
			Text:     text,
		}
	}
	return out
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	store := memory.NewVectorStore()
	embedder := newKeywordEmbedder()

	index, err := Initialize(ctx, store, embedder, "rules")
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionSpec{Name: "rules", EmbeddingModel: "keyword-test", Dimensions: len(vocabulary)}, index.Spec())

	// Reopening with the same embedder is a no-op.
	_, err = Initialize(ctx, store, embedder, "rules")
	require.NoError(t, err)

	other := newKeywordEmbedder()
	other.model = "another-model"
	_, err = Initialize(ctx, store, other, "rules")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestInitialize_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	_, err := Initialize(ctx, nil, newKeywordEmbedder(), "rules")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = Initialize(ctx, memory.NewVectorStore(), newKeywordEmbedder(), "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestIndexStore_InsertBatches(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder()
	index, err := Initialize(ctx, memory.NewVectorStore(), embedder, "rules", WithBatchSize(2))
	require.NoError(t, err)

	require.NoError(t, index.Insert(ctx, chunksFor("a.pdf", "attack", "spell", "armor", "rest", "grapple")))

	assert.Equal(t, 3, embedder.batchCalls)
	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	has, err := index.HasSource(ctx, "a.pdf")
	require.NoError(t, err)
	assert.True(t, has)

	sources, err := index.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, sources)
}

func TestIndexStore_InsertIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *keywordEmbedder)
	}{
		{name: "embedder error", setup: func(e *keywordEmbedder) { e.batchErr = errors.New("timeout") }},
		{name: "vector count mismatch", setup: func(e *keywordEmbedder) { e.shortBatch = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			embedder := newKeywordEmbedder()
			tt.setup(embedder)
			index, err := Initialize(ctx, memory.NewVectorStore(), embedder, "rules")
			require.NoError(t, err)

			err = index.Insert(ctx, chunksFor("a.pdf", "attack", "spell"))
			assert.ErrorIs(t, err, domain.ErrGeneration)

			count, err := index.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestIndexStore_RetrieveOrdering(t *testing.T) {
	ctx := context.Background()
	index, err := Initialize(ctx, memory.NewVectorStore(), newKeywordEmbedder(), "rules")
	require.NoError(t, err)

	require.NoError(t, index.Insert(ctx, chunksFor("phb.pdf",
		"spell spell spell",
		"attack attack attack",
		"attack spell",
		"armor rest",
		"attack attack spell",
	)))

	result, err := index.Retrieve(ctx, "attack", 3)
	require.NoError(t, err)
	require.Len(t, result, 3)

	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i-1].Distance, result[i].Distance)
	}
	assert.Equal(t, "attack attack attack", result[0].Chunk.Text)
	assert.InDelta(t, 0.0, result[0].Distance, 1e-6)
}

func TestIndexStore_RetrieveEdgeCases(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder()
	index, err := Initialize(ctx, memory.NewVectorStore(), embedder, "rules")
	require.NoError(t, err)

	t.Run("empty store", func(t *testing.T) {
		result, err := index.Retrieve(ctx, "attack", 5)
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("non-positive k skips embedding", func(t *testing.T) {
		calls := embedder.embedCalls
		result, err := index.Retrieve(ctx, "attack", 0)
		require.NoError(t, err)
		assert.Empty(t, result)
		assert.Equal(t, calls, embedder.embedCalls)
	})

	t.Run("k above count returns everything", func(t *testing.T) {
		require.NoError(t, index.Insert(ctx, chunksFor("x.pdf", "attack", "spell")))
		result, err := index.Retrieve(ctx, "attack", 10)
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("embedding failure", func(t *testing.T) {
		embedder.embedErr = errors.New("connection refused")
		defer func() { embedder.embedErr = nil }()

		_, err := index.Retrieve(ctx, "attack", 3)
		assert.ErrorIs(t, err, domain.ErrGeneration)
	})
}
