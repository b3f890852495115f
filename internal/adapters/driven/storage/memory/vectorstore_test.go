package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

var testSpec = domain.CollectionSpec{Name: "rules", EmbeddingModel: "test-model", Dimensions: 2}

func entry(id, source string, vector ...float32) domain.IndexEntry {
	return domain.IndexEntry{
		Chunk:  domain.Chunk{ID: id, Source: source, Page: 1, Text: "text " + id},
		Vector: vector,
	}
}

func openTest(t *testing.T) *Collection {
	t.Helper()
	c, err := NewVectorStore().OpenCollection(context.Background(), testSpec)
	require.NoError(t, err)
	return c.(*Collection)
}

func TestOpenCollection_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	a, err := store.OpenCollection(ctx, testSpec)
	require.NoError(t, err)
	require.NoError(t, a.Add(ctx, []domain.IndexEntry{entry("1", "a.pdf", 1, 0)}))

	b, err := store.OpenCollection(ctx, testSpec)
	require.NoError(t, err)
	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenCollection_RejectsDifferentEmbedder(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	_, err := store.OpenCollection(ctx, testSpec)
	require.NoError(t, err)

	other := testSpec
	other.EmbeddingModel = "other-model"
	_, err = store.OpenCollection(ctx, other)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = store.OpenCollection(ctx, domain.CollectionSpec{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCollection_HasSource(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	ok, err := c.HasSource(ctx, "a.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Add(ctx, []domain.IndexEntry{entry("1", "a.pdf", 1, 0)}))
	ok, err = c.HasSource(ctx, "a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.HasSource(ctx, "A.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollection_AddIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	err := c.Add(ctx, []domain.IndexEntry{entry("1", "a.pdf", 1, 0), entry("2", "a.pdf", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	n, _ := c.Count(ctx)
	assert.Equal(t, 0, n)
}

func TestCollection_Search(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	result, err := c.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, result)

	require.NoError(t, c.Add(ctx, []domain.IndexEntry{
		entry("far", "a.pdf", 0, 1),
		entry("near", "a.pdf", 1, 0.1),
		entry("exact", "b.pdf", 1, 0),
		entry("opposite", "b.pdf", -1, 0),
		entry("mid", "b.pdf", 1, 1),
	}))

	result, err = c.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, []string{"exact", "near", "mid"},
		[]string{result[0].Chunk.ID, result[1].Chunk.ID, result[2].Chunk.ID})

	result, err = c.Search(ctx, []float32{1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, result, 5)

	_, err = c.Search(ctx, []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCollection_Sources(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)
	require.NoError(t, c.Add(ctx, []domain.IndexEntry{
		entry("1", "b.pdf", 1, 0), entry("2", "a.pdf", 1, 0), entry("3", "b.pdf", 0, 1),
	}))
	sources, err := c.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sources)
}

func TestCollection_ConcurrentReadsDuringWrites(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = c.Add(ctx, []domain.IndexEntry{entry(fmt.Sprint(i), "doc.pdf", 1, float32(i))})
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := c.Search(ctx, []float32{1, 0}, 5)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, _ := c.Count(ctx)
	assert.Equal(t, 100, n)
}
