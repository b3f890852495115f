package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// openTestStore connects to LOREMASTER_TEST_PG_DSN or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LOREMASTER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LOREMASTER_TEST_PG_DSN not set, skipping postgres tests")
	}
	store, err := NewStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// uniqueSpec keeps runs against a shared database apart.
func uniqueSpec() domain.CollectionSpec {
	return domain.CollectionSpec{
		Name:           fmt.Sprintf("test_%d", time.Now().UnixNano()),
		EmbeddingModel: "test-model",
		Dimensions:     3,
	}
}

func entry(id, source string, vector ...float32) domain.IndexEntry {
	return domain.IndexEntry{
		Chunk:  domain.Chunk{ID: fmt.Sprintf("%s-%d", id, time.Now().UnixNano()), Source: source, Page: 1, Text: id},
		Vector: vector,
	}
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCollection_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	spec := uniqueSpec()

	c, err := store.OpenCollection(ctx, spec)
	require.NoError(t, err)

	result, err := c.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, result)

	require.NoError(t, c.Add(ctx, []domain.IndexEntry{
		entry("far", "a.pdf", 0, 1, 0),
		entry("near", "a.pdf", 1, 0.2, 0),
		entry("exact", "b.pdf", 1, 0, 0),
	}))

	ok, err := c.HasSource(ctx, "a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	result, err = c.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "exact", result[0].Chunk.Text)
	assert.Equal(t, "near", result[1].Chunk.Text)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	other := spec
	other.Dimensions = 4
	_, err = store.OpenCollection(ctx, other)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
