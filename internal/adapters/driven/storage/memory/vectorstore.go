// Package memory provides an in-process VectorStore. Collections live for
// the lifetime of the store and are lost on exit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Ensure Collection implements the interface.
var _ driven.Collection = (*Collection)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*Collection)}
}

// OpenCollection returns the named collection, creating it if needed.
func (s *VectorStore) OpenCollection(_ context.Context, spec domain.CollectionSpec) (driven.Collection, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrConfiguration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[spec.Name]; ok {
		if !c.spec.Compatible(spec) {
			return nil, fmt.Errorf("%w: collection %q was created with %s (%d dims), configured embedder is %s (%d dims)",
				domain.ErrConfiguration, spec.Name, c.spec.EmbeddingModel, c.spec.Dimensions,
				spec.EmbeddingModel, spec.Dimensions)
		}
		return c, nil
	}

	c := &Collection{spec: spec, sources: make(map[string]int)}
	s.collections[spec.Name] = c
	return c, nil
}

// Close releases nothing; collections stay readable.
func (s *VectorStore) Close() error {
	return nil
}

// Collection holds entries in insertion order.
type Collection struct {
	mu      sync.RWMutex
	spec    domain.CollectionSpec
	entries []domain.IndexEntry
	sources map[string]int
	nextSeq int64
}

// Spec returns the collection identity.
func (c *Collection) Spec() domain.CollectionSpec {
	return c.spec
}

// HasSource reports whether any entry has the given source.
func (c *Collection) HasSource(_ context.Context, source string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sources[source] > 0, nil
}

// Add validates every entry before storing any of them.
func (c *Collection) Add(_ context.Context, entries []domain.IndexEntry) error {
	for _, e := range entries {
		if err := rank.CheckDimensions(e.Vector, c.spec.Dimensions); err != nil {
			return fmt.Errorf("chunk %s: %w", e.Chunk.ID, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.nextSeq++
		e.Seq = c.nextSeq
		e.Vector = append([]float32(nil), e.Vector...)
		c.entries = append(c.entries, e)
		c.sources[e.Chunk.Source]++
	}
	return nil
}

// Search ranks every entry against vector.
func (c *Collection) Search(_ context.Context, vector []float32, k int) (domain.RetrievalResult, error) {
	if err := rank.CheckDimensions(vector, c.spec.Dimensions); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	top := rank.NewTopK(vector, k)
	for _, e := range c.entries {
		top.Offer(e.Chunk, e.Vector, e.Seq)
	}
	return top.Result(), nil
}

// Count returns the number of entries.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

// Sources returns the distinct sources, sorted.
func (c *Collection) Sources(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.sources))
	for s := range c.sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
