package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
	"github.com/custodia-labs/loremaster/internal/logger"
)

// cachedEmbedder keeps recent single-text embeddings. Chat sessions embed
// the same rewritten queries repeatedly; EmbedBatch is ingestion traffic
// and bypasses the cache.
type cachedEmbedder struct {
	driven.EmbeddingService
	cache *expirable.LRU[string, []float32]
}

// WithQueryCache wraps svc with an LRU of size entries. A non-positive size
// returns svc unchanged; a non-positive ttl keeps entries until evicted.
func WithQueryCache(svc driven.EmbeddingService, size int, ttl time.Duration) driven.EmbeddingService {
	if size <= 0 {
		return svc
	}
	return &cachedEmbedder{
		EmbeddingService: svc,
		cache:            expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.ModelName(), text)
	if cached, ok := c.cache.Get(key); ok {
		logger.L().Debug("embedding cache hit", zap.String("model", c.ModelName()))
		return clone(cached), nil
	}

	vector, err := c.EmbeddingService.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(vector))
	return vector, nil
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
