package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

func newLimiter(rps float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// rateLimitedEmbedder waits on a token bucket before every request.
type rateLimitedEmbedder struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WithEmbeddingRateLimit limits requests to rps per second. A non-positive
// rps returns svc unchanged.
func WithEmbeddingRateLimit(svc driven.EmbeddingService, rps float64, burst int) driven.EmbeddingService {
	if rps <= 0 {
		return svc
	}
	return &rateLimitedEmbedder{EmbeddingService: svc, limiter: newLimiter(rps, burst)}
}

func (r *rateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return r.EmbeddingService.Embed(ctx, text)
}

func (r *rateLimitedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}

// rateLimitedChat waits on a token bucket before every completion.
type rateLimitedChat struct {
	driven.ChatModel
	limiter *rate.Limiter
}

// WithChatRateLimit limits completions to rps per second. A non-positive
// rps returns model unchanged.
func WithChatRateLimit(model driven.ChatModel, rps float64, burst int) driven.ChatModel {
	if rps <= 0 {
		return model
	}
	return &rateLimitedChat{ChatModel: model, limiter: newLimiter(rps, burst)}
}

func (r *rateLimitedChat) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("chat rate limit: %w", err)
	}
	return r.ChatModel.Chat(ctx, messages, opts)
}
