// Package ai builds the embedding and chat capabilities from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/loremaster/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/loremaster/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/loremaster/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/loremaster/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/loremaster/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/loremaster/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/loremaster/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service named by settings,
// wrapped with the configured rate limit and query cache.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings are missing", domain.ErrConfiguration)
	}
	if !settings.IsConfigured() {
		return nil, unconfigured(settings.Provider, settings.Provider.SupportsEmbeddings())
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout(),
			Dimensions: settings.Dimensions,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout(),
			Dimensions: settings.Dimensions,
		})
	case domain.AIProviderGemini:
		svc, err = geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout(),
			Dimensions: settings.Dimensions,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrConfiguration, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	svc = WithEmbeddingRateLimit(svc, settings.RateLimit, settings.Burst)
	return WithQueryCache(svc, settings.CacheSize, settings.CacheTTL()), nil
}

// CreateChatModel creates the chat model named by settings, wrapped with
// the configured rate limit.
func CreateChatModel(ctx context.Context, settings *domain.LLMSettings) (driven.ChatModel, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: llm settings are missing", domain.ErrConfiguration)
	}
	if !settings.IsConfigured() {
		return nil, unconfigured(settings.Provider, settings.Provider.IsValid())
	}

	var (
		model driven.ChatModel
		err   error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		model = ollamallm.NewChatModel(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout(),
		})
	case domain.AIProviderOpenAI:
		model, err = openaillm.NewChatModel(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout(),
		})
	case domain.AIProviderAnthropic:
		model, err = anthropicllm.NewChatModel(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout(),
		})
	case domain.AIProviderGemini:
		model, err = geminillm.NewChatModel(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout(),
		})
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider: %s", domain.ErrConfiguration, settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithChatRateLimit(model, settings.RateLimit, settings.Burst), nil
}

func unconfigured(provider domain.AIProvider, supported bool) error {
	if !supported {
		return fmt.Errorf("%w: provider %q is not available for this capability", domain.ErrConfiguration, provider)
	}
	return fmt.Errorf("%w: %s requires an API key", domain.ErrConfiguration, provider)
}

// Pinger is implemented by both capabilities.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check pings a capability with a short timeout. Used by the status command.
func Check(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
