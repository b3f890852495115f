// Package app assembles the Loremaster runtime from settings: storage,
// capabilities, loaders, chunking pipeline, prompts and core services.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/ai"
	"github.com/custodia-labs/loremaster/internal/adapters/driven/config/file"
	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
	"github.com/custodia-labs/loremaster/internal/core/services"
	"github.com/custodia-labs/loremaster/internal/loaders"
	"github.com/custodia-labs/loremaster/internal/loaders/pdf"
	"github.com/custodia-labs/loremaster/internal/logger"
	"github.com/custodia-labs/loremaster/internal/postprocessors"
)

// Runtime holds everything opened by Initialize. Close releases it.
type Runtime struct {
	Settings domain.AppSettings

	Store    driven.VectorStore
	Embedder driven.EmbeddingService
	Chat     driven.ChatModel
	Prompts  *file.PromptStore

	Index       *services.IndexStore
	Ingestor    *services.Ingestor
	ChatService *services.ChatService
}

// Initialize validates settings and builds the runtime. Any failure is
// returned before ingestion or serving can start, and everything opened
// so far is closed again.
func Initialize(ctx context.Context, settings domain.AppSettings) (_ *Runtime, err error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	rt := &Runtime{Settings: settings}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	logger.Section("Initialize")

	rt.Store, err = OpenStore(ctx, settings.Storage)
	if err != nil {
		return nil, err
	}

	rt.Embedder, err = ai.CreateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	rt.Chat, err = ai.CreateChatModel(ctx, &settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	registry, err := loaders.NewFromSettings(settings.Loaders)
	if err != nil {
		return nil, err
	}

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)
	pipeline, err := postprocessors.Build(processors, settings.Chunking, settings.Chunking.ProcessorConfig)
	if err != nil {
		return nil, err
	}

	rt.Prompts, err = file.NewPromptStore(settings.Prompts.Path)
	if err != nil {
		return nil, err
	}

	rt.Index, err = services.Initialize(ctx, rt.Store, rt.Embedder, settings.Storage.Collection,
		services.WithBatchSize(settings.Embedding.BatchSize))
	if err != nil {
		return nil, err
	}

	opts := driven.ChatOptions{
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
	}
	rt.Ingestor = services.NewIngestor(registry, pipeline)
	rt.ChatService = services.NewChatService(
		services.NewQueryRewriter(rt.Chat, rt.Prompts, opts),
		services.NewResponseGenerator(rt.Chat, rt.Prompts, opts),
		settings.Retrieval.K,
	)

	logger.Debug("Embedding: %s (%d dimensions), chat: %s, loaders: %v, post-processors: %d",
		rt.Embedder.ModelName(), rt.Embedder.Dimensions(), rt.Chat.ModelName(),
		registry.Extensions(), pipeline.Len())
	return rt, nil
}

// Check is one named availability test. Hint is shown when it fails.
type Check struct {
	Name string
	Hint string
	Run  func(ctx context.Context) error
}

// Checks lists the external dependencies the runtime relies on: the two
// model capabilities, plus pdftotext when the pdf loader is enabled.
func (r *Runtime) Checks() []Check {
	checks := []Check{
		{Name: "embedding", Run: func(ctx context.Context) error { return ai.Check(ctx, r.Embedder) }},
		{Name: "chat", Run: func(ctx context.Context) error { return ai.Check(ctx, r.Chat) }},
	}
	if slices.Contains(r.Settings.Loaders.Enabled, "pdf") {
		loader := pdf.New(pdf.WithBinary(r.Settings.Loaders.PDFToText))
		checks = append(checks, Check{
			Name: "pdftotext",
			Hint: pdf.InstallInstructions(),
			Run:  func(context.Context) error { return loader.CheckAvailable() },
		})
	}
	return checks
}

// StorageLocation describes where the vector store lives. Postgres DSNs
// are not echoed since they may carry credentials.
func (r *Runtime) StorageLocation() string {
	switch store := r.Store.(type) {
	case *sqlite.Store:
		return "sqlite " + store.Path()
	case *memory.VectorStore:
		return "memory"
	case *postgres.Store:
		return "postgres"
	default:
		return string(r.Settings.Storage.Backend)
	}
}

// OpenStore opens the configured vector store backend.
func OpenStore(ctx context.Context, settings domain.StorageSettings) (driven.VectorStore, error) {
	switch settings.Backend {
	case domain.StorageSQLite:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return store, nil
	case domain.StorageMemory:
		return memory.NewVectorStore(), nil
	case domain.StoragePostgres:
		store, err := postgres.NewStore(ctx, settings.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrConfiguration, settings.Backend)
	}
}

// Close releases the capabilities and the store.
func (r *Runtime) Close() error {
	var errs []error
	if r.Embedder != nil {
		errs = append(errs, r.Embedder.Close())
	}
	if r.Chat != nil {
		errs = append(errs, r.Chat.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}
