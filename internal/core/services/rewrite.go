package services

import (
	"context"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
	"github.com/custodia-labs/loremaster/internal/logger"
)

// QueryRewriter turns the latest question and the conversation so far into
// a standalone search query.
type QueryRewriter struct {
	prompter
}

// NewQueryRewriter creates a rewriter using the "search" template.
func NewQueryRewriter(model driven.ChatModel, prompts driven.PromptStore, opts driven.ChatOptions) *QueryRewriter {
	return &QueryRewriter{prompter{model: model, prompts: prompts, opts: opts}}
}

// Rewrite returns the search query. The model is consulted even with an
// empty history. Failures wrap domain.ErrGeneration and are not retried.
func (r *QueryRewriter) Rewrite(ctx context.Context, query string, history domain.ChatHistory) (string, error) {
	searchQuery, err := r.complete(ctx, driven.PromptSearch, map[string]string{
		driven.PlaceholderHistory: history.Format(),
		driven.PlaceholderQuery:   query,
	})
	if err != nil {
		return "", err
	}
	logger.Debug("Rewrote %q as %q", query, searchQuery)
	return searchQuery, nil
}
