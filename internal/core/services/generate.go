package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// contextSeparator joins chunk texts in the context block.
const contextSeparator = "\n\n"

// ResponseGenerator composes a grounded answer from retrieved chunks.
type ResponseGenerator struct {
	prompter
}

// NewResponseGenerator creates a generator using the "chat" template.
func NewResponseGenerator(model driven.ChatModel, prompts driven.PromptStore, opts driven.ChatOptions) *ResponseGenerator {
	return &ResponseGenerator{prompter{model: model, prompts: prompts, opts: opts}}
}

// Answer fills the chat template with history, query and the chunk texts
// in retrieval order. An empty answer is a generation failure.
func (g *ResponseGenerator) Answer(
	ctx context.Context,
	query string,
	history domain.ChatHistory,
	chunks []domain.Chunk,
) (string, error) {
	return g.complete(ctx, driven.PromptChat, map[string]string{
		driven.PlaceholderHistory: history.Format(),
		driven.PlaceholderQuery:   query,
		driven.PlaceholderContext: BuildContext(chunks),
	})
}

// BuildContext joins chunk texts with a blank line.
func BuildContext(chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, contextSeparator)
}
