package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driving"
	"github.com/custodia-labs/loremaster/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers a question: rewrite, retrieve, generate.
type ChatService struct {
	rewriter  *QueryRewriter
	generator *ResponseGenerator
	k         int
}

// NewChatService creates a chat service retrieving k chunks per question.
func NewChatService(rewriter *QueryRewriter, generator *ResponseGenerator, k int) *ChatService {
	return &ChatService{rewriter: rewriter, generator: generator, k: k}
}

// Ask returns only the answer text.
func (s *ChatService) Ask(
	ctx context.Context,
	index driving.IndexStore,
	query string,
	history domain.ChatHistory,
) (string, error) {
	answer, err := s.AskDetailed(ctx, index, query, history)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}

// AskDetailed answers query against index. history holds the turns before
// this question; the caller appends the question and answer afterwards.
func (s *ChatService) AskDetailed(
	ctx context.Context,
	index driving.IndexStore,
	query string,
	history domain.ChatHistory,
) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if err := history.Validate(); err != nil {
		return nil, err
	}

	logger.Section("Ask")
	searchQuery, err := s.rewriter.Rewrite(ctx, query, history)
	if err != nil {
		return nil, fmt.Errorf("rewrite query: %w", err)
	}

	result, err := index.Retrieve(ctx, searchQuery, s.k)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	text, err := s.generator.Answer(ctx, query, history, result.Chunks())
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{Text: text, SearchQuery: searchQuery, Context: result}, nil
}
