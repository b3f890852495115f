package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

func TestQueryRewriter_Rewrite(t *testing.T) {
	chat := fixedChat("  grapple escape DC  \n")
	rewriter := NewQueryRewriter(chat, defaultStubPrompts(), driven.ChatOptions{Temperature: 0.1})

	history := domain.ChatHistory{}.
		Append(domain.RoleUser, "How does grappling work?").
		Append(domain.RoleAssistant, "Use Athletics.")

	query, err := rewriter.Rewrite(context.Background(), "And escaping it?", history)
	require.NoError(t, err)
	assert.Equal(t, "grapple escape DC", query)

	require.Equal(t, 1, chat.calls())
	messages := chat.requests[0]
	require.Len(t, messages, 2)
	assert.Equal(t, driven.ChatMessage{Role: "system", Content: "SYSTEM"}, messages[0])
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t,
		"history=[user: How does grappling work?\nassistant: Use Athletics.] query=[And escaping it?] Search query:",
		messages[1].Content)
}

func TestQueryRewriter_EmptyHistoryStillCallsModel(t *testing.T) {
	chat := fixedChat("initiative order")
	rewriter := NewQueryRewriter(chat, defaultStubPrompts(), driven.ChatOptions{})

	query, err := rewriter.Rewrite(context.Background(), "who goes first", nil)
	require.NoError(t, err)
	assert.Equal(t, "initiative order", query)
	assert.Equal(t, 1, chat.calls())
	assert.Contains(t, chat.requests[0][1].Content, "history=[]")
}

func TestGeneration_Failures(t *testing.T) {
	tests := []struct {
		name string
		chat *scriptedChat
		want error
	}{
		{name: "model error", chat: failingChat(errors.New("503 overloaded")), want: domain.ErrGeneration},
		{name: "empty reply", chat: fixedChat("   "), want: domain.ErrGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQueryRewriter(tt.chat, defaultStubPrompts(), driven.ChatOptions{}).
				Rewrite(context.Background(), "q", nil)
			assert.ErrorIs(t, err, tt.want)

			_, err = NewResponseGenerator(tt.chat, defaultStubPrompts(), driven.ChatOptions{}).
				Answer(context.Background(), "q", nil, nil)
			assert.ErrorIs(t, err, tt.want)

			// Not retried.
			assert.Equal(t, 2, tt.chat.calls())
		})
	}
}

func TestGeneration_MissingPrompt(t *testing.T) {
	prompts := defaultStubPrompts()
	delete(prompts, driven.PromptChat)

	_, err := NewResponseGenerator(fixedChat("x"), prompts, driven.ChatOptions{}).
		Answer(context.Background(), "q", nil, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestResponseGenerator_ContextOrder(t *testing.T) {
	chat := fixedChat("Half cover gives +2.")
	generator := NewResponseGenerator(chat, defaultStubPrompts(), driven.ChatOptions{})

	chunks := []domain.Chunk{{Text: "first passage"}, {Text: "second passage"}, {Text: "third"}}
	answer, err := generator.Answer(context.Background(), "cover?", nil, chunks)
	require.NoError(t, err)
	assert.Equal(t, "Half cover gives +2.", answer)

	prompt := chat.requests[0][1].Content
	assert.Contains(t, prompt, "context=[first passage\n\nsecond passage\n\nthird]")
	assert.Contains(t, prompt, "query=[cover?]")
}

func TestBuildContext(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
	assert.Equal(t, "a\n\nb", BuildContext([]domain.Chunk{{Text: "a"}, {Text: "b"}}))
}

// routedChat answers search prompts with searchQuery and chat prompts with answer.
func routedChat(searchQuery, answer string) *scriptedChat {
	return &scriptedChat{reply: func(messages []driven.ChatMessage) (string, error) {
		if strings.HasSuffix(messages[len(messages)-1].Content, "Search query:") {
			return searchQuery, nil
		}
		return answer, nil
	}}
}

func newChatFixture(t *testing.T, chat *scriptedChat) (*ChatService, *IndexStore, *keywordEmbedder) {
	t.Helper()
	embedder := newKeywordEmbedder()
	index, err := Initialize(context.Background(), memory.NewVectorStore(), embedder, "rules")
	require.NoError(t, err)
	require.NoError(t, index.Insert(context.Background(), chunksFor("phb.pdf",
		"spell slots recover on a long rest",
		"attack rolls use a d20",
		"grapple with Athletics",
	)))

	prompts := defaultStubPrompts()
	svc := NewChatService(
		NewQueryRewriter(chat, prompts, driven.ChatOptions{}),
		NewResponseGenerator(chat, prompts, driven.ChatOptions{}),
		2,
	)
	return svc, index, embedder
}

func TestChatService_AskDetailed(t *testing.T) {
	chat := routedChat("attack", "Roll a d20 and add modifiers.")
	svc, index, embedder := newChatFixture(t, chat)

	answer, err := svc.AskDetailed(context.Background(), index, "How do I hit things?", nil)
	require.NoError(t, err)

	assert.Equal(t, "Roll a d20 and add modifiers.", answer.Text)
	assert.Equal(t, "attack", answer.SearchQuery)
	assert.Equal(t, "attack", embedder.lastQuery, "retrieval uses the rewritten query")
	require.Len(t, answer.Context, 2)
	assert.Equal(t, "attack rolls use a d20", answer.Context[0].Chunk.Text)

	// The original question, not the search query, reaches the generator.
	assert.Contains(t, chat.requests[1][1].Content, "query=[How do I hit things?]")
	assert.Contains(t, chat.requests[1][1].Content, "attack rolls use a d20")
}

func TestChatService_Ask(t *testing.T) {
	svc, index, _ := newChatFixture(t, routedChat("rest", "After a long rest."))

	text, err := svc.Ask(context.Background(), index, "When do slots come back?", nil)
	require.NoError(t, err)
	assert.Equal(t, "After a long rest.", text)
}

func TestChatService_InvalidInput(t *testing.T) {
	chat := fixedChat("unused")
	svc, index, _ := newChatFixture(t, chat)

	_, err := svc.Ask(context.Background(), index, "   ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := domain.ChatHistory{{Role: "narrator", Content: "Once upon a time"}}
	_, err = svc.Ask(context.Background(), index, "hello", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Zero(t, chat.calls())
}

func TestChatService_PropagatesGenerationErrors(t *testing.T) {
	chat := failingChat(errors.New("quota exceeded"))
	svc, index, _ := newChatFixture(t, chat)

	_, err := svc.AskDetailed(context.Background(), index, "anything", nil)
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Equal(t, 1, chat.calls(), "generation is not attempted after a failed rewrite")
}
