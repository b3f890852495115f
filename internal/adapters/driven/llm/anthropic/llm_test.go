package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

func TestNewChatModel_RequiresKey(t *testing.T) {
	_, err := NewChatModel(Config{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestChat_HoistsSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Use only the rules.", req.System)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"content":[
			{"type":"text","text":"Grappling "},
			{"type":"tool_use","text":"ignored"},
			{"type":"text","text":"uses Athletics."}
		],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	model, err := NewChatModel(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := model.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "Use only the rules."},
		{Role: "user", Content: "How does grappling work?"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Grappling uses Athletics.", reply)
}

func TestChat_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	model, err := NewChatModel(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = model.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "x"}}, driven.ChatOptions{})
	assert.ErrorContains(t, err, "no text content")
}
