package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, 256, req.Options.NumPredict)
		assert.InDelta(t, 0.2, req.Options.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "\nAdvantage means roll twice.\n"},
			Done:    true,
		})
	}))
	defer server.Close()

	model := NewChatModel(Config{BaseURL: server.URL})
	reply, err := model.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "Answer from the rules."},
		{Role: "user", Content: "What is advantage?"},
	}, driven.ChatOptions{MaxTokens: 256, Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, "Advantage means roll twice.", reply)
}

func TestChat_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	_, err := NewChatModel(Config{BaseURL: server.URL}).Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorContains(t, err, "model not found")
}
