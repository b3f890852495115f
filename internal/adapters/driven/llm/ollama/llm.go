// Package ollama provides a chat model adapter for a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/apiclient"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

var _ driven.ChatModel = (*ChatModel)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama chat model.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ChatModel completes conversations through /api/chat.
type ChatModel struct {
	api   *apiclient.Client
	model string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewChatModel creates an Ollama chat model. Ollama needs no credentials.
func NewChatModel(cfg Config) *ChatModel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &ChatModel{
		api:   apiclient.New("ollama", cfg.BaseURL, cfg.Timeout, nil),
		model: cfg.Model,
	}
}

// Chat sends a non-streaming chat request.
func (m *ChatModel) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:    m.model,
		Messages: make([]chatMessage, len(messages)),
		Options:  options{NumPredict: opts.MaxTokens, Temperature: opts.Temperature},
	}
	for i, msg := range messages {
		req.Messages[i] = chatMessage(msg)
	}

	var resp chatResponse
	if err := m.api.PostJSON(ctx, "/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// ModelName returns the model identifier.
func (m *ChatModel) ModelName() string {
	return m.model
}

// Ping lists local models via /api/tags.
func (m *ChatModel) Ping(ctx context.Context) error {
	return m.api.Get(ctx, "/api/tags")
}

// Close releases resources.
func (m *ChatModel) Close() error {
	return nil
}
