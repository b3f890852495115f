package driven

import "context"

// ChatModel completes a conversation. It is used for query rewriting and
// for answer generation; both send a system message followed by a single
// filled-in user message.
type ChatModel interface {
	// Chat returns the assistant reply for the message list.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage is one message sent to a ChatModel.
type ChatMessage struct {
	// Role is "system", "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures a chat request.
type ChatOptions struct {
	// MaxTokens limits the reply length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0-1.0).
	Temperature float64
}
