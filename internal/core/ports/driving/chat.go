package driving

import (
	"context"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// ChatService answers questions grounded in an IndexStore.
type ChatService interface {
	// Ask rewrites the query against history, retrieves context and
	// returns the generated answer.
	Ask(ctx context.Context, index IndexStore, query string, history domain.ChatHistory) (string, error)

	// AskDetailed is Ask returning the search query and context as well.
	AskDetailed(ctx context.Context, index IndexStore, query string, history domain.ChatHistory) (*domain.Answer, error)
}
