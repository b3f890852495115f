package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// prompter sends the system prompt plus one filled-in template to a model.
type prompter struct {
	model   driven.ChatModel
	prompts driven.PromptStore
	opts    driven.ChatOptions
}

func (p prompter) complete(ctx context.Context, template string, values map[string]string) (string, error) {
	system, err := p.prompts.Load(driven.PromptSystem)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	body, err := p.prompts.Load(template)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	pairs := make([]string, 0, len(values)*2)
	for placeholder, value := range values {
		pairs = append(pairs, placeholder, value)
	}

	messages := []driven.ChatMessage{
		{Role: string(domain.RoleSystem), Content: system},
		{Role: string(domain.RoleUser), Content: strings.NewReplacer(pairs...).Replace(body)},
	}

	reply, err := p.model.Chat(ctx, messages, p.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrGeneration, p.model.ModelName(), err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: %s returned an empty reply", domain.ErrGeneration, p.model.ModelName())
	}
	return reply, nil
}
