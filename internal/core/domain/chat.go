package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ChatRole identifies the author of a chat turn.
type ChatRole string

// Available chat roles.
const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// IsValid returns true if the role is recognised.
func (r ChatRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// ChatTurn is a single message in a conversation.
type ChatTurn struct {
	Role    ChatRole
	Content string
}

// ChatHistory is an append-only conversation owned by the caller.
// The core reads it but never persists it.
type ChatHistory []ChatTurn

// Append returns the history with a new turn added. The receiver is never
// written to, so two appends from one base yield independent branches.
func (h ChatHistory) Append(role ChatRole, content string) ChatHistory {
	return append(slices.Clip(h), ChatTurn{Role: role, Content: content})
}

// Len returns the number of turns.
func (h ChatHistory) Len() int {
	return len(h)
}

// Validate rejects turns with an unknown role.
func (h ChatHistory) Validate() error {
	for i, turn := range h {
		if !turn.Role.IsValid() {
			return fmt.Errorf("%w: turn %d has unknown role %q", ErrInvalidInput, i, turn.Role)
		}
	}
	return nil
}

// Format renders the history as "role: content" lines for prompt templates.
// An empty history renders as an empty string.
func (h ChatHistory) Format() string {
	var b strings.Builder
	for i, turn := range h {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
	}
	return b.String()
}
