package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves prompt templates from a YAML file keyed by prompt name.
// Names missing from the file fall back to the built-in defaults. Every
// template is checked for its required placeholders whenever the file is
// read, so a broken template fails at startup.
type PromptStore struct {
	mu      sync.RWMutex
	path    string
	prompts map[string]string
}

var defaultPrompts = map[string]string{
	driven.PromptSystem: `You are Loremaster, an assistant that answers questions about the
rules and lore contained in the user's documents. Rely on the provided
context. If the context does not cover the question, say so plainly instead
of guessing.`,

	driven.PromptSearch: `Rewrite the latest question as a standalone search query for the
rulebook index. Resolve pronouns and references using the conversation so far.
Return ONLY the query, nothing else.

Conversation:
{history}

Question: {query}
Search query:`,

	driven.PromptChat: `Answer the question using the context passages below. Quote rule text
where it helps and mention when the context is silent.

Conversation:
{history}

Context:
{context}

Question: {query}
Answer:`,
}

// DefaultPrompts returns a copy of the built-in templates.
func DefaultPrompts() map[string]string {
	out := make(map[string]string, len(defaultPrompts))
	for k, v := range defaultPrompts {
		out[k] = v
	}
	return out
}

// NewPromptStore reads and validates the templates at path. An empty path
// uses the built-in defaults only.
func NewPromptStore(path string) (*PromptStore, error) {
	s := &PromptStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load returns the template registered under name.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prompt, ok := s.prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
	}
	return prompt, nil
}

// Reload re-reads the file. On error the previous templates stay in place.
func (s *PromptStore) Reload() error {
	prompts := DefaultPrompts()

	if s.path != "" {
		overrides, err := readPromptFile(s.path)
		if err != nil {
			return err
		}
		for name, text := range overrides {
			prompts[name] = strings.TrimSpace(text)
		}
	}

	if err := validatePrompts(prompts); err != nil {
		return err
	}

	s.mu.Lock()
	s.prompts = prompts
	s.mu.Unlock()
	return nil
}

// Path returns the template file path, empty for built-in templates.
func (s *PromptStore) Path() string {
	return s.path
}

func readPromptFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read prompts %s: %w", domain.ErrConfiguration, path, err)
	}

	var prompts map[string]string
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("%w: parse prompts %s: %w", domain.ErrConfiguration, path, err)
	}

	required := driven.RequiredPlaceholders()
	for name := range prompts {
		if _, ok := required[name]; !ok {
			return nil, fmt.Errorf("%w: unknown prompt %q in %s", domain.ErrConfiguration, name, path)
		}
	}
	return prompts, nil
}

func validatePrompts(prompts map[string]string) error {
	names := make([]string, 0, len(prompts))
	for name := range prompts {
		names = append(names, name)
	}
	sort.Strings(names)

	required := driven.RequiredPlaceholders()
	for _, name := range names {
		text := prompts[name]
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: prompt %q is empty", domain.ErrConfiguration, name)
		}
		for _, placeholder := range required[name] {
			if !strings.Contains(text, placeholder) {
				return fmt.Errorf("%w: prompt %q is missing placeholder %s",
					domain.ErrConfiguration, name, placeholder)
			}
		}
	}
	return nil
}

// WriteDefaultPrompts writes the built-in templates to path so they can be
// edited. An existing file is left alone and reported as not written.
func WriteDefaultPrompts(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	doc := yaml.Node{Kind: yaml.MappingNode}
	for _, name := range []string{driven.PromptSystem, driven.PromptSearch, driven.PromptChat} {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: defaultPrompts[name] + "\n", Style: yaml.LiteralStyle},
		)
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return false, fmt.Errorf("encode prompts: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, err
	}
	return true, nil
}
