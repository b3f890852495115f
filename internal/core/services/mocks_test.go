package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// vocabulary drives keywordEmbedder: one dimension per word.
var vocabulary = []string{"attack", "spell", "grapple", "armor", "initiative", "rest"}

// keywordEmbedder counts vocabulary words, giving stable, meaningful
// cosine distances without a model.
type keywordEmbedder struct {
	mu         sync.Mutex
	model      string
	embedCalls int
	batchCalls int
	lastQuery  string
	embedErr   error
	batchErr   error
	shortBatch bool
}

var _ driven.EmbeddingService = (*keywordEmbedder)(nil)

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{model: "keyword-test"}
}

func keywordVector(text string) []float32 {
	words := strings.Fields(strings.ToLower(text))
	v := make([]float32, len(vocabulary))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?")
		for i, term := range vocabulary {
			if w == term {
				v[i]++
			}
		}
	}
	return v
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.embedCalls++
	e.lastQuery = text
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return keywordVector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchCalls++
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	if e.shortBatch && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int              { return len(vocabulary) }
func (e *keywordEmbedder) ModelName() string            { return e.model }
func (e *keywordEmbedder) Ping(_ context.Context) error { return nil }
func (e *keywordEmbedder) Close() error                 { return nil }

// countingStore wraps the memory store and counts writes.
type countingStore struct {
	*memory.VectorStore
	mu   sync.Mutex
	adds int
}

func newCountingStore() *countingStore {
	return &countingStore{VectorStore: memory.NewVectorStore()}
}

func (s *countingStore) OpenCollection(ctx context.Context, spec domain.CollectionSpec) (driven.Collection, error) {
	c, err := s.VectorStore.OpenCollection(ctx, spec)
	if err != nil {
		return nil, err
	}
	return &countingCollection{Collection: c, store: s}, nil
}

func (s *countingStore) addCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adds
}

type countingCollection struct {
	driven.Collection
	store *countingStore
}

func (c *countingCollection) Add(ctx context.Context, entries []domain.IndexEntry) error {
	c.store.mu.Lock()
	c.store.adds++
	c.store.mu.Unlock()
	return c.Collection.Add(ctx, entries)
}

// scriptedChat answers through a function and records every request.
type scriptedChat struct {
	mu       sync.Mutex
	reply    func(messages []driven.ChatMessage) (string, error)
	requests [][]driven.ChatMessage
}

var _ driven.ChatModel = (*scriptedChat)(nil)

func fixedChat(reply string) *scriptedChat {
	return &scriptedChat{reply: func([]driven.ChatMessage) (string, error) { return reply, nil }}
}

func failingChat(err error) *scriptedChat {
	return &scriptedChat{reply: func([]driven.ChatMessage) (string, error) { return "", err }}
}

func (c *scriptedChat) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, messages)
	c.mu.Unlock()
	return c.reply(messages)
}

func (c *scriptedChat) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *scriptedChat) ModelName() string            { return "scripted" }
func (c *scriptedChat) Ping(_ context.Context) error { return nil }
func (c *scriptedChat) Close() error                 { return nil }

// stubPrompts serves fixed templates.
type stubPrompts map[string]string

func defaultStubPrompts() stubPrompts {
	return stubPrompts{
		driven.PromptSystem: "SYSTEM",
		driven.PromptSearch: "history=[{history}] query=[{query}] Search query:",
		driven.PromptChat:   "history=[{history}] context=[{context}] query=[{query}] Answer:",
	}
}

func (p stubPrompts) Load(name string) (string, error) {
	text, ok := p[name]
	if !ok {
		return "", errors.New("no such prompt")
	}
	return text, nil
}

func (p stubPrompts) Reload() error { return nil }

// runnerByPath fakes pdftotext output per file path.
type runnerByPath struct {
	pages map[string][]string
	fail  map[string]error
}

func (r *runnerByPath) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	path := args[len(args)-2]
	if err, ok := r.fail[path]; ok {
		return nil, err
	}
	return []byte(strings.Join(r.pages[path], "\f")), nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o600))
	return path
}
