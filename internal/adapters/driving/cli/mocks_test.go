package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driving"
)

// mockIndex implements driving.IndexStore for testing.
type mockIndex struct {
	count   int
	sources []string
}

func (m *mockIndex) Spec() domain.CollectionSpec {
	return domain.CollectionSpec{Name: "rules", EmbeddingModel: "nomic-embed-text", Dimensions: 768}
}

func (m *mockIndex) HasSource(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockIndex) Insert(_ context.Context, _ []domain.Chunk) error {
	return nil
}

func (m *mockIndex) Retrieve(_ context.Context, _ string, _ int) (domain.RetrievalResult, error) {
	return nil, nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) {
	return m.count, nil
}

func (m *mockIndex) Sources(_ context.Context) ([]string, error) {
	return m.sources, nil
}

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	calls  int
	report *domain.IngestionReport
	err    error
}

func (m *mockIngestor) Sync(_ context.Context, _ driving.IndexStore, sourceDir string) (*domain.IngestionReport, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &domain.IngestionReport{SourceDir: sourceDir}, nil
}

// mockChat implements driving.ChatService for testing. Replies are
// returned in order; an entry of "" fails that turn.
type mockChat struct {
	replies   []string
	histories []domain.ChatHistory
	queries   []string
}

func (m *mockChat) Ask(ctx context.Context, index driving.IndexStore, query string, history domain.ChatHistory) (string, error) {
	answer, err := m.AskDetailed(ctx, index, query, history)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}

func (m *mockChat) AskDetailed(
	_ context.Context,
	_ driving.IndexStore,
	query string,
	history domain.ChatHistory,
) (*domain.Answer, error) {
	m.queries = append(m.queries, query)
	m.histories = append(m.histories, append(domain.ChatHistory(nil), history...))

	i := len(m.queries) - 1
	if i >= len(m.replies) || m.replies[i] == "" {
		return nil, domain.ErrGeneration
	}
	return &domain.Answer{
		Text:        m.replies[i],
		SearchQuery: "rewritten " + query,
		Context: domain.RetrievalResult{
			{Chunk: domain.Chunk{Source: "/data/handbook.pdf", Page: 2, Text: "grapple"}, Distance: 0.125},
		},
	}, nil
}

type testServices struct {
	ingestor *mockIngestor
	chat     *mockChat
	index    *mockIndex
}

func setupServices(t *testing.T, replies ...string) *testServices {
	t.Helper()
	ts := &testServices{
		ingestor: &mockIngestor{},
		chat:     &mockChat{replies: replies},
		index:    &mockIndex{},
	}

	settings := domain.DefaultAppSettings()
	settings.SourceDir = "data/sources"

	oldServices, oldBootstrap := services, bootstrap
	services = &Services{
		Settings: settings,
		Index:    ts.index,
		Ingestor: ts.ingestor,
		Chat:     ts.chat,
	}
	bootstrap = nil
	askNoSync, askShowContext, chatNoSync, verbose = false, false, false, false

	t.Cleanup(func() {
		services, bootstrap = oldServices, oldBootstrap
	})
	return ts
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}
