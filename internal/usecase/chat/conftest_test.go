package chat

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/atlasops/docuchat/internal/domain"
	"github.com/atlasops/docuchat/internal/domain/conversation"
	"github.com/atlasops/docuchat/internal/repository/vector"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

type mockSearcher struct {
	matches []vector.Match
	err     error
	gotK    int
}

func (m *mockSearcher) Search(_ context.Context, _ []float32, k int) ([]vector.Match, error) {
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

type mockCounter struct {
	count int
	err   error
}

func (m *mockCounter) Count(_ context.Context) (int, error) {
	return m.count, m.err
}

type mockCompleter struct {
	completeFn func(ctx context.Context, messages []domain.Message) (string, error)
	got        [][]domain.Message
}

func (m *mockCompleter) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	m.got = append(m.got, messages)
	if m.completeFn != nil {
		return m.completeFn(ctx, messages)
	}
	return "the answer", nil
}

type fixture struct {
	svc       *Service
	emb       *mockEmbedder
	searcher  *mockSearcher
	counter   *mockCounter
	completer *mockCompleter
	history   *conversation.History
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		emb:       &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}},
		searcher:  &mockSearcher{},
		counter:   &mockCounter{count: 1},
		completer: &mockCompleter{},
		history:   conversation.NewHistory(20, 16000),
	}
	f.svc = New(f.emb, f.searcher, f.counter, f.completer, f.history, 4, zap.NewNop())
	return f
}
