package ingest

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/atlasops/docuchat/internal/domain"
)

type mockKeywordIndex struct {
	putFn    func(ctx context.Context, docID, content string, metadata map[string]string) error
	deleteFn func(ctx context.Context, docID string) error
	clearFn  func(ctx context.Context) error

	puts    []string
	deletes []string
}

func (m *mockKeywordIndex) Put(ctx context.Context, docID, content string, metadata map[string]string) error {
	m.puts = append(m.puts, docID)
	if m.putFn != nil {
		return m.putFn(ctx, docID, content, metadata)
	}
	return nil
}

func (m *mockKeywordIndex) Delete(ctx context.Context, docID string) error {
	m.deletes = append(m.deletes, docID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, docID)
	}
	return nil
}

func (m *mockKeywordIndex) Clear(ctx context.Context) error {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

type mockVectorIndex struct {
	putFn         func(ctx context.Context, chunkID, content string, metadata map[string]string, embedding []float32) error
	deleteFn      func(ctx context.Context, chunkIDs ...string) error
	deleteByDocFn func(ctx context.Context, docID string) error
	clearFn       func(ctx context.Context) error

	puts    []string
	deletes []string
}

func (m *mockVectorIndex) Put(ctx context.Context, chunkID, content string, metadata map[string]string, embedding []float32) error {
	m.puts = append(m.puts, chunkID)
	if m.putFn != nil {
		return m.putFn(ctx, chunkID, content, metadata, embedding)
	}
	return nil
}

func (m *mockVectorIndex) Delete(ctx context.Context, chunkIDs ...string) error {
	m.deletes = append(m.deletes, chunkIDs...)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, chunkIDs...)
	}
	return nil
}

func (m *mockVectorIndex) DeleteByDocument(ctx context.Context, docID string) error {
	if m.deleteByDocFn != nil {
		return m.deleteByDocFn(ctx, docID)
	}
	return nil
}

func (m *mockVectorIndex) Clear(ctx context.Context) error {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 3}, nil
}

// passthroughExtractor returns the raw bytes as text.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(_ string, raw []byte) (string, error) {
	return string(raw), nil
}

// lineSplitter splits on newlines, dropping empties. Deterministic and easy
// to assert against in tests.
type lineSplitter struct{}

func (lineSplitter) Split(text string) []string {
	var pieces []string
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			pieces = append(pieces, line)
		}
	}
	return pieces
}

type fixture struct {
	svc     *Service
	index   *mockKeywordIndex
	vectors *mockVectorIndex
	emb     *mockEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		index:   &mockKeywordIndex{},
		vectors: &mockVectorIndex{},
		emb:     &mockEmbedder{},
	}
	f.svc = New(
		f.index, f.vectors, f.emb,
		passthroughExtractor{}, lineSplitter{},
		1<<20, []string{".txt", ".md"},
		zap.NewNop(),
	)
	return f
}
