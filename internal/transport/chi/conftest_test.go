package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atlasops/docuchat/internal/chunker"
	"github.com/atlasops/docuchat/internal/db"
	"github.com/atlasops/docuchat/internal/domain"
	"github.com/atlasops/docuchat/internal/domain/conversation"
	"github.com/atlasops/docuchat/internal/extract"
	"github.com/atlasops/docuchat/internal/repository/index"
	"github.com/atlasops/docuchat/internal/repository/vector"
	chatuc "github.com/atlasops/docuchat/internal/usecase/chat"
	healthuc "github.com/atlasops/docuchat/internal/usecase/health"
	ingestuc "github.com/atlasops/docuchat/internal/usecase/ingest"
	searchuc "github.com/atlasops/docuchat/internal/usecase/search"
)

// memStore is an in-memory stand-in for the Redis store.
type memStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	counters map[string]int64
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte), counters: make(map[string]int64)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

// stubEmbedder returns a fixed vector; failures are switchable per test.
type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.5, 0.5}, TotalTokens: 2}, nil
}

type stubCompleter struct {
	answer string
	err    error
}

func (s *stubCompleter) Complete(_ context.Context, _ []domain.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error { return s.err }

type testAPI struct {
	router    chirouter.Router
	embedder  *stubEmbedder
	completer *stubCompleter
	pinger    *stubPinger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := newMemStore()
	embedder := &stubEmbedder{}
	completer := &stubCompleter{answer: "the answer"}
	pinger := &stubPinger{}

	idxRepo := index.New(store, "test:")
	vecRepo := vector.New(store, "test:")

	splitter, err := chunker.New(200, 40)
	if err != nil {
		t.Fatalf("chunker.New failed: %v", err)
	}

	ingestSvc := ingestuc.New(
		idxRepo, vecRepo, embedder,
		extract.NewTextExtractor(), splitter,
		1<<20, []string{".txt", ".md"},
		zap.NewNop(),
	)
	chatSvc := chatuc.New(
		embedder, vecRepo, idxRepo, completer,
		conversation.NewHistory(20, 16000), 4,
		zap.NewNop(),
	)
	searchSvc := searchuc.New(idxRepo, 5, 50)
	healthSvc := healthuc.New(pinger, nil, nil)

	server := NewServer(ingestSvc, chatSvc, searchSvc, healthSvc, 1<<20, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)

	return &testAPI{router: r, embedder: embedder, completer: completer, pinger: pinger}
}

func (a *testAPI) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}
