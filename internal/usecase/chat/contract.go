package chat

import (
	"context"

	"github.com/atlasops/docuchat/internal/domain"
	"github.com/atlasops/docuchat/internal/repository/vector"
)

// VectorSearcher retrieves the chunks most similar to a query embedding.
type VectorSearcher interface {
	Search(ctx context.Context, query []float32, k int) ([]vector.Match, error)
}

// KeywordCounter reports how many documents are indexed.
type KeywordCounter interface {
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes the user's question for retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Completer generates the assistant reply.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}
