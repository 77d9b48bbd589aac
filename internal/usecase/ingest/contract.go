package ingest

import (
	"context"

	"github.com/atlasops/docuchat/internal/domain"
)

// KeywordIndex defines the storage contract for the keyword search index.
type KeywordIndex interface {
	Put(ctx context.Context, docID, content string, metadata map[string]string) error
	Delete(ctx context.Context, docID string) error
	Clear(ctx context.Context) error
}

// VectorIndex defines the storage contract for chunk embeddings.
type VectorIndex interface {
	Put(ctx context.Context, chunkID, content string, metadata map[string]string, embedding []float32) error
	Delete(ctx context.Context, chunkIDs ...string) error
	DeleteByDocument(ctx context.Context, docID string) error
	Clear(ctx context.Context) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Extractor converts raw uploaded bytes into plain text.
type Extractor interface {
	Extract(filename string, raw []byte) (string, error)
}

// Splitter cuts extracted text into overlapping pieces.
type Splitter interface {
	Split(text string) []string
}
