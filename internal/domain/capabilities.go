package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Message is one turn of a completion conversation.
type Message struct {
	Role    string
	Content string
}

// Completion message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Completer generates an answer from an ordered message sequence.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Extractor converts raw uploaded bytes into plain text.
type Extractor interface {
	Extract(filename string, raw []byte) (string, error)
}

// HealthChecker verifies an external provider's availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
