// Package chat implements retrieval-augmented conversation over the
// indexed documents.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atlasops/docuchat/internal/domain"
	"github.com/atlasops/docuchat/internal/domain/conversation"
	"github.com/atlasops/docuchat/internal/repository/vector"
)

// Canned replies for the two degenerate states: nothing indexed yet, and a
// completion provider failure mid-conversation.
const (
	guidanceReply = "Please upload some documents first."
	apologyReply  = "Sorry, I encountered an error. Please try again."
)

const systemPrompt = `You are a helpful AI assistant that answers questions about documents.
Use the following context to answer the user's question. If you cannot find the answer in the context, say so.
Always cite your sources using the document metadata.

Context:
%s`

// Service answers questions grounded in retrieved document chunks, keeping
// a bounded conversation history across calls.
type Service struct {
	embedder  Embedder
	vectors   VectorSearcher
	index     KeywordCounter
	completer Completer
	topK      int
	logger    *zap.Logger

	mu      sync.Mutex
	history *conversation.History
}

// New creates a chat service. topK is how many chunks to retrieve per question.
func New(
	embedder Embedder,
	vectors VectorSearcher,
	index KeywordCounter,
	completer Completer,
	history *conversation.History,
	topK int,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:  embedder,
		vectors:   vectors,
		index:     index,
		completer: completer,
		history:   history,
		topK:      topK,
		logger:    logger,
	}
}

// Ask answers one user question. With an empty index it returns guidance to
// upload documents without consuming a history turn. A completion provider
// failure degrades to an apology reply rather than an error: the exchange
// still lands in history so the conversation stays coherent.
func (s *Service) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is required: %w", domain.ErrValidation)
	}

	count, err := s.index.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return guidanceReply, nil
	}

	embedded, err := s.embedder.Embed(ctx, message)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	matches, err := s.vectors.Search(ctx, embedded.Embedding, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve chunks: %w", err)
	}

	answer, err := s.completer.Complete(ctx, s.buildMessages(matches, message))
	if err != nil {
		s.logger.Error("Completion failed, degrading to apology", zap.Error(err))
		answer = apologyReply
	}

	s.mu.Lock()
	s.history.Append(domain.RoleUser, message)
	s.history.Append(domain.RoleAssistant, answer)
	s.mu.Unlock()

	return answer, nil
}

// Clear drops the conversation history.
func (s *Service) Clear() {
	s.mu.Lock()
	s.history.Clear()
	s.mu.Unlock()
	s.logger.Info("Conversation history cleared")
}

// buildMessages assembles system prompt with retrieved context, prior
// turns, then the current question.
func (s *Service) buildMessages(matches []vector.Match, message string) []domain.Message {
	s.mu.Lock()
	turns := s.history.Turns()
	s.mu.Unlock()

	messages := make([]domain.Message, 0, len(turns)+2)
	messages = append(messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: fmt.Sprintf(systemPrompt, formatContext(matches)),
	})
	for _, turn := range turns {
		messages = append(messages, domain.Message{Role: turn.Role, Content: turn.Text})
	}

	return append(messages, domain.Message{Role: domain.RoleUser, Content: message})
}

// formatContext renders retrieved chunks as source-attributed blocks.
func formatContext(matches []vector.Match) string {
	if len(matches) == 0 {
		return "No relevant documents found."
	}

	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		source := m.Metadata["source"]
		if source == "" {
			source = "Unknown"
		}
		blocks = append(blocks, fmt.Sprintf("From %s:\n%s", source, m.Content))
	}
	return strings.Join(blocks, "\n\n")
}
