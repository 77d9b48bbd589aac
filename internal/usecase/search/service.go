// Package search exposes keyword search over the indexed documents.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlasops/docuchat/internal/domain"
	"github.com/atlasops/docuchat/internal/repository/index"
)

// Service validates queries and delegates ranking to the keyword index.
type Service struct {
	index        KeywordSearcher
	defaultLimit int
	maxLimit     int
}

// New creates a search service with limit bounds.
func New(idx KeywordSearcher, defaultLimit, maxLimit int) *Service {
	return &Service{index: idx, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Search returns the ranked matches for query. A zero limit takes the
// default; anything above the maximum is clamped.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.Entry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrValidation)
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	results, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return results, nil
}
