package search

import (
	"context"

	"github.com/atlasops/docuchat/internal/repository/index"
)

// KeywordSearcher ranks indexed documents against a query string.
type KeywordSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]index.Entry, error)
}
