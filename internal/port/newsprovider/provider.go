// Package newsprovider defines the port interface for upstream article sources.
package newsprovider

import (
	"context"

	"github.com/Strob0t/technews/internal/domain/article"
)

// SearchRequest is a keyword search across all indexed articles.
// Zero Page or PageSize lets the provider apply its own default.
type SearchRequest struct {
	Term     string
	SortBy   string
	Language string
	Page     int
	PageSize int
}

// HeadlinesRequest lists top headlines for a category and country.
type HeadlinesRequest struct {
	Category string
	Country  string
	Page     int
	PageSize int
}

// Provider fetches articles from an upstream news index.
//
// Errors wrap domain.ErrUpstream for non-success responses and
// domain.ErrTimeout when the call does not complete in time.
type Provider interface {
	SearchByKeyword(ctx context.Context, req SearchRequest) (article.Page, error)
	ListByCategory(ctx context.Context, req HeadlinesRequest) (article.Page, error)
}
