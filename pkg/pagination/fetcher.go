package pagination

import (
	"context"

	"github.com/Sternrassler/artic-browser/pkg/artwork"
)

// Page is the result of fetching one page of the listing.
type Page struct {
	Records    []artwork.Artwork
	Descriptor Descriptor
}

// PageFetcher is the interface the API client implements for single-page fetching.
type PageFetcher interface {
	// FetchPage fetches one page (1-based) and returns its records and descriptor.
	FetchPage(ctx context.Context, page int) (*Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, page int) (*Page, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, page int) (*Page, error) {
	return f(ctx, page)
}
