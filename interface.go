package mediawiki

import (
	"context"
	"io"
	"net/url"

	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
)

// QueryClient defines the operations the asset source needs from an Action
// API client. Both the MediaWiki and the Wikimedia client implement it.
type QueryClient interface {
	// ExecuteQuery runs one action=query request with the given parameters.
	ExecuteQuery(ctx context.Context, params url.Values) (json.Object, error)

	// FindAll returns the page of all images starting at offset.
	FindAll(ctx context.Context, offset int) (*ImageSearchResult, error)

	// CountAll returns the total number of images on the wiki.
	CountAll(ctx context.Context) (int, error)

	// GetAssetDetails resolves titles to imageinfo data.
	GetAssetDetails(ctx context.Context, search *ImageSearchResult, thumbSize int) (*QueryResult, error)

	// OpenFile streams an original file.
	OpenFile(ctx context.Context, fileURL string) (io.ReadCloser, error)

	// ItemsPerPage is the page size used for pagination.
	ItemsPerPage() int
}

// Compile-time interface compliance checks
var (
	_ QueryClient = (*Client)(nil)
	_ QueryClient = (*WikimediaClient)(nil)
)
