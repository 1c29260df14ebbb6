package assetsource

import (
	"context"
	"errors"
	"fmt"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
)

// ErrAssetNotFound is returned when the wiki has no image for an identifier.
var ErrAssetNotFound = errors.New("asset not found")

// AssetTypeFilter narrows listings by asset type.
type AssetTypeFilter string

const (
	AssetTypeAll      AssetTypeFilter = "All"
	AssetTypeImage    AssetTypeFilter = "Image"
	AssetTypeDocument AssetTypeFilter = "Document"
	AssetTypeVideo    AssetTypeFilter = "Video"
	AssetTypeAudio    AssetTypeFilter = "Audio"
)

// AssetProxyRepository is the entry point the host queries.
type AssetProxyRepository struct {
	source *AssetSource
	filter AssetTypeFilter
}

// NewAssetProxyRepository returns the repository of src.
func NewAssetProxyRepository(src *AssetSource) *AssetProxyRepository {
	return &AssetProxyRepository{source: src, filter: AssetTypeAll}
}

// GetAssetProxy fetches the asset with the given identifier.
func (r *AssetProxyRepository) GetAssetProxy(ctx context.Context, identifier string) (*AssetProxy, error) {
	titles := mediawiki.NewImageSearchResult([]string{identifier}, 1)
	details, err := r.source.QueryClient().GetAssetDetails(ctx, titles, r.source.ThumbnailSize())
	if err != nil {
		return nil, fmt.Errorf("asset source %s: %w", r.source.Identifier(), err)
	}
	data, ok := details.Asset(mediawiki.NormalizeTitle(identifier))
	if !ok {
		if len(details.Assets) == 0 {
			return nil, fmt.Errorf("%w: %s in asset source %s", ErrAssetNotFound, identifier, r.source.Identifier())
		}
		data = details.Assets[0]
	}
	return NewAssetProxy(ctx, data, r.source)
}

// FilterByType restricts later listings. Wikis only serve images here, so
// any other type yields empty results.
func (r *AssetProxyRepository) FilterByType(filter AssetTypeFilter) {
	if filter == "" {
		filter = AssetTypeAll
	}
	r.filter = filter
}

// FindAll returns the first page of all assets.
func (r *AssetProxyRepository) FindAll(ctx context.Context) (*AssetProxyQueryResult, error) {
	return r.Query().Execute(ctx)
}

// FindBySearchTerm returns the first page of assets matching term.
func (r *AssetProxyRepository) FindBySearchTerm(ctx context.Context, term string) (*AssetProxyQueryResult, error) {
	q := r.Query()
	q.SetSearchTerm(term)
	return q.Execute(ctx)
}

// Query returns a new query to page through assets, narrowed by the
// current type filter.
func (r *AssetProxyRepository) Query() *AssetProxyQuery {
	q := NewAssetProxyQuery(r.source)
	q.filter = r.filter
	return q
}

// FindByTag is not supported by the Action API.
func (r *AssetProxyRepository) FindByTag(context.Context, string) (*AssetProxyQueryResult, error) {
	return nil, fmt.Errorf("find by tag: %w", errors.ErrUnsupported)
}

// FindUntagged is not supported by the Action API.
func (r *AssetProxyRepository) FindUntagged(context.Context) (*AssetProxyQueryResult, error) {
	return nil, fmt.Errorf("find untagged: %w", errors.ErrUnsupported)
}

// CountAll returns the number of images on the wiki.
func (r *AssetProxyRepository) CountAll(ctx context.Context) (int, error) {
	if !r.filter.servesImages() {
		return 0, nil
	}
	n, err := r.source.QueryClient().CountAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("asset source %s: %w", r.source.Identifier(), err)
	}
	return n, nil
}

func (f AssetTypeFilter) servesImages() bool {
	return f == AssetTypeAll || f == AssetTypeImage
}
