package assetsource

import (
	"context"
	"fmt"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
)

const defaultQueryLimit = 20

// AssetProxyQuery lists or searches the assets of one source.
type AssetProxyQuery struct {
	source     *AssetSource
	offset     int
	limit      int
	searchTerm string
	filter     AssetTypeFilter
}

// NewAssetProxyQuery returns a query over all assets of src.
func NewAssetProxyQuery(src *AssetSource) *AssetProxyQuery {
	return &AssetProxyQuery{source: src, limit: defaultQueryLimit, filter: AssetTypeAll}
}

func (q *AssetProxyQuery) Offset() int {
	return q.offset
}

func (q *AssetProxyQuery) SetOffset(offset int) {
	q.offset = max(offset, 0)
}

func (q *AssetProxyQuery) Limit() int {
	return q.limit
}

// SetLimit sets the page length. One request returns at most ItemsPerPage
// titles, so larger or non-positive limits are clamped to it.
func (q *AssetProxyQuery) SetLimit(limit int) {
	if n := q.source.QueryClient().ItemsPerPage(); limit <= 0 || limit > n {
		limit = n
	}
	q.limit = limit
}

func (q *AssetProxyQuery) SearchTerm() string {
	return q.searchTerm
}

func (q *AssetProxyQuery) SetSearchTerm(term string) {
	q.searchTerm = term
}

// Execute runs the search (or the full listing when the term is empty) and
// fetches the details of the titles on the page.
func (q *AssetProxyQuery) Execute(ctx context.Context) (*AssetProxyQueryResult, error) {
	if !q.filter.servesImages() {
		return &AssetProxyQueryResult{query: q.clone(), raw: &mediawiki.QueryResult{}}, nil
	}
	titles, err := q.titles(ctx)
	if err != nil {
		return nil, err
	}
	if q.limit > 0 && len(titles.ImageTitles) > q.limit {
		titles.ImageTitles = titles.ImageTitles[:q.limit]
	}

	details, err := q.source.QueryClient().GetAssetDetails(ctx, titles, q.source.ThumbnailSize())
	if err != nil {
		return nil, fmt.Errorf("asset source %s: %w", q.source.Identifier(), err)
	}
	return newAssetProxyQueryResult(ctx, q.clone(), details)
}

// Count executes the query and returns the total number of results.
func (q *AssetProxyQuery) Count(ctx context.Context) (int, error) {
	if !q.filter.servesImages() {
		return 0, nil
	}
	titles, err := q.titles(ctx)
	if err != nil {
		return 0, err
	}
	return titles.TotalResults, nil
}

func (q *AssetProxyQuery) titles(ctx context.Context) (*mediawiki.ImageSearchResult, error) {
	if q.searchTerm == "" {
		result, err := q.source.QueryClient().FindAll(ctx, q.offset)
		if err != nil {
			return nil, fmt.Errorf("asset source %s: %w", q.source.Identifier(), err)
		}
		return result, nil
	}

	strategy, err := q.source.strategies.ForSource(q.source)
	if err != nil {
		return nil, err
	}
	result, err := strategy.Search(ctx, q.searchTerm, q.offset)
	if err != nil {
		return nil, fmt.Errorf("asset source %s: search %q: %w", q.source.Identifier(), q.searchTerm, err)
	}
	return result, nil
}

func (q *AssetProxyQuery) clone() *AssetProxyQuery {
	c := *q
	return &c
}
