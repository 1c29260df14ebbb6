package assetsource

import (
	"context"
	"iter"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
)

// AssetProxyQueryResult is one page of asset proxies.
type AssetProxyQueryResult struct {
	query  *AssetProxyQuery
	raw    *mediawiki.QueryResult
	assets []*AssetProxy
}

func newAssetProxyQueryResult(ctx context.Context, query *AssetProxyQuery, raw *mediawiki.QueryResult) (*AssetProxyQueryResult, error) {
	assets := make([]*AssetProxy, 0, len(raw.Assets))
	for _, data := range raw.Assets {
		proxy, err := NewAssetProxy(ctx, data, query.source)
		if err != nil {
			return nil, err
		}
		assets = append(assets, proxy)
	}
	return &AssetProxyQueryResult{query: query, raw: raw, assets: assets}, nil
}

// Query returns a copy of the query that produced the result.
func (r *AssetProxyQueryResult) Query() *AssetProxyQuery {
	return r.query.clone()
}

// First returns the first asset, or nil on an empty page.
func (r *AssetProxyQueryResult) First() *AssetProxy {
	return r.At(0)
}

// At returns the asset at position i of the page, or nil.
func (r *AssetProxyQueryResult) At(i int) *AssetProxy {
	if i < 0 || i >= len(r.assets) {
		return nil
	}
	return r.assets[i]
}

// Len is the number of assets on the page.
func (r *AssetProxyQueryResult) Len() int {
	return len(r.assets)
}

// Count is the total number of results across all pages.
func (r *AssetProxyQueryResult) Count() int {
	return r.raw.TotalResults
}

func (r *AssetProxyQueryResult) Assets() []*AssetProxy {
	return append([]*AssetProxy(nil), r.assets...)
}

// All iterates over the page with the absolute position of each asset.
func (r *AssetProxyQueryResult) All() iter.Seq2[int, *AssetProxy] {
	return func(yield func(int, *AssetProxy) bool) {
		for i, a := range r.assets {
			if !yield(r.query.offset+i, a) {
				return
			}
		}
	}
}

// Raw returns the asset data the proxies were built from.
func (r *AssetProxyQueryResult) Raw() *mediawiki.QueryResult {
	return r.raw
}
