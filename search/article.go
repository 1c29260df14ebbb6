package search

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
)

// Article runs a full-text search over articles and returns the images used
// on the best matching ones.
type Article struct {
	baseStrategy
	articleLimit int
}

// NewArticle binds an Article strategy to src.
func NewArticle(src Source) Strategy {
	limit := src.SearchSettings().ArticleLimit
	if limit <= 0 {
		limit = defaultArticleLimit
	}
	return &Article{
		baseStrategy: newBaseStrategy(src),
		articleLimit: limit,
	}
}

func (s *Article) Search(ctx context.Context, term string, offset int) (*mediawiki.ImageSearchResult, error) {
	articles, err := s.client.ExecuteQuery(ctx, url.Values{
		"list":     {"search"},
		"srsearch": {term},
		"srlimit":  {strconv.Itoa(s.articleLimit)},
	})
	if err != nil {
		return nil, fmt.Errorf("article search: %w", err)
	}

	var pageIDs []string
	for _, item := range articles.Slice("query.search") {
		doc, ok := json.AsObject(item)
		if !ok {
			continue
		}
		if id, found := doc.Lookup("pageid"); found {
			pageIDs = append(pageIDs, json.ToString(id))
		}
	}
	if len(pageIDs) == 0 {
		return mediawiki.NewImageSearchResult(nil, 0), nil
	}

	images, err := s.client.ExecuteQuery(ctx, url.Values{
		"prop":    {"images"},
		"pageids": {strings.Join(pageIDs, "|")},
		"imlimit": {strconv.Itoa(totalResultLimit)},
	})
	if err != nil {
		return nil, fmt.Errorf("article images: %w", err)
	}

	return s.page(articleImages(images, pageIDs), offset), nil
}

// articleImages collects the image titles of every page, following the
// article ranking of the search. Pages the ranking does not know come last
// by page id.
func articleImages(result json.Object, ranking []string) []string {
	pages := result.Object("query.pages")
	if len(pages) == 0 {
		return nil
	}

	keys := make([]string, 0, len(pages))
	for k := range pages {
		keys = append(keys, k)
	}
	rank := make(map[string]int, len(ranking))
	for i, id := range ranking {
		rank[id] = i
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return pageKeyLess(keys[i], keys[j])
		}
	})

	var titles []string
	for _, k := range keys {
		page, ok := json.AsObject(pages[k])
		if !ok {
			continue
		}
		titles = append(titles, imageTitles(page)...)
	}
	return titles
}
