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

// DirectImage treats the search term as a page title and returns the images
// used on that page.
type DirectImage struct {
	baseStrategy
}

// NewDirectImage binds a DirectImage strategy to src.
func NewDirectImage(src Source) Strategy {
	return &DirectImage{baseStrategy: newBaseStrategy(src)}
}

func (s *DirectImage) Search(ctx context.Context, term string, offset int) (*mediawiki.ImageSearchResult, error) {
	result, err := s.client.ExecuteQuery(ctx, url.Values{
		"titles":  {term},
		"prop":    {"images"},
		"imlimit": {strconv.Itoa(totalResultLimit)},
	})
	if err != nil {
		return nil, fmt.Errorf("direct image search: %w", err)
	}
	return s.page(firstPageImages(result, term), offset), nil
}

// firstPageImages returns the image titles of the page the term names. A
// term holding several titles ("A|B") resolves to its first title; when no
// page matches, the page with the lowest key wins.
func firstPageImages(result json.Object, term string) []string {
	pages := result.Object("query.pages")
	if len(pages) == 0 {
		return nil
	}

	want, _, _ := strings.Cut(term, "|")
	want = mediawiki.NormalizeTitle(strings.TrimSpace(want))
	for _, e := range result.Slice("query.normalized") {
		entry, ok := json.AsObject(e)
		if ok && mediawiki.NormalizeTitle(entry.String("from")) == want {
			want = mediawiki.NormalizeTitle(entry.String("to"))
			break
		}
	}

	keys := make([]string, 0, len(pages))
	for k := range pages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return pageKeyLess(keys[i], keys[j]) })

	var fallback json.Object
	for _, k := range keys {
		page, ok := json.AsObject(pages[k])
		if !ok {
			continue
		}
		if mediawiki.NormalizeTitle(page.String("title")) == want {
			return imageTitles(page)
		}
		if fallback == nil {
			fallback = page
		}
	}
	if fallback == nil {
		return nil
	}
	return imageTitles(fallback)
}

// pageKeyLess orders page ids numerically, existing pages (positive ids)
// before missing ones (negative ids).
func pageKeyLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr != nil || berr != nil:
		return a < b
	case (ai < 0) != (bi < 0):
		return ai > 0
	case ai < 0:
		return ai > bi
	}
	return ai < bi
}

func imageTitles(page json.Object) []string {
	var titles []string
	for _, item := range page.Slice("images") {
		image, ok := json.AsObject(item)
		if !ok {
			continue
		}
		if title := image.String("title"); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}
