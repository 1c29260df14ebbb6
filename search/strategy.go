// Package search turns a user's search term into a page of image titles.
package search

import (
	"context"
	"path"
	"strings"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
)

const (
	totalResultLimit    = 500
	defaultArticleLimit = 10
)

// Strategy resolves a search term to image titles.
type Strategy interface {
	Search(ctx context.Context, term string, offset int) (*mediawiki.ImageSearchResult, error)
}

// Settings are the search-related options of an asset source.
type Settings struct {
	// Strategy is the registered strategy name.
	Strategy string
	// ArticleLimit caps the number of articles the article strategy reads
	// images from (0 = 10).
	ArticleLimit int
	// ExcludedIdentifierPatterns are shell globs; matching titles are dropped.
	ExcludedIdentifierPatterns []string
}

// Source is what a strategy is bound to.
type Source interface {
	Identifier() string
	QueryClient() mediawiki.QueryClient
	SearchSettings() Settings
}

type baseStrategy struct {
	client   mediawiki.QueryClient
	excluded []string
}

func newBaseStrategy(src Source) baseStrategy {
	return baseStrategy{
		client:   src.QueryClient(),
		excluded: src.SearchSettings().ExcludedIdentifierPatterns,
	}
}

// page filters titles, slices out the requested page and normalizes the
// titles on it. The total counts every title that survived the filter.
func (b baseStrategy) page(titles []string, offset int) *mediawiki.ImageSearchResult {
	kept := FilterExcluded(titles, b.excluded)
	result := mediawiki.NewImageSearchResult(nil, len(kept))
	for _, title := range mediawiki.Paginate(kept, offset, b.client.ItemsPerPage()) {
		result.AddImageTitle(mediawiki.NormalizeTitle(title))
	}
	return result
}

// FilterExcluded drops every title matching one of patterns. Patterns use
// shell glob syntax; a malformed pattern matches nothing.
func FilterExcluded(titles, patterns []string) []string {
	if len(patterns) == 0 {
		return titles
	}
	kept := make([]string, 0, len(titles))
	for _, title := range titles {
		if !matchesAny(title, patterns) {
			kept = append(kept, title)
		}
	}
	return kept
}

// matchesAny lets "*" cross "/" as fnmatch does; path.Match treats "/" as
// a separator otherwise.
func matchesAny(title string, patterns []string) bool {
	title = strings.ReplaceAll(title, "/", "\x00")
	for _, pattern := range patterns {
		pattern = fnmatchPattern(strings.ReplaceAll(pattern, "/", "\x00"))
		if ok, err := path.Match(pattern, title); err == nil && ok {
			return true
		}
	}
	return false
}

// fnmatchPattern rewrites the fnmatch negation "[!...]" into the "[^...]"
// form path.Match understands. Escaped brackets and brackets inside a
// class are left alone.
func fnmatchPattern(pattern string) string {
	if !strings.Contains(pattern, "[!") {
		return pattern
	}
	var b strings.Builder
	b.Grow(len(pattern))
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
			continue
		case !inClass && c == '[':
			inClass = true
			b.WriteByte(c)
			if i+1 < len(pattern) && pattern[i+1] == '!' {
				b.WriteByte('^')
				i++
			}
			continue
		case inClass && c == ']':
			inClass = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
