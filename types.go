package mediawiki

import (
	"fmt"
	"strings"

	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
)

// ImageSearchResult is one page of image titles plus the total number of
// titles the search produced.
type ImageSearchResult struct {
	ImageTitles  []string
	TotalResults int
}

// NewImageSearchResult creates a result from titles and a total.
func NewImageSearchResult(titles []string, total int) *ImageSearchResult {
	return &ImageSearchResult{
		ImageTitles:  append([]string(nil), titles...),
		TotalResults: total,
	}
}

// AddImageTitle appends title to the page.
func (r *ImageSearchResult) AddImageTitle(title string) {
	r.ImageTitles = append(r.ImageTitles, title)
}

// QueryResult holds the imageinfo data of one page of assets. Each asset is
// the first imageinfo entry of its file page extended with "identifier"
// and "filename".
type QueryResult struct {
	Assets       []json.Object
	TotalResults int
}

// Asset returns the asset data with the given identifier.
func (r *QueryResult) Asset(identifier string) (json.Object, bool) {
	for _, a := range r.Assets {
		if a.String("identifier") == identifier {
			return a, true
		}
	}
	return nil, false
}

// APIError is the error envelope the Action API returns with HTTP 200.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
}

func apiErrorFrom(result json.Object) *APIError {
	errObj := result.Object("error")
	if errObj == nil {
		return nil
	}
	return &APIError{
		Code: errObj.String("code"),
		Info: errObj.String("info"),
	}
}

// NormalizeTitle converts a page title to its identifier form: spaces
// become underscores, as in MediaWiki URLs.
func NormalizeTitle(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

// Paginate returns titles[offset:offset+limit], clamped to the slice. An
// offset past the end yields an empty page.
func Paginate(titles []string, offset, limit int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(titles) || limit <= 0 {
		return nil
	}
	end := min(offset+limit, len(titles))
	return titles[offset:end]
}
