package mediawiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
)

const imageInfoProps = "url|size|metadata|extmetadata|user"

// FindAll lists the wiki's images, newest first, and returns the page
// starting at offset. The total is the wiki's image count.
func (c *Client) FindAll(ctx context.Context, offset int) (*ImageSearchResult, error) {
	result, err := c.ExecuteQuery(ctx, url.Values{
		"list":    {"allimages"},
		"aisort":  {"timestamp"},
		"aidir":   {"older"},
		"ailimit": {strconv.Itoa(c.totalResultLimit())},
	})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	var titles []string
	for _, item := range result.Slice("query.allimages") {
		image, ok := json.AsObject(item)
		if !ok {
			continue
		}
		titles = append(titles, image.String("title"))
	}

	total, err := c.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	collection := NewImageSearchResult(nil, total)
	for _, title := range Paginate(titles, offset, c.ItemsPerPage()) {
		collection.AddImageTitle(NormalizeTitle(title))
	}

	c.logDebug("MediaWiki response",
		"operation", "FindAll",
		"offset", offset,
		"title_count", len(collection.ImageTitles),
		"total", total,
	)
	return collection, nil
}

// CountAll returns the number of images the wiki reports in its site
// statistics.
func (c *Client) CountAll(ctx context.Context) (int, error) {
	result, err := c.ExecuteQuery(ctx, url.Values{
		"meta":   {"siteinfo"},
		"siprop": {"statistics"},
	})
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return result.Int("query.statistics.images"), nil
}

// GetAssetDetails fetches imageinfo for every title of search. Titles the
// API has no image for are skipped; the remaining assets keep the order of
// search.ImageTitles. thumbSize bounds the thumbnail (0 = 240px).
func (c *Client) GetAssetDetails(ctx context.Context, search *ImageSearchResult, thumbSize int) (*QueryResult, error) {
	if search == nil || len(search.ImageTitles) == 0 {
		total := 0
		if search != nil {
			total = search.TotalResults
		}
		return &QueryResult{TotalResults: total}, nil
	}
	if thumbSize <= 0 {
		thumbSize = defaultThumbSize
	}

	result, err := c.ExecuteQuery(ctx, url.Values{
		"prop":        {"imageinfo"},
		"titles":      {strings.Join(search.ImageTitles, "|")},
		"iiprop":      {imageInfoProps},
		"iiurlwidth":  {strconv.Itoa(thumbSize)},
		"iiurlheight": {strconv.Itoa(thumbSize)},
	})
	if err != nil {
		return nil, fmt.Errorf("get asset details: %w", err)
	}

	byIdentifier := make(map[string]json.Object)
	for _, p := range result.Object("query.pages") {
		page, ok := json.AsObject(p)
		if !ok {
			continue
		}
		infos := page.Slice("imageinfo")
		if len(infos) == 0 {
			continue
		}
		info, ok := json.AsObject(infos[0])
		if !ok {
			continue
		}
		title := page.String("title")
		asset := info.Clone()
		asset["identifier"] = NormalizeTitle(title)
		asset["filename"] = filenameFromTitle(title)
		byIdentifier[NormalizeTitle(title)] = asset
	}

	normalized := normalizedTitles(result)
	assets := make([]json.Object, 0, len(byIdentifier))
	for _, title := range search.ImageTitles {
		id := NormalizeTitle(title)
		if to, ok := normalized[id]; ok {
			id = to
		}
		if asset, ok := byIdentifier[id]; ok {
			assets = append(assets, asset)
			delete(byIdentifier, id)
		}
	}
	if len(byIdentifier) > 0 {
		rest := make([]string, 0, len(byIdentifier))
		for id := range byIdentifier {
			rest = append(rest, id)
		}
		sort.Strings(rest)
		for _, id := range rest {
			assets = append(assets, byIdentifier[id])
		}
	}

	c.logDebug("MediaWiki response",
		"operation", "GetAssetDetails",
		"requested", len(search.ImageTitles),
		"asset_count", len(assets),
	)

	return &QueryResult{
		Assets:       assets,
		TotalResults: search.TotalResults,
	}, nil
}

// OpenFile opens the original file behind fileURL for reading. The caller
// must close the returned body.
func (c *Client) OpenFile(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	if fileURL == "" {
		return nil, fmt.Errorf("open file: empty url")
	}

	c.logDebug("MediaWiki request",
		"operation", "OpenFile",
		"method", http.MethodGet,
		"url", fileURL,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.closeBody(resp.Body)
		return nil, fmt.Errorf("open file failed: %s - %s", resp.Status, string(body))
	}
	return resp.Body, nil
}

// filenameFromTitle strips the namespace prefix: "File:Foo bar.jpg" becomes
// "Foo bar.jpg".
func filenameFromTitle(title string) string {
	if _, name, ok := strings.Cut(title, ":"); ok {
		return name
	}
	return title
}

// normalizedTitles maps requested identifiers to the identifiers the API
// normalized them to (e.g. "file:a.jpg" to "File:A.jpg").
func normalizedTitles(result json.Object) map[string]string {
	entries := result.Slice("query.normalized")
	if len(entries) == 0 {
		return nil
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		entry, ok := json.AsObject(e)
		if !ok {
			continue
		}
		m[NormalizeTitle(entry.String("from"))] = NormalizeTitle(entry.String("to"))
	}
	return m
}
