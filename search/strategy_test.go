package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"testing"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient answers ExecuteQuery from a function and records the queries.
type fakeClient struct {
	pageSize int
	respond  func(q url.Values) (json.Object, error)
	queries  []url.Values
}

func (f *fakeClient) ExecuteQuery(_ context.Context, params url.Values) (json.Object, error) {
	f.queries = append(f.queries, params)
	return f.respond(params)
}

func (f *fakeClient) FindAll(context.Context, int) (*mediawiki.ImageSearchResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) CountAll(context.Context) (int, error) { return 0, errors.New("not used") }

func (f *fakeClient) GetAssetDetails(context.Context, *mediawiki.ImageSearchResult, int) (*mediawiki.QueryResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) OpenFile(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) ItemsPerPage() int {
	if f.pageSize == 0 {
		return 30
	}
	return f.pageSize
}

type fakeSource struct {
	client   *fakeClient
	settings Settings
}

func (s *fakeSource) Identifier() string { return "test-source" }
func (s *fakeSource) QueryClient() mediawiki.QueryClient { return s.client }
func (s *fakeSource) SearchSettings() Settings { return s.settings }

func imagesObject(titles ...string) []any {
	images := make([]any, len(titles))
	for i, title := range titles {
		images[i] = map[string]any{"ns": 6, "title": title}
	}
	return images
}

func TestDirectImage_Search(t *testing.T) {
	client := &fakeClient{
		pageSize: 2,
		respond: func(q url.Values) (json.Object, error) {
			return json.Object{"query": map[string]any{"pages": map[string]any{
				"736": map[string]any{
					"title":  "Albert Einstein",
					"images": imagesObject("File:Einstein 1921.jpg", "File:Commons-logo.svg", "File:Einstein signature.png", "File:Nobel medal.png"),
				},
			}}}, nil
		},
	}
	src := &fakeSource{client: client, settings: Settings{ExcludedIdentifierPatterns: []string{"File:Commons-logo*"}}}

	result, err := NewDirectImage(src).Search(context.Background(), "Albert Einstein", 1)
	require.NoError(t, err)

	require.Len(t, client.queries, 1)
	assert.Equal(t, "Albert Einstein", client.queries[0].Get("titles"))
	assert.Equal(t, "images", client.queries[0].Get("prop"))
	assert.Equal(t, "500", client.queries[0].Get("imlimit"))

	assert.Equal(t, 3, result.TotalResults)
	if diff := cmp.Diff([]string{"File:Einstein_signature.png", "File:Nobel_medal.png"}, result.ImageTitles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectImage_NoImages(t *testing.T) {
	tests := []struct {
		name     string
		response json.Object
	}{
		{name: "no pages", response: json.Object{"batchcomplete": ""}},
		{name: "missing page", response: json.Object{"query": map[string]any{"pages": map[string]any{"-1": map[string]any{"missing": ""}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{respond: func(url.Values) (json.Object, error) { return tt.response, nil }}
			result, err := NewDirectImage(&fakeSource{client: client}).Search(context.Background(), "Nothing", 0)
			require.NoError(t, err)
			assert.Empty(t, result.ImageTitles)
			assert.Zero(t, result.TotalResults)
		})
	}
}

func TestDirectImage_SeveralPages(t *testing.T) {
	response := json.Object{"query": map[string]any{
		"normalized": []any{map[string]any{"from": "a", "to": "A"}},
		"pages": map[string]any{
			"-1": map[string]any{"title": "Missing", "missing": ""},
			"30": map[string]any{"title": "C", "images": imagesObject("File:C.jpg")},
			"10": map[string]any{"title": "B", "images": imagesObject("File:B.jpg")},
			"20": map[string]any{"title": "A", "images": imagesObject("File:A.jpg")},
		},
	}}

	tests := []struct {
		name string
		term string
		want []string
	}{
		{name: "first requested title", term: "a|B|C", want: []string{"File:A.jpg"}},
		{name: "later title first", term: "C|A", want: []string{"File:C.jpg"}},
		{name: "no title matches", term: "Missing page", want: []string{"File:B.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{respond: func(url.Values) (json.Object, error) { return response, nil }}
			strategy := NewDirectImage(&fakeSource{client: client})
			for range 50 {
				result, err := strategy.Search(context.Background(), tt.term, 0)
				require.NoError(t, err)
				if diff := cmp.Diff(tt.want, result.ImageTitles); diff != "" {
					t.Fatalf("titles mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestPageKeyLess(t *testing.T) {
	keys := []string{"-2", "7", "x", "-1", "12"}
	sort.Slice(keys, func(i, j int) bool { return pageKeyLess(keys[i], keys[j]) })
	assert.Equal(t, []string{"7", "12", "-1", "-2", "x"}, keys)
}

func TestDirectImage_Error(t *testing.T) {
	client := &fakeClient{respond: func(url.Values) (json.Object, error) { return nil, errors.New("offline") }}
	_, err := NewDirectImage(&fakeSource{client: client}).Search(context.Background(), "x", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct image search")
}

func TestArticle_Search(t *testing.T) {
	client := &fakeClient{
		respond: func(q url.Values) (json.Object, error) {
			if q.Get("list") == "search" {
				return json.Object{"query": map[string]any{"search": []any{
					map[string]any{"ns": 0, "title": "Mars", "pageid": 14640471},
					map[string]any{"ns": 0, "title": "Mars rover"},
					map[string]any{"ns": 0, "title": "Phobos", "pageid": 24640},
				}}}, nil
			}
			return json.Object{"query": map[string]any{"pages": map[string]any{
				"24640":    map[string]any{"pageid": 24640, "images": imagesObject("File:Phobos.jpg")},
				"14640471": map[string]any{"pageid": 14640471, "images": imagesObject("File:Mars Valles Marineris.jpeg", "File:Symbol support vote.svg")},
			}}}, nil
		},
	}
	src := &fakeSource{client: client, settings: Settings{
		ArticleLimit:               3,
		ExcludedIdentifierPatterns: []string{"*.svg"},
	}}

	result, err := NewArticle(src).Search(context.Background(), "red planet", 0)
	require.NoError(t, err)

	require.Len(t, client.queries, 2)
	assert.Equal(t, "red planet", client.queries[0].Get("srsearch"))
	assert.Equal(t, "3", client.queries[0].Get("srlimit"))
	assert.Equal(t, "14640471|24640", client.queries[1].Get("pageids"))
	assert.Equal(t, "500", client.queries[1].Get("imlimit"))

	assert.Equal(t, 2, result.TotalResults)
	if diff := cmp.Diff([]string{"File:Mars_Valles_Marineris.jpeg", "File:Phobos.jpg"}, result.ImageTitles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestArticle_OrderFollowsSearchRank(t *testing.T) {
	client := &fakeClient{
		respond: func(q url.Values) (json.Object, error) {
			if q.Get("list") == "search" {
				return json.Object{"query": map[string]any{"search": []any{
					map[string]any{"ns": 0, "title": "Second", "pageid": 5},
					map[string]any{"ns": 0, "title": "First", "pageid": 300},
				}}}, nil
			}
			return json.Object{"query": map[string]any{"pages": map[string]any{
				"100": map[string]any{"pageid": 100, "images": imagesObject("File:Unranked 100.jpg")},
				"300": map[string]any{"pageid": 300, "images": imagesObject("File:Ranked first.jpg")},
				"9":   map[string]any{"pageid": 9, "images": imagesObject("File:Unranked 9.jpg")},
				"5":   map[string]any{"pageid": 5, "images": imagesObject("File:Ranked second.jpg")},
			}}}, nil
		},
	}

	want := []string{"File:Ranked_second.jpg", "File:Ranked_first.jpg", "File:Unranked_9.jpg", "File:Unranked_100.jpg"}
	for range 20 {
		client.queries = nil
		result, err := NewArticle(&fakeSource{client: client}).Search(context.Background(), "rank", 0)
		require.NoError(t, err)
		if diff := cmp.Diff(want, result.ImageTitles); diff != "" {
			t.Fatalf("titles mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestArticle_DefaultLimit(t *testing.T) {
	client := &fakeClient{respond: func(url.Values) (json.Object, error) {
		return json.Object{"query": map[string]any{"search": []any{}}}, nil
	}}

	result, err := NewArticle(&fakeSource{client: client}).Search(context.Background(), "x", 0)
	require.NoError(t, err)

	require.Len(t, client.queries, 1, "no articles means no image query")
	assert.Equal(t, "10", client.queries[0].Get("srlimit"))
	assert.Empty(t, result.ImageTitles)
}

func TestArticle_Pagination(t *testing.T) {
	var many []string
	for i := range 45 {
		many = append(many, fmt.Sprintf("File:Img %d.png", i))
	}
	client := &fakeClient{respond: func(q url.Values) (json.Object, error) {
		if q.Get("list") == "search" {
			return json.Object{"query": map[string]any{"search": []any{map[string]any{"pageid": 1}}}}, nil
		}
		return json.Object{"query": map[string]any{"pages": map[string]any{
			"1": map[string]any{"images": imagesObject(many...)},
		}}}, nil
	}}

	result, err := NewArticle(&fakeSource{client: client}).Search(context.Background(), "x", 30)
	require.NoError(t, err)
	assert.Equal(t, 45, result.TotalResults)
	assert.Len(t, result.ImageTitles, 15)
	assert.Equal(t, "File:Img_30.png", result.ImageTitles[0])
}

func TestFilterExcluded(t *testing.T) {
	titles := []string{"File:A.jpg", "File:B.svg", "File:AC/DC live.jpg", "File:Flag of X.svg"}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{name: "no patterns", patterns: nil, want: titles},
		{name: "extension", patterns: []string{"*.svg"}, want: []string{"File:A.jpg", "File:AC/DC live.jpg"}},
		{name: "star crosses slash", patterns: []string{"File:AC*"}, want: []string{"File:A.jpg", "File:B.svg", "File:Flag of X.svg"}},
		{name: "character class", patterns: []string{"File:[AB].*"}, want: []string{"File:AC/DC live.jpg", "File:Flag of X.svg"}},
		{name: "negated class", patterns: []string{"File:[!A]*"}, want: []string{"File:A.jpg", "File:AC/DC live.jpg"}},
		{name: "caret negation", patterns: []string{"File:[^A]*"}, want: []string{"File:A.jpg", "File:AC/DC live.jpg"}},
		{name: "escaped bracket stays literal", patterns: []string{"File:\\[!A]*"}, want: titles},
		{name: "malformed pattern ignored", patterns: []string{"File:[A"}, want: titles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FilterExcluded(titles, tt.patterns)); diff != "" {
				t.Errorf("FilterExcluded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
