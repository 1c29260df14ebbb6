package assetsource

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeWiki is a small Action API backed by a fixed set of files.
type fakeWiki struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []string
}

type wikiFile struct {
	title    string
	artist   string
	desc     string
	name     string
	license  string
	dateTime string
	size     int
}

var testFiles = []wikiFile{
	{title: "File:Mountain lake.jpg", artist: `<a href="/wiki/User:Jane">Jane Doe</a>`, desc: "A <b>quiet</b> lake", name: "Mountain lake", license: "https://creativecommons.org/licenses/by-sa/4.0", dateTime: "2021-06-01 10:20:30", size: 123456},
	{title: "File:City at night.png", artist: "John Roe", name: "City at night", size: 2048},
	{title: "File:Diagram.svg", desc: "Network diagram", size: 512},
}

func newFakeWiki(t *testing.T) *fakeWiki {
	t.Helper()
	w := &fakeWiki{}
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", w.api)
	mux.HandleFunc("/files/", func(rw http.ResponseWriter, r *http.Request) {
		w.record(r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "missing.jpg") {
			http.NotFound(rw, r)
			return
		}
		_, _ = fmt.Fprintf(rw, "binary:%s", strings.TrimPrefix(r.URL.Path, "/files/"))
	})
	w.server = httptest.NewServer(mux)
	t.Cleanup(w.server.Close)
	return w
}

func (w *fakeWiki) record(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, s)
}

func (w *fakeWiki) requestCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.requests)
}

func (w *fakeWiki) api(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.record(q.Encode())
	var resp any
	switch {
	case q.Get("list") == "allimages":
		images := make([]any, 0, len(testFiles))
		for _, f := range testFiles {
			images = append(images, map[string]any{"name": strings.TrimPrefix(f.title, "File:"), "title": f.title})
		}
		resp = map[string]any{"query": map[string]any{"allimages": images}}
	case q.Get("meta") == "siteinfo":
		resp = map[string]any{"query": map[string]any{"statistics": map[string]any{"images": len(testFiles)}}}
	case q.Get("list") == "search":
		var hits []any
		if q.Get("srsearch") == "landscape" {
			hits = append(hits, map[string]any{"ns": 0, "title": "Landscape", "pageid": 42})
		}
		resp = map[string]any{"query": map[string]any{"search": hits}}
	case q.Get("prop") == "images":
		resp = map[string]any{"query": map[string]any{"pages": map[string]any{
			"42": map[string]any{"pageid": 42, "title": "Landscape", "images": []any{
				map[string]any{"ns": 6, "title": "File:Mountain lake.jpg"},
				map[string]any{"ns": 6, "title": "File:City at night.png"},
			}},
		}}}
	case q.Get("prop") == "imageinfo":
		resp = map[string]any{"query": map[string]any{"pages": w.imageInfo(strings.Split(q.Get("titles"), "|"))}}
	default:
		resp = map[string]any{"error": map[string]any{"code": "badquery", "info": "unexpected query"}}
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

func (w *fakeWiki) imageInfo(titles []string) map[string]any {
	pages := make(map[string]any)
	for i, requested := range titles {
		title := strings.ReplaceAll(requested, "_", " ")
		var file *wikiFile
		for j := range testFiles {
			if testFiles[j].title == title {
				file = &testFiles[j]
			}
		}
		if file == nil {
			pages[fmt.Sprintf("-%d", i+1)] = map[string]any{"ns": 6, "title": title, "missing": ""}
			continue
		}
		name := strings.ReplaceAll(strings.TrimPrefix(title, "File:"), " ", "_")
		ext := map[string]any{}
		if file.artist != "" {
			ext["Artist"] = map[string]any{"value": file.artist}
		}
		if file.desc != "" {
			ext["ImageDescription"] = map[string]any{"value": file.desc}
		}
		if file.name != "" {
			ext["ObjectName"] = map[string]any{"value": file.name}
		}
		if file.license != "" {
			ext["LicenseUrl"] = map[string]any{"value": file.license}
		}
		if file.dateTime != "" {
			ext["DateTime"] = map[string]any{"value": file.dateTime}
		}
		pages[fmt.Sprint(100+i)] = map[string]any{
			"pageid": 100 + i,
			"ns":     6,
			"title":  title,
			"imageinfo": []any{map[string]any{
				"timestamp":      "2020-01-02T03:04:05Z",
				"user":           "Uploader",
				"size":           file.size,
				"width":          1024,
				"height":         768,
				"thumburl":       w.server.URL + "/files/thumb/" + name,
				"url":            w.server.URL + "/files/" + name,
				"descriptionurl": w.server.URL + "/wiki/" + strings.ReplaceAll(title, " ", "_"),
				"extmetadata":    ext,
			}},
		}
	}
	return pages
}

func newTestSource(t *testing.T, w *fakeWiki, options Options, opts ...Option) *AssetSource {
	t.Helper()
	options.BaseURL = w.server.URL
	if options.Domain == "" {
		options.Domain = "wiki.example.org"
	}
	src, err := New("test", options, opts...)
	require.NoError(t, err)
	return src
}
