package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eznix86/mediawiki-assetsource/assetsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wikiassets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, []string{"commons"}, cfg.SourceIdentifiers())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
assetSources:
  wikipedia_en:
    domain: en.wikipedia.org
    label: English Wikipedia
    useQueryResultCache: true
    searchStrategy: article
    articleLimit: 5
    excludedIdentifierPatterns:
      - "File:Commons-logo*"
      - "*.svg"
  commons:
    variant: wikimedia
    searchStrategy: direct-image
defaultSource: wikipedia_en
queryCacheTTL: 12h
userAgent: "My Site Asset Importer (admin@example.org)"
logLevel: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"commons", "wikipedia_en"}, cfg.SourceIdentifiers())
	assert.Equal(t, "wikipedia_en", cfg.DefaultSource)
	assert.Equal(t, 12*time.Hour, cfg.QueryCacheTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultConfig().CacheDatabase, cfg.CacheDatabase, "unset values keep defaults")

	opts, err := cfg.Options("wikipedia_en")
	require.NoError(t, err)
	assert.Equal(t, assetsource.Options{
		Domain:                     "en.wikipedia.org",
		Label:                      "English Wikipedia",
		UserAgent:                  "My Site Asset Importer (admin@example.org)",
		UseQueryResultCache:        true,
		SearchStrategy:             "article",
		ArticleLimit:               5,
		ExcludedIdentifierPatterns: []string{"File:Commons-logo*", "*.svg"},
	}, opts)

	_, err = cfg.Options("dewiki")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
assetSources:
  local:
    baseUrl: http://localhost:8080
cacheDatabase: /var/lib/wikiassets/cache.db
`)
	t.Setenv("WIKIASSETS_CACHE_DATABASE", "/tmp/override.db")
	t.Setenv("WIKIASSETS_QUERY_CACHE_TTL", "90m")
	t.Setenv("WIKIASSETS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.CacheDatabase)
	assert.Equal(t, 90*time.Minute, cfg.QueryCacheTTL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.DefaultSource, "default source of the defaults does not exist in the file")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			content: "assetSources: [",
			wantErr: "failed to parse config",
		},
		{
			name:    "unknown variant",
			content: "assetSources:\n  x:\n    variant: flickr\n",
			wantErr: `unknown variant "flickr"`,
		},
		{
			name:    "mediawiki without domain",
			content: "assetSources:\n  x:\n    label: X\n",
			wantErr: "domain is required",
		},
		{
			name:    "unknown default source",
			content: "assetSources:\n  x:\n    domain: x.org\ndefaultSource: y\n",
			wantErr: `default source "y" is not configured`,
		},
		{
			name:    "negative article limit",
			content: "assetSources:\n  x:\n    domain: x.org\n    articleLimit: -1\n",
			wantErr: "must not be negative",
		},
		{
			name:    "bad log level",
			content: "assetSources:\n  x:\n    domain: x.org\nlogLevel: loud\n",
			wantErr: "unknown log level",
		},
		{
			name:    "bad env duration",
			content: "assetSources:\n  x:\n    domain: x.org\n",
			env:     map[string]string{"WIKIASSETS_QUERY_CACHE_TTL": "soon"},
			wantErr: "parse env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveSource(t *testing.T) {
	single := &Config{AssetSources: map[string]AssetSource{"only": {Domain: "x.org"}}}
	id, err := single.ResolveSource("")
	require.NoError(t, err)
	assert.Equal(t, "only", id)

	multi := &Config{AssetSources: map[string]AssetSource{"a": {}, "b": {}}}
	_, err = multi.ResolveSource("")
	assert.ErrorContains(t, err, "--source")

	multi.DefaultSource = "b"
	id, err = multi.ResolveSource("")
	require.NoError(t, err)
	assert.Equal(t, "b", id)

	id, err = multi.ResolveSource("a")
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	_, err = multi.ResolveSource("c")
	assert.ErrorContains(t, err, `"c" is not configured`)
}
