// Package config loads the asset source configuration of the wikiassets
// command from a YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/eznix86/mediawiki-assetsource/assetsource"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "wikiassets.yaml"

// Config is the root of the configuration file.
type Config struct {
	AssetSources    map[string]AssetSource `yaml:"assetSources"`
	DefaultSource   string                 `yaml:"defaultSource,omitempty"`
	CacheDatabase   string                 `yaml:"cacheDatabase,omitempty"`
	QueryCacheTTL   time.Duration          `yaml:"queryCacheTTL,omitempty"`
	ImportDirectory string                 `yaml:"importDirectory,omitempty"`
	UserAgent       string                 `yaml:"userAgent,omitempty"`
	LogLevel        string                 `yaml:"logLevel,omitempty"`
}

// AssetSource configures one wiki.
type AssetSource struct {
	Variant                    string   `yaml:"variant,omitempty"`
	Domain                     string   `yaml:"domain,omitempty"`
	BaseURL                    string   `yaml:"baseUrl,omitempty"`
	Label                      string   `yaml:"label,omitempty"`
	UseQueryResultCache        bool     `yaml:"useQueryResultCache,omitempty"`
	SearchStrategy             string   `yaml:"searchStrategy,omitempty"`
	ArticleLimit               int      `yaml:"articleLimit,omitempty"`
	ExcludedIdentifierPatterns []string `yaml:"excludedIdentifierPatterns,omitempty"`
	CopyrightNoticeTemplate    string   `yaml:"copyrightNoticeTemplate,omitempty"`
	ThumbnailSize              int      `yaml:"thumbnailSize,omitempty"`
}

// envOverrides holds the settings that can be replaced from the
// environment. Unset variables keep the file value.
type envOverrides struct {
	DefaultSource   string        `env:"WIKIASSETS_SOURCE"`
	CacheDatabase   string        `env:"WIKIASSETS_CACHE_DATABASE"`
	QueryCacheTTL   time.Duration `env:"WIKIASSETS_QUERY_CACHE_TTL"`
	ImportDirectory string        `env:"WIKIASSETS_IMPORT_DIRECTORY"`
	UserAgent       string        `env:"WIKIASSETS_USER_AGENT"`
	LogLevel        string        `env:"WIKIASSETS_LOG_LEVEL"`
}

// DefaultConfig returns the configuration used without a file: Wikimedia
// Commons with direct title search.
func DefaultConfig() *Config {
	return &Config{
		AssetSources: map[string]AssetSource{
			"commons": {
				Variant:        assetsource.VariantWikimedia,
				Label:          "Wikimedia Commons",
				SearchStrategy: "direct-image",
			},
		},
		DefaultSource:   "commons",
		CacheDatabase:   filepath.Join(".wikiassets", "cache.db"),
		QueryCacheTTL:   24 * time.Hour,
		ImportDirectory: filepath.Join(".wikiassets", "imports"),
		LogLevel:        "info",
	}
}

// Load reads the YAML file at path and applies environment overrides. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		fileCfg := &Config{}
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		cfg.merge(fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge replaces defaults with every value the file sets. Asset sources
// are replaced as a whole.
func (c *Config) merge(file *Config) {
	if len(file.AssetSources) > 0 {
		c.AssetSources = file.AssetSources
		if _, ok := c.AssetSources[c.DefaultSource]; !ok {
			c.DefaultSource = ""
		}
	}
	if file.DefaultSource != "" {
		c.DefaultSource = file.DefaultSource
	}
	if file.CacheDatabase != "" {
		c.CacheDatabase = file.CacheDatabase
	}
	if file.QueryCacheTTL != 0 {
		c.QueryCacheTTL = file.QueryCacheTTL
	}
	if file.ImportDirectory != "" {
		c.ImportDirectory = file.ImportDirectory
	}
	if file.UserAgent != "" {
		c.UserAgent = file.UserAgent
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
}

func (c *Config) applyEnvOverrides() error {
	o := envOverrides{
		DefaultSource:   c.DefaultSource,
		CacheDatabase:   c.CacheDatabase,
		QueryCacheTTL:   c.QueryCacheTTL,
		ImportDirectory: c.ImportDirectory,
		UserAgent:       c.UserAgent,
		LogLevel:        c.LogLevel,
	}
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.DefaultSource = o.DefaultSource
	c.CacheDatabase = o.CacheDatabase
	c.QueryCacheTTL = o.QueryCacheTTL
	c.ImportDirectory = o.ImportDirectory
	c.UserAgent = o.UserAgent
	c.LogLevel = o.LogLevel
	return nil
}

// Validate checks the configuration for settings the asset sources would
// reject later.
func (c *Config) Validate() error {
	if len(c.AssetSources) == 0 {
		return fmt.Errorf("no asset sources configured")
	}
	if c.DefaultSource != "" {
		if _, ok := c.AssetSources[c.DefaultSource]; !ok {
			return fmt.Errorf("default source %q is not configured", c.DefaultSource)
		}
	}
	if c.QueryCacheTTL < 0 {
		return fmt.Errorf("queryCacheTTL must not be negative")
	}
	for _, id := range c.SourceIdentifiers() {
		src := c.AssetSources[id]
		switch src.Variant {
		case "", assetsource.VariantMediaWiki:
			if src.Domain == "" && src.BaseURL == "" {
				return fmt.Errorf("asset source %s: domain is required", id)
			}
		case assetsource.VariantWikimedia:
		default:
			return fmt.Errorf("asset source %s: unknown variant %q", id, src.Variant)
		}
		if src.ArticleLimit < 0 || src.ThumbnailSize < 0 {
			return fmt.Errorf("asset source %s: articleLimit and thumbnailSize must not be negative", id)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// SourceIdentifiers returns the configured source identifiers in sorted
// order.
func (c *Config) SourceIdentifiers() []string {
	ids := make([]string, 0, len(c.AssetSources))
	for id := range c.AssetSources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveSource picks identifier, the default source, or the only source.
func (c *Config) ResolveSource(identifier string) (string, error) {
	if identifier == "" {
		identifier = c.DefaultSource
	}
	if identifier == "" {
		if len(c.AssetSources) == 1 {
			return c.SourceIdentifiers()[0], nil
		}
		return "", fmt.Errorf("several asset sources are configured, choose one with --source")
	}
	if _, ok := c.AssetSources[identifier]; !ok {
		return "", fmt.Errorf("asset source %q is not configured", identifier)
	}
	return identifier, nil
}

// Options converts the configuration of source id to asset source options.
func (c *Config) Options(id string) (assetsource.Options, error) {
	src, ok := c.AssetSources[id]
	if !ok {
		return assetsource.Options{}, fmt.Errorf("asset source %q is not configured", id)
	}
	return assetsource.Options{
		Variant:                    src.Variant,
		Domain:                     src.Domain,
		BaseURL:                    src.BaseURL,
		Label:                      src.Label,
		UserAgent:                  c.UserAgent,
		UseQueryResultCache:        src.UseQueryResultCache,
		SearchStrategy:             src.SearchStrategy,
		ArticleLimit:               src.ArticleLimit,
		ExcludedIdentifierPatterns: append([]string(nil), src.ExcludedIdentifierPatterns...),
		CopyrightNoticeTemplate:    src.CopyrightNoticeTemplate,
		ThumbnailSize:              src.ThumbnailSize,
	}, nil
}
