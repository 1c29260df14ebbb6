// Package assetsource adapts a MediaWiki or Wikimedia wiki to the asset
// source contract of an asset library: a read-only source whose assets are
// proxies over remote images until they are imported.
package assetsource

import (
	"fmt"
	"net/http"
	"sync"
	"text/template"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
	"github.com/eznix86/mediawiki-assetsource/search"
	"go.opentelemetry.io/otel/trace"
)

// Supported API variants.
const (
	VariantMediaWiki = "mediawiki"
	VariantWikimedia = "wikimedia"
)

// DefaultCopyrightNoticeTemplate renders the IPTC copyright notice when a
// source configures none.
const DefaultCopyrightNoticeTemplate = `{{.Title}}{{if .Creator}} by {{.Creator}}{{end}}{{if .LicenseUrl}} ({{.LicenseUrl}}){{end}}`

const defaultThumbnailSize = 240

// Options configure one asset source.
type Options struct {
	Variant                    string // VariantMediaWiki (default) or VariantWikimedia
	Domain                     string
	BaseURL                    string // optional scheme+host override
	Label                      string
	UserAgent                  string
	UseQueryResultCache        bool
	SearchStrategy             string
	ArticleLimit               int
	ExcludedIdentifierPatterns []string
	CopyrightNoticeTemplate    string // text/template over .Title, .Creator, .LicenseUrl
	ThumbnailSize              int
}

// Option injects a collaborator into an AssetSource.
type Option func(*AssetSource)

// WithLogger sets the logger handed to the query client.
func WithLogger(l mediawiki.Logger) Option {
	return func(s *AssetSource) { s.logger = l }
}

// WithTracer sets the tracer handed to the query client.
func WithTracer(t trace.Tracer) Option {
	return func(s *AssetSource) { s.tracer = t }
}

// WithCache sets the query result cache.
func WithCache(c mediawiki.Cache) Option {
	return func(s *AssetSource) { s.cache = c }
}

// WithHTTPClient replaces the HTTP client configuration of the query client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *AssetSource) { s.httpClient = c }
}

// WithStrategyFactory replaces the search strategy factory.
func WithStrategyFactory(f *search.Factory) Option {
	return func(s *AssetSource) { s.strategies = f }
}

// WithImportedAssets sets the repository consulted for imported assets.
func WithImportedAssets(r ImportedAssetRepository) Option {
	return func(s *AssetSource) { s.imported = r }
}

// AssetSource is the registration object of one configured wiki. The query
// client and the repository are built on first use.
type AssetSource struct {
	identifier string
	options    Options
	copyright  *template.Template

	logger     mediawiki.Logger
	tracer     trace.Tracer
	cache      mediawiki.Cache
	httpClient *http.Client
	strategies *search.Factory
	imported   ImportedAssetRepository

	clientOnce sync.Once
	client     mediawiki.QueryClient
	repoOnce   sync.Once
	repository *AssetProxyRepository
}

// New creates the asset source identifier from options.
func New(identifier string, options Options, opts ...Option) (*AssetSource, error) {
	if identifier == "" {
		return nil, fmt.Errorf("asset source identifier is required")
	}
	switch options.Variant {
	case "":
		options.Variant = VariantMediaWiki
	case VariantMediaWiki, VariantWikimedia:
	default:
		return nil, fmt.Errorf("asset source %s: unknown variant %q", identifier, options.Variant)
	}
	if options.Variant == VariantWikimedia && options.Domain == "" {
		options.Domain = mediawiki.DefaultWikimediaDomain
	}
	if options.Domain == "" && options.BaseURL == "" {
		return nil, fmt.Errorf("asset source %s: %w", identifier, mediawiki.ErrMissingDomain)
	}

	text := options.CopyrightNoticeTemplate
	if text == "" {
		text = DefaultCopyrightNoticeTemplate
		options.CopyrightNoticeTemplate = text
	}
	tmpl, err := template.New(identifier).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("asset source %s: parse copyright notice template: %w", identifier, err)
	}

	s := &AssetSource{
		identifier: identifier,
		options:    options,
		copyright:  tmpl,
		strategies: search.NewFactory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *AssetSource) Identifier() string {
	return s.identifier
}

// Label is the configured label, or the domain when none is set.
func (s *AssetSource) Label() string {
	if s.options.Label != "" {
		return s.options.Label
	}
	return s.options.Domain
}

// IsReadOnly reports true: assets cannot be written back to the wiki.
func (s *AssetSource) IsReadOnly() bool {
	return true
}

// Options returns a copy of the source options.
func (s *AssetSource) Options() Options {
	o := s.options
	o.ExcludedIdentifierPatterns = append([]string(nil), s.options.ExcludedIdentifierPatterns...)
	return o
}

// SearchSettings implements search.Source.
func (s *AssetSource) SearchSettings() search.Settings {
	return search.Settings{
		Strategy:                   s.options.SearchStrategy,
		ArticleLimit:               s.options.ArticleLimit,
		ExcludedIdentifierPatterns: s.options.ExcludedIdentifierPatterns,
	}
}

// CopyrightNoticeTemplate returns the template source rendered into the
// IPTC copyright notice.
func (s *AssetSource) CopyrightNoticeTemplate() string {
	return s.options.CopyrightNoticeTemplate
}

// ThumbnailSize is the bounding box requested for thumbnails.
func (s *AssetSource) ThumbnailSize() int {
	if s.options.ThumbnailSize <= 0 {
		return defaultThumbnailSize
	}
	return s.options.ThumbnailSize
}

// QueryClient returns the API client for the configured variant.
func (s *AssetSource) QueryClient() mediawiki.QueryClient {
	s.clientOnce.Do(func() {
		s.client = s.newQueryClient()
	})
	return s.client
}

// AssetProxyRepository returns the repository the host queries.
func (s *AssetSource) AssetProxyRepository() *AssetProxyRepository {
	s.repoOnce.Do(func() {
		s.repository = NewAssetProxyRepository(s)
	})
	return s.repository
}

func (s *AssetSource) newQueryClient() mediawiki.QueryClient {
	var (
		qc   mediawiki.QueryClient
		base *mediawiki.Client
	)
	if s.options.Variant == VariantWikimedia {
		wc := mediawiki.NewWikimediaClient(s.options.Domain)
		qc, base = wc, wc.Client
	} else {
		base = mediawiki.NewClient(s.options.Domain, s.options.UseQueryResultCache)
		qc = base
	}

	if s.httpClient != nil {
		base.Client = *s.httpClient
	}
	base.BaseURL = s.options.BaseURL
	base.UserAgent = s.options.UserAgent
	base.Cache = s.cache
	base.Logger = s.logger
	base.Tracer = s.tracer
	return qc
}

var _ search.Source = (*AssetSource)(nil)
