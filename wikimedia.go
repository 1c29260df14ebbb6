package mediawiki

// DefaultWikimediaDomain is used by NewWikimediaClient when no domain is given.
const DefaultWikimediaDomain = "commons.wikimedia.org"

const wikimediaPageSize = 20

// WikimediaClient queries a Wikimedia project (Commons by default). It
// behaves like Client except that responses are never cached and pages hold
// 20 titles.
type WikimediaClient struct {
	*Client
}

// NewWikimediaClient creates a client for a Wikimedia domain.
func NewWikimediaClient(domain string) *WikimediaClient {
	if domain == "" {
		domain = DefaultWikimediaDomain
	}
	return &WikimediaClient{
		Client: &Client{
			Domain:     domain,
			PageSize:   wikimediaPageSize,
			apiName:    "wikimedia",
			neverCache: true,
		},
	}
}
