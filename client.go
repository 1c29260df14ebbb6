package mediawiki

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultUserAgent is sent with every API request unless overridden.
	DefaultUserAgent = "Neos Asset Source Client"

	defaultPageSize         = 30
	defaultTotalResultLimit = 500
	defaultThumbSize        = 240

	tracerName = "github.com/eznix86/mediawiki-assetsource"
)

// ErrMissingDomain is returned when neither Domain nor BaseURL is configured.
var ErrMissingDomain = errors.New("mediawiki: domain is not configured")

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client queries the MediaWiki Action API of one wiki.
type Client struct {
	http.Client
	Domain              string       // e.g. "en.wikipedia.org"
	BaseURL             string       // Optional scheme+host override, e.g. for a local wiki
	UserAgent           string       // Defaults to DefaultUserAgent
	PageSize            int          // Titles per page (0 = 30)
	TotalResultLimit    int          // Upper bound for list queries (0 = 500)
	UseQueryResultCache bool         // Consult Cache before hitting the API
	Cache               Cache        // Optional decoded-response cache
	Logger              Logger       // Optional logger (nil = no logging)
	Tracer              trace.Tracer // Optional tracer (nil = global provider)

	apiName    string
	neverCache bool
}

// NewClient creates a MediaWiki client for domain.
func NewClient(domain string, useQueryResultCache bool) *Client {
	return &Client{
		Domain:              domain,
		UseQueryResultCache: useQueryResultCache,
	}
}

// BuildQueryURL returns the api.php URL for params. action=query and
// format=json are always set. Parameters are encoded in key order, so equal
// parameter sets always produce the same URL.
func (c *Client) BuildQueryURL(params url.Values) (string, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set("action", "query")
	q.Set("format", "json")

	base := strings.TrimSuffix(c.BaseURL, "/")
	if base == "" {
		if c.Domain == "" {
			return "", ErrMissingDomain
		}
		base = "https://" + c.Domain
	}
	return fmt.Sprintf("%s/w/api.php?%s", base, q.Encode()), nil
}

// ExecuteQuery runs one Action API query and returns the decoded response.
// With the query result cache enabled, responses are stored under the SHA-1
// of the request URL and served from there on the next identical query.
func (c *Client) ExecuteQuery(ctx context.Context, params url.Values) (json.Object, error) {
	queryURL, err := c.BuildQueryURL(params)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer().Start(ctx, c.name()+".query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mediawiki.api", c.name()),
			attribute.String("mediawiki.domain", c.Domain),
			attribute.String("url.full", queryURL),
		),
	)
	defer span.End()

	result, cacheHit, err := c.executeQuery(ctx, queryURL)
	span.SetAttributes(attribute.Bool("mediawiki.cache_hit", cacheHit))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (c *Client) executeQuery(ctx context.Context, queryURL string) (json.Object, bool, error) {
	useCache := c.cacheEnabled()
	var queryHash string
	if useCache {
		queryHash = QueryHash(queryURL)
		cached, ok, err := c.Cache.Get(ctx, queryHash)
		if err != nil {
			c.logWarn("Query result cache lookup failed",
				"hash", queryHash,
				"error", err.Error(),
			)
		} else if ok {
			c.logDebug("MediaWiki response from cache",
				"operation", "ExecuteQuery",
				"url", queryURL,
				"hash", queryHash,
			)
			return cached, true, nil
		}
	}

	c.logDebug("MediaWiki request",
		"operation", "ExecuteQuery",
		"method", http.MethodGet,
		"api", c.name(),
		"url", queryURL,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("query failed: %s - %s", resp.Status, string(body))
	}

	result, err := json.DecodeObject(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("decode query response: %w", err)
	}
	if apiErr := apiErrorFrom(result); apiErr != nil {
		return nil, false, apiErr
	}

	c.logDebug("MediaWiki response",
		"operation", "ExecuteQuery",
		"api", c.name(),
		"url", queryURL,
		"status_code", resp.StatusCode,
	)

	if useCache {
		if err := c.Cache.Set(ctx, queryHash, result); err != nil {
			c.logWarn("Query result cache store failed",
				"hash", queryHash,
				"error", err.Error(),
			)
		}
	}
	return result, false, nil
}

// QueryHash returns the cache key of a query URL.
func QueryHash(queryURL string) string {
	sum := sha1.Sum([]byte(queryURL))
	return hex.EncodeToString(sum[:])
}

// ItemsPerPage returns the number of titles returned per page.
func (c *Client) ItemsPerPage() int {
	if c.PageSize <= 0 {
		return defaultPageSize
	}
	return c.PageSize
}

func (c *Client) totalResultLimit() int {
	if c.TotalResultLimit <= 0 {
		return defaultTotalResultLimit
	}
	return c.TotalResultLimit
}

func (c *Client) cacheEnabled() bool {
	return !c.neverCache && c.UseQueryResultCache && c.Cache != nil
}

func (c *Client) userAgent() string {
	if c.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.UserAgent
}

func (c *Client) name() string {
	if c.apiName == "" {
		return "mediawiki"
	}
	return c.apiName
}

func (c *Client) tracer() trace.Tracer {
	if c.Tracer != nil {
		return c.Tracer
	}
	return otel.Tracer(tracerName)
}

// closeBody closes the response body and logs any error if a logger is configured
func (c *Client) closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		c.logDebug("Failed to close response body", "error", err.Error())
	}
}

func (c *Client) logDebug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

func (c *Client) logWarn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}
