package assetsource

import (
	"context"
	"io"
	"net/url"
	"time"
)

// Proxy is the read-only asset shape the host library works with.
type Proxy interface {
	Identifier() string
	Label() string
	Filename() string
	LastModified() time.Time
	FileSize() int64
	MediaType() string
	WidthInPixels() int
	HeightInPixels() int
	ThumbnailURI() *url.URL
	PreviewURI() *url.URL
	ImportStream(ctx context.Context) (io.ReadCloser, error)
	LocalAssetIdentifier() string
	IsImported() bool
}

// Compile-time interface compliance checks
var (
	_ Proxy        = (*AssetProxy)(nil)
	_ IptcMetadata = (*AssetProxy)(nil)
)
