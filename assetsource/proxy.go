package assetsource

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
)

var lastModifiedLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Extensions common on wikis that mime.TypeByExtension may not know.
var imageMediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".xcf":  "image/x-xcf",
	".djvu": "image/vnd.djvu",
	".pdf":  "application/pdf",
}

// AssetProxy is a read-only view of one remote image.
type AssetProxy struct {
	source   *AssetSource
	data     json.Object
	imported *ImportedAsset

	iptcOnce  sync.Once
	iptcProps map[string]string
}

// NewAssetProxy wraps data, an asset object returned by GetAssetDetails.
// When the source has an imported asset repository, the proxy is linked to
// the local copy of the asset.
func NewAssetProxy(ctx context.Context, data json.Object, src *AssetSource) (*AssetProxy, error) {
	p := &AssetProxy{source: src, data: data}
	if src.imported == nil {
		return p, nil
	}
	imported, err := src.imported.FindOne(ctx, src.Identifier(), p.Identifier())
	if err != nil {
		return nil, fmt.Errorf("look up imported asset %s: %w", p.Identifier(), err)
	}
	p.imported = imported
	return p, nil
}

func (p *AssetProxy) AssetSource() *AssetSource {
	return p.source
}

func (p *AssetProxy) Identifier() string {
	return p.data.String("identifier")
}

// Label is the object name, or the image description when there is none.
func (p *AssetProxy) Label() string {
	return p.resolveValue("extmetadata.ObjectName.value", "extmetadata.ImageDescription.value")
}

func (p *AssetProxy) Filename() string {
	return p.data.String("filename")
}

// LastModified parses the DateTime metadata, falling back to the upload
// timestamp. The zero time is returned when neither parses.
func (p *AssetProxy) LastModified() time.Time {
	for _, v := range []string{p.data.String("extmetadata.DateTime.value"), p.data.String("timestamp")} {
		v = stripTags(v)
		if v == "" {
			continue
		}
		for _, layout := range lastModifiedLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func (p *AssetProxy) FileSize() int64 {
	return int64(p.data.Int("size"))
}

// MediaType derives the media type from the filename extension.
func (p *AssetProxy) MediaType() string {
	ext := strings.ToLower(path.Ext(p.Filename()))
	if ext == "" {
		return "application/octet-stream"
	}
	if t, ok := imageMediaTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}

func (p *AssetProxy) WidthInPixels() int {
	return p.data.Int("width")
}

func (p *AssetProxy) HeightInPixels() int {
	return p.data.Int("height")
}

// ThumbnailURI is the scaled thumbnail, or nil when the API sent none.
func (p *AssetProxy) ThumbnailURI() *url.URL {
	return parseURI(p.data.String("thumburl"))
}

// PreviewURI is the original file.
func (p *AssetProxy) PreviewURI() *url.URL {
	return parseURI(p.data.String("url"))
}

// ImportStream opens the original file. The caller closes the stream.
func (p *AssetProxy) ImportStream(ctx context.Context) (io.ReadCloser, error) {
	fileURL := p.data.String("url")
	if fileURL == "" {
		return nil, fmt.Errorf("asset %s has no file url", p.Identifier())
	}
	return p.source.QueryClient().OpenFile(ctx, fileURL)
}

// LocalAssetIdentifier is the identifier of the imported copy, or "".
func (p *AssetProxy) LocalAssetIdentifier() string {
	if p.imported == nil {
		return ""
	}
	return p.imported.LocalAssetIdentifier
}

func (p *AssetProxy) IsImported() bool {
	return p.imported != nil
}

// Data returns the underlying asset object.
func (p *AssetProxy) Data() json.Object {
	return p.data
}

func parseURI(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}
