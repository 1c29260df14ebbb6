package assetsource

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// IPTC property names exposed for every asset.
const (
	IptcTitle           = "Title"
	IptcCreator         = "Creator"
	IptcCopyrightNotice = "CopyrightNotice"
)

// IptcMetadata is implemented by assets that expose IPTC properties.
type IptcMetadata interface {
	HasIptcProperty(name string) bool
	IptcProperty(name string) string
	IptcProperties() map[string]string
}

var (
	titlePaths   = []string{"extmetadata.ImageDescription.value", "extmetadata.ObjectName.value"}
	creatorPaths = []string{"extmetadata.Artist.value"}
	licensePaths = []string{"extmetadata.LicenseUrl.value", "descriptionurl"}
)

// HasIptcProperty reports whether name is set to a non-empty value.
func (p *AssetProxy) HasIptcProperty(name string) bool {
	return p.iptc()[name] != ""
}

// IptcProperty returns the value of name, or "".
func (p *AssetProxy) IptcProperty(name string) string {
	return p.iptc()[name]
}

// IptcProperties returns a copy of all IPTC properties.
func (p *AssetProxy) IptcProperties() map[string]string {
	props := p.iptc()
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func (p *AssetProxy) iptc() map[string]string {
	p.iptcOnce.Do(func() {
		p.iptcProps = map[string]string{
			IptcTitle:           p.resolveValue(titlePaths...),
			IptcCreator:         p.resolveValue(creatorPaths...),
			IptcCopyrightNotice: p.copyrightNotice(),
		}
	})
	return p.iptcProps
}

func (p *AssetProxy) copyrightNotice() string {
	var b strings.Builder
	err := p.source.copyright.Execute(&b, map[string]string{
		"LicenseUrl": p.resolveValue(licensePaths...),
		"Title":      p.resolveValue(titlePaths...),
		"Creator":    p.resolveValue(creatorPaths...),
	})
	if err != nil {
		if p.source.logger != nil {
			p.source.logger.Warn("Copyright notice rendering failed",
				"asset_source", p.source.identifier,
				"identifier", p.Identifier(),
				"error", err.Error(),
			)
		}
		return ""
	}
	return strings.TrimSpace(b.String())
}

// resolveValue returns the first candidate path holding a non-blank value,
// with markup removed.
func (p *AssetProxy) resolveValue(paths ...string) string {
	for _, path := range paths {
		if v := p.data.String(path); strings.TrimSpace(v) != "" {
			return stripTags(v)
		}
	}
	return ""
}

// stripTags removes HTML markup and decodes entities. Extmetadata values are
// wiki-rendered HTML fragments such as `<a href="...">Jane Doe</a>`.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return strings.TrimSpace(s)
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
