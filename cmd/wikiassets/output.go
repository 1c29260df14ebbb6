package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eznix86/mediawiki-assetsource/assetsource"
	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
)

type sourceView struct {
	Identifier string `json:"identifier"`
	Label      string `json:"label"`
	Variant    string `json:"variant"`
	Domain     string `json:"domain,omitempty"`
	Strategy   string `json:"searchStrategy,omitempty"`
	Default    bool   `json:"default,omitempty"`
}

type assetView struct {
	Identifier      string            `json:"identifier"`
	Label           string            `json:"label,omitempty"`
	Filename        string            `json:"filename"`
	MediaType       string            `json:"mediaType"`
	FileSize        int64             `json:"fileSize"`
	Width           int               `json:"width"`
	Height          int               `json:"height"`
	LastModified    string            `json:"lastModified,omitempty"`
	ThumbnailURI    string            `json:"thumbnailUri,omitempty"`
	PreviewURI      string            `json:"previewUri,omitempty"`
	Imported        bool              `json:"imported"`
	LocalIdentifier string            `json:"localIdentifier,omitempty"`
	Iptc            map[string]string `json:"iptc,omitempty"`
}

type importView struct {
	Identifier      string `json:"identifier"`
	LocalIdentifier string `json:"localIdentifier,omitempty"`
	Path            string `json:"path,omitempty"`
	Bytes           int64  `json:"bytes,omitempty"`
	MediaType       string `json:"mediaType,omitempty"`
	Error           string `json:"error,omitempty"`
}

func newAssetView(p *assetsource.AssetProxy, withIptc bool) assetView {
	v := assetView{
		Identifier:      p.Identifier(),
		Label:           p.Label(),
		Filename:        p.Filename(),
		MediaType:       p.MediaType(),
		FileSize:        p.FileSize(),
		Width:           p.WidthInPixels(),
		Height:          p.HeightInPixels(),
		Imported:        p.IsImported(),
		LocalIdentifier: p.LocalAssetIdentifier(),
	}
	if t := p.LastModified(); !t.IsZero() {
		v.LastModified = t.Format(time.RFC3339)
	}
	if u := p.ThumbnailURI(); u != nil {
		v.ThumbnailURI = u.String()
	}
	if u := p.PreviewURI(); u != nil {
		v.PreviewURI = u.String()
	}
	if withIptc {
		v.Iptc = p.IptcProperties()
	}
	return v
}

// printer renders command output as aligned tables or as JSON lines.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{w: w, json: asJSON}
}

func (p *printer) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.w, "%s\n", data)
	return err
}

func (p *printer) table(write func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	write(tw)
	return tw.Flush()
}

func (p *printer) sources(rows []sourceView) error {
	if p.json {
		return p.writeJSON(rows)
	}
	return p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "IDENTIFIER\tLABEL\tVARIANT\tDOMAIN\tSTRATEGY")
		for _, r := range rows {
			id := r.Identifier
			if r.Default {
				id += " *"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, r.Label, r.Variant, r.Domain, dash(r.Strategy))
		}
	})
}

func (p *printer) assets(views []assetView, offset, total int) error {
	if p.json {
		return p.writeJSON(struct {
			Offset int         `json:"offset"`
			Total  int         `json:"total"`
			Assets []assetView `json:"assets"`
		}{offset, total, views})
	}
	err := p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "IDENTIFIER\tTYPE\tSIZE\tDIMENSIONS\tIMPORTED")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%s\n",
				v.Identifier, v.MediaType, humanize.Bytes(uint64(max(v.FileSize, 0))), v.Width, v.Height, yesNo(v.Imported))
		}
	})
	if err != nil {
		return err
	}
	if len(views) == 0 {
		_, err = fmt.Fprintf(p.w, "No assets (total %s)\n", humanize.Comma(int64(total)))
		return err
	}
	_, err = fmt.Fprintf(p.w, "Showing %d-%d of %s\n", offset+1, offset+len(views), humanize.Comma(int64(total)))
	return err
}

func (p *printer) asset(v assetView) error {
	if p.json {
		return p.writeJSON(v)
	}
	return p.table(func(tw *tabwriter.Writer) {
		row := func(k, val string) { fmt.Fprintf(tw, "%s:\t%s\n", k, dash(val)) }
		row("Identifier", v.Identifier)
		row("Label", v.Label)
		row("Filename", v.Filename)
		row("Media type", v.MediaType)
		row("Size", fmt.Sprintf("%s (%s bytes)", humanize.Bytes(uint64(max(v.FileSize, 0))), humanize.Comma(v.FileSize)))
		row("Dimensions", fmt.Sprintf("%dx%d", v.Width, v.Height))
		row("Last modified", v.LastModified)
		row("Thumbnail", v.ThumbnailURI)
		row("Preview", v.PreviewURI)
		row("Imported", yesNo(v.Imported))
		if v.LocalIdentifier != "" {
			row("Local identifier", v.LocalIdentifier)
		}
		keys := make([]string, 0, len(v.Iptc))
		for k := range v.Iptc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row("IPTC "+k, v.Iptc[k])
		}
	})
}

func (p *printer) count(source, term string, n int) error {
	if p.json {
		return p.writeJSON(struct {
			Source string `json:"source"`
			Term   string `json:"term,omitempty"`
			Count  int    `json:"count"`
		}{source, term, n})
	}
	_, err := fmt.Fprintln(p.w, humanize.Comma(int64(n)))
	return err
}

func (p *printer) imports(views []importView) error {
	if p.json {
		return p.writeJSON(views)
	}
	return p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "IDENTIFIER\tLOCAL IDENTIFIER\tSIZE\tPATH")
		for _, v := range views {
			if v.Error != "" {
				fmt.Fprintf(tw, "%s\t-\t-\t%s\n", v.Identifier, strings.ReplaceAll(v.Error, "\n", " "))
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Identifier, v.LocalIdentifier, humanize.Bytes(uint64(max(v.Bytes, 0))), v.Path)
		}
	})
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
