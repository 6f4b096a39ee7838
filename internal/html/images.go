// internal/html/images.go
//
// Image extraction: <img> elements resolved to absolute URLs, used by
// the has_media flag and media-page classification.

package html

import (
	"net/url"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Image is one <img> element.
type Image struct {
	Src string // resolved absolute URL, or "" if unresolvable
	Alt string
}

// ExtractImages returns every <img> in the document, resolved against baseURL.
func ExtractImages(doc *Document, baseURL string) []Image {
	if doc == nil || doc.Root == nil {
		return nil
	}
	base, _ := url.Parse(baseURL)

	var nodes []*xhtml.Node
	findElementsByTag(doc.Root, "img", &nodes)

	out := make([]Image, 0, len(nodes))
	for _, n := range nodes {
		src := strings.TrimSpace(attrValue(n, "src"))
		if src == "" {
			continue
		}
		out = append(out, Image{
			Src: resolveHref(base, src),
			Alt: attrValue(n, "alt"),
		})
	}
	return out
}
