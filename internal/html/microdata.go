// internal/html/microdata.go
//
// Minimal schema.org microdata extraction: top-level elements carrying
// itemscope collect their itemprop descendants. A nested itemscope is
// not descended into and is not returned as an item of its own.

package html

import (
	"strings"

	xhtml "golang.org/x/net/html"
)

// MicrodataItem is one itemscope element's flattened properties.
type MicrodataItem struct {
	Type  string // itemtype attribute, usually a schema.org URL
	Props map[string]string
}

// ExtractMicrodata returns every top-level itemscope item in the document.
func ExtractMicrodata(doc *Document) []MicrodataItem {
	if doc == nil || doc.Root == nil {
		return nil
	}

	var scopes []*xhtml.Node
	var walk func(n *xhtml.Node, insideScope bool)
	walk = func(n *xhtml.Node, insideScope bool) {
		isScope := n.Type == xhtml.ElementNode && hasAttr(n, "itemscope")
		if isScope && !insideScope {
			scopes = append(scopes, n)
		}
		nextInside := insideScope || isScope
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, nextInside)
		}
	}
	walk(doc.Root, false)

	out := make([]MicrodataItem, 0, len(scopes))
	for _, scope := range scopes {
		item := MicrodataItem{
			Type:  attrValue(scope, "itemtype"),
			Props: make(map[string]string),
		}
		collectItemProps(scope, item.Props)
		out = append(out, item)
	}
	return out
}

func collectItemProps(n *xhtml.Node, props map[string]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode {
			if name := attrValue(c, "itemprop"); name != "" {
				props[name] = microdataValue(c)
			}
			if !hasAttr(c, "itemscope") {
				collectItemProps(c, props)
			}
		}
	}
}

func microdataValue(n *xhtml.Node) string {
	switch strings.ToLower(n.Data) {
	case "meta":
		return attrValue(n, "content")
	case "a", "link":
		return attrValue(n, "href")
	case "img", "audio", "video", "source":
		return attrValue(n, "src")
	case "time":
		if v := attrValue(n, "datetime"); v != "" {
			return v
		}
	}
	return cleanWhitespace(textContent(n))
}

func hasAttr(n *xhtml.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}
