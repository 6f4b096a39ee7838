// internal/html/jsonld.go
//
// Raw JSON-LD block extraction. Parsing and typing by @type happens in
// internal/extract, which may repair malformed blocks before decoding;
// this package only locates and returns the raw text (spec §4.2:
// "malformed JSON-LD blocks are dropped, not fatal").

package html

import (
	"strings"

	xhtml "golang.org/x/net/html"
)

// ExtractJSONLDBlocks returns the raw text content of every
// <script type="application/ld+json"> element in document order.
func ExtractJSONLDBlocks(doc *Document) []string {
	if doc == nil || doc.Root == nil {
		return nil
	}

	var scripts []*xhtml.Node
	findElementsByTag(doc.Root, "script", &scripts)

	out := make([]string, 0, len(scripts))
	for _, n := range scripts {
		if !strings.EqualFold(attrValue(n, "type"), "application/ld+json") {
			continue
		}
		raw := strings.TrimSpace(rawText(n))
		if raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

// ExtractScriptSources returns the raw (unresolved) src attribute of
// every <script src="..."> element, in document order. Used by Layer
// 2.5 action discovery to find JS files worth scanning for API routes.
func ExtractScriptSources(doc *Document) []string {
	if doc == nil || doc.Root == nil {
		return nil
	}

	var scripts []*xhtml.Node
	findElementsByTag(doc.Root, "script", &scripts)

	out := make([]string, 0, len(scripts))
	for _, n := range scripts {
		if src := attrValue(n, "src"); src != "" {
			out = append(out, src)
		}
	}
	return out
}

// rawText concatenates text-node children without the whitespace
// collapsing textContent applies, since JSON must preserve exact bytes.
func rawText(n *xhtml.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
