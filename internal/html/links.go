// internal/html/links.go
//
// Link extraction helpers. These functions collect anchor tags,
// resolve them to absolute URLs and classify them deterministically
// (spec §4.2).

package html

import (
	"net/url"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// LinkClass is the deterministic classification of an anchor (spec §4.2).
type LinkClass uint8

const (
	LinkInternal LinkClass = iota
	LinkExternal
	LinkAnchor
	LinkDownload
	LinkPagination
	LinkBreadcrumb
)

func (c LinkClass) String() string {
	switch c {
	case LinkExternal:
		return "external"
	case LinkAnchor:
		return "anchor"
	case LinkDownload:
		return "download"
	case LinkPagination:
		return "pagination"
	case LinkBreadcrumb:
		return "breadcrumb"
	default:
		return "internal"
	}
}

// Link represents a hyperlink in the document, resolved and classified.
type Link struct {
	Href     string // raw href as written
	Resolved string // absolute URL, or "" if unresolvable
	Text     string
	Rel      string
	Download bool
	Class    LinkClass
}

var downloadExtensions = map[string]bool{
	"pdf": true, "zip": true, "tar": true, "gz": true,
	"exe": true, "dmg": true, "apk": true, "ipa": true,
}

var paginationText = regexp.MustCompile(`(?i)^next$|^prev(ious)?$|^\d+$`)

// ExtractLinks returns all <a> elements as classified Link values. baseURL
// is the page's own final URL, used both to resolve relative hrefs and to
// decide internal vs. external.
func ExtractLinks(doc *Document, baseURL string) []Link {
	if doc == nil || doc.Root == nil {
		return nil
	}

	base, _ := url.Parse(baseURL)

	var nodes []*xhtml.Node
	findElementsByTag(doc.Root, "a", &nodes)

	out := make([]Link, 0, len(nodes))
	for _, n := range nodes {
		var href, rel string
		hasDownload := false
		for _, attr := range n.Attr {
			switch strings.ToLower(attr.Key) {
			case "href":
				href = strings.TrimSpace(attr.Val)
			case "rel":
				rel = strings.TrimSpace(attr.Val)
			case "download":
				hasDownload = true
			}
		}
		text := cleanWhitespace(textContent(n))
		if href == "" && text == "" {
			continue
		}

		resolved := resolveHref(base, href)
		class := classifyLink(n, href, text, hasDownload, base, resolved)

		out = append(out, Link{
			Href:     href,
			Resolved: resolved,
			Text:     text,
			Rel:      rel,
			Download: hasDownload,
			Class:    class,
		})
	}

	return out
}

func resolveHref(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// classifyLink implements spec §4.2's deterministic precedence:
// anchor > download > breadcrumb > pagination > external > internal.
func classifyLink(n *xhtml.Node, href, text string, hasDownload bool, base *url.URL, resolved string) LinkClass {
	if strings.HasPrefix(href, "#") {
		return LinkAnchor
	}

	if hasDownload || hasDownloadExtension(href) {
		return LinkDownload
	}

	if ancestorMatches(n, isBreadcrumbAncestor) {
		return LinkBreadcrumb
	}

	if paginationText.MatchString(strings.TrimSpace(text)) || ancestorMatches(n, isPaginationAncestor) {
		return LinkPagination
	}

	if base != nil && resolved != "" {
		if u, err := url.Parse(resolved); err == nil && !strings.EqualFold(u.Host, base.Host) {
			return LinkExternal
		}
	}

	return LinkInternal
}

func hasDownloadExtension(href string) bool {
	path := href
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return false
	}
	return downloadExtensions[strings.ToLower(path[dot+1:])]
}

func ancestorMatches(n *xhtml.Node, match func(*xhtml.Node) bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if match(p) {
			return true
		}
	}
	return false
}

func isBreadcrumbAncestor(n *xhtml.Node) bool {
	if n.Type != xhtml.ElementNode {
		return false
	}
	if strings.EqualFold(n.Data, "nav") {
		if aria := attrValue(n, "aria-label"); strings.Contains(strings.ToLower(aria), "breadcrumb") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(attrValue(n, "class")), "breadcrumb")
}

func isPaginationAncestor(n *xhtml.Node) bool {
	if n.Type != xhtml.ElementNode {
		return false
	}
	return strings.Contains(strings.ToLower(attrValue(n, "class")), "pagination")
}

func attrValue(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
