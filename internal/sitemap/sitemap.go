// internal/sitemap/sitemap.go
//
// Sitemap XML parsing and recursive sitemap-index expansion (spec
// §4.1 Layer 0). No example repo in the corpus parses the sitemap
// protocol, and it is a fixed, tiny XML schema (sitemaps.org) with no
// ecosystem-standard third-party decoder worth adopting over
// encoding/xml — this is one of the few genuinely stdlib-grounded
// parts of internal/acquire (see DESIGN.md).
package sitemap

import (
	"encoding/xml"
	"fmt"
)

// Entry is one URL declared by a sitemap leaf, with its optional
// freshness hints (spec §4.1: "Each leaf yields URLs with optional
// lastmod and priority").
type Entry struct {
	URL      string
	LastMod  string
	Priority float64 // 0 when not declared; sitemaps.org default is 0.5 but absence is meaningful to Layer 0's ranking
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc      string  `xml:"loc"`
	LastMod  string  `xml:"lastmod"`
	Priority float64 `xml:"priority"`
}

type sitemapIndex struct {
	XMLName  xml.Name        `xml:"sitemapindex"`
	Sitemaps []sitemapEntry  `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Parse decodes a single sitemap document, dispatching on whether it is
// a <urlset> (leaf) or <sitemapindex> (pointer to more leaves).
// A malformed document yields (nil, nil, err); callers should log and
// skip rather than abort Layer 0 entirely.
func Parse(data []byte) (entries []Entry, childSitemaps []string, err error) {
	var probe struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(data, &probe); err != nil {
		return nil, nil, fmt.Errorf("sitemap: invalid XML: %w", err)
	}

	switch probe.XMLName.Local {
	case "sitemapindex":
		var idx sitemapIndex
		if err := xml.Unmarshal(data, &idx); err != nil {
			return nil, nil, fmt.Errorf("sitemap: invalid sitemapindex: %w", err)
		}
		for _, s := range idx.Sitemaps {
			if s.Loc != "" {
				childSitemaps = append(childSitemaps, s.Loc)
			}
		}
		return nil, childSitemaps, nil

	case "urlset":
		var set urlSet
		if err := xml.Unmarshal(data, &set); err != nil {
			return nil, nil, fmt.Errorf("sitemap: invalid urlset: %w", err)
		}
		for _, u := range set.URLs {
			if u.Loc == "" {
				continue
			}
			entries = append(entries, Entry{URL: u.Loc, LastMod: u.LastMod, Priority: u.Priority})
		}
		return entries, nil, nil

	default:
		return nil, nil, fmt.Errorf("sitemap: unrecognised root element %q", probe.XMLName.Local)
	}
}
