// internal/extract/structured.go
//
// StructuredData is the per-page record spec §4.2 asks Extraction to
// produce: JSON-LD objects, OpenGraph/meta/Twitter tags, microdata,
// the heading outline, forms, classified links, images and tables.
package extract

import (
	"strings"

	ihtml "github.com/cortexlabs/cortex/internal/html"
)

// StructuredData is the full per-page extraction result (spec §4.2).
type StructuredData struct {
	URL string

	Title    string
	Meta     map[string]string
	OpenGraph map[string]string
	Twitter   map[string]string

	JSONLD    []JSONLDObject
	Microdata []ihtml.MicrodataItem

	Headings []ihtml.Heading
	Article  *Article

	Forms  []ihtml.Form
	Links  []ihtml.Link
	Images []ihtml.Image
	Tables []ihtml.Table
}

// BuildStructuredData runs every extractor over a parsed document and
// assembles the record Layer 1/1.5/2.5 contribute to (spec §4.1/§4.2).
func BuildStructuredData(doc *ihtml.Document, pageURL string) *StructuredData {
	meta := ihtml.ExtractMeta(doc)

	sd := &StructuredData{
		URL:       pageURL,
		Title:     ihtml.ExtractTitle(doc),
		Meta:      meta,
		OpenGraph: filterPrefixed(meta, "og:"),
		Twitter:   filterPrefixed(meta, "twitter:"),
		JSONLD:    ParseJSONLD(ihtml.ExtractJSONLDBlocks(doc)),
		Microdata: ihtml.ExtractMicrodata(doc),
		Headings:  ihtml.ExtractHeadings(doc),
		Article:   Extract(doc, pageURL),
		Forms:     ihtml.ExtractForms(doc, pageURL),
		Links:     ihtml.ExtractLinks(doc, pageURL),
		Images:    ihtml.ExtractImages(doc, pageURL),
		Tables:    ihtml.ExtractTables(doc),
	}
	return sd
}

func filterPrefixed(meta map[string]string, prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range meta {
		if strings.HasPrefix(strings.ToLower(k), prefix) {
			out[k] = v
		}
	}
	return out
}

// FeatureCoverage estimates the fraction of commerce/content dimensions
// (spec §3 Layer 1.5 gate: "fewer than 20 of the commerce/content
// dimensions populated") this record has filled, out of 32 tracked
// signals (price, rating, availability, reviews, title, images, ...).
// It is a cheap proxy used to decide whether the pattern engine
// (Layer 1.5) or the renderer (Layer 3) should run for this page.
func (sd *StructuredData) FeatureCoverage() float64 {
	if sd == nil {
		return 0
	}
	const tracked = 32
	populated := 0

	if sd.Title != "" {
		populated++
	}
	if len(sd.Images) > 0 {
		populated++
	}
	if len(sd.JSONLD) > 0 {
		populated += 10 // a JSON-LD object typically carries most commerce fields at once
	}
	for _, item := range sd.Microdata {
		populated += len(item.Props)
	}
	if sd.Article != nil && sd.Article.Text != "" {
		populated++
	}
	if len(sd.Headings) > 0 {
		populated++
	}
	if len(sd.Tables) > 0 {
		populated++
	}
	if len(sd.Forms) > 0 {
		populated++
	}

	cov := float64(populated) / float64(tracked)
	if cov > 1 {
		cov = 1
	}
	return cov
}
