// internal/classify/classify.go
//
// Package classify implements the PageType resolution engine (spec
// §4.3): a confidence-ranked cascade of JSON-LD typing, URL pattern
// rules, DOM heuristics and content heuristics, with the highest
// confidence winning and ties going to the earlier layer.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/cortexlabs/cortex/internal/detect"
	"github.com/cortexlabs/cortex/internal/extract"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Result is one classification layer's verdict.
type Result struct {
	PageType   sitegraph.PageType
	Confidence float64
	Layer      string // for diagnostics/tests, not part of the SiteMap
}

// jsonLDTypeMap maps a schema.org @type (case-sensitive, as published)
// to a PageType and confidence. Precise, unambiguous types get 0.99;
// generic container types get a lower confidence band per spec §4.3.
// No part of spec.md enumerates this table explicitly; it is filled
// here from schema.org's own type vocabulary (see DESIGN.md).
var jsonLDTypeMap = map[string]Result{
	"Product":            {sitegraph.PageProductDetail, 0.99, "jsonld"},
	"IndividualProduct":  {sitegraph.PageProductDetail, 0.99, "jsonld"},
	"Article":            {sitegraph.PageArticle, 0.95, "jsonld"},
	"NewsArticle":        {sitegraph.PageArticle, 0.95, "jsonld"},
	"BlogPosting":        {sitegraph.PageArticle, 0.95, "jsonld"},
	"TechArticle":        {sitegraph.PageDocumentation, 0.9, "jsonld"},
	"FAQPage":            {sitegraph.PageFAQ, 0.95, "jsonld"},
	"ContactPage":        {sitegraph.PageContactPage, 0.9, "jsonld"},
	"AboutPage":          {sitegraph.PageAboutPage, 0.9, "jsonld"},
	"CheckoutPage":       {sitegraph.PageCheckout, 0.95, "jsonld"},
	"SearchResultsPage":  {sitegraph.PageSearchResults, 0.9, "jsonld"},
	"CollectionPage":     {sitegraph.PageProductListing, 0.7, "jsonld"},
	"ItemList":           {sitegraph.PageProductListing, 0.6, "jsonld"},
	"ProfilePage":        {sitegraph.PageAccount, 0.8, "jsonld"},
	"QAPage":             {sitegraph.PageForum, 0.7, "jsonld"},
	"DiscussionForumPosting": {sitegraph.PageForum, 0.8, "jsonld"},
	"VideoObject":        {sitegraph.PageMediaPage, 0.85, "jsonld"},
	"ImageObject":        {sitegraph.PageMediaPage, 0.6, "jsonld"},
	"WebPage":            {sitegraph.PageUnknown, 0.5, "jsonld"},
	"WebSite":            {sitegraph.PageHome, 0.5, "jsonld"},
	"Organization":        {sitegraph.PageAboutPage, 0.5, "jsonld"},
}

// urlPatternRules is the built-in URL-pattern ruleset (spec §4.3 item 2).
var urlPatternRules = []struct {
	pattern    *regexp.Regexp
	pageType   sitegraph.PageType
	confidence float64
}{
	{regexp.MustCompile(`/dp/|/p/\d|/product/`), sitegraph.PageProductDetail, 0.8},
	{regexp.MustCompile(`/cart|/basket`), sitegraph.PageCart, 0.85},
	{regexp.MustCompile(`/login|/signin`), sitegraph.PageLogin, 0.85},
	{regexp.MustCompile(`/checkout`), sitegraph.PageCheckout, 0.85},
	{regexp.MustCompile(`/blog/|/post/|/article/`), sitegraph.PageArticle, 0.75},
	{regexp.MustCompile(`/search|[?&]q=`), sitegraph.PageSearchResults, 0.8},
	{regexp.MustCompile(`/category|/c/`), sitegraph.PageProductListing, 0.7},
}

var loginKeywords = regexp.MustCompile(`(?i)sign in|log in|login|password`)
var searchKeywords = regexp.MustCompile(`(?i)search results|no results found`)

// Classify runs the full cascade and returns the highest-confidence
// result, ties going to the earlier layer (spec §4.3). contentHint is
// Layer 1's coarse article/docs/homepage guess from the raw response
// body (internal/detect, run before Extraction); it is the lowest-
// confidence signal in the cascade and only matters when nothing else
// matched.
func Classify(sd *extract.StructuredData, rawURL string, contentHint detect.Type) Result {
	var best Result
	best.PageType = sitegraph.PageUnknown
	best.Confidence = 0.3
	best.Layer = "default"

	consider := func(r Result) {
		if r.Confidence > best.Confidence {
			best = r
		}
	}

	if sd != nil {
		for _, obj := range sd.JSONLD {
			if r, ok := jsonLDTypeMap[obj.Type]; ok {
				consider(r)
			}
		}
	}

	if r, ok := classifyURL(rawURL); ok {
		consider(r)
	}

	if sd != nil {
		if r, ok := classifyDOM(sd); ok {
			consider(r)
		}
		if r, ok := classifyContent(sd); ok {
			consider(r)
		}
	}

	if r, ok := classifyContentHint(contentHint); ok {
		consider(r)
	}

	return best
}

// classifyContentHint translates detect's body-sniffed subtype into a
// PageType, at the lowest confidence in the cascade: it only ever
// resolves a page that every higher-precision layer left at "unknown".
func classifyContentHint(hint detect.Type) (Result, bool) {
	switch hint {
	case detect.TypeArticle:
		return Result{sitegraph.PageArticle, 0.4, "content_hint"}, true
	case detect.TypeDocs:
		return Result{sitegraph.PageDocumentation, 0.4, "content_hint"}, true
	case detect.TypeHomepage:
		return Result{sitegraph.PageHome, 0.4, "content_hint"}, true
	default:
		return Result{}, false
	}
}

// ClassifyURL exposes the URL-pattern layer on its own, for callers that
// must bucket URLs before a page has been fetched (acquisition's Layer 1
// sampling plan, spec §4.1, needs a PageType proxy before structured data
// exists). ok is false when no pattern rule matched.
func ClassifyURL(rawURL string) (Result, bool) {
	return classifyURL(rawURL)
}

func classifyURL(rawURL string) (Result, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, false
	}
	path := u.Path
	if u.RawQuery != "" {
		path = path + "?" + u.RawQuery
	}
	for _, rule := range urlPatternRules {
		if rule.pattern.MatchString(path) {
			return Result{rule.pageType, rule.confidence, "url_pattern"}, true
		}
	}
	return Result{}, false
}

// classifyDOM implements spec §4.3 item 3: pricing element +
// itemscope[itemtype*=Product] → product; form density + single form
// with a password field → login.
func classifyDOM(sd *extract.StructuredData) (Result, bool) {
	for _, item := range sd.Microdata {
		if strings.Contains(item.Type, "Product") {
			if _, hasPrice := item.Props["price"]; hasPrice {
				return Result{sitegraph.PageProductDetail, 0.85, "dom"}, true
			}
			return Result{sitegraph.PageProductDetail, 0.75, "dom"}, true
		}
	}
	if len(sd.Forms) == 1 && sd.Forms[0].HasPasswordField() {
		return Result{sitegraph.PageLogin, 0.8, "dom"}, true
	}
	return Result{}, false
}

// classifyContent implements spec §4.3 item 4: heading text keywords.
func classifyContent(sd *extract.StructuredData) (Result, bool) {
	var headingText strings.Builder
	for _, h := range sd.Headings {
		headingText.WriteString(h.Text)
		headingText.WriteByte(' ')
	}
	text := headingText.String()

	switch {
	case loginKeywords.MatchString(text):
		return Result{sitegraph.PageLogin, 0.6, "content"}, true
	case searchKeywords.MatchString(text):
		return Result{sitegraph.PageSearchResults, 0.55, "content"}, true
	}
	return Result{}, false
}
