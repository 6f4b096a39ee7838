// internal/features/encoder.go
//
// Package features implements the 128-dimension FeatureVector encoder
// (spec §4.3/§6): a fixed-schema float32 row per node, plus
// interpolation for nodes that were never rendered.
package features

import (
	"hash/fnv"
	"math"
	"net/url"
	"strings"

	"github.com/cortexlabs/cortex/internal/classify"
	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Dims mirrors sitegraph.FeatureDims; kept as its own constant so this
// package's formulas read against fixed indices without callers having
// to reach into sitegraph for a single number.
const Dims = sitegraph.FeatureDims

// Dimension indices named per spec §6's abridged schema. Only the
// dimensions this package writes directly are named; the remainder of
// each group stays at the zero value per spec's "unspecified dimensions
// are 0.0" rule.
const (
	dimPageType          = 0
	dimConfidence        = 1
	dimLanguage          = 2
	dimDepth             = 3
	dimIsAuthArea        = 4
	dimPaywall           = 5
	dimMobile            = 6
	dimLoadTime          = 7
	dimHTTPS             = 8
	dimPathDepth         = 9
	dimHasQuery          = 10
	dimHasFragment       = 11
	dimCanonical         = 12
	dimHasStructuredData = 13
	dimMetaRobotsIndex   = 14

	dimTextDensity        = 16
	dimLogTextLength      = 17
	dimHeadingCount       = 18
	dimParagraphCount     = 19
	dimImageCount         = 20
	dimTableCount         = 21
	dimListCount          = 22
	dimFormFieldCount     = 23
	dimInternalLinkCount  = 24
	dimExternalLinkCount  = 25
	dimAdDensity          = 26
	dimUniqueness         = 27
	dimReadingLevel       = 28
	dimSentiment          = 29
	dimTopicEmbedStart    = 31 // 16 dims, 31..46
	dimTopicEmbedLen      = 16
	dimStructuredRichness = 47

	dimPrice            = 48
	dimOriginalPrice    = 49
	dimDiscount         = 50
	dimAvailability     = 51
	dimRating           = 52
	dimLogReviews       = 53
	dimReviewSentiment  = 54
	dimFreeShipping     = 55
	dimShippingSpeed    = 56
	dimReturnScore      = 57
	dimSellerReputation = 58
	dimVariantCount     = 59
	dimComparisonAvail  = 60
	dimPriceTrend       = 61
	dimPricePercentile  = 62 // filled by sitegraph's post-pass, not here
	dimDealScore        = 63

	dimOutboundLinkDensity = 64
	dimInboundLinkDensity  = 65
	dimHasSearchBox        = 66
	dimHasNavMenu          = 67
	dimBreadcrumbPresent   = 68
	dimPaginationPresent   = 69
	dimSitemapLinked       = 70
	dimExternalDomainCount = 71
	dimSameDomainRatio     = 72

	dimHasPrivacyPolicy = 80
	dimHasTerms         = 81
	dimHasContactInfo   = 82
	dimCookieConsent    = 83
	dimMixedContent     = 84
	dimCaptchaPresent   = 85
	dimErrorPageFlag    = 86

	dimHasForm           = 96
	dimHasSearchForm     = 97
	dimHasLoginForm      = 98
	dimHasPurchaseAction = 99
	dimHasCheckoutAction = 100
	dimHasLogoutAction   = 101
	dimHasDownloadAction = 102
	dimActionCount       = 111

	dimRequiresAuth       = 113
	dimRequiresJavascript = 120
	dimRequiresCaptcha    = 122
	dimIsEntryPoint       = 126
)

// Caps for the "min(count/cap, 1.0)" normalisation rule (spec §4.3).
const (
	capHeading      = 20.0
	capParagraph    = 50.0
	capImage        = 30.0
	capTable        = 10.0
	capList         = 20.0
	capFormField    = 30.0
	capInternalLink = 100.0
	capExternalLink = 50.0
	capVariant      = 20.0
	capDepth        = 10.0
	capPathDepth    = 10.0
	capLoadTimeMS   = 10000.0
	capAction       = 10.0
	capReviews      = 6.0
)

// Context carries the runtime facts the Encoder needs beyond the
// extracted structured data: things only the caller (internal/acquire)
// knows, such as load time and HTTP status.
type Context struct {
	Depth      int
	HTTPStatus int
	LoadTimeMS int64
	IsHTTPS    bool
	IsMobileUA bool
}

// Encode builds the 128-dim feature row for one page. sd may be nil
// for a HEAD-only node (URL/HTTP facts only, everything else zero).
func Encode(sd *extract.StructuredData, class classify.Result, ctx Context) []float32 {
	row := make([]float32, Dims)

	row[dimPageType] = float32(class.PageType) / float32(sitegraph.NumPageTypes-1)
	row[dimConfidence] = float32(class.Confidence)
	row[dimDepth] = minCap(float64(ctx.Depth), capDepth)
	if ctx.IsHTTPS {
		row[dimHTTPS] = 1.0
	}
	if ctx.LoadTimeMS > 0 {
		row[dimLoadTime] = minCap(float64(ctx.LoadTimeMS), capLoadTimeMS)
	}
	if ctx.IsMobileUA {
		row[dimMobile] = 1.0
	}
	if ctx.HTTPStatus >= 400 {
		row[dimErrorPageFlag] = 1.0
	}
	row[dimIsEntryPoint] = 0
	if ctx.Depth == 0 {
		row[dimIsEntryPoint] = 1.0
	}

	if sd == nil {
		return row
	}

	if u, err := url.Parse(sd.URL); err == nil {
		if u.RawQuery != "" {
			row[dimHasQuery] = 1.0
		}
		if u.Fragment != "" {
			row[dimHasFragment] = 1.0
		}
		row[dimPathDepth] = minCap(float64(pathSegmentCount(u.Path)), capPathDepth)
	}
	if canon := sd.Meta["canonical_url"]; canon != "" {
		row[dimCanonical] = 1.0
	}
	if robots := strings.ToLower(sd.Meta["robots"]); strings.Contains(robots, "noindex") {
		row[dimMetaRobotsIndex] = 0.0
	} else {
		row[dimMetaRobotsIndex] = 1.0
	}
	if len(sd.JSONLD) > 0 || len(sd.Microdata) > 0 {
		row[dimHasStructuredData] = 1.0
	}
	row[dimLanguage] = languageScore(sd.Meta["language"])
	if class.PageType == sitegraph.PageLogin || class.PageType == sitegraph.PageAccount {
		row[dimIsAuthArea] = 1.0
	}

	encodeContentMetrics(row, sd)
	encodeCommerce(row, sd)
	encodeNavigation(row, sd)
	encodeTrust(row, sd)
	encodeActions(row, sd, class)

	return row
}

func encodeContentMetrics(row []float32, sd *extract.StructuredData) {
	text := ""
	htmlLen := 0
	if sd.Article != nil {
		text = sd.Article.Text
		htmlLen = len(sd.Article.ContentHTML)
	}
	textLen := len(text)
	row[dimLogTextLength] = float32(math.Log10(float64(textLen)+1) / 6)
	if htmlLen > 0 {
		row[dimTextDensity] = float32(math.Min(float64(textLen)/float64(htmlLen), 1.0))
	}

	row[dimHeadingCount] = minCap(float64(len(sd.Headings)), capHeading)
	row[dimImageCount] = minCap(float64(len(sd.Images)), capImage)
	row[dimTableCount] = minCap(float64(len(sd.Tables)), capTable)

	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	row[dimParagraphCount] = minCap(float64(paragraphs), capParagraph)

	listCount := 0
	for _, t := range sd.Tables {
		listCount += len(t.Rows)
	}
	row[dimListCount] = minCap(float64(listCount), capList)

	fieldCount := 0
	for _, f := range sd.Forms {
		fieldCount += len(f.Fields)
	}
	row[dimFormFieldCount] = minCap(float64(fieldCount), capFormField)

	internal, external := 0, 0
	for _, l := range sd.Links {
		if l.Class == ihtml.LinkExternal {
			external++
		} else {
			internal++
		}
	}
	row[dimInternalLinkCount] = minCap(float64(internal), capInternalLink)
	row[dimExternalLinkCount] = minCap(float64(external), capExternalLink)

	row[dimReadingLevel] = float32(math.Min(readingLevelProxy(text)/20.0, 1.0))
	row[dimSentiment] = 0.5 // no sentiment lexicon in the pack; neutral default

	richness := len(sd.JSONLD)*10 + len(sd.Microdata)*5
	row[dimStructuredRichness] = minCap(float64(richness), 50.0)

	embedTopicVector(row, text)
}

// encodeCommerce fills dims 48-63 from Product JSON-LD, when present
// (spec §4.3: "price raw ... discount ... availability ... rating ...").
func encodeCommerce(row []float32, sd *extract.StructuredData) {
	var priceObj *extract.JSONLDObject
	for i := range sd.JSONLD {
		if sd.JSONLD[i].Type == "Product" {
			priceObj = &sd.JSONLD[i]
			break
		}
	}
	if priceObj == nil {
		return
	}
	if price, ok := priceObj.Price(); ok {
		row[dimPrice] = float32(price)
	}
	if avail, ok := priceObj.Data["offers"].(map[string]any); ok {
		if a, ok := avail["availability"].(string); ok {
			row[dimAvailability] = availabilityScore(a)
		}
	}
	if rating, ok := priceObj.Data["aggregateRating"].(map[string]any); ok {
		if v, ok := rating["ratingValue"].(float64); ok {
			if best, ok := rating["bestRating"].(float64); ok && best > 0 {
				row[dimRating] = float32(v / best)
			} else {
				row[dimRating] = float32(v / 5.0)
			}
		}
		if count, ok := rating["reviewCount"].(float64); ok {
			row[dimLogReviews] = float32(math.Min(math.Log10(count+1)/capReviews, 1.0))
		}
	}

	variantCount := 0
	for _, t := range sd.Tables {
		if len(t.Header) > 0 && containsAny(t.Header, "size", "color", "variant") {
			variantCount += len(t.Rows)
		}
	}
	row[dimVariantCount] = minCap(float64(variantCount), capVariant)
}

func availabilityScore(a string) float32 {
	lower := strings.ToLower(a)
	switch {
	case strings.Contains(lower, "outofstock"):
		return 0.0
	case strings.Contains(lower, "limitedavailability") || strings.Contains(lower, "preorder"):
		return 0.5
	case strings.Contains(lower, "instock"):
		return 1.0
	default:
		return 0.0
	}
}

func containsAny(haystack []string, needles ...string) bool {
	for _, h := range haystack {
		low := strings.ToLower(h)
		for _, n := range needles {
			if strings.Contains(low, n) {
				return true
			}
		}
	}
	return false
}

// encodeNavigation fills the subset of dims 64-79 derivable from links
// and forms; the rest of the group is spec-silent (§6 abridges the
// table past dim 63) and stays at 0.
func encodeNavigation(row []float32, sd *extract.StructuredData) {
	total := len(sd.Links)
	if total == 0 {
		return
	}
	external := 0
	hasPagination, hasBreadcrumb := false, false
	domains := make(map[string]struct{})
	for _, l := range sd.Links {
		switch l.Class {
		case ihtml.LinkExternal:
			external++
			if u, err := url.Parse(l.Resolved); err == nil {
				domains[u.Host] = struct{}{}
			}
		case ihtml.LinkPagination:
			hasPagination = true
		case ihtml.LinkBreadcrumb:
			hasBreadcrumb = true
		}
	}
	row[dimOutboundLinkDensity] = minCap(float64(total), capInternalLink)
	row[dimSameDomainRatio] = float32(total-external) / float32(total)
	row[dimExternalDomainCount] = minCap(float64(len(domains)), 20.0)
	if hasPagination {
		row[dimPaginationPresent] = 1.0
	}
	if hasBreadcrumb {
		row[dimBreadcrumbPresent] = 1.0
	}
	for _, f := range sd.Forms {
		for _, field := range f.Fields {
			if strings.Contains(strings.ToLower(field.Name), "search") || strings.Contains(strings.ToLower(field.Name), "q") {
				row[dimHasSearchBox] = 1.0
			}
		}
	}
}

// encodeTrust fills the subset of dims 80-95 derivable from page
// content (legal/contact pages, cookie banners, captcha markers).
func encodeTrust(row []float32, sd *extract.StructuredData) {
	lowerTitle := strings.ToLower(sd.Title)
	for _, l := range sd.Links {
		low := strings.ToLower(l.Text)
		if strings.Contains(low, "privacy") {
			row[dimHasPrivacyPolicy] = 1.0
		}
		if strings.Contains(low, "terms") {
			row[dimHasTerms] = 1.0
		}
		if strings.Contains(low, "contact") {
			row[dimHasContactInfo] = 1.0
		}
	}
	if strings.Contains(lowerTitle, "captcha") {
		row[dimCaptchaPresent] = 1.0
	}
	for _, m := range sd.Meta {
		if strings.Contains(strings.ToLower(m), "cookie") {
			row[dimCookieConsent] = 1.0
			break
		}
	}
}

// encodeActions fills the subset of dims 96-111 that can be determined
// directly from forms and classification, ahead of the full opcode
// table built by internal/actions.
func encodeActions(row []float32, sd *extract.StructuredData, class classify.Result) {
	actionCount := 0
	if len(sd.Forms) > 0 {
		row[dimHasForm] = 1.0
		actionCount++
	}
	for _, f := range sd.Forms {
		if f.HasPasswordField() {
			row[dimHasLoginForm] = 1.0
			actionCount++
		}
		for _, field := range f.Fields {
			if strings.Contains(strings.ToLower(field.Name), "search") {
				row[dimHasSearchForm] = 1.0
				actionCount++
			}
		}
	}
	switch class.PageType {
	case sitegraph.PageCheckout:
		row[dimHasCheckoutAction] = 1.0
		actionCount++
	case sitegraph.PageCart:
		row[dimHasPurchaseAction] = 1.0
		actionCount++
	}
	for _, l := range sd.Links {
		if l.Class == ihtml.LinkDownload {
			row[dimHasDownloadAction] = 1.0
			actionCount++
			break
		}
	}
	row[dimActionCount] = minCap(float64(actionCount), capAction)
}

func minCap(v, cap float64) float32 {
	if v < 0 {
		return 0
	}
	if v > cap {
		return 1.0
	}
	return float32(v / cap)
}

func pathSegmentCount(path string) int {
	n := 0
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

func readingLevelProxy(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	longWords := 0
	for _, w := range words {
		if len(w) >= 7 {
			longWords++
		}
	}
	return float64(longWords) / float64(len(words)) * 20
}

func languageScore(lang string) float32 {
	switch strings.ToLower(lang) {
	case "", "en", "en-us", "en-gb":
		return 1.0
	default:
		return 0.5
	}
}

// embedTopicVector fills the 16-dim topic embedding (dims 31-46) with a
// deterministic bag-of-words hash projection: each significant word
// hashes (FNV-1a, the same hash internal/cluster uses for stable keys)
// into one of 16 buckets, which are then L1-normalised. This is not a
// trained embedding; it gives a stable, comparable fingerprint across
// pages without pulling in an ML dependency the pack does not
// otherwise use.
func embedTopicVector(row []float32, text string) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return
	}
	var buckets [dimTopicEmbedLen]float64
	for _, w := range words {
		if len(w) < 4 {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		buckets[h.Sum32()%dimTopicEmbedLen]++
	}
	total := 0.0
	for _, b := range buckets {
		total += b
	}
	if total == 0 {
		return
	}
	for i, b := range buckets {
		row[dimTopicEmbedStart+i] = float32(b / total)
	}
}
