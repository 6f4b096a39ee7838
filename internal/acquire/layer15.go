// internal/acquire/layer15.go
//
// Layer 1.5 — Pattern engine (spec §4.1): for pages whose structured-
// data coverage falls below PatternEngineThreshold, run a CSS-selector
// extractor keyed by a per-platform registry to recover price, rating,
// title and availability. No example repo in the pack parses HTML with
// a selector engine of its own, so this borrows goquery/cascadia — the
// de-facto standard CSS-selector library across the broader Go
// ecosystem represented in the pack's other_examples/ manifests — rather
// than hand-rolling selector matching on top of golang.org/x/net/html
// (see DESIGN.md).
package acquire

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cortexlabs/cortex/internal/detect"
	"github.com/cortexlabs/cortex/internal/extract"
)

// selectorSet is one platform's CSS-selector recipe for the commerce
// fields the pattern engine can recover without structured data.
type selectorSet struct {
	Price        string
	Title        string
	Rating       string
	ReviewCount  string
	Availability string // text content checked for "in stock" / "out of stock"
}

// platformSelectors is the platform registry spec §4.1/§6 refers to as
// "platform_selectors". Entries are deliberately conservative: common
// theme class names observed across each platform's default templates.
var platformSelectors = map[detect.Platform]selectorSet{
	detect.PlatformShopify: {
		Price:        ".price, .product-price, [data-product-price]",
		Title:        ".product-title, h1.product__title",
		Rating:       "[data-rating], .rating-star",
		ReviewCount:  ".review-count, [data-review-count]",
		Availability: ".product-availability, .inventory-status",
	},
	detect.PlatformWooCommerce: {
		Price:        "p.price, .woocommerce-Price-amount",
		Title:        "h1.product_title",
		Rating:       ".star-rating",
		ReviewCount:  ".woocommerce-review-link",
		Availability: ".stock",
	},
	detect.PlatformMagento: {
		Price:        ".price-box .price",
		Title:        "h1.page-title",
		Rating:       ".rating-result",
		ReviewCount:  ".reviews-actions a",
		Availability: ".stock",
	},
	detect.PlatformBigCommerce: {
		Price:        ".price--main",
		Title:        "h1.productView-title",
		Rating:       ".productView-rating",
		ReviewCount:  ".rating-reviewCount",
		Availability: ".productView-info-value",
	},
	detect.PlatformWix: {
		Price:        "[data-hook=\"formatted-primary-price\"]",
		Title:        "[data-hook=\"product-title\"]",
		Rating:       "[data-hook=\"rating\"]",
		ReviewCount:  "[data-hook=\"review-count\"]",
		Availability: "[data-hook=\"availability-status\"]",
	},
	detect.PlatformSquarespace: {
		Price:        ".product-price",
		Title:        "h1.product-title",
		Rating:       "",
		ReviewCount:  "",
		Availability: ".sold-out-badge",
	},
}

// applyPatternEngine fills sd with a synthetic Product JSON-LD object
// built from CSS-selector matches, when a registry entry exists for
// platform. It mutates sd in place and is a no-op for unrecognised
// platforms or pages with no matching selectors.
func applyPatternEngine(htmlBody []byte, platform detect.Platform, sd *extract.StructuredData) {
	sel, ok := platformSelectors[platform]
	if !ok || sd == nil {
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBody)))
	if err != nil {
		return
	}

	data := map[string]any{}
	found := false

	if sel.Price != "" {
		if price, ok := parsePrice(firstText(doc, sel.Price)); ok {
			data["offers"] = map[string]any{"price": price}
			found = true
		}
	}
	if sel.Title != "" {
		if title := firstText(doc, sel.Title); title != "" {
			data["name"] = title
			found = true
		}
	}
	if sel.Rating != "" || sel.ReviewCount != "" {
		rating := map[string]any{}
		if v, ok := parsePrice(firstText(doc, sel.Rating)); ok {
			rating["ratingValue"] = v
		}
		if v, ok := parsePrice(firstText(doc, sel.ReviewCount)); ok {
			rating["reviewCount"] = v
		}
		if len(rating) > 0 {
			data["aggregateRating"] = rating
			found = true
		}
	}
	if sel.Availability != "" {
		text := strings.ToLower(firstText(doc, sel.Availability))
		if strings.Contains(text, "out of stock") || strings.Contains(text, "sold out") {
			setAvailability(data, "OutOfStock")
			found = true
		} else if strings.Contains(text, "in stock") || strings.Contains(text, "available") {
			setAvailability(data, "InStock")
			found = true
		}
	}

	if found {
		sd.JSONLD = append(sd.JSONLD, extract.JSONLDObject{Type: "Product", Data: data})
	}
}

func setAvailability(data map[string]any, value string) {
	offers, ok := data["offers"].(map[string]any)
	if !ok {
		offers = map[string]any{}
		data["offers"] = offers
	}
	offers["availability"] = value
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// parsePrice extracts the first decimal number in s, stripping common
// currency symbols and thousands separators.
func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var b strings.Builder
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() == 0:
			// currency symbol or other text before the number
		case r == '.':
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		default:
			break scan
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
