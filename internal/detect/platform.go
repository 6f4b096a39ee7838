// internal/detect/platform.go
//
// Platform fingerprinting (spec §4.1 Layer 2): recognise Shopify,
// WooCommerce, Magento, BigCommerce, Wix and Squarespace from HTML
// signals, and decode their well-known catalog probe endpoints
// (e.g. Shopify's /products.json) into a normalized product list.
//
// The probe response decoder is hand-written in easyjson's generated-code
// style (UnmarshalEasyJSON over jlexer.Lexer) rather than using
// encoding/json, since these catalog endpoints are on the hot path of
// Layer 2 and may return thousands of product rows per domain.
package detect

import (
	"strings"

	"github.com/mailru/easyjson/jlexer"
)

// Platform identifies a recognised e-commerce platform.
type Platform string

const (
	PlatformUnknown     Platform = ""
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformMagento     Platform = "magento"
	PlatformBigCommerce Platform = "bigcommerce"
	PlatformWix         Platform = "wix"
	PlatformSquarespace Platform = "squarespace"
)

// CatalogEndpoint is the well-known products-feed path for a platform,
// empty if the platform has none Cortex knows how to probe.
func (p Platform) CatalogEndpoint() string {
	switch p {
	case PlatformShopify:
		return "/products.json"
	case PlatformWooCommerce:
		return "/wp-json/wc/store/products"
	default:
		return ""
	}
}

// platformSignals maps a case-insensitive HTML substring to the platform
// it fingerprints (spec §4.1: "known platform fingerprints").
var platformSignals = []struct {
	needle   string
	platform Platform
}{
	{"cdn.shopify.com", PlatformShopify},
	{"shopify.theme", PlatformShopify},
	{"woocommerce", PlatformWooCommerce},
	{"wp-content/plugins/woocommerce", PlatformWooCommerce},
	{"mage/cookies.js", PlatformMagento},
	{"magento", PlatformMagento},
	{"bigcommerce.com", PlatformBigCommerce},
	{"cdn11.bigcommerce.com", PlatformBigCommerce},
	{"static.wixstatic.com", PlatformWix},
	{"wix.com", PlatformWix},
	{"squarespace.com", PlatformSquarespace},
	{"static1.squarespace.com", PlatformSquarespace},
}

// DetectPlatform inspects raw HTML for a known platform fingerprint.
// Returns PlatformUnknown if none match.
func DetectPlatform(htmlBody []byte) Platform {
	lower := strings.ToLower(string(htmlBody))
	for _, sig := range platformSignals {
		if strings.Contains(lower, sig.needle) {
			return sig.platform
		}
	}
	return PlatformUnknown
}

// CatalogProduct is one normalized row from a platform's catalog probe.
type CatalogProduct struct {
	Title     string
	Vendor    string
	Available bool
	Price     string
}

// CatalogResponse is a decoded products-feed response (Shopify shape).
type CatalogResponse struct {
	Products []CatalogProduct
}

// DecodeShopifyCatalog decodes a Shopify /products.json body.
func DecodeShopifyCatalog(body []byte) (*CatalogResponse, error) {
	l := &jlexer.Lexer{Data: body}
	var resp CatalogResponse
	resp.unmarshalEasyJSON(l)
	if l.Error() != nil {
		return nil, l.Error()
	}
	return &resp, nil
}

func (r *CatalogResponse) unmarshalEasyJSON(in *jlexer.Lexer) {
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.SkipRecursive()
			in.WantComma()
			continue
		}
		switch key {
		case "products":
			in.Delim('[')
			for !in.IsDelim(']') {
				var p CatalogProduct
				p.unmarshalEasyJSON(in)
				r.Products = append(r.Products, p)
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

func (p *CatalogProduct) unmarshalEasyJSON(in *jlexer.Lexer) {
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.SkipRecursive()
			in.WantComma()
			continue
		}
		switch key {
		case "title":
			p.Title = in.String()
		case "vendor":
			p.Vendor = in.String()
		case "variants":
			in.Delim('[')
			for !in.IsDelim(']') {
				p.unmarshalVariant(in)
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

func (p *CatalogProduct) unmarshalVariant(in *jlexer.Lexer) {
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.SkipRecursive()
			in.WantComma()
			continue
		}
		switch key {
		case "price":
			if p.Price == "" {
				p.Price = in.String()
			} else {
				in.SkipRecursive()
			}
		case "available":
			if in.Bool() {
				p.Available = true
			}
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}
