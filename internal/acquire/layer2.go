// internal/acquire/layer2.go
//
// Layer 2 — API discovery (spec §4.1): when a page carries a known
// platform fingerprint, probe that platform's well-known catalog
// endpoint and merge the parsed product feed into structured data.
// Grounded on internal/detect's easyjson-decoded catalog types.
package acquire

import (
	"context"
	"net/url"
	"strconv"

	"github.com/cortexlabs/cortex/internal/detect"
	"github.com/cortexlabs/cortex/internal/extract"
)

// probeCatalog fetches and decodes platform's catalog feed for the
// domain rooted at pageURL, returning nil if the platform has no known
// endpoint or the probe fails. Call sites treat a nil result as "Layer 2
// contributed nothing for this page" (spec: individual-URL failures are
// logged and dropped, not fatal).
func (e *Engine) probeCatalog(ctx context.Context, pageURL string, platform detect.Platform) *detect.CatalogResponse {
	endpoint := platform.CatalogEndpoint()
	if endpoint == "" {
		return nil
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	probeURL := u.Scheme + "://" + u.Host + endpoint

	resp, err := e.http.Fetch(ctx, probeURL, nil)
	if err != nil || resp.StatusCode != 200 {
		return nil
	}

	switch platform {
	case detect.PlatformShopify:
		catalog, err := detect.DecodeShopifyCatalog(resp.Body)
		if err != nil {
			e.logger.Debugf("acquire: shopify catalog decode failed for %q: %v", probeURL, err)
			return nil
		}
		return catalog
	default:
		return nil
	}
}

// mergeCatalog folds a decoded catalog feed into sd as an ItemList
// JSON-LD object (spec §4.1: "merge the parsed JSON into per-URL
// structured data"), capped to the first 50 products to keep the
// feature encoder's JSON-LD scan bounded.
func mergeCatalog(sd *extract.StructuredData, catalog *detect.CatalogResponse) {
	if sd == nil || catalog == nil || len(catalog.Products) == 0 {
		return
	}

	const cap = 50
	items := make([]any, 0, cap)
	for i, p := range catalog.Products {
		if i >= cap {
			break
		}
		item := map[string]any{"name": p.Title}
		if p.Price != "" {
			if f, err := strconv.ParseFloat(p.Price, 64); err == nil {
				item["offers"] = map[string]any{"price": f, "availability": availabilityLiteral(p.Available)}
			}
		}
		items = append(items, item)
	}

	sd.JSONLD = append(sd.JSONLD, extract.JSONLDObject{
		Type: "ItemList",
		Data: map[string]any{"itemListElement": items},
	})
}

func availabilityLiteral(available bool) string {
	if available {
		return "InStock"
	}
	return "OutOfStock"
}
