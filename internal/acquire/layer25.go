// internal/acquire/layer25.go
//
// Layer 2.5 — Action discovery (spec §4.1): forms are already captured
// by Extraction (ihtml.ExtractForms runs inside BuildStructuredData);
// this layer adds what Extraction can't see — REST/GraphQL endpoints
// referenced by linked JavaScript, and a recognised platform's known
// action endpoints.
package acquire

import (
	"context"
	"net/url"
	"regexp"

	"github.com/cortexlabs/cortex/internal/detect"
	ihtml "github.com/cortexlabs/cortex/internal/html"
)

// endpointPattern matches path-like strings that look like API routes:
// /api/v1/..., /graphql, /cart/add.js, etc.
var endpointPattern = regexp.MustCompile(`["'](/(?:api|graphql|cart|checkout|search)[A-Za-z0-9_\-./]*)["']`)

// platformActionTemplates are well-known action endpoints for a
// recognised platform (spec §4.1: "instantiate the platform's action
// templates (add-to-cart, search, login)").
var platformActionTemplates = map[detect.Platform][]string{
	detect.PlatformShopify:     {"/cart/add.js", "/search", "/account/login"},
	detect.PlatformWooCommerce: {"/?wc-ajax=add_to_cart", "/?s=", "/wp-login.php"},
}

const maxJSFilesPerPage = 3

// discoverActionEndpoints scans a page's linked <script src> files for
// API-looking paths and merges in the current platform's action
// templates, if any.
func (e *Engine) discoverActionEndpoints(ctx context.Context, doc *ihtml.Document, pageURL string, platform detect.Platform) []string {
	seen := make(map[string]bool)
	var endpoints []string

	add := func(ep string) {
		if ep != "" && !seen[ep] {
			seen[ep] = true
			endpoints = append(endpoints, ep)
		}
	}

	for _, ep := range platformActionTemplates[platform] {
		add(ep)
	}

	for i, src := range scriptSources(doc, pageURL) {
		if i >= maxJSFilesPerPage {
			break
		}
		resp, err := e.http.Fetch(ctx, src, nil)
		if err != nil || resp.StatusCode != 200 {
			continue
		}
		for _, m := range endpointPattern.FindAllSubmatch(resp.Body, -1) {
			add(string(m[1]))
		}
	}

	return endpoints
}

// scriptSources returns the resolved absolute URLs of same-document
// <script src="..."> tags.
func scriptSources(doc *ihtml.Document, pageURL string) []string {
	base, _ := url.Parse(pageURL)

	var out []string
	for _, src := range ihtml.ExtractScriptSources(doc) {
		ref, err := url.Parse(src)
		if err != nil {
			continue
		}
		resolved := src
		if base != nil && !ref.IsAbs() {
			resolved = base.ResolveReference(ref).String()
		}
		out = append(out, resolved)
	}
	return out
}
