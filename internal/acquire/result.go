// internal/acquire/result.go
//
// PageResult is what Acquisition hands to the Orchestrator for each URL
// it resolved (spec §4.1: "produce a stream of (url, http_status,
// raw_html_or_none, discovered_links) plus per-platform metadata").
// Classification, encoding and graph assembly happen downstream in the
// cortex facade, not here — Acquisition's contract stops at structured
// data.
package acquire

import (
	"time"

	"github.com/cortexlabs/cortex/internal/detect"
	"github.com/cortexlabs/cortex/internal/extract"
)

// PageResult is one resolved URL's contribution to the map.
type PageResult struct {
	URL        string
	Depth      int
	HTTPStatus int // 0 = unknown/never fetched (spec §4.1 failure model)

	StructuredData *extract.StructuredData // nil when the URL was never fetched

	// DiscoveredLinks are same-domain hrefs found on this page, already
	// resolved to absolute form. External links are recorded separately
	// (spec §4.1: "External domains... are never crawled — only recorded
	// as external edges") and are not walked further.
	DiscoveredLinks []string
	ExternalLinks   []string

	Platform         detect.Platform
	ActionEndpoints  []string // REST/GraphQL-looking endpoints scraped from linked JS (Layer 2.5)

	// ContentHint is Layer 1's coarse article/docs/homepage guess from
	// the raw response body (internal/detect), fed into Classify as its
	// lowest-confidence signal.
	ContentHint detect.Type

	LastMod  string  // sitemap-declared freshness hint, if any (Layer 0)
	Priority float64 // sitemap-declared priority hint, if any (Layer 0)

	Rendered         bool
	RenderedAt       int64 // seconds since map start, 0 = never (matches sitegraph.Node.RenderedAt)
	RenderLoadTimeMS int64

	// Estimated marks a page that was never successfully fetched: a node
	// is still emitted for it with http_status=0, confidence<=0.3 and
	// flags.estimated (spec §4.1 failure model).
	Estimated bool
}

// Result is the full output of one MAP acquisition run.
type Result struct {
	Domain string
	// RequestID is an opaque per-run identifier (spec §6 map/refresh
	// params), useful for correlating acquisition logs with the
	// mapcache single-flight ticket that triggered this run.
	RequestID string
	Pages     []PageResult

	// ProgressiveActive is set when the deadline elapsed before every
	// layer finished; the SiteMap built from this result must carry
	// flags.progressive_active (spec §4.1 Scheduling).
	ProgressiveActive bool

	MappedAt time.Time
}
