// cortex/map.go
//
// Map implements the MAP RPC (spec §6): it turns a domain into a
// cached, queryable SiteMap. Acquisition's PageResults stream into the
// classifier and encoder, and the results feed a sitegraph.Builder,
// matching spec §4's data flow ("Results stream into Encoder ->
// Builder. The Builder computes clusters, CSR indices and norms, and
// hands the finished SiteMap to the cache").
package cortex

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/cortexlabs/cortex/internal/acquire"
	"github.com/cortexlabs/cortex/internal/actions"
	"github.com/cortexlabs/cortex/internal/classify"
	"github.com/cortexlabs/cortex/internal/extract"
	"github.com/cortexlabs/cortex/internal/features"
	"github.com/cortexlabs/cortex/internal/mapcache"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// MapOptions carries the MAP call's per-request knobs (spec §6). Zero
// values fall back to the Daemon's configured defaults.
type MapOptions struct {
	EntryPoints   []string
	MaxNodes      int
	MaxRender     int
	MaxTimeMillis int
	RespectRobots bool
	Refresh       bool
}

// MapResult is MAP's reply (spec §6).
type MapResult struct {
	MapPath    string
	NodeCount  int
	EdgeCount  int
	Rendered   int
	Estimated  int
	DurationMS int64

	// ProgressiveActive mirrors the SiteMap's flags.progressive_active
	// (spec §4.1 Scheduling): the deadline elapsed before every layer
	// finished.
	ProgressiveActive bool
}

// Map acquires (or returns a cached) SiteMap for domain.
func (d *Daemon) Map(ctx context.Context, domain string, opts MapOptions) (*MapResult, error) {
	start := time.Now()
	params := mapParamsFrom(opts)

	entry, _, err := d.cache.GetOrBuild(ctx, domain, params, opts.Refresh, func(ctx context.Context) (*sitegraph.SiteMap, error) {
		return d.acquireSiteMap(ctx, domain, opts)
	})
	if err != nil {
		return nil, err
	}
	defer entry.Release()

	path := mapcache.CacheKey(domain, params)
	d.handles.register(path, domain, params)

	rendered, estimated := countRenderedEstimated(entry.Map)

	return &MapResult{
		MapPath:           path,
		NodeCount:         len(entry.Map.Nodes),
		EdgeCount:         len(entry.Map.Edges),
		Rendered:          rendered,
		Estimated:         estimated,
		DurationMS:        time.Since(start).Milliseconds(),
		ProgressiveActive: entry.Map.Nodes[0].Flags.Has(sitegraph.FlagProgressiveActive),
	}, nil
}

// mapParamsFrom normalizes a MAP call's knobs into the string map
// mapcache keys on (spec §4.7: "keyed by (domain, normalized_params)").
// Refresh is deliberately excluded: it selects cache behavior, it is
// not part of what makes two maps equivalent.
func mapParamsFrom(opts MapOptions) mapParams {
	p := make(mapParams, 4)
	if len(opts.EntryPoints) > 0 {
		joined := ""
		for i, ep := range opts.EntryPoints {
			if i > 0 {
				joined += ","
			}
			joined += ep
		}
		p["entry_points"] = joined
	}
	if opts.MaxNodes > 0 {
		p["max_nodes"] = strconv.Itoa(opts.MaxNodes)
	}
	if opts.MaxRender > 0 {
		p["max_render"] = strconv.Itoa(opts.MaxRender)
	}
	if opts.MaxTimeMillis > 0 {
		p["max_time_ms"] = strconv.Itoa(opts.MaxTimeMillis)
	}
	p["respect_robots"] = strconv.FormatBool(opts.RespectRobots)
	return p
}

// pageEncoding pairs one page with its classification and feature row
// so interpolateEstimated can revisit never-fetched pages once every
// page in the batch has been classified and encoded once.
type pageEncoding struct {
	page  acquire.PageResult
	class classify.Result
	row   []float32
}

// interpolateEstimated replaces each never-fetched page's all-zero
// feature row with the average of same-PageType rendered rows in the
// same batch, when at least two such samples exist (spec §4.3). It
// must run after every page has been classified and encoded once,
// since an estimated page early in the slice may need samples
// contributed by a rendered page later in it.
func interpolateEstimated(encodings []pageEncoding) {
	var samples []features.Sample
	for _, e := range encodings {
		if e.page.StructuredData != nil {
			samples = append(samples, features.Sample{PageType: e.class.PageType, Row: e.row})
		}
	}
	if len(samples) < 2 {
		return
	}

	for i, e := range encodings {
		if e.page.StructuredData != nil {
			continue
		}
		if row, ok := features.Interpolate(e.class.PageType, samples, e.row); ok {
			encodings[i].row = row
		}
	}
}

func countRenderedEstimated(m *sitegraph.SiteMap) (rendered, estimated int) {
	for _, n := range m.Nodes {
		if n.Flags.Has(sitegraph.FlagRendered) {
			rendered++
		}
		if n.Flags.Has(sitegraph.FlagEstimated) {
			estimated++
		}
	}
	return rendered, estimated
}

// acquireSiteMap runs the acquisition engine and assembles its result
// into a finished SiteMap. It is the build function single-flighted by
// mapcache (spec §4.7).
func (d *Daemon) acquireSiteMap(ctx context.Context, domain string, opts MapOptions) (*sitegraph.SiteMap, error) {
	res, err := d.engine.Run(ctx, domain, opts.EntryPoints, opts.MaxNodes, opts.MaxRender, opts.MaxTimeMillis)
	if err != nil {
		return nil, err
	}

	pages := reorderRootFirst(res.Pages, domain, opts.EntryPoints)

	b := sitegraph.NewBuilder(domain)
	if d.cfg.EnablePricePercentile {
		b.EnablePricePercentile(true)
	}

	encodings := make([]pageEncoding, 0, len(pages))
	for _, p := range pages {
		class := classify.Classify(p.StructuredData, p.URL, p.ContentHint)
		row := features.Encode(p.StructuredData, class, features.Context{
			Depth:      p.Depth,
			HTTPStatus: p.HTTPStatus,
			LoadTimeMS: p.RenderLoadTimeMS,
			IsHTTPS:    isHTTPS(p.URL),
			IsMobileUA: false,
		})
		encodings = append(encodings, pageEncoding{page: p, class: class, row: row})
	}
	interpolateEstimated(encodings)

	nodeIndex := make(map[string]uint32, len(pages))
	for _, e := range encodings {
		p, class, row := e.page, e.class, e.row

		idx, err := b.AddNode(p.URL, class.PageType, row, class.Confidence)
		if err != nil {
			// A duplicate canonical URL across two seeds (e.g. sitemap
			// and crawl discovery both surfaced it); keep the first.
			continue
		}
		nodeIndex[p.URL] = idx

		flags := nodeFlagsFor(p)
		if err := b.SetNodeMeta(idx, func(n *sitegraph.Node) {
			n.Flags = flags
			n.HTTPStatus = p.HTTPStatus
			n.Depth = p.Depth
			n.ContentHash = contentHash(p.StructuredData)
			n.RenderedAt = p.RenderedAt
		}); err != nil {
			return nil, fmt.Errorf("cortex: set node meta for %q: %w", p.URL, err)
		}

		for _, a := range actions.Discover(p.StructuredData) {
			if err := b.AddAction(idx, a); err != nil {
				return nil, fmt.Errorf("cortex: add action for %q: %w", p.URL, err)
			}
		}
	}

	for _, p := range pages {
		from, ok := nodeIndex[p.URL]
		if !ok {
			continue
		}
		for _, link := range p.DiscoveredLinks {
			to, ok := nodeIndex[link]
			if !ok {
				continue
			}
			if err := b.AddEdge(from, to, sitegraph.EdgeNavigation, 10, 0); err != nil {
				return nil, fmt.Errorf("cortex: add edge %q -> %q: %w", p.URL, link, err)
			}
		}
		for _, ext := range p.ExternalLinks {
			to, err := b.AddNode(ext, sitegraph.PageUnknown, nil, 0.3)
			if err != nil {
				// already present (another page linked the same
				// external URL) or malformed; either way skip it.
				continue
			}
			if err := b.SetNodeMeta(to, func(n *sitegraph.Node) {
				n.Flags |= sitegraph.FlagEstimated
			}); err != nil {
				return nil, err
			}
			if err := b.AddEdge(from, to, sitegraph.EdgeExternal, 255, 0); err != nil {
				return nil, fmt.Errorf("cortex: add external edge %q -> %q: %w", p.URL, ext, err)
			}
		}
	}

	if res.ProgressiveActive {
		if err := b.SetNodeMeta(0, func(n *sitegraph.Node) {
			n.Flags |= sitegraph.FlagProgressiveActive
		}); err != nil {
			return nil, err
		}
	}

	return b.Build(sitegraph.BuildOptions{
		InferEdges: shouldInferEdges(res),
		MappedAt:   res.MappedAt.Unix(),
	})
}

// shouldInferEdges gates the Builder's URL-derived edge synthesis on
// spec §4.4's trigger: many nodes discovered but only a few rendered,
// meaning observed link structure alone is sparse.
func shouldInferEdges(res *acquire.Result) bool {
	rendered := 0
	for _, p := range res.Pages {
		if p.Rendered {
			rendered++
		}
	}
	return len(res.Pages) > 20 && rendered < len(res.Pages)/4
}

// reorderRootFirst moves the page matching domain's root URL to index
// 0, satisfying sitegraph.Builder.AddNode's "first call must be the
// root" contract. Falls back to leaving order untouched if no page
// canonicalizes to the root (Build will simply treat whatever page
// came first as root).
func reorderRootFirst(pages []acquire.PageResult, domain string, entryPoints []string) []acquire.PageResult {
	root := "https://" + domain + "/"
	for _, ep := range entryPoints {
		if ep != "" {
			root = ep
			break
		}
	}
	canonRoot, err := sitegraph.CanonicalizeURL(root)
	if err != nil {
		return pages
	}

	for i, p := range pages {
		canon, err := sitegraph.CanonicalizeURL(p.URL)
		if err != nil {
			continue
		}
		if canon == canonRoot {
			if i == 0 {
				return pages
			}
			out := make([]acquire.PageResult, len(pages))
			copy(out, pages)
			out[0], out[i] = out[i], out[0]
			return out
		}
	}
	return pages
}

// nodeFlagsFor derives the static content flags (spec §3) from one
// page's acquisition result.
func nodeFlagsFor(p acquire.PageResult) sitegraph.NodeFlags {
	var f sitegraph.NodeFlags
	if p.Rendered {
		f |= sitegraph.FlagRendered
	}
	if p.Estimated {
		f |= sitegraph.FlagEstimated
	}
	if p.StructuredData != nil {
		if len(p.StructuredData.Forms) > 0 {
			f |= sitegraph.FlagHasForm
		}
		if len(p.StructuredData.Images) > 0 {
			f |= sitegraph.FlagHasMedia
		}
		for _, obj := range p.StructuredData.JSONLD {
			if _, ok := obj.Price(); ok {
				f |= sitegraph.FlagHasPrice
				break
			}
		}
	}
	return f
}

func isHTTPS(rawURL string) bool {
	return len(rawURL) >= 8 && rawURL[:8] == "https://"
}

// contentHash is the FNV-1a digest of a page's extracted text (spec
// §3: "ContentHash: FNV-1a of canonicalised extracted text"). REFRESH
// recomputes it after re-running the classifier/encoder pass and
// reports a content_hash change when it differs.
func contentHash(sd *extract.StructuredData) uint32 {
	if sd == nil {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(sd.Title))
	if sd.Article != nil {
		h.Write([]byte(sd.Article.Text))
	}
	return h.Sum32()
}
