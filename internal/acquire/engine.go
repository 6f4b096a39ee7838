// internal/acquire/engine.go
//
// Engine implements the full layered acquisition pipeline (spec §4.1):
// Layer 0 metadata discovery, Layer 1 structured-data fetch, Layer 1.5
// pattern engine, Layer 2 API discovery, Layer 2.5 action discovery and
// Layer 3 render fallback, all under one deadline clock.
package acquire

import (
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/detect"
	cerrors "github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/httpclient"
	"github.com/cortexlabs/cortex/internal/log"
	"github.com/cortexlabs/cortex/internal/render"
)

// Engine runs one domain's acquisition pipeline end to end. It holds no
// per-run state itself; Run is safe to call concurrently for different
// domains from the same Engine.
type Engine struct {
	cfg      *config.Config
	http     *httpclient.Client
	renderer render.Renderer // nil disables Layer 3 entirely
	logger   log.Logger
}

// NewEngine constructs an Engine. renderer may be nil, in which case
// Layer 3 is skipped and pages under the coverage threshold simply stay
// estimated from Layers 0-2.5.
func NewEngine(cfg *config.Config, httpClient *httpclient.Client, renderer render.Renderer, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.New(false)
	}
	return &Engine{cfg: cfg, http: httpClient, renderer: renderer, logger: logger}
}

// Run acquires a SiteMap-worth of page data for domain (spec §4.1).
// entryPoints, maxNodes, maxRender and maxTimeMillis override the
// Engine's configured defaults when non-zero/non-empty.
func (e *Engine) Run(ctx context.Context, domain string, entryPoints []string, maxNodes, maxRender, maxTimeMillis int) (*Result, error) {
	requestID := uuid.New().String()
	e.logger.Debugf("acquire[%s]: starting MAP for %q", requestID, domain)

	if maxNodes <= 0 {
		maxNodes = e.cfg.MaxNodes
	}
	if maxRender <= 0 {
		maxRender = e.cfg.MaxRender
	}
	if maxTimeMillis <= 0 {
		maxTimeMillis = e.cfg.MaxTimeMillis
	}

	clk := newClock(time.Duration(maxTimeMillis)*time.Millisecond, e.cfg.Layer0Fraction, e.cfg.Layer3Fraction)

	seeds, err := e.layer0(ctx, domain, entryPoints, clk)
	if err != nil {
		return nil, err
	}
	seeds = dedupeSeeds(seeds)
	if len(seeds) == 0 {
		return nil, cerrors.New(cerrors.KindMapNoContent, "no URLs discovered via sitemap, crawl, or HTTP fallback", nil)
	}
	if clk.expired() {
		return nil, cerrors.New(cerrors.KindMapTimeout, "deadline elapsed before any URL was resolved", nil)
	}

	sampled := samplePlan(seeds, maxNodes)
	fetchedPages := e.layer1(ctx, sampled)

	var errs *multierror.Error
	resolvedAny := false

	pages := make([]PageResult, 0, len(fetchedPages))
	renderIndex := make(map[string]int)
	var renderCandidates []string

	for _, f := range fetchedPages {
		if f.resp.err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", f.seed.URL, f.resp.err))
			pages = append(pages, PageResult{
				URL:       f.seed.URL,
				Depth:     f.seed.Depth,
				LastMod:   f.seed.LastMod,
				Priority:  f.seed.Priority,
				Estimated: true,
			})
			continue
		}
		resolvedAny = true
		pages = append(pages, e.enrichPage(ctx, f, domain))

		if pages[len(pages)-1].StructuredData.FeatureCoverage() < e.cfg.FeatureCoverageThreshold {
			renderIndex[f.seed.URL] = len(pages) - 1
			renderCandidates = append(renderCandidates, f.seed.URL)
		}
	}

	if !resolvedAny {
		return nil, cerrors.New(cerrors.KindMapTimeout, "deadline elapsed before any URL was resolved", errs.ErrorOrNil())
	}

	renderResults := e.layer3(ctx, renderCandidates, maxRender, clk)
	for u, outcome := range renderResults {
		idx, ok := renderIndex[u]
		if !ok {
			continue
		}
		if outcome.err != nil {
			errs = multierror.Append(errs, fmt.Errorf("render %s: %w", u, outcome.err))
			continue
		}
		pages[idx].Rendered = true
		pages[idx].RenderedAt = int64(clk.elapsed().Seconds()) + 1
		pages[idx].RenderLoadTimeMS = 0
		pages[idx].StructuredData = preferRicher(pages[idx].StructuredData, outcome.sd)
	}

	if err := errs.ErrorOrNil(); err != nil {
		e.logger.Warnf("acquire[%s]: %d page(s) had individually dropped errors: %v", requestID, len(errs.Errors), err)
	}

	return &Result{
		Domain:            domain,
		RequestID:         requestID,
		Pages:             pages,
		ProgressiveActive: clk.expired(),
		MappedAt:          clk.start,
	}, nil
}

// enrichPage runs Layers 1.5, 2 and 2.5 over one successfully fetched
// page and classifies its links as internal (same-domain, navigable) or
// external (recorded but never crawled, spec §4.1 politeness).
func (e *Engine) enrichPage(ctx context.Context, f fetched, domain string) PageResult {
	sd := f.resp.sd
	platform := detect.PlatformUnknown
	if f.resp.htmlBody != nil {
		platform = detect.DetectPlatform(f.resp.htmlBody)
	}

	if sd.FeatureCoverage() < e.cfg.PatternEngineThreshold {
		applyPatternEngine(f.resp.htmlBody, platform, sd)
	}

	if platform != detect.PlatformUnknown {
		mergeCatalog(sd, e.probeCatalog(ctx, f.seed.URL, platform))
	}

	endpoints := e.discoverActionEndpoints(ctx, f.resp.doc, f.seed.URL, platform)

	var internalLinks, externalLinks []string
	for _, link := range sd.Links {
		switch {
		case link.Class == ihtml.LinkExternal:
			if link.Resolved != "" {
				externalLinks = append(externalLinks, link.Resolved)
			}
		case link.Class == ihtml.LinkAnchor:
			// not a navigable page target
		case link.Resolved != "" && sameDomain(link.Resolved, domain):
			internalLinks = append(internalLinks, link.Resolved)
		}
	}

	return PageResult{
		URL:             f.seed.URL,
		Depth:           f.seed.Depth,
		HTTPStatus:      f.resp.httpStatus,
		StructuredData:  sd,
		DiscoveredLinks: internalLinks,
		ExternalLinks:   externalLinks,
		Platform:        platform,
		ActionEndpoints: endpoints,
		ContentHint:     f.resp.contentHint,
		LastMod:         f.seed.LastMod,
		Priority:        f.seed.Priority,
	}
}

// preferRicher returns whichever StructuredData has higher feature
// coverage, breaking ties toward the rendered one (spec §4.1 ordering:
// "later layers overwrite earlier only when they raise confidence").
func preferRicher(original, rendered *extract.StructuredData) *extract.StructuredData {
	if rendered == nil {
		return original
	}
	if original == nil || rendered.FeatureCoverage() >= original.FeatureCoverage() {
		return rendered
	}
	return original
}

// dedupeSeeds removes duplicate URLs across Layer 0's sitemap and crawl
// contributions, keeping the first occurrence (spec §4.1: sitemap
// entries and crawl-discovered links may overlap).
func dedupeSeeds(seeds []seed) []seed {
	seen := mapset.NewSet[string]()
	out := make([]seed, 0, len(seeds))
	for _, s := range seeds {
		if seen.Contains(s.URL) {
			continue
		}
		seen.Add(s.URL)
		out = append(out, s)
	}
	return out
}
