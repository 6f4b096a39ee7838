// internal/acquire/layer3.go
//
// Layer 3 — Render fallback (spec §4.1): for pages whose cumulative
// feature coverage remains below FeatureCoverageThreshold after Layers
// 0-2.5, and only while the render budget isn't exhausted, render the
// page headlessly and re-run Extraction over the resulting DOM.
package acquire

import (
	"context"
	"sync"
	"time"

	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/render"
)

// layer3 renders every candidate URL concurrently up to RenderPoolSize
// and maxRender, stopping early once the budget is spent or Layer 3's
// slice of the deadline has elapsed (spec §4.1 Scheduling).
func (e *Engine) layer3(ctx context.Context, candidates []string, maxRender int, clk *clock) map[string]fetchOutcome {
	out := make(map[string]fetchOutcome)
	if e.renderer == nil || maxRender <= 0 || len(candidates) == 0 {
		return out
	}
	if len(candidates) > maxRender {
		candidates = candidates[:maxRender]
	}

	poolSize := e.cfg.RenderPoolSize
	if poolSize <= 0 {
		poolSize = 8
	}

	sem := make(chan struct{}, poolSize)
	results := make([]struct {
		url string
		out fetchOutcome
	}, len(candidates))

	var wg sync.WaitGroup
	for i, u := range candidates {
		if clk.layer3Expired() {
			break
		}
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = struct {
				url string
				out fetchOutcome
			}{url: u, out: e.renderAndExtract(ctx, u)}
		}(i, u)
	}
	wg.Wait()

	for _, r := range results {
		if r.url != "" {
			out[r.url] = r.out
		}
	}
	return out
}

func (e *Engine) renderAndExtract(ctx context.Context, rawURL string) fetchOutcome {
	timeout := e.cfg.RenderNavigateTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	res, err := e.renderer.Render(ctx, rawURL, render.RenderOptions{
		UserAgent:       e.cfg.UserAgent,
		NavigateTimeout: timeout,
		WaitUntil:       render.WaitUntilLoad,
	})
	if err != nil {
		return fetchOutcome{err: err}
	}

	doc, err := ihtml.ParseDocument([]byte(res.HTML))
	if err != nil {
		return fetchOutcome{err: err}
	}

	sd := extract.BuildStructuredData(doc, rawURL)
	return fetchOutcome{httpStatus: 200, sd: sd}
}
