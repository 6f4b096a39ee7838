// internal/acquire/layer1.go
//
// Layer 1 — Structured data (spec §4.1): pick a bounded sample of Layer
// 0's seeds, fetch each in parallel under the HTTP client's own
// concurrency/politeness limits, and hand the body to Extraction.
package acquire

import (
	"context"
	"fmt"
	"sync"

	"github.com/cortexlabs/cortex/internal/classify"
	"github.com/cortexlabs/cortex/internal/detect"
	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// samplePlan implements spec §4.1's Layer 1 selection rule: every
// observed (URL-pattern) PageType gets at least two representatives,
// the remainder of the budget is filled proportionally to each type's
// frequency, and the root is always kept.
func samplePlan(seeds []seed, budget int) []seed {
	if budget <= 0 || len(seeds) <= budget {
		return seeds
	}

	buckets := make(map[sitegraph.PageType][]int)
	for i, s := range seeds {
		pt := sitegraph.PageUnknown
		if r, ok := classify.ClassifyURL(s.URL); ok {
			pt = r.PageType
		}
		buckets[pt] = append(buckets[pt], i)
	}

	selected := make(map[int]bool, budget)
	selected[0] = true // root

	for _, idxs := range buckets {
		for k := 0; k < len(idxs) && k < 2; k++ {
			selected[idxs[k]] = true
		}
	}

	if remaining := budget - len(selected); remaining > 0 {
		total := len(seeds)
		for _, idxs := range buckets {
			share := int(float64(len(idxs)) / float64(total) * float64(remaining))
			taken := 0
			for _, idx := range idxs {
				if taken >= share {
					break
				}
				if selected[idx] {
					continue
				}
				selected[idx] = true
				taken++
			}
		}
	}

	for i := range seeds {
		if len(selected) >= budget {
			break
		}
		selected[i] = true
	}

	out := make([]seed, 0, len(selected))
	for i, s := range seeds {
		if selected[i] {
			out = append(out, s)
		}
	}
	return out
}

// fetched is one Layer 1 GET outcome, still keyed to its originating seed.
type fetched struct {
	seed seed
	resp fetchOutcome
}

type fetchOutcome struct {
	httpStatus  int
	sd          *extract.StructuredData
	doc         *ihtml.Document
	htmlBody    []byte
	contentHint detect.Type
	err         error
}

// layer1 fetches every sampled seed concurrently (bounded by
// Config.FetchConcurrency; per-domain pacing and robots compliance are
// already enforced inside the shared httpclient.Client) and runs
// Extraction over each successful response.
func (e *Engine) layer1(ctx context.Context, sampled []seed) []fetched {
	concurrency := e.cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	sem := make(chan struct{}, concurrency)
	out := make([]fetched, len(sampled))

	var wg sync.WaitGroup
	for i, s := range sampled {
		wg.Add(1)
		go func(i int, s seed) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out[i] = fetched{seed: s, resp: e.fetchAndExtract(ctx, s.URL)}
		}(i, s)
	}
	wg.Wait()

	return out
}

func (e *Engine) fetchAndExtract(ctx context.Context, rawURL string) fetchOutcome {
	resp, err := e.http.Fetch(ctx, rawURL, nil)
	if err != nil {
		return fetchOutcome{err: err}
	}

	sniffed := detect.Detect(resp.Body, resp.Header)
	if sniffed.RawType != detect.TypeHTML && sniffed.RawType != detect.TypeUnknown {
		// Sitemaps and crawl discovery occasionally surface non-HTML
		// targets (PDFs, images, feeds); x/net/html.Parse never errors
		// on arbitrary bytes, so without this check they would silently
		// extract as empty, meaningless HTML documents instead of
		// falling back to an estimated node.
		return fetchOutcome{httpStatus: resp.StatusCode, err: fmt.Errorf("non-HTML content (%s)", sniffed.RawType)}
	}

	doc, err := ihtml.ParseDocument(resp.Body)
	if err != nil {
		return fetchOutcome{httpStatus: resp.StatusCode, err: err}
	}

	return fetchOutcome{
		httpStatus:  resp.StatusCode,
		sd:          extract.BuildStructuredData(doc, rawURL),
		doc:         doc,
		contentHint: sniffed.SubType,
		htmlBody:    resp.Body,
	}
}
