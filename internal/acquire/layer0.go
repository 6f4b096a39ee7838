// internal/acquire/layer0.go
//
// Layer 0 — Metadata (spec §4.1): robots.txt + sitemap-index expansion,
// falling back to one-level BFS crawl discovery when no sitemap exists,
// followed by a HEAD sample over the discovered URLs.
package acquire

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	cerrors "github.com/cortexlabs/cortex/internal/errors"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitemap"
)

// seed is one URL discovered by Layer 0, with whatever freshness and
// response metadata was gathered along the way.
type seed struct {
	URL         string
	Depth       int
	LastMod     string
	Priority    float64
	HeadStatus  int
	ContentType string
	Language    string
}

// isDNSFailure reports whether err is ultimately a DNS resolution
// failure, in which case acquisition must abort with E_MAP_DNS_FAILED
// rather than proceeding with an empty seed set (spec §4.1 failure model).
func isDNSFailure(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// layer0 discovers the seed URL set for domain: sitemap-derived when a
// sitemap exists, crawl-discovered (one BFS level from the entry points)
// otherwise, then HEAD-sampled.
func (e *Engine) layer0(ctx context.Context, domain string, entryPoints []string, clk *clock) ([]seed, error) {
	root := rootURL(domain, entryPoints)

	seeds, sitemapErr := e.expandSitemaps(ctx, root, clk)
	if sitemapErr != nil && isDNSFailure(sitemapErr) {
		return nil, cerrors.New(cerrors.KindMapDNSFailed, "could not resolve domain", sitemapErr)
	}

	if len(seeds) == 0 {
		crawled, err := e.crawlDiscover(ctx, domain, entryPoints, clk)
		if err != nil {
			if isDNSFailure(err) {
				return nil, cerrors.New(cerrors.KindMapDNSFailed, "could not resolve domain", err)
			}
			return nil, err
		}
		seeds = crawled
	}

	e.headSample(ctx, seeds, clk)
	return seeds, nil
}

// rootURL resolves the domain's canonical root URL, preferring the
// first entry point if one was supplied (spec §4.1: "start from entry
// points (or https://<domain>/)").
func rootURL(domain string, entryPoints []string) string {
	for _, ep := range entryPoints {
		if ep != "" {
			return ep
		}
	}
	return "https://" + domain + "/"
}

// expandSitemaps fetches robots.txt for its Sitemap: directives and
// recursively expands any sitemap indexes up to the configured nesting
// cap (spec: 5).
func (e *Engine) expandSitemaps(ctx context.Context, root string, clk *clock) ([]seed, error) {
	u, err := url.Parse(root)
	if err != nil {
		return nil, err
	}
	hostKey := u.Scheme + "://" + u.Host

	rules, err := e.http.Robots(ctx, hostKey)
	if err != nil {
		return nil, err
	}

	pending := append([]string(nil), rules.Sitemaps...)
	if len(pending) == 0 {
		pending = []string{hostKey + "/sitemap.xml"}
	}

	var seeds []seed
	seen := make(map[string]bool)
	cap := e.cfg.SitemapNestingCap
	if cap <= 0 {
		cap = 5
	}

	for depth := 0; depth < cap && len(pending) > 0; depth++ {
		if clk.layer0Expired() {
			break
		}
		next := pending[:0:0]
		for _, sm := range pending {
			if seen[sm] {
				continue
			}
			seen[sm] = true

			resp, err := e.http.Fetch(ctx, sm, nil)
			if err != nil {
				e.logger.Debugf("acquire: sitemap fetch %q failed: %v", sm, err)
				continue
			}
			if resp.StatusCode >= 400 {
				continue
			}
			entries, children, err := sitemap.Parse(resp.Body)
			if err != nil {
				e.logger.Debugf("acquire: sitemap parse %q failed: %v", sm, err)
				continue
			}
			for _, ent := range entries {
				seeds = append(seeds, seed{URL: ent.URL, LastMod: ent.LastMod, Priority: ent.Priority})
			}
			next = append(next, children...)
		}
		pending = next
	}

	return seeds, nil
}

// crawlDiscover performs a one-level BFS from the entry points when no
// sitemap was found (spec §4.1: "fetch HTML, extract all same-domain
// anchor hrefs, BFS one level deep up to a URL cap (default 500)").
func (e *Engine) crawlDiscover(ctx context.Context, domain string, entryPoints []string, clk *clock) ([]seed, error) {
	root := rootURL(domain, entryPoints)

	urlCap := e.cfg.CrawlURLCap
	if urlCap <= 0 {
		urlCap = 500
	}

	resp, err := e.http.Fetch(ctx, root, nil)
	if err != nil {
		return nil, err
	}

	seeds := []seed{{URL: root, Depth: 0}}
	visited := map[string]bool{root: true}

	if resp.StatusCode >= 400 {
		return seeds, nil
	}

	doc, err := ihtml.ParseDocument(resp.Body)
	if err != nil {
		return seeds, nil
	}

	for _, link := range ihtml.ExtractLinks(doc, root) {
		if clk.layer0Expired() || len(seeds) >= urlCap {
			break
		}
		if link.Class != ihtml.LinkInternal || link.Resolved == "" {
			continue
		}
		if !sameDomain(link.Resolved, domain) || visited[link.Resolved] {
			continue
		}
		visited[link.Resolved] = true
		seeds = append(seeds, seed{URL: link.Resolved, Depth: 1})
	}

	return seeds, nil
}

// headSample performs HEAD probes on a bounded sample of the discovered
// seeds, recording content-type, language, and status (spec §4.1).
func (e *Engine) headSample(ctx context.Context, seeds []seed, clk *clock) {
	sampleCap := e.cfg.HeadSampleCap
	if sampleCap <= 0 {
		sampleCap = 100
	}
	for i := range seeds {
		if i >= sampleCap || clk.layer0Expired() {
			return
		}
		resp, err := e.http.Head(ctx, seeds[i].URL)
		if err != nil {
			continue
		}
		seeds[i].HeadStatus = resp.StatusCode
		if resp.Header != nil {
			seeds[i].ContentType = resp.Header.Get("Content-Type")
			seeds[i].Language = resp.Header.Get("Content-Language")
		}
	}
}

func sameDomain(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == strings.ToLower(domain) || strings.HasSuffix(host, "."+strings.ToLower(domain))
}
