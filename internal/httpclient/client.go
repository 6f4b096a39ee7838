// internal/httpclient/client.go
//
// Package httpclient implements Cortex's internal HTTP client.
// It provides robots.txt-compliant HTTP GET with concurrency limits,
// per-domain politeness (minimum interval, Crawl-delay), exponential
// backoff retries, and basic in-memory caching.
package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/log"
	"github.com/cortexlabs/cortex/internal/robots"
)

// Error is a convenient alias for the structured error type used by
// the HTTP client. It matches Cortex's public Error type.
type Error = errors.Error

// Client is Cortex's internal HTTP client.
//
// It should not be used directly by consumers of the cortex package;
// instead, the acquisition engine calls Client.Fetch.
type Client struct {
	cfg     *config.Config
	logger  log.Logger
	http    *http.Client
	robots  *robotsCache
	limiter *hostLimiter
	cache   *memoryCache
	pace    *paceLimiter
}

// New constructs a new HTTP client with the provided configuration
// and logger. It reuses a single http.Client to benefit from connection
// pooling.
func New(cfg *config.Config, logger log.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	return &Client{
		cfg:     cfg,
		logger:  logger,
		http:    httpClient,
		robots:  newRobotsCache(cfg),
		limiter: newHostLimiter(cfg.FetchConcurrency, cfg.PerDomainConcurrency),
		cache:   newMemoryCache(cfg.CacheTTL, cfg.MaxCacheEntries),
		pace:    newPaceLimiter(cfg.MinRequestInterval),
	}
}

// Fetch performs a robots.txt-compliant, politely-paced HTTP GET with
// exponential-backoff retries, concurrency limiting and basic caching.
//
// headers may contain additional headers to send. The User-Agent header
// will always be set to the configured Cortex User-Agent, overriding any
// User-Agent value in headers.
func (c *Client) Fetch(
	ctx context.Context,
	rawURL string,
	headers http.Header,
) (*Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New(errors.KindHTTP, "invalid URL", err)
	}
	hostKey := parsed.Host

	if err := c.limiter.Acquire(ctx, hostKey); err != nil {
		return nil, errors.New(errors.KindHTTP, "acquiring concurrency slot failed", err)
	}
	defer c.limiter.Release(hostKey)

	if c.cfg.RespectRobots {
		allowed, err := c.robots.allowed(ctx, rawURL, c.cfg.UserAgent, c.http)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, errors.New(errors.KindRobots, "access disallowed by robots.txt", nil)
		}
	}

	if resp := c.cache.Get(rawURL); resp != nil {
		c.logger.Debugf("cache hit for %s", rawURL)
		return resp, nil
	}

	// Politeness pacing: wait out MinRequestInterval, raised by any
	// robots Crawl-delay declared for this host (spec §5).
	interval := c.cfg.MinRequestInterval
	if c.cfg.RespectRobots {
		robotsHostKey := parsed.Scheme + "://" + parsed.Host
		if d := c.robots.crawlDelay(robotsHostKey, c.cfg.UserAgent); d > interval {
			interval = d
		}
	}
	if err := c.pace.Wait(ctx, hostKey, interval); err != nil {
		return nil, errors.New(errors.KindHTTP, "request canceled while pacing", err)
	}

	reqHeaders := make(http.Header)
	for k, v := range headers {
		cp := make([]string, len(v))
		copy(cp, v)
		reqHeaders[k] = cp
	}
	reqHeaders.Set("User-Agent", c.cfg.UserAgent)
	if reqHeaders.Get("Accept") == "" {
		reqHeaders.Set("Accept", "*/*")
	}

	// RetryMaxAttempts counts retries after the first try.
	maxRetries := c.cfg.RetryMaxAttempts
	if maxRetries <= 0 {
		maxRetries = 5
	}
	maxAttempts := maxRetries + 1
	backoff := c.cfg.RetryBaseDelay
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxBackoff := c.cfg.RetryMaxDelay
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, errors.New(errors.KindHTTP, "request canceled", ctx.Err())
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, errors.New(errors.KindHTTP, "creating request failed", err)
		}
		req.Header = reqHeaders.Clone()

		resp, err := c.http.Do(req)
		if err != nil {
			if !isRetryableError(err) || attempt == maxAttempts-1 {
				return nil, errors.New(errors.KindHTTP, "request failed", err)
			}
			lastErr = err
			if !sleepBackoff(ctx, &backoff, maxBackoff) {
				return nil, errors.New(errors.KindHTTP, "request canceled during backoff", ctx.Err())
			}
			continue
		}

		if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts-1 {
			resp.Body.Close()
			lastErr = errors.New(errors.KindHTTP, "retryable HTTP status", nil).WithPartial(map[string]any{"status": resp.StatusCode})
			if !sleepBackoff(ctx, &backoff, maxBackoff) {
				return nil, errors.New(errors.KindHTTP, "request canceled during backoff", ctx.Err())
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			if attempt == maxAttempts-1 {
				return nil, errors.New(errors.KindHTTP, "reading response failed", readErr)
			}
			lastErr = readErr
			if !sleepBackoff(ctx, &backoff, maxBackoff) {
				return nil, errors.New(errors.KindHTTP, "request canceled during backoff", ctx.Err())
			}
			continue
		}

		out := &Response{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
			FetchedAt:  time.Now(),
		}

		if resp.StatusCode == http.StatusOK {
			c.cache.Set(rawURL, out)
		}

		return out, nil
	}

	if lastErr != nil {
		return nil, errors.New(errors.KindHTTP, "request failed after retries", lastErr)
	}
	return nil, errors.New(errors.KindHTTP, "request failed for unknown reasons", nil)
}

// Head performs a robots-compliant, politely-paced HTTP HEAD request
// (spec §4.1 Layer 0: "Perform HEAD requests on a sampled subset").
// Unlike Fetch, the result is never cached and carries no body.
func (c *Client) Head(ctx context.Context, rawURL string) (*Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New(errors.KindHTTP, "invalid URL", err)
	}
	hostKey := parsed.Host

	if err := c.limiter.Acquire(ctx, hostKey); err != nil {
		return nil, errors.New(errors.KindHTTP, "acquiring concurrency slot failed", err)
	}
	defer c.limiter.Release(hostKey)

	if c.cfg.RespectRobots {
		allowed, err := c.robots.allowed(ctx, rawURL, c.cfg.UserAgent, c.http)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, errors.New(errors.KindRobots, "access disallowed by robots.txt", nil)
		}
	}

	interval := c.cfg.MinRequestInterval
	if c.cfg.RespectRobots {
		robotsHostKey := parsed.Scheme + "://" + parsed.Host
		if d := c.robots.crawlDelay(robotsHostKey, c.cfg.UserAgent); d > interval {
			interval = d
		}
	}
	if err := c.pace.Wait(ctx, hostKey, interval); err != nil {
		return nil, errors.New(errors.KindHTTP, "request canceled while pacing", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, errors.New(errors.KindHTTP, "creating request failed", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New(errors.KindHTTP, "HEAD request failed", err)
	}
	resp.Body.Close()

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		FetchedAt:  time.Now(),
	}, nil
}

// Robots returns the parsed robots.txt rules for domain (scheme://host,
// e.g. "https://example.com"), fetching and caching it if necessary.
// internal/acquire's Layer 0 uses this to enumerate declared Sitemap
// directives (spec §4.1).
func (c *Client) Robots(ctx context.Context, domain string) (*robots.Robots, error) {
	entry, err := c.robots.fetch(ctx, domain, c.http)
	if err != nil {
		return nil, err
	}
	return entry.rules, nil
}

// sleepBackoff sleeps for the current backoff (or until ctx is done,
// returning false), then doubles backoff up to maxBackoff.
func sleepBackoff(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	select {
	case <-time.After(*backoff):
	case <-ctx.Done():
		return false
	}
	*backoff *= 2
	if *backoff > maxBackoff {
		*backoff = maxBackoff
	}
	return true
}

// isRetryableError reports whether the error is likely transient.
func isRetryableError(err error) bool {
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}

// isRetryableStatus reports whether an HTTP status warrants a retry
// (429 and 5xx, per the backoff policy in spec §5).
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
