// internal/config/config.go
//
// Package config defines internal configuration structures for Cortex.
// This package is internal to preserve flexibility: we may add, change,
// or remove fields without breaking the public API as long as the
// externally visible behavior of cortex.Daemon remains consistent.
package config

import "time"

// Config holds core configuration values used across Cortex's cartography
// core: HTTP fetch behavior, acquisition budgets and layer caps, the
// render pool, and the SiteMap cache.
type Config struct {
	// HTTP settings
	UserAgent          string
	RequestTimeout     time.Duration
	MaxConcurrentHosts int
	MaxRequestsPerHost int

	// Logging
	EnableDebugLogging bool

	// --- Acquisition budgets (spec §4.1) ---

	// MaxNodes is the default node cap for a MAP call (spec default 50000).
	MaxNodes int
	// MaxRender is the default Layer 3 render budget (spec default 200).
	MaxRender int
	// MaxTimeMillis is the default overall deadline (spec default 10000).
	MaxTimeMillis int
	// RespectRobots toggles robots.txt compliance; true by default.
	RespectRobots bool
	// RobotsOverrideEnabled, together with RobotsAllowedHosts, lets an
	// operator explicitly opt a specific host out of robots.txt checks.
	// Off by default; robots.txt is honored unless a host is listed here.
	RobotsOverrideEnabled bool
	RobotsAllowedHosts    []string

	// Layer0Fraction / Layer3Fraction are the fraction of the overall
	// deadline reserved for Layer 0 (cap, spec: 0.4) and by which Layer 3
	// must finish (spec: 0.8). The remaining (1-Layer3Fraction) is
	// reserved for Builder/Encoder.
	Layer0Fraction float64
	Layer3Fraction float64

	// FeatureCoverageThreshold is the coverage ratio (default 0.20) below
	// which a page is eligible for Layer 3 render fallback, and the ratio
	// (default 0.50) below which Layer 1.5's pattern engine runs is a
	// separate constant (see PatternEngineThreshold).
	FeatureCoverageThreshold float64
	PatternEngineThreshold   float64

	// SitemapNestingCap bounds recursive sitemap-index expansion (spec: 5).
	SitemapNestingCap int
	// CrawlURLCap bounds BFS crawl-discovery URL count (spec default 500).
	CrawlURLCap int
	// HeadSampleCap bounds how many URLs get a HEAD probe (spec default 100).
	HeadSampleCap int

	// FetchConcurrency is the global in-flight HTTP request cap (spec: 8).
	FetchConcurrency int
	// PerDomainConcurrency caps concurrent requests to one domain (spec: 5).
	PerDomainConcurrency int
	// MinRequestInterval is the politeness floor between requests to one
	// domain (spec: 50ms), overridden upward by a robots Crawl-delay.
	MinRequestInterval time.Duration

	// RetryBaseDelay/RetryMaxDelay/RetryMaxAttempts implement the 429/5xx
	// exponential back-off policy (spec: base 500ms, x2, cap 30s, 5 retries).
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int

	// EnableRenderPool turns on Layer 3 headless-browser rendering; off
	// by default so a Daemon never pays for a browser it didn't ask for.
	EnableRenderPool bool
	// RenderPoolSize bounds concurrent headless-render contexts (spec: 8).
	RenderPoolSize int
	// RenderNavigateTimeout bounds a single render navigation (spec: 10s).
	RenderNavigateTimeout time.Duration
	// RenderIdleRecycle / RenderMaxAge bound renderer context lifetime
	// (spec §5: recycle idle>5m, kill at age>30m).
	RenderIdleRecycle time.Duration
	RenderMaxAge      time.Duration

	// --- SiteMap cache (spec §4.7) ---

	MapCacheTTL      time.Duration
	MapCacheCapacity int
	// MapCacheDirectory, if set, enables bbolt-backed persistence of CTX
	// blobs so that a cold daemon restart can memory-map an existing map.
	MapCacheDirectory string
	// MapCacheS3Bucket, if set, additionally mirrors persisted CTX blobs
	// to S3 (see internal/mapcache/s3store.go).
	MapCacheS3Bucket string
	MapCacheS3Region string

	// EnablePricePercentile turns on the category-aware post-pass for
	// feature dimension 62 (spec §9 Open Question #4); off by default.
	EnablePricePercentile bool

	// --- Generic byte cache (reused by the HTTP response cache) ---

	CacheTTL          time.Duration
	MaxCacheEntries   int
	EnableMemoryCache bool
	EnableFileCache   bool
	CacheDirectory    string
	EnableRedisCache  bool
	RedisAddress      string
}

// Default constructs a Config with the budgets and caps given in spec §4-5.
func Default() *Config {
	return &Config{
		UserAgent:          "",
		RequestTimeout:     defaultRequestTimeout,
		MaxConcurrentHosts: defaultMaxConcurrentHosts,
		MaxRequestsPerHost: defaultMaxRequestsPerHost,
		EnableDebugLogging: false,

		MaxNodes:      50000,
		MaxRender:     200,
		MaxTimeMillis: 10000,
		RespectRobots: true,
		RobotsOverrideEnabled: false,

		Layer0Fraction:           0.40,
		Layer3Fraction:           0.80,
		FeatureCoverageThreshold: 0.20,
		PatternEngineThreshold:   0.50,

		SitemapNestingCap: 5,
		CrawlURLCap:       500,
		HeadSampleCap:     100,

		FetchConcurrency:     8,
		PerDomainConcurrency: 5,
		MinRequestInterval:   50 * time.Millisecond,

		RetryBaseDelay:   500 * time.Millisecond,
		RetryMaxDelay:    30 * time.Second,
		RetryMaxAttempts: 5,

		EnableRenderPool:      false,
		RenderPoolSize:        8,
		RenderNavigateTimeout: 10 * time.Second,
		RenderIdleRecycle:     5 * time.Minute,
		RenderMaxAge:          30 * time.Minute,

		MapCacheTTL:      time.Hour,
		MapCacheCapacity: 10,

		EnablePricePercentile: false,

		CacheTTL:        defaultCacheTTL,
		MaxCacheEntries: defaultMaxCacheEntries,

		EnableMemoryCache: true,
		EnableFileCache:   false,
		EnableRedisCache:  false,

		CacheDirectory: "",
		RedisAddress:   "",
	}
}
