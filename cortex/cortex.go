// cortex/cortex.go
//
// Package cortex provides the public entrypoint for the Cortex
// cartography core: it converts a website into an in-memory SiteMap
// graph (MAP), queries that graph (QUERY, PATHFIND), and keeps it
// current (REFRESH) — the local daemon a navigation agent talks to.
//
// The Daemon owns the three pieces of process-wide state spec §5
// names: the HTTP client's connection pool, the renderer pool, and the
// SiteMap cache. All three are initialized at construction and torn
// down by Close.
package cortex

import (
	"fmt"
	"time"

	"github.com/cortexlabs/cortex/internal/acquire"
	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/httpclient"
	"github.com/cortexlabs/cortex/internal/log"
	"github.com/cortexlabs/cortex/internal/mapcache"
	"github.com/cortexlabs/cortex/internal/render"
	"github.com/cortexlabs/cortex/internal/version"
)

// DefaultUserAgent is the default HTTP User-Agent Cortex uses when
// acquiring a site, identifying the daemon for operators reading logs.
const DefaultUserAgent = "CortexMapBot/1.0 (+https://github.com/cortexlabs/cortex)"

// Daemon is the main public interface for using Cortex.
//
// A Daemon owns an HTTP client, an optional headless renderer, the
// SiteMap cache/single-flight layer, and the acquisition engine built
// on top of them. Construct one with New and Close it when done.
type Daemon struct {
	cfg      *config.Config
	logger   log.Logger
	http     *httpclient.Client
	renderer render.Renderer // nil unless WithRenderer(true) was passed
	cache    *mapcache.Manager
	engine   *acquire.Engine

	handles *handleRegistry
}

// Config is the public, inspectable view of effective Cortex
// configuration. Kept separate from internal/config.Config so internal
// changes never break the public API surface.
type Config struct {
	UserAgent          string
	RequestTimeout     time.Duration
	MaxConcurrentHosts int
	MaxRequestsPerHost int

	EnableDebugLogging bool

	MaxNodes      int
	MaxRender     int
	MaxTimeMillis int
	RespectRobots bool

	MapCacheTTL       time.Duration
	MapCacheCapacity  int
	MapCacheDirectory string
}

// Option is a functional option that modifies the internal
// configuration used to construct a Daemon.
type Option func(*config.Config)

// New constructs a Daemon with optional configuration.
//
// Pipeline:
//  1. Load default internal config (spec §4-5 budgets/caps)
//  2. Apply user-specified Option values
//  3. Ensure a User-Agent is set
//  4. Initialize logger
//  5. Initialize the robots-compliant HTTP client
//  6. Initialize the headless renderer, if enabled
//  7. Initialize the SiteMap cache/single-flight layer, with optional
//     bbolt/S3 persistence
//  8. Initialize the acquisition engine over the above
func New(opts ...Option) (*Daemon, error) {
	cfg := config.Default()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	logger := log.New(cfg.EnableDebugLogging)

	d := &Daemon{
		cfg:     cfg,
		logger:  logger,
		http:    httpclient.New(cfg, logger),
		handles: newHandleRegistry(),
	}

	if cfg.EnableRenderPool {
		r, err := render.NewPlaywrightRenderer(logger)
		if err != nil {
			return nil, fmt.Errorf("cortex: init renderer: %w", err)
		}
		d.renderer = r
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("cortex: init map store: %w", err)
	}
	d.cache = mapcache.NewManager(cfg, store, logger)

	d.engine = acquire.NewEngine(cfg, d.http, d.renderer, logger)

	return d, nil
}

// openStore builds the optional persisted-map store (bbolt, mirrored to
// S3 when configured) named by spec §4.7; a nil MapCacheDirectory
// disables persistence entirely and returns (nil, nil).
func openStore(cfg *config.Config) (*mapcache.Store, error) {
	if cfg.MapCacheDirectory == "" {
		return nil, nil
	}

	var mirror *mapcache.S3Mirror
	if cfg.MapCacheS3Bucket != "" {
		mirror = mapcache.NewS3Mirror(cfg.MapCacheS3Region, cfg.MapCacheS3Bucket, log.New(cfg.EnableDebugLogging))
	}
	return mapcache.OpenStore(cfg.MapCacheDirectory+"/cortex.db", mirror)
}

// Close releases the Daemon's process-wide resources: the renderer
// pool and the persisted map store, if either was initialized.
func (d *Daemon) Close() error {
	var firstErr error
	if d.renderer != nil {
		if err := d.renderer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := d.cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Version returns the public Cortex version string.
func Version() string {
	return fmt.Sprintf("cortex %s", version.CortexVersion)
}

// EffectiveConfig returns the final public configuration in effect for
// the Daemon. Does not expose internal-only config fields.
func (d *Daemon) EffectiveConfig() Config {
	if d == nil || d.cfg == nil {
		return Config{}
	}
	return Config{
		UserAgent:          d.cfg.UserAgent,
		RequestTimeout:     d.cfg.RequestTimeout,
		MaxConcurrentHosts: d.cfg.MaxConcurrentHosts,
		MaxRequestsPerHost: d.cfg.MaxRequestsPerHost,

		EnableDebugLogging: d.cfg.EnableDebugLogging,

		MaxNodes:      d.cfg.MaxNodes,
		MaxRender:     d.cfg.MaxRender,
		MaxTimeMillis: d.cfg.MaxTimeMillis,
		RespectRobots: d.cfg.RespectRobots,

		MapCacheTTL:       d.cfg.MapCacheTTL,
		MapCacheCapacity:  d.cfg.MapCacheCapacity,
		MapCacheDirectory: d.cfg.MapCacheDirectory,
	}
}

//
// ────────────────────────────────────────────────
//      PUBLIC CONFIGURATION OPTIONS
// ────────────────────────────────────────────────
//

// WithUserAgent overrides the default HTTP User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) {
		if ua != "" {
			c.UserAgent = ua
		}
	}
}

// WithRequestTimeout sets the maximum duration any single HTTP request
// may take.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config.Config) {
		if d > 0 {
			c.RequestTimeout = d
		}
	}
}

// WithConcurrency sets concurrency caps for outbound HTTP I/O.
func WithConcurrency(maxHosts, maxPerHost int) Option {
	return func(c *config.Config) {
		if maxHosts > 0 {
			c.MaxConcurrentHosts = maxHosts
		}
		if maxPerHost > 0 {
			c.MaxRequestsPerHost = maxPerHost
		}
	}
}

// WithDebugLogging enables verbose internal logs.
func WithDebugLogging(enabled bool) Option {
	return func(c *config.Config) {
		c.EnableDebugLogging = enabled
	}
}

// WithDefaultBudgets overrides MAP's default node/render/time budgets
// (spec §6: max_nodes=50000, max_render=200, max_time_ms=10000). Any
// zero argument leaves that budget at its current value.
func WithDefaultBudgets(maxNodes, maxRender, maxTimeMillis int) Option {
	return func(c *config.Config) {
		if maxNodes > 0 {
			c.MaxNodes = maxNodes
		}
		if maxRender > 0 {
			c.MaxRender = maxRender
		}
		if maxTimeMillis > 0 {
			c.MaxTimeMillis = maxTimeMillis
		}
	}
}

// WithRespectRobots toggles robots.txt compliance (spec default: true).
func WithRespectRobots(enabled bool) Option {
	return func(c *config.Config) {
		c.RespectRobots = enabled
	}
}

// WithRenderer enables Layer 3 headless-browser render fallback (spec
// §4.1). Disabled by default: pages under the feature-coverage
// threshold stay estimated from Layers 0-2.5 unless this is set.
func WithRenderer(enabled bool) Option {
	return func(c *config.Config) {
		c.EnableRenderPool = enabled
	}
}

// WithMapCache sets the in-memory SiteMap cache's capacity and TTL
// (spec §4.7 default: bounded LRU, 1 hour TTL).
func WithMapCache(capacity int, ttl time.Duration) Option {
	return func(c *config.Config) {
		if capacity > 0 {
			c.MapCacheCapacity = capacity
		}
		if ttl > 0 {
			c.MapCacheTTL = ttl
		}
	}
}

// WithMapCachePersistence enables bbolt-backed CTX persistence at dir,
// optionally mirroring to an S3 bucket (spec §4.7: "optionally
// persisted as a binary file"; Domain Stack table: "Optional remote
// CTX object storage").
func WithMapCachePersistence(dir, s3Region, s3Bucket string) Option {
	return func(c *config.Config) {
		c.MapCacheDirectory = dir
		c.MapCacheS3Region = s3Region
		c.MapCacheS3Bucket = s3Bucket
	}
}
