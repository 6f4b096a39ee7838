// internal/config/load.go
//
// Optional configuration loaders. The daemon process that owns startup
// (out of scope for this package, per spec §1) may call these helpers
// to populate a Config before constructing a cortex.Daemon; the core
// itself never reads files or environment variables on its own.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadEnv reads a .env-style file (if present) into the process
// environment and overlays a handful of well-known CORTEX_* variables
// onto cfg. An empty envFile skips loading; a missing or unreadable
// envFile is returned as godotenv.Load's error, which callers may
// choose to ignore.
func LoadEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err
		}
	}

	if v := os.Getenv("CORTEX_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("CORTEX_MAX_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxNodes = n
		}
	}
	if v := os.Getenv("CORTEX_MAX_RENDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRender = n
		}
	}
	if v := os.Getenv("CORTEX_MAP_CACHE_DIR"); v != "" {
		cfg.MapCacheDirectory = v
	}
	if v := os.Getenv("CORTEX_REDIS_ADDRESS"); v != "" {
		cfg.RedisAddress = v
		cfg.EnableRedisCache = true
	}
	return nil
}

// yamlConfig mirrors the subset of Config that is reasonable to express
// in a daemon YAML config file. Durations are expressed in milliseconds
// to keep the file format simple.
type yamlConfig struct {
	UserAgent            string `yaml:"user_agent"`
	MaxNodes             int    `yaml:"max_nodes"`
	MaxRender            int    `yaml:"max_render"`
	MaxTimeMillis        int    `yaml:"max_time_ms"`
	RespectRobots        *bool  `yaml:"respect_robots"`
	FetchConcurrency     int    `yaml:"fetch_concurrency"`
	PerDomainConcurrency int    `yaml:"per_domain_concurrency"`
	RenderPoolSize       int    `yaml:"render_pool_size"`
	MapCacheTTLSeconds   int    `yaml:"map_cache_ttl_seconds"`
	MapCacheCapacity     int    `yaml:"map_cache_capacity"`
	MapCacheDirectory    string `yaml:"map_cache_directory"`
	MapCacheS3Bucket     string `yaml:"map_cache_s3_bucket"`
	MapCacheS3Region     string `yaml:"map_cache_s3_region"`
}

// LoadYAML overlays a YAML config file onto cfg. Zero-valued fields in
// the file are left untouched on cfg so that partial files compose with
// Default().
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return err
	}

	if y.UserAgent != "" {
		cfg.UserAgent = y.UserAgent
	}
	if y.MaxNodes > 0 {
		cfg.MaxNodes = y.MaxNodes
	}
	if y.MaxRender > 0 {
		cfg.MaxRender = y.MaxRender
	}
	if y.MaxTimeMillis > 0 {
		cfg.MaxTimeMillis = y.MaxTimeMillis
	}
	if y.RespectRobots != nil {
		cfg.RespectRobots = *y.RespectRobots
	}
	if y.FetchConcurrency > 0 {
		cfg.FetchConcurrency = y.FetchConcurrency
	}
	if y.PerDomainConcurrency > 0 {
		cfg.PerDomainConcurrency = y.PerDomainConcurrency
	}
	if y.RenderPoolSize > 0 {
		cfg.RenderPoolSize = y.RenderPoolSize
	}
	if y.MapCacheTTLSeconds > 0 {
		cfg.MapCacheTTL = time.Duration(y.MapCacheTTLSeconds) * time.Second
	}
	if y.MapCacheCapacity > 0 {
		cfg.MapCacheCapacity = y.MapCacheCapacity
	}
	if y.MapCacheDirectory != "" {
		cfg.MapCacheDirectory = y.MapCacheDirectory
	}
	if y.MapCacheS3Bucket != "" {
		cfg.MapCacheS3Bucket = y.MapCacheS3Bucket
	}
	if y.MapCacheS3Region != "" {
		cfg.MapCacheS3Region = y.MapCacheS3Region
	}
	return nil
}
