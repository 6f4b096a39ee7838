package mapcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func buildTestMap(t *testing.T, domain string) *sitegraph.SiteMap {
	t.Helper()
	b := sitegraph.NewBuilder(domain)
	root := make([]float32, sitegraph.FeatureDims)
	root[0] = 1.0
	if _, err := b.AddNode("https://"+domain+"/", sitegraph.PageHome, root, 0.9); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	m, err := b.Build(sitegraph.BuildOptions{MappedAt: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestCache_PutAndLookup(t *testing.T) {
	cfg := config.Default()
	cache := NewCache(cfg, nil, nil)

	m := buildTestMap(t, "example.com")
	entry := cache.Put("example.com", nil, m)
	defer entry.Release()

	got, ok := cache.Lookup("example.com", nil, false)
	if !ok {
		t.Fatal("expected a cache hit after Put")
	}
	defer got.Release()

	if got.Map != m {
		t.Fatal("Lookup returned a different SiteMap than was Put")
	}
}

func TestCache_RefreshForcesMiss(t *testing.T) {
	cfg := config.Default()
	cache := NewCache(cfg, nil, nil)

	entry := cache.Put("example.com", nil, buildTestMap(t, "example.com"))
	entry.Release()

	if _, ok := cache.Lookup("example.com", nil, true); ok {
		t.Fatal("refresh=true must always report a miss")
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cfg := config.Default()
	cfg.MapCacheCapacity = 2
	cache := NewCache(cfg, nil, nil)

	for _, d := range []string{"a.com", "b.com", "c.com"} {
		cache.Put(d, nil, buildTestMap(t, d)).Release()
	}

	if cache.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cache.Len())
	}
	if _, ok := cache.Lookup("a.com", nil, false); ok {
		t.Fatal("a.com should have been evicted as least-recently-used")
	}
	if _, ok := cache.Lookup("c.com", nil, false); !ok {
		t.Fatal("c.com should still be cached")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	cfg := config.Default()
	cfg.MapCacheTTL = time.Millisecond
	cache := NewCache(cfg, nil, nil)

	cache.Put("example.com", nil, buildTestMap(t, "example.com")).Release()
	time.Sleep(5 * time.Millisecond)

	if _, ok := cache.Lookup("example.com", nil, false); ok {
		t.Fatal("entry should have expired")
	}
}

func TestEntry_EvictionWaitsForReleases(t *testing.T) {
	cfg := config.Default()
	cfg.MapCacheCapacity = 1
	cache := NewCache(cfg, nil, nil)

	held := cache.Put("a.com", nil, buildTestMap(t, "a.com"))
	defer held.Release()

	// Forcing a second Put evicts "a.com" while held is still acquired.
	cache.Put("b.com", nil, buildTestMap(t, "b.com")).Release()

	if !held.evicted {
		t.Fatal("expected a.com's entry to be marked evicted")
	}
}

func TestGroup_CoalescesConcurrentCalls(t *testing.T) {
	g := NewGroup()

	var builds int32
	build := func() (*sitegraph.SiteMap, error) {
		atomic.AddInt32(&builds, 1)
		time.Sleep(20 * time.Millisecond)
		return buildTestMap(t, "example.com"), nil
	}

	results := make(chan Result, 5)
	for i := 0; i < 5; i++ {
		go func() {
			results <- g.Do("example.com", build)
		}()
	}

	for i := 0; i < 5; i++ {
		<-results
	}

	if got := atomic.LoadInt32(&builds); got != 1 {
		t.Fatalf("builds = %d, want 1 (single-flight should coalesce)", got)
	}
}

func TestManager_GetOrBuild_CachesResult(t *testing.T) {
	cfg := config.Default()
	mgr := NewManager(cfg, nil, nil)

	var calls int32
	build := func(context.Context) (*sitegraph.SiteMap, error) {
		atomic.AddInt32(&calls, 1)
		return buildTestMap(t, "example.com"), nil
	}

	e1, _, err := mgr.GetOrBuild(context.Background(), "example.com", nil, false, build)
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	e1.Release()

	e2, _, err := mgr.GetOrBuild(context.Background(), "example.com", nil, false, build)
	if err != nil {
		t.Fatalf("GetOrBuild (second): %v", err)
	}
	e2.Release()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("build called %d times, want 1 (second call should hit cache)", got)
	}
}

func TestManager_Refresh(t *testing.T) {
	cfg := config.Default()
	mgr := NewManager(cfg, nil, nil)

	build := func(context.Context) (*sitegraph.SiteMap, error) {
		return buildTestMap(t, "example.com"), nil
	}
	entry, _, err := mgr.GetOrBuild(context.Background(), "example.com", nil, false, build)
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	entry.Release()

	var sawNodeCount int
	err = mgr.Refresh("example.com", nil, func(m *sitegraph.SiteMap) error {
		sawNodeCount = len(m.Nodes)
		return nil
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if sawNodeCount != 1 {
		t.Fatalf("sawNodeCount = %d, want 1", sawNodeCount)
	}
}

func TestManager_RefreshNotCached(t *testing.T) {
	cfg := config.Default()
	mgr := NewManager(cfg, nil, nil)

	err := mgr.Refresh("unknown.com", nil, func(*sitegraph.SiteMap) error { return nil })
	if err != ErrNotCached {
		t.Fatalf("err = %v, want ErrNotCached", err)
	}
}
