package cortex

import (
	"context"
	"testing"
	"time"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/httpclient"
	"github.com/cortexlabs/cortex/internal/log"
	"github.com/cortexlabs/cortex/internal/mapcache"
	"github.com/cortexlabs/cortex/internal/query"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// testDaemon builds a Daemon with a pre-populated two-node SiteMap
// registered under a handle, bypassing acquisition entirely so
// Query/Pathfind/Refresh can be exercised without network access.
func testDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()

	cfg := config.Default()
	logger := log.New(false)
	d := &Daemon{
		cfg:     cfg,
		logger:  logger,
		http:    httpclient.New(cfg, logger),
		cache:   mapcache.NewManager(cfg, nil, logger),
		handles: newHandleRegistry(),
	}

	b := sitegraph.NewBuilder("example.com")
	rootRow := make([]float32, sitegraph.FeatureDims)
	aboutRow := make([]float32, sitegraph.FeatureDims)
	aboutRow[48] = 19.99

	rootIdx, err := b.AddNode("https://example.com/", sitegraph.PageHome, rootRow, 0.9)
	if err != nil {
		t.Fatalf("AddNode root: %v", err)
	}
	aboutIdx, err := b.AddNode("https://example.com/about", sitegraph.PageAboutPage, aboutRow, 0.8)
	if err != nil {
		t.Fatalf("AddNode about: %v", err)
	}
	if err := b.AddEdge(rootIdx, aboutIdx, sitegraph.EdgeNavigation, 10, 0); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	m, err := b.Build(sitegraph.BuildOptions{MappedAt: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entry, _, err := d.cache.GetOrBuild(context.Background(), "example.com", nil, false, func(context.Context) (*sitegraph.SiteMap, error) {
		return m, nil
	})
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	entry.Release()

	path := mapcache.CacheKey("example.com", nil)
	d.handles.register(path, "example.com", nil)

	return d, path
}

func TestQuery_FiltersByPageType(t *testing.T) {
	d, path := testDaemon(t)
	defer d.cache.Close()

	res, err := d.Query(path, QueryOptions{
		Filters: QueryFilters{PageTypes: []sitegraph.PageType{sitegraph.PageAboutPage}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.TotalMatches != 1 || res.Nodes[0].URL != "https://example.com/about" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestQuery_UnknownMapPath(t *testing.T) {
	d, _ := testDaemon(t)
	defer d.cache.Close()

	if _, err := d.Query("not-a-real-path", QueryOptions{}); err == nil {
		t.Fatal("expected an error for an unknown map_path")
	}
}

func TestPathfind_FindsDirectEdge(t *testing.T) {
	d, path := testDaemon(t)
	defer d.cache.Close()

	res, err := d.Pathfind(path, PathfindOptions{From: 0, To: 1, Minimize: query.MinimizeHops})
	if err != nil {
		t.Fatalf("Pathfind: %v", err)
	}
	if len(res.Path) != 2 || res.Hops != 1 {
		t.Fatalf("unexpected path: %+v", res)
	}
}

func TestRefresh_UnknownMapPath(t *testing.T) {
	d, _ := testDaemon(t)
	defer d.cache.Close()

	if _, err := d.Refresh(context.Background(), "not-a-real-path", RefreshRequest{NodeIndices: []int{0}}); err == nil {
		t.Fatal("expected an error for an unknown map_path")
	}
}

func TestProgressiveRefresh_StopsOnContextCancel(t *testing.T) {
	d, path := testDaemon(t)
	defer d.cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := d.ProgressiveRefresh(ctx, path, time.Millisecond, 0.5)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to close without emitting a result")
		}
	case <-time.After(time.Second):
		t.Fatal("ProgressiveRefresh did not stop after context cancellation")
	}
}

func TestSelectRefreshIndices_CombinesSelectors(t *testing.T) {
	b := sitegraph.NewBuilder("example.com")
	row := make([]float32, sitegraph.FeatureDims)
	if _, err := b.AddNode("https://example.com/", sitegraph.PageHome, row, 0.9); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := b.AddNode("https://example.com/a", sitegraph.PageArticle, row, 0.9); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	m, err := b.Build(sitegraph.BuildOptions{MappedAt: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m.Nodes[1].Freshness = 0.1

	threshold := 0.5
	got := selectRefreshIndices(m, RefreshRequest{
		NodeIndices:        []int{0},
		FreshnessThreshold: &threshold,
	})
	if len(got) != 2 {
		t.Fatalf("selectRefreshIndices = %v, want both nodes selected", got)
	}
}
