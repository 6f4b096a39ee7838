package query

import (
	"testing"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func buildLinearMap(t *testing.T) *sitegraph.SiteMap {
	t.Helper()
	b := sitegraph.NewBuilder("example.com")
	urls := []string{
		"https://example.com/",
		"https://example.com/a",
		"https://example.com/b",
	}
	for i, u := range urls {
		row := make([]float32, sitegraph.FeatureDims)
		row[0] = float32(i) + 1
		if _, err := b.AddNode(u, sitegraph.PageArticle, row, 0.8); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := b.AddEdge(0, 1, sitegraph.EdgePagination, 3, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEdge(1, 2, sitegraph.EdgePagination, 7, 0); err != nil {
		t.Fatal(err)
	}
	m, err := b.Build(sitegraph.BuildOptions{MappedAt: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestFilter_ByPageType(t *testing.T) {
	m := buildLinearMap(t)
	out := Filter(m, FilterQuery{
		PageTypes: map[sitegraph.PageType]bool{sitegraph.PageArticle: true},
	})
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
}

func TestFilter_RequireFlagsNeedsAllBitsSet(t *testing.T) {
	b := sitegraph.NewBuilder("example.com")
	row := make([]float32, sitegraph.FeatureDims)
	if _, err := b.AddNode("https://example.com/", sitegraph.PageHome, row, 0.8); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := b.AddNode("https://example.com/a", sitegraph.PageArticle, row, 0.8); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := b.AddNode("https://example.com/b", sitegraph.PageArticle, row, 0.8); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	// node 1 has only one of the two required flags; node 2 has both.
	if err := b.SetNodeMeta(1, func(n *sitegraph.Node) { n.Flags = sitegraph.FlagHasForm }); err != nil {
		t.Fatal(err)
	}
	if err := b.SetNodeMeta(2, func(n *sitegraph.Node) {
		n.Flags = sitegraph.FlagHasForm | sitegraph.FlagHasPrice
	}); err != nil {
		t.Fatal(err)
	}
	m, err := b.Build(sitegraph.BuildOptions{MappedAt: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out := Filter(m, FilterQuery{RequireFlags: sitegraph.FlagHasForm | sitegraph.FlagHasPrice})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (only node with both required flags set)", len(out))
	}
	if out[0].Index != 2 {
		t.Fatalf("matched index = %d, want 2", out[0].Index)
	}
}

func TestFilter_SortByConfidenceDescending(t *testing.T) {
	m := buildLinearMap(t)
	out := Filter(m, FilterQuery{Sort: &SortKey{ByConfidence: true, Descending: true}})
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
}

func TestNearestNeighbour_TopK(t *testing.T) {
	m := buildLinearMap(t)
	q := make([]float32, sitegraph.FeatureDims)
	q[0] = 3.0
	out := NearestNeighbour(m, q, 1)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Index != 0 {
		t.Fatalf("top neighbour index = %d, want 0 (every row is parallel to q, so cosine similarity ties at 1 and the lower index wins)", out[0].Index)
	}
}

func TestPathfind_HopsMode(t *testing.T) {
	m := buildLinearMap(t)
	path, err := Pathfind(m, PathfindQuery{From: 0, To: 2, Minimize: MinimizeHops})
	if err != nil {
		t.Fatalf("Pathfind: %v", err)
	}
	if path == nil {
		t.Fatal("expected a path 0->2")
	}
	if path.Hops != 2 {
		t.Fatalf("Hops = %d, want 2", path.Hops)
	}
}

func TestPathfind_HopsTieBreaksOnLowestMiddleNodeIndex(t *testing.T) {
	// Diamond graph: A(0) -> B(1) -> D(3) and A(0) -> C(2) -> D(3), both
	// two hops. Edges to D are added via C before B, so a naive
	// edge-insertion-order tie-break would pick C; the lowest middle
	// node index (B) must win regardless (spec S4).
	b := sitegraph.NewBuilder("example.com")
	row := make([]float32, sitegraph.FeatureDims)
	for _, u := range []string{
		"https://example.com/a", "https://example.com/b",
		"https://example.com/c", "https://example.com/d",
	} {
		if _, err := b.AddNode(u, sitegraph.PageArticle, row, 0.8); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := b.AddEdge(0, 2, sitegraph.EdgeNavigation, 10, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEdge(0, 1, sitegraph.EdgeNavigation, 10, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEdge(2, 3, sitegraph.EdgeNavigation, 10, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEdge(1, 3, sitegraph.EdgeNavigation, 10, 0); err != nil {
		t.Fatal(err)
	}
	m, err := b.Build(sitegraph.BuildOptions{MappedAt: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path, err := Pathfind(m, PathfindQuery{From: 0, To: 3, Minimize: MinimizeHops})
	if err != nil {
		t.Fatalf("Pathfind: %v", err)
	}
	if path == nil {
		t.Fatal("expected a path 0->3")
	}
	want := []int{0, 1, 3}
	if len(path.Nodes) != len(want) {
		t.Fatalf("Nodes = %v, want %v", path.Nodes, want)
	}
	for i := range want {
		if path.Nodes[i] != want[i] {
			t.Fatalf("Nodes = %v, want %v (lowest middle-node-index B=1 should win over C=2)", path.Nodes, want)
		}
	}
}

func TestPathfind_NoPathReturnsNilNotError(t *testing.T) {
	m := buildLinearMap(t)
	path, err := Pathfind(m, PathfindQuery{From: 2, To: 1, Minimize: MinimizeHops})
	if err != nil {
		t.Fatalf("Pathfind: %v", err)
	}
	if path != nil {
		t.Fatalf("expected no path from 2 to 1 (pagination is directional), got %+v", path)
	}
}
