package cortex

import (
	"testing"

	"github.com/cortexlabs/cortex/internal/acquire"
	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func TestMapParamsFrom_NormalizesKnobs(t *testing.T) {
	p := mapParamsFrom(MapOptions{
		EntryPoints:   []string{"https://example.com/a", "https://example.com/b"},
		MaxNodes:      100,
		MaxRender:     10,
		MaxTimeMillis: 5000,
		RespectRobots: true,
		Refresh:       true, // must not leak into params
	})

	if p["entry_points"] != "https://example.com/a,https://example.com/b" {
		t.Fatalf("entry_points = %q", p["entry_points"])
	}
	if p["max_nodes"] != "100" || p["max_render"] != "10" || p["max_time_ms"] != "5000" {
		t.Fatalf("unexpected params: %+v", p)
	}
	if _, ok := p["refresh"]; ok {
		t.Fatal("refresh must not be part of the cache key params")
	}
}

func TestReorderRootFirst_MovesMatchingRootToIndexZero(t *testing.T) {
	pages := []acquire.PageResult{
		{URL: "https://example.com/about"},
		{URL: "https://example.com/"},
		{URL: "https://example.com/contact"},
	}

	out := reorderRootFirst(pages, "example.com", nil)
	if out[0].URL != "https://example.com/" {
		t.Fatalf("out[0].URL = %q, want root", out[0].URL)
	}
	if len(out) != len(pages) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(pages))
	}
}

func TestReorderRootFirst_NoMatchLeavesOrderUntouched(t *testing.T) {
	pages := []acquire.PageResult{
		{URL: "https://example.com/about"},
		{URL: "https://example.com/contact"},
	}
	out := reorderRootFirst(pages, "example.com", []string{"https://example.com/entry"})
	if out[0].URL != pages[0].URL {
		t.Fatalf("order should be unchanged when no page matches the entry point")
	}
}

func TestReorderRootFirst_PrefersEntryPoint(t *testing.T) {
	pages := []acquire.PageResult{
		{URL: "https://example.com/"},
		{URL: "https://example.com/catalog"},
	}
	out := reorderRootFirst(pages, "example.com", []string{"https://example.com/catalog"})
	if out[0].URL != "https://example.com/catalog" {
		t.Fatalf("out[0].URL = %q, want the explicit entry point", out[0].URL)
	}
}

func TestNodeFlagsFor(t *testing.T) {
	p := acquire.PageResult{
		Rendered:  true,
		Estimated: false,
		StructuredData: &extract.StructuredData{
			Images: []ihtml.Image{{Src: "https://example.com/photo.jpg"}},
		},
	}
	flags := nodeFlagsFor(p)
	if !flags.Has(sitegraph.FlagRendered) {
		t.Fatal("expected FlagRendered")
	}
	if !flags.Has(sitegraph.FlagHasMedia) {
		t.Fatal("expected FlagHasMedia")
	}
	if flags.Has(sitegraph.FlagEstimated) {
		t.Fatal("did not expect FlagEstimated")
	}
}

func TestContentHash_StableAndSensitiveToText(t *testing.T) {
	a := &extract.StructuredData{Title: "Widgets"}
	b := &extract.StructuredData{Title: "Gadgets"}

	if contentHash(a) != contentHash(a) {
		t.Fatal("contentHash must be deterministic for identical input")
	}
	if contentHash(a) == contentHash(b) {
		t.Fatal("contentHash should differ for different titles")
	}
	if contentHash(nil) != 0 {
		t.Fatal("contentHash(nil) should be 0")
	}
}

func TestShouldInferEdges(t *testing.T) {
	var many []acquire.PageResult
	for i := 0; i < 30; i++ {
		many = append(many, acquire.PageResult{Rendered: i < 2})
	}
	if !shouldInferEdges(&acquire.Result{Pages: many}) {
		t.Fatal("expected edge inference for many nodes with few rendered")
	}

	var few []acquire.PageResult
	for i := 0; i < 5; i++ {
		few = append(few, acquire.PageResult{Rendered: true})
	}
	if shouldInferEdges(&acquire.Result{Pages: few}) {
		t.Fatal("did not expect edge inference for a small, fully-rendered page set")
	}
}
