package codec

import (
	"bytes"
	"testing"

	cerrors "github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func buildTestMap(t *testing.T) *sitegraph.SiteMap {
	t.Helper()
	b := sitegraph.NewBuilder("example.com")
	root := make([]float32, sitegraph.FeatureDims)
	root[0] = 1.0
	if _, err := b.AddNode("https://example.com/", sitegraph.PageHome, root, 0.9); err != nil {
		t.Fatalf("AddNode root: %v", err)
	}
	child := make([]float32, sitegraph.FeatureDims)
	child[1] = 0.5
	if _, err := b.AddNode("https://example.com/about", sitegraph.PageAboutPage, child, 0.7); err != nil {
		t.Fatalf("AddNode child: %v", err)
	}
	if err := b.AddEdge(0, 1, sitegraph.EdgeNavigation, 5, 0); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	m, err := b.Build(sitegraph.BuildOptions{MappedAt: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	m := buildTestMap(t)

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Domain != m.Domain {
		t.Errorf("Domain = %q, want %q", got.Domain, m.Domain)
	}
	if len(got.Nodes) != len(m.Nodes) {
		t.Fatalf("len(Nodes) = %d, want %d", len(got.Nodes), len(m.Nodes))
	}
	for i := range got.Nodes {
		if got.Nodes[i].URL != m.Nodes[i].URL {
			t.Errorf("node %d URL = %q, want %q", i, got.Nodes[i].URL, m.Nodes[i].URL)
		}
		if got.Nodes[i].PageType != m.Nodes[i].PageType {
			t.Errorf("node %d PageType = %v, want %v", i, got.Nodes[i].PageType, m.Nodes[i].PageType)
		}
	}
	if len(got.Edges) != len(m.Edges) {
		t.Fatalf("len(Edges) = %d, want %d", len(got.Edges), len(m.Edges))
	}
}

func TestDecode_BadMagicIsMapCorrupt(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, headerSize))
	_, err := Decode(buf)
	if err == nil {
		t.Fatal("expected error for all-zero header")
	}
	cerr, ok := err.(*cerrors.Error)
	if !ok {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if cerr.Kind != cerrors.KindMapCorrupt {
		t.Fatalf("Kind = %v, want KindMapCorrupt", cerr.Kind)
	}
}

func TestDecode_TruncatedStreamIsMapCorrupt(t *testing.T) {
	m := buildTestMap(t)
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-10])
	_, err := Decode(truncated)
	if err == nil {
		t.Fatal("expected error for truncated stream")
	}
	cerr, ok := err.(*cerrors.Error)
	if !ok {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if cerr.Kind != cerrors.KindMapCorrupt {
		t.Fatalf("Kind = %v, want KindMapCorrupt", cerr.Kind)
	}
}
