package codec

import (
	"bytes"
	"testing"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func TestQuantize8_RoundTripsWithinOneLevel(t *testing.T) {
	cases := []float64{0, 0.1, 0.3, 0.5, 0.75, 0.9, 1.0}
	for _, v := range cases {
		b := quantize8(v)
		got := dequantize8(b)
		if diff := got - v; diff > 1.0/255 || diff < -1.0/255 {
			t.Errorf("quantize8(%v) round-trip = %v, off by more than one level", v, got)
		}
	}
}

func TestQuantize8_ClampsOutOfRange(t *testing.T) {
	if got := quantize8(-1); got != 0 {
		t.Errorf("quantize8(-1) = %d, want 0", got)
	}
	if got := quantize8(5); got != 255 {
		t.Errorf("quantize8(5) = %d, want 255", got)
	}
}

func TestWriteNodes_RecordIs32Bytes(t *testing.T) {
	nodes := []sitegraph.Node{
		{
			URL: "https://example.com/", PageType: sitegraph.PageHome,
			Confidence: 0.9, Freshness: 1.0, Flags: sitegraph.FlagRendered,
			ContentHash: 12345, RenderedAt: 7, HTTPStatus: 200, Depth: 0,
			InboundCount: 3, OutboundCount: 9, FeatureNorm: 1.5,
		},
		{
			URL: "https://example.com/about", PageType: sitegraph.PageAboutPage,
			Confidence: 0.5, Freshness: 0, Flags: sitegraph.FlagEstimated,
			ContentHash: 0, RenderedAt: 0, HTTPStatus: 0, Depth: 1,
			InboundCount: 1, OutboundCount: 0, FeatureNorm: 0,
		},
	}

	var buf bytes.Buffer
	if err := writeNodes(&buf, nodes); err != nil {
		t.Fatalf("writeNodes: %v", err)
	}
	if got, want := buf.Len(), 32*len(nodes); got != want {
		t.Fatalf("encoded %d node(s) to %d bytes, want %d (32-byte records)", len(nodes), got, want)
	}

	got, err := readNodes(&buf, len(nodes))
	if err != nil {
		t.Fatalf("readNodes: %v", err)
	}
	for i, n := range nodes {
		if got[i].PageType != n.PageType || got[i].Flags != n.Flags || got[i].ContentHash != n.ContentHash ||
			got[i].RenderedAt != n.RenderedAt || got[i].HTTPStatus != n.HTTPStatus || got[i].Depth != n.Depth ||
			got[i].InboundCount != n.InboundCount || got[i].OutboundCount != n.OutboundCount || got[i].FeatureNorm != n.FeatureNorm {
			t.Errorf("node %d round-trip mismatch: got %+v, want %+v", i, got[i], n)
		}
	}
}
