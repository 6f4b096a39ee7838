package features

import (
	"testing"

	"github.com/cortexlabs/cortex/internal/classify"
	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func TestEncode_NilStructuredData(t *testing.T) {
	row := Encode(nil, classify.Result{PageType: sitegraph.PageHome, Confidence: 0.9}, Context{Depth: 0, IsHTTPS: true})
	if len(row) != Dims {
		t.Fatalf("row length = %d, want %d", len(row), Dims)
	}
	if row[dimHTTPS] != 1.0 {
		t.Fatalf("dimHTTPS = %v, want 1.0", row[dimHTTPS])
	}
	if row[dimIsEntryPoint] != 1.0 {
		t.Fatalf("dimIsEntryPoint = %v, want 1.0 for depth 0", row[dimIsEntryPoint])
	}
}

func TestEncode_ProductPriceFromJSONLD(t *testing.T) {
	sd := &extract.StructuredData{
		URL: "https://shop.example.com/p/123",
		JSONLD: []extract.JSONLDObject{
			{Type: "Product", Data: map[string]any{
				"price": 29.99,
				"offers": map[string]any{
					"availability": "https://schema.org/InStock",
				},
			}},
		},
	}
	row := Encode(sd, classify.Result{PageType: sitegraph.PageProductDetail, Confidence: 0.9}, Context{})
	if row[dimPrice] < 29.9 || row[dimPrice] > 30.0 {
		t.Fatalf("dimPrice = %v, want ~29.99", row[dimPrice])
	}
	if row[dimAvailability] != 1.0 {
		t.Fatalf("dimAvailability = %v, want 1.0 (InStock)", row[dimAvailability])
	}
}

func TestEncode_LoginFormSetsAuthDims(t *testing.T) {
	sd := &extract.StructuredData{
		URL: "https://example.com/login",
		Forms: []ihtml.Form{
			{
				Method: "POST",
				Action: "https://example.com/login",
				Fields: []ihtml.FormField{
					{Name: "username", Type: "text"},
					{Name: "password", Type: "password"},
				},
			},
		},
	}
	row := Encode(sd, classify.Result{PageType: sitegraph.PageLogin, Confidence: 0.85}, Context{})
	if row[dimHasForm] != 1.0 {
		t.Fatalf("dimHasForm = %v, want 1.0", row[dimHasForm])
	}
	if row[dimHasLoginForm] != 1.0 {
		t.Fatalf("dimHasLoginForm = %v, want 1.0", row[dimHasLoginForm])
	}
	if row[dimIsAuthArea] != 1.0 {
		t.Fatalf("dimIsAuthArea = %v, want 1.0 for PageLogin", row[dimIsAuthArea])
	}
}

func TestCapFunctions(t *testing.T) {
	cases := []struct {
		v, cap float64
		want   float32
	}{
		{0, 10, 0},
		{5, 10, 0.5},
		{20, 10, 1.0},
		{-5, 10, 0},
	}
	for _, c := range cases {
		got := minCap(c.v, c.cap)
		if got != c.want {
			t.Errorf("minCap(%v, %v) = %v, want %v", c.v, c.cap, got, c.want)
		}
	}
}
