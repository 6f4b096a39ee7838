package render

import (
	"context"
	"testing"
)

func TestFakeRenderer_ReturnsCannedPage(t *testing.T) {
	f := NewFakeRenderer(map[string]RenderResult{
		"https://example.com/": {HTML: "<html><body>hi</body></html>", LoadTimeMS: 12},
	})

	res, err := f.Render(context.Background(), "https://example.com/", RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.HTML != "<html><body>hi</body></html>" {
		t.Fatalf("HTML = %q", res.HTML)
	}
	if len(f.Calls()) != 1 || f.Calls()[0] != "https://example.com/" {
		t.Fatalf("Calls() = %v", f.Calls())
	}
}

func TestFakeRenderer_UnknownURLErrors(t *testing.T) {
	f := NewFakeRenderer(nil)
	if _, err := f.Render(context.Background(), "https://example.com/missing", RenderOptions{}); err == nil {
		t.Fatal("expected an error for an unregistered URL")
	}
}

func TestFakeRenderer_Close(t *testing.T) {
	f := NewFakeRenderer(nil)
	if f.Closed() {
		t.Fatal("should not be closed before Close()")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed() {
		t.Fatal("should be closed after Close()")
	}
}
