package sitemap

import "testing"

func TestParse_URLSet(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc><lastmod>2026-01-01</lastmod><priority>1.0</priority></url>
  <url><loc>https://example.com/about</loc></url>
</urlset>`)

	entries, children, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if children != nil {
		t.Fatalf("expected no child sitemaps, got %v", children)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].URL != "https://example.com/" || entries[0].LastMod != "2026-01-01" || entries[0].Priority != 1.0 {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
}

func TestParse_SitemapIndex(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap-1.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sitemap-2.xml</loc></sitemap>
</sitemapindex>`)

	entries, children, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if entries != nil {
		t.Fatalf("expected no leaf entries, got %v", entries)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}
}

func TestParse_InvalidXML(t *testing.T) {
	if _, _, err := Parse([]byte("not xml")); err == nil {
		t.Fatal("expected an error for invalid XML")
	}
}
