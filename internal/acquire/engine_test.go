package acquire

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/httpclient"
	"github.com/cortexlabs/cortex/internal/log"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.UserAgent = "cortex-test/1.0"
	cfg.MinRequestInterval = 0
	cfg.RequestTimeout = 5 * time.Second
	cfg.MaxTimeMillis = 5000
	cfg.MaxNodes = 50
	cfg.MaxRender = 0 // no renderer wired in these tests
	return cfg
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="/about">About</a><a href="/contact">Contact</a></body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>About us</h1></body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Contact us</h1></body></html>`))
	})
	return httptest.NewServer(mux)
}

func TestEngine_Run_CrawlDiscoveryFallback(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	cfg := testConfig()
	client := httpclient.New(cfg, log.New(false))
	engine := NewEngine(cfg, client, nil, log.New(false))

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}

	res, err := engine.Run(t.Context(), u.Hostname(), []string{srv.URL + "/"}, 0, 0, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RequestID == "" {
		t.Fatal("expected a non-empty RequestID")
	}
	if len(res.Pages) < 2 {
		t.Fatalf("len(Pages) = %d, want at least 2 (root + one discovered link)", len(res.Pages))
	}

	var sawRoot bool
	for _, p := range res.Pages {
		if p.URL == srv.URL+"/" {
			sawRoot = true
			if p.Depth != 0 {
				t.Fatalf("root depth = %d, want 0", p.Depth)
			}
		}
	}
	if !sawRoot {
		t.Fatal("root page missing from results")
	}
}

func TestSamplePlan_AlwaysIncludesRootAndRespectsBudget(t *testing.T) {
	seeds := make([]seed, 20)
	for i := range seeds {
		seeds[i] = seed{URL: "https://example.com/p" + string(rune('a'+i))}
	}

	out := samplePlan(seeds, 5)
	if len(out) != 5 {
		t.Fatalf("len(out) = %d, want 5", len(out))
	}
	if out[0].URL != seeds[0].URL {
		t.Fatalf("root not preserved: out[0] = %v", out[0])
	}
}

func TestSamplePlan_NoTruncationWhenUnderBudget(t *testing.T) {
	seeds := []seed{{URL: "a"}, {URL: "b"}}
	out := samplePlan(seeds, 10)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestDedupeSeeds(t *testing.T) {
	seeds := []seed{{URL: "a"}, {URL: "b"}, {URL: "a"}}
	out := dedupeSeeds(seeds)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestClock_LayerFractions(t *testing.T) {
	clk := newClock(100*time.Millisecond, 0.4, 0.8)
	if clk.layer0Expired() {
		t.Fatal("layer0 should not be expired immediately")
	}
	time.Sleep(50 * time.Millisecond)
	if !clk.layer0Expired() {
		t.Fatal("layer0 should be expired after 50ms of a 100ms/0.4 budget")
	}
	if clk.layer3Expired() {
		t.Fatal("layer3 should not be expired yet")
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$19.99", 19.99, true},
		{"€1,234.50", 1234.50, true},
		{"", 0, false},
		{"no digits here", 0, false},
	}
	for _, c := range cases {
		got, ok := parsePrice(c.in)
		if ok != c.wantOK {
			t.Fatalf("parsePrice(%q) ok = %v, want %v", c.in, ok, c.wantOK)
		}
		if ok && got != c.want {
			t.Fatalf("parsePrice(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
