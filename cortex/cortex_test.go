package cortex

import (
	"strings"
	"testing"
	"time"
)

func TestNew_DefaultsAndUserAgent(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if d.cfg.UserAgent != DefaultUserAgent {
		t.Fatalf("UserAgent = %q, want default", d.cfg.UserAgent)
	}
	if d.renderer != nil {
		t.Fatal("renderer should be nil unless WithRenderer(true) is passed")
	}
}

func TestNew_OptionsApply(t *testing.T) {
	d, err := New(
		WithUserAgent("custom-bot/2.0"),
		WithRequestTimeout(3*time.Second),
		WithDefaultBudgets(100, 5, 2000),
		WithRespectRobots(false),
		WithMapCache(4, time.Minute),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	cfg := d.EffectiveConfig()
	if cfg.UserAgent != "custom-bot/2.0" {
		t.Fatalf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.MaxNodes != 100 || cfg.MaxRender != 5 || cfg.MaxTimeMillis != 2000 {
		t.Fatalf("budgets not applied: %+v", cfg)
	}
	if cfg.RespectRobots {
		t.Fatal("RespectRobots should be false")
	}
	if cfg.MapCacheCapacity != 4 || cfg.MapCacheTTL != time.Minute {
		t.Fatalf("map cache options not applied: %+v", cfg)
	}
}

func TestVersion(t *testing.T) {
	if v := Version(); !strings.HasPrefix(v, "cortex ") {
		t.Fatalf("Version() = %q, want a %q-prefixed string", v, "cortex ")
	}
}

func TestWithDefaultBudgets_ZeroLeavesUnchanged(t *testing.T) {
	d, err := New(WithDefaultBudgets(0, 0, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	cfg := d.EffectiveConfig()
	if cfg.MaxNodes != 50000 || cfg.MaxRender != 200 || cfg.MaxTimeMillis != 10000 {
		t.Fatalf("zero budget args should leave spec defaults untouched, got %+v", cfg)
	}
}
