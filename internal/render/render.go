// internal/render/render.go
//
// Package render defines the capability interfaces Layer 3 headless
// rendering needs (spec §4.1) and a playwright-go-backed
// implementation. Keeping the interface narrow lets internal/acquire
// depend on a fake in tests instead of a real browser.
package render

import (
	"context"
	"time"
)

// RenderResult is what Layer 3 hands back to the acquisition engine:
// the fully hydrated DOM as HTML, plus the wall-clock time the render
// took (feeds feature dim 7, load_time).
type RenderResult struct {
	HTML       string
	LoadTimeMS int64
}

// Renderer renders a single URL through a headless browser context
// and returns the post-JS DOM. Implementations must be safe for
// concurrent use by multiple callers up to the caller's own pool
// sizing (spec: RenderPoolSize concurrent contexts).
type Renderer interface {
	Render(ctx context.Context, rawURL string, opts RenderOptions) (RenderResult, error)
	Close() error
}

// RenderOptions controls one render call.
type RenderOptions struct {
	UserAgent      string
	NavigateTimeout time.Duration
	WaitUntil      WaitUntil
}

// WaitUntil mirrors playwright's navigation-completion signal, with a
// load->domcontentloaded fallback matching the teacher's own retry
// shape (internal/render/playwright.go).
type WaitUntil int

const (
	WaitUntilLoad WaitUntil = iota
	WaitUntilDOMContentLoaded
)
