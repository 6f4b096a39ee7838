// internal/render/fake.go
//
// FakeRenderer is an in-memory Renderer test double: it looks up
// canned HTML by URL instead of driving a real browser, so
// internal/acquire's Layer 3 logic can be exercised without
// playwright-go or network access.
package render

import (
	"context"
	"fmt"
)

// FakeRenderer serves canned responses keyed by URL.
type FakeRenderer struct {
	Pages map[string]RenderResult
	// Err, if set, is returned by Render for URLs not present in Pages
	// instead of the default "not found" error.
	Err error

	closed bool
	calls  []string
}

// NewFakeRenderer constructs a FakeRenderer over the given page set.
func NewFakeRenderer(pages map[string]RenderResult) *FakeRenderer {
	return &FakeRenderer{Pages: pages}
}

// Render returns the canned result for rawURL, recording the call.
func (f *FakeRenderer) Render(ctx context.Context, rawURL string, opts RenderOptions) (RenderResult, error) {
	f.calls = append(f.calls, rawURL)
	if ctx.Err() != nil {
		return RenderResult{}, ctx.Err()
	}
	if res, ok := f.Pages[rawURL]; ok {
		return res, nil
	}
	if f.Err != nil {
		return RenderResult{}, f.Err
	}
	return RenderResult{}, fmt.Errorf("render: fake has no page for %q", rawURL)
}

// Close marks the fake closed; idempotent.
func (f *FakeRenderer) Close() error {
	f.closed = true
	return nil
}

// Calls returns every URL Render was asked to render, in order.
func (f *FakeRenderer) Calls() []string { return f.calls }

// Closed reports whether Close was called.
func (f *FakeRenderer) Closed() bool { return f.closed }
