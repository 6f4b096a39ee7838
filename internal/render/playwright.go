// internal/render/playwright.go
//
// PlaywrightRenderer is the real Layer 3 Renderer, backed by
// github.com/playwright-community/playwright-go. Grounded on
// valradar's fetchWithChrome: a single shared Browser, one Page per
// render, a primary "load" navigation with a "domcontentloaded"
// fallback on timeout, and the inner HTML of <html> as the result.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/cortexlabs/cortex/internal/log"
)

// PlaywrightRenderer owns one Chromium instance shared across renders;
// internal/acquire bounds concurrency with its own RenderPoolSize
// semaphore rather than this type managing a pool itself.
type PlaywrightRenderer struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	log     log.Logger
}

// NewPlaywrightRenderer launches a headless Chromium instance.
func NewPlaywrightRenderer(logger log.Logger) (*PlaywrightRenderer, error) {
	if logger == nil {
		logger = log.New(false)
	}
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
	}); err != nil {
		return nil, fmt.Errorf("render: installing playwright browsers: %w", err)
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("render: starting playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch()
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("render: launching chromium: %w", err)
	}
	return &PlaywrightRenderer{pw: pw, browser: browser, log: logger}, nil
}

// Render navigates to rawURL in a fresh page and returns its rendered
// HTML. A "load" navigation is tried first; on timeout, a
// "domcontentloaded" navigation is attempted as a fallback, matching
// valradar's fetchWithChrome two-step retry.
func (r *PlaywrightRenderer) Render(ctx context.Context, rawURL string, opts RenderOptions) (RenderResult, error) {
	start := time.Now()

	ua := opts.UserAgent
	jsEnabled := true
	page, err := r.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent:         &ua,
		JavaScriptEnabled: &jsEnabled,
	})
	if err != nil {
		return RenderResult{}, fmt.Errorf("render: creating page: %w", err)
	}
	defer page.Close()

	timeout := opts.NavigateTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timeoutMS := float64(timeout / time.Millisecond)

	loadState := "load"
	domState := "domcontentloaded"

	_, navErr := page.Goto(rawURL, playwright.PageGotoOptions{
		Timeout:   &timeoutMS,
		WaitUntil: (*playwright.WaitUntilState)(&loadState),
	})
	if navErr != nil {
		r.log.Warnf("render: %q: load navigation failed (%v), retrying with domcontentloaded", rawURL, navErr)
		if _, err := page.Goto(rawURL, playwright.PageGotoOptions{
			Timeout:   &timeoutMS,
			WaitUntil: (*playwright.WaitUntilState)(&domState),
		}); err != nil {
			return RenderResult{}, fmt.Errorf("render: navigating to %q: %w", rawURL, err)
		}
	}

	html, err := page.Locator("html").InnerHTML()
	if err != nil {
		return RenderResult{}, fmt.Errorf("render: reading rendered HTML for %q: %w", rawURL, err)
	}

	return RenderResult{
		HTML:       html,
		LoadTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// Close shuts down the browser and the playwright driver process.
func (r *PlaywrightRenderer) Close() error {
	if err := r.browser.Close(); err != nil {
		return err
	}
	return r.pw.Stop()
}
