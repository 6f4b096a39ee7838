// internal/mapcache/singleflight.go
//
// Group coalesces concurrent identical MAP calls onto one acquisition
// run (spec §4.7: "the first caller triggers acquisition, others attach
// to the future and receive the same SiteMap handle"; spec §8's S6:
// "N concurrent identical MAP calls trigger exactly one acquisition").
// No pack example imports golang.org/x/sync/singleflight, so this is
// hand-rolled in the teacher's own channel/WaitGroup concurrency idiom
// (the same shape internal/acquire's layer1.go and layer3.go use for
// their fan-out pools) rather than pulling in an otherwise-unused dep.
package mapcache

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// call is one in-flight MAP computation shared by every caller that
// asked for the same key concurrently.
type call struct {
	ticket  string
	wg      sync.WaitGroup
	waiters int
	result  *sitegraph.SiteMap
	err     error
}

// Group is the per-domain single-flight coalescer.
type Group struct {
	mu    sync.Mutex
	calls map[string]*call
}

// NewGroup constructs an empty Group.
func NewGroup() *Group {
	return &Group{calls: make(map[string]*call)}
}

// Result is what Do returns: the built (or shared) SiteMap, any error,
// whether this caller attached to someone else's in-flight build, and
// the opaque ticket identifying that build for log correlation.
type Result struct {
	Map    *sitegraph.SiteMap
	Err    error
	Shared bool
	Ticket string
}

// Do runs fn for key if no call for key is already in flight; otherwise
// it blocks until that in-flight call finishes and returns its result
// without running fn again.
func (g *Group) Do(key string, fn func() (*sitegraph.SiteMap, error)) Result {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		c.waiters++
		g.mu.Unlock()
		c.wg.Wait()
		return Result{Map: c.result, Err: c.err, Shared: true, Ticket: c.ticket}
	}

	c := &call{ticket: uuid.New().String(), waiters: 1}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.result, c.err = fn()
	c.wg.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return Result{Map: c.result, Err: c.err, Shared: false, Ticket: c.ticket}
}

// Waiters reports how many callers are currently attached to key's
// in-flight build, if any is running.
func (g *Group) Waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.calls[key]; ok {
		return c.waiters
	}
	return 0
}

// Leave decrements key's waiter count, reporting whether the departing
// caller was the last one still attached — the orchestrator uses this
// to implement spec §4.5's "only the last disconnect" cancellation rule
// without this package needing to know about client connections itself.
func (g *Group) Leave(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.calls[key]
	if !ok {
		return true
	}
	c.waiters--
	return c.waiters <= 0
}
