// internal/mapcache/entry.go
package mapcache

import (
	"sync"
	"time"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Entry is a reference-counted handle on one cached SiteMap. Acquire
// and Release bracket every query so an LRU eviction can never discard
// a SiteMap a caller is still reading (spec §4.7: "Cache entries are
// reference-counted so that an eviction cannot free a SiteMap still
// being queried").
type Entry struct {
	Key       string
	Domain    string
	Map       *sitegraph.SiteMap
	CreatedAt time.Time
	ExpiresAt time.Time

	mu      sync.Mutex
	refs    int
	evicted bool
	onIdle  func(*Entry)
}

func newEntry(key, domain string, m *sitegraph.SiteMap, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{Key: key, Domain: domain, Map: m, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

// Acquire increments the reference count and returns the same Entry,
// for chaining at the call site. Callers must call Release when done.
func (e *Entry) Acquire() *Entry {
	e.mu.Lock()
	e.refs++
	e.mu.Unlock()
	return e
}

// Release decrements the reference count, running the pending-eviction
// cleanup once the last reader lets go.
func (e *Entry) Release() {
	e.mu.Lock()
	e.refs--
	idle := e.refs <= 0 && e.evicted
	cb := e.onIdle
	e.mu.Unlock()
	if idle && cb != nil {
		cb(e)
	}
}

// expired reports whether the entry's TTL has elapsed.
func (e *Entry) expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// markEvicted flags the entry as removed from the cache index; onIdle
// runs immediately if nothing currently holds a reference, or once the
// last Release does.
func (e *Entry) markEvicted(onIdle func(*Entry)) {
	e.mu.Lock()
	e.evicted = true
	e.onIdle = onIdle
	idle := e.refs <= 0
	e.mu.Unlock()
	if idle && onIdle != nil {
		onIdle(e)
	}
}
