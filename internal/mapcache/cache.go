// internal/mapcache/cache.go
//
// Cache is the bounded LRU of in-memory SiteMap handles the Orchestrator
// consults before invoking Acquisition (spec §4.7). It is structured
// directly on internal/cache/memory.go's container/list LRU (same
// doubly-linked-list-plus-map shape, same MoveToFront-on-hit promotion),
// generalized from a byte blob per entry to a reference-counted,
// TTL-bearing *sitegraph.SiteMap.
package mapcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/log"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Cache holds at most capacity SiteMap handles in memory, evicting the
// least-recently-used entry once full. A miss falls through to store,
// when one is configured, before being reported as a true miss.
type Cache struct {
	mu       sync.Mutex
	ll       *list.List
	elements map[string]*list.Element
	capacity int
	ttl      time.Duration

	store  *Store // nil disables on-disk persistence
	logger log.Logger
}

type cacheRecord struct {
	key   string
	entry *Entry
}

// NewCache builds a Cache from the budgets in cfg (MapCacheCapacity,
// MapCacheTTL, spec defaults: bounded LRU, 1 hour TTL).
func NewCache(cfg *config.Config, store *Store, logger log.Logger) *Cache {
	if logger == nil {
		logger = log.New(false)
	}
	capacity := cfg.MapCacheCapacity
	if capacity <= 0 {
		capacity = 10
	}
	ttl := cfg.MapCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		ll:       list.New(),
		elements: make(map[string]*list.Element),
		capacity: capacity,
		ttl:      ttl,
		store:    store,
		logger:   logger,
	}
}

// Lookup returns a reference-counted handle for (domain, params),
// trying the in-memory LRU first and falling back to the persisted CTX
// store when configured (spec §4.7: "Persisted CTX files... are
// memory-mapped on load when present; failed integrity checks
// invalidate the entry"). refresh=true always reports a miss, forcing
// the caller to rebuild. The caller must Release the returned Entry.
func (c *Cache) Lookup(domain string, params map[string]string, refresh bool) (*Entry, bool) {
	if refresh {
		return nil, false
	}

	key := cacheKey(domain, params)
	if e, ok := c.lookupMemory(key); ok {
		return e, true
	}
	if c.store == nil {
		return nil, false
	}

	m, err := c.store.Load(key)
	if err != nil {
		c.logger.Warnf("mapcache: discarding corrupt persisted map %q: %v", key, err)
		return nil, false
	}
	if m == nil {
		return nil, false
	}
	return c.insert(domain, key, m), true
}

func (c *Cache) lookupMemory(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.elements[key]
	if !ok {
		return nil, false
	}
	rec := ele.Value.(*cacheRecord)
	if rec.entry.expired() {
		c.removeLocked(ele)
		return nil, false
	}
	c.ll.MoveToFront(ele)
	return rec.entry.Acquire(), true
}

// Put inserts a freshly built SiteMap, persisting it via store when
// configured, and returns an already-Acquired Entry for the caller.
func (c *Cache) Put(domain string, params map[string]string, m *sitegraph.SiteMap) *Entry {
	key := cacheKey(domain, params)
	entry := c.insert(domain, key, m)

	if c.store != nil {
		if err := c.store.Save(key, m); err != nil {
			c.logger.Warnf("mapcache: failed to persist map %q: %v", key, err)
		}
	}
	return entry.Acquire()
}

func (c *Cache) insert(domain, key string, m *sitegraph.SiteMap) *Entry {
	entry := newEntry(key, domain, m, c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.elements[key]; ok {
		c.removeLocked(ele)
	}
	ele := c.ll.PushFront(&cacheRecord{key: key, entry: entry})
	c.elements[key] = ele
	for c.ll.Len() > c.capacity {
		c.evictOldestLocked()
	}
	return entry
}

func (c *Cache) evictOldestLocked() {
	if ele := c.ll.Back(); ele != nil {
		c.removeLocked(ele)
	}
}

// removeLocked drops key from the index immediately; the underlying
// SiteMap is only released once every in-flight query's Release brings
// its refcount to zero (spec §4.7: "Eviction destroys the SiteMap; any
// in-flight queries must complete first").
func (c *Cache) removeLocked(ele *list.Element) {
	rec := ele.Value.(*cacheRecord)
	c.ll.Remove(ele)
	delete(c.elements, rec.key)
	rec.entry.markEvicted(func(e *Entry) {
		c.logger.Debugf("mapcache: evicted map %q (domain %s)", e.Key, e.Domain)
	})
}

// Len reports how many maps are currently resident in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
