// internal/mapcache/mapcache.go
//
// Package mapcache implements the Orchestrator's cache and single-
// flight layer (spec §4.7): a bounded in-memory LRU of SiteMap handles
// with optional bbolt/S3 persistence, and per-domain coalescing of
// concurrent identical MAP calls onto one acquisition run.
package mapcache

import (
	"context"
	"errors"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/log"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// ErrNotCached is returned by Refresh when domain has no resident
// SiteMap to update.
var ErrNotCached = errors.New("mapcache: no cached map for domain")

// Manager is the single entry point the cortex facade uses for every
// MAP/REFRESH call.
type Manager struct {
	cache  *Cache
	group  *Group
	store  *Store
	logger log.Logger
}

// NewManager builds a Manager. store may be nil, disabling on-disk
// persistence entirely (spec: persistence is optional).
func NewManager(cfg *config.Config, store *Store, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.New(false)
	}
	return &Manager{
		cache:  NewCache(cfg, store, logger),
		group:  NewGroup(),
		store:  store,
		logger: logger,
	}
}

// GetOrBuild returns a reference-counted handle to domain's SiteMap,
// invoking build only if no fresh entry exists and no equivalent build
// is already in flight (spec §4.7 cache + single-flight). The caller
// must Release the returned Entry. shared reports whether this call
// attached to another caller's in-flight build rather than triggering
// its own (spec §8 S6: "measured by HTTP request count to the root").
func (m *Manager) GetOrBuild(ctx context.Context, domain string, params map[string]string, refresh bool, build func(context.Context) (*sitegraph.SiteMap, error)) (entry *Entry, shared bool, err error) {
	if e, ok := m.cache.Lookup(domain, params, refresh); ok {
		return e, false, nil
	}

	key := cacheKey(domain, params)
	res := m.group.Do(key, func() (*sitegraph.SiteMap, error) {
		return build(ctx)
	})
	if res.Err != nil {
		return nil, res.Shared, res.Err
	}
	if res.Shared {
		m.logger.Debugf("mapcache: request for %s attached to in-flight build (ticket %s)", domain, res.Ticket)
	}

	return m.cache.Put(domain, params, res.Map), res.Shared, nil
}

// Refresh applies fn to domain's cached SiteMap under an exclusive lock
// (spec §4.7 REFRESH: "writes new rows under an exclusive lock held for
// the duration of the per-node update"), then re-persists the result
// when a Store is configured. It reports ErrNotCached when nothing is
// resident for domain.
func (m *Manager) Refresh(domain string, params map[string]string, fn func(*sitegraph.SiteMap) error) error {
	e, ok := m.cache.Lookup(domain, params, false)
	if !ok {
		return ErrNotCached
	}
	defer e.Release()

	e.Map.Lock()
	err := fn(e.Map)
	e.Map.Unlock()
	if err != nil {
		return err
	}

	if m.store != nil {
		if err := m.store.Save(e.Key, e.Map); err != nil {
			m.logger.Warnf("mapcache: failed to persist refreshed map %q: %v", e.Key, err)
		}
	}
	return nil
}

// Lookup returns a reference-counted handle for (domain, params)
// without triggering a build on a miss, for callers (QUERY, PATHFIND)
// that only ever operate on an already-mapped domain. The caller must
// Release the returned Entry.
func (m *Manager) Lookup(domain string, params map[string]string, refresh bool) (*Entry, bool) {
	return m.cache.Lookup(domain, params, refresh)
}

// Len reports how many maps are currently resident in memory.
func (m *Manager) Len() int { return m.cache.Len() }

// Close releases the underlying persistence store, if any.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}
