// cortex/query.go
package cortex

import (
	cerrors "github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/mapcache"
	"github.com/cortexlabs/cortex/internal/query"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// QueryFilters mirrors spec §6's query.params.filters.
type QueryFilters struct {
	PageTypes    []sitegraph.PageType
	FeatureRange map[int]query.Range
	Flags        sitegraph.NodeFlags
}

// QueryOptions carries the QUERY call's params (spec §6).
type QueryOptions struct {
	Filters QueryFilters
	SortBy  *query.SortKey
	Limit   int
}

// QueryResult is QUERY's reply (spec §6).
type QueryResult struct {
	Nodes       []query.Match
	TotalMatches int
}

// Query filters mapPath's SiteMap (spec §6).
func (d *Daemon) Query(mapPath string, opts QueryOptions) (*QueryResult, error) {
	entry, err := d.resolveHandle(mapPath)
	if err != nil {
		return nil, err
	}
	defer entry.Release()

	var pageTypes map[sitegraph.PageType]bool
	if len(opts.Filters.PageTypes) > 0 {
		pageTypes = make(map[sitegraph.PageType]bool, len(opts.Filters.PageTypes))
		for _, pt := range opts.Filters.PageTypes {
			pageTypes[pt] = true
		}
	}

	matches := query.Filter(entry.Map, query.FilterQuery{
		PageTypes:    pageTypes,
		FeatureRange: opts.Filters.FeatureRange,
		RequireFlags: opts.Filters.Flags,
		Sort:         opts.SortBy,
		Limit:        opts.Limit,
	})

	return &QueryResult{Nodes: matches, TotalMatches: len(matches)}, nil
}

// resolveHandle turns a map_path back into an Acquired cache Entry. The
// caller must Release it.
func (d *Daemon) resolveHandle(mapPath string) (*mapcache.Entry, error) {
	h, ok := d.handles.resolve(mapPath)
	if !ok {
		return nil, cerrors.New(cerrors.KindMapNotFound, "unknown map_path", nil)
	}
	e, ok := d.cache.Lookup(h.domain, h.params, false)
	if !ok {
		return nil, cerrors.New(cerrors.KindMapNotFound, "map_path no longer cached; re-run map", nil)
	}
	return e, nil
}
