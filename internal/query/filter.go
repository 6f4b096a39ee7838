// internal/query/filter.go
//
// Filter implements spec §4.6: a single linear scan over the feature
// matrix, with filters evaluated in selectivity order (flags, then
// page_type, then feature ranges) for early-out.
package query

import (
	"sort"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Range is an optional [Min, Max] bound on one feature dimension.
type Range struct {
	HasMin bool
	Min    float32
	HasMax bool
	Max    float32
}

func (r Range) contains(v float32) bool {
	if r.HasMin && v < r.Min {
		return false
	}
	if r.HasMax && v > r.Max {
		return false
	}
	return true
}

// SortKey selects the ordering of a Filter's results.
type SortKey struct {
	Dimension  int  // ignored when ByConfidence is true
	Descending bool
	ByConfidence bool
}

// FilterQuery is the full Filter input (spec §4.6).
type FilterQuery struct {
	PageTypes    map[sitegraph.PageType]bool // nil/empty means any
	FeatureRange map[int]Range
	RequireFlags sitegraph.NodeFlags // all bits must be set
	Sort         *SortKey
	Limit        int // 0 means unlimited
}

// Match is one Filter result row.
type Match struct {
	Index    int
	URL      string
	PageType sitegraph.PageType
	Features []float32
	Confidence float64
}

// Filter scans m's node table once, evaluating flags first (cheapest
// check), then page_type, then feature ranges, skipping to the next
// node as soon as any filter fails.
func Filter(m *sitegraph.SiteMap, q FilterQuery) []Match {
	m.RLock()
	defer m.RUnlock()

	var out []Match
	for i := range m.Nodes {
		node := &m.Nodes[i]

		if q.RequireFlags != 0 && node.Flags&q.RequireFlags != q.RequireFlags {
			continue
		}
		if len(q.PageTypes) > 0 && !q.PageTypes[node.PageType] {
			continue
		}
		row := m.FeatureRow(i)
		if !matchesFeatureRanges(row, q.FeatureRange) {
			continue
		}

		out = append(out, Match{
			Index:      i,
			URL:        node.URL,
			PageType:   node.PageType,
			Features:   row,
			Confidence: node.Confidence,
		})
	}

	if q.Sort != nil {
		sortMatches(out, *q.Sort)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matchesFeatureRanges(row []float32, ranges map[int]Range) bool {
	for dim, r := range ranges {
		if dim < 0 || dim >= len(row) {
			return false
		}
		if !r.contains(row[dim]) {
			return false
		}
	}
	return true
}

func sortMatches(matches []Match, key SortKey) {
	less := func(i, j int) bool {
		var a, b float64
		if key.ByConfidence {
			a, b = matches[i].Confidence, matches[j].Confidence
		} else {
			a, b = float64(matches[i].Features[key.Dimension]), float64(matches[j].Features[key.Dimension])
		}
		if key.Descending {
			return a > b
		}
		return a < b
	}
	sort.SliceStable(matches, less)
}
