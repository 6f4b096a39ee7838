// internal/sitegraph/price_percentile.go
//
// Feature dimension 62 (price percentile) is left at 0.0 by the encoder
// because computing it requires the finished, cross-node price
// distribution (spec §9 Open Question #4). applyPricePercentile is the
// category-aware post-pass this spec adds: it runs once, after
// clustering, over every product_detail node in the finished map.
package sitegraph

import "sort"

const (
	dimPrice          = 48
	dimPricePercentile = 62
)

// applyPricePercentile fills feature dimension 62 for every
// PageProductDetail node with feature[48] (price) > 0, ranking within the
// set of priced product_detail nodes that share the node's ClusterID
// (the closest available proxy for "category" without a taxonomy input).
// Nodes with no priced peers in their cluster are left at 0.0.
func applyPricePercentile(m *SiteMap) {
	byCluster := make(map[int][]int)
	for i, node := range m.Nodes {
		if node.PageType != PageProductDetail {
			continue
		}
		if m.FeatureRow(i)[dimPrice] <= 0 {
			continue
		}
		byCluster[node.ClusterID] = append(byCluster[node.ClusterID], i)
	}

	for _, members := range byCluster {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(a, b int) bool {
			return m.FeatureRow(members[a])[dimPrice] < m.FeatureRow(members[b])[dimPrice]
		})
		n := len(members)
		for rank, idx := range members {
			m.FeatureRow(idx)[dimPricePercentile] = float32(rank) / float32(n-1)
		}
	}
}
