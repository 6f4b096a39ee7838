// internal/sitegraph/invariants.go
//
// Validate checks the eight invariants spec §3 requires of every built
// SiteMap. It is used by the Builder after Build() and by the codec after
// decoding.
package sitegraph

import (
	"fmt"
	"math"
)

const featureNormTolerance = 1e-4

// Validate returns the first invariant violation found, or nil.
func (m *SiteMap) Validate() error {
	n := len(m.Nodes)

	// Invariant 2: edge_index is monotonically non-decreasing and its
	// last element equals edge_count.
	if len(m.EdgeIndex) != n+1 {
		return fmt.Errorf("sitegraph: edge_index length %d, want %d", len(m.EdgeIndex), n+1)
	}
	for i := 1; i < len(m.EdgeIndex); i++ {
		if m.EdgeIndex[i] < m.EdgeIndex[i-1] {
			return fmt.Errorf("sitegraph: edge_index not monotonic at %d", i)
		}
	}
	if int(m.EdgeIndex[n]) != len(m.Edges) {
		return fmt.Errorf("sitegraph: edge_index[node_count]=%d, edge_count=%d", m.EdgeIndex[n], len(m.Edges))
	}

	// Invariant 1: every edge targets a valid node.
	for i, e := range m.Edges {
		if int(e.Target) >= n {
			return fmt.Errorf("sitegraph: edge %d targets out-of-range node %d", i, e.Target)
		}
	}

	// Invariant 3: outbound/inbound counts match the CSR structure.
	inbound := make([]int, n)
	for i := 0; i < n; i++ {
		want := int(m.EdgeIndex[i+1] - m.EdgeIndex[i])
		if m.Nodes[i].OutboundCount != want {
			return fmt.Errorf("sitegraph: node %d outbound_count=%d, csr says %d", i, m.Nodes[i].OutboundCount, want)
		}
	}
	for _, e := range m.Edges {
		inbound[e.Target]++
	}
	for i := 0; i < n; i++ {
		if m.Nodes[i].InboundCount != inbound[i] {
			return fmt.Errorf("sitegraph: node %d inbound_count=%d, computed %d", i, m.Nodes[i].InboundCount, inbound[i])
		}
	}

	// Invariant 4: feature_norm matches the L2 norm of the feature row.
	for i := 0; i < n; i++ {
		row := m.FeatureRow(i)
		var sum float64
		for _, v := range row {
			sum += float64(v) * float64(v)
		}
		want := math.Sqrt(sum)
		got := float64(m.Nodes[i].FeatureNorm)
		if math.Abs(got-want) > featureNormTolerance {
			return fmt.Errorf("sitegraph: node %d feature_norm=%v, want %v", i, got, want)
		}
	}

	// Invariant 5: cluster assignments are in range.
	clusterCount := len(m.Clusters)
	for i, c := range m.ClusterAssignments {
		if c < 0 || c >= clusterCount {
			return fmt.Errorf("sitegraph: node %d cluster_assignment=%d out of range [0,%d)", i, c, clusterCount)
		}
	}

	// Invariant 6: URLs are unique and non-empty.
	seen := make(map[string]struct{}, n)
	for i, node := range m.Nodes {
		if node.URL == "" {
			return fmt.Errorf("sitegraph: node %d has empty URL", i)
		}
		if _, dup := seen[node.URL]; dup {
			return fmt.Errorf("sitegraph: duplicate URL %q", node.URL)
		}
		seen[node.URL] = struct{}{}
	}

	// Invariant 7: root depth is 0.
	if n > 0 && m.Nodes[0].Depth != 0 {
		return fmt.Errorf("sitegraph: root depth=%d, want 0", m.Nodes[0].Depth)
	}

	// Invariant 8: rendered <=> rendered_at>0; estimated <=> low confidence/fresh.
	for i, node := range m.Nodes {
		if node.Flags.Has(FlagRendered) && node.RenderedAt <= 0 {
			return fmt.Errorf("sitegraph: node %d flags.rendered but rendered_at<=0", i)
		}
		if node.Flags.Has(FlagEstimated) {
			if node.Confidence > 0.5 {
				return fmt.Errorf("sitegraph: node %d flags.estimated but confidence=%v>0.5", i, node.Confidence)
			}
			if node.Freshness != 0 {
				return fmt.Errorf("sitegraph: node %d flags.estimated but freshness=%v!=0", i, node.Freshness)
			}
		}
	}

	return nil
}
