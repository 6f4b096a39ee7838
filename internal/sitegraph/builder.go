// internal/sitegraph/builder.go
//
// Builder accepts nodes, edges and actions incrementally and finalizes
// them into a SiteMap's CSR layout (spec §4.4). It mirrors the teacher's
// single-writer, append-then-finalize style (internal/crawl.FrontierQueue)
// but for the graph rather than the crawl frontier.
package sitegraph

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/cortexlabs/cortex/internal/cluster"
)

type pendingEdge struct {
	From, To uint32
	Type     EdgeType
	Weight   uint8
	Flags    EdgeFlags
}

type pendingAction struct {
	Node     uint32
	Action   Action
}

// Builder assembles a SiteMap from incrementally discovered nodes, edges
// and actions. The root must be added first; Build() is idempotent to
// call once.
type Builder struct {
	domain string

	nodes       []Node
	urlIndex    map[string]uint32
	featureRows [][]float32

	edges   []pendingEdge
	actions []pendingAction

	enablePricePercentile bool
}

// NewBuilder constructs an empty Builder for the given domain.
func NewBuilder(domain string) *Builder {
	return &Builder{
		domain:   domain,
		urlIndex: make(map[string]uint32),
	}
}

// EnablePricePercentile turns on the dimension-62 post-pass (spec §9 Open
// Question #4) when Build() runs.
func (b *Builder) EnablePricePercentile(enabled bool) {
	b.enablePricePercentile = enabled
}

// CanonicalizeURL strips the fragment, lowercases the host, removes
// default ports and collapses duplicate slashes in the path, per spec §4.4.
func CanonicalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}
	for strings.Contains(u.Path, "//") {
		u.Path = strings.ReplaceAll(u.Path, "//", "/")
	}
	return u.String(), nil
}

// AddNode registers a new node and returns its stable index. Duplicate
// URLs (after canonicalisation) are rejected. The first call must be the
// root (index 0).
func (b *Builder) AddNode(rawURL string, pageType PageType, features []float32, confidence float64) (uint32, error) {
	canon, err := CanonicalizeURL(rawURL)
	if err != nil {
		return 0, fmt.Errorf("sitegraph: invalid URL %q: %w", rawURL, err)
	}
	if _, dup := b.urlIndex[canon]; dup {
		return 0, fmt.Errorf("sitegraph: duplicate URL %q", canon)
	}

	row := make([]float32, FeatureDims)
	copy(row, features)

	idx := uint32(len(b.nodes))
	depth := 0
	if idx != 0 {
		depth = -1 // unknown until caller sets it via SetDepth
	}

	b.nodes = append(b.nodes, Node{
		URL:        canon,
		PageType:   pageType,
		Confidence: confidence,
		Depth:      depth,
	})
	b.featureRows = append(b.featureRows, row)
	b.urlIndex[canon] = idx
	return idx, nil
}

// IndexOf returns the node index for an already-canonical or raw URL.
func (b *Builder) IndexOf(rawURL string) (uint32, bool) {
	canon, err := CanonicalizeURL(rawURL)
	if err != nil {
		return 0, false
	}
	idx, ok := b.urlIndex[canon]
	return idx, ok
}

// SetNodeMeta updates mutable per-node fields discovered after AddNode
// (flags, freshness, content hash, http status, rendered_at, depth).
func (b *Builder) SetNodeMeta(idx uint32, fn func(*Node)) error {
	if int(idx) >= len(b.nodes) {
		return fmt.Errorf("sitegraph: node index %d out of range", idx)
	}
	fn(&b.nodes[idx])
	return nil
}

// AddEdge registers a directed edge. Endpoints are validated eagerly.
// For EdgeNavigation/EdgeContentLink, AddEdge itself also records the
// reverse edge, so callers add just the forward edge and get both.
func (b *Builder) AddEdge(from, to uint32, typ EdgeType, weight uint8, flags EdgeFlags) error {
	if int(from) >= len(b.nodes) || int(to) >= len(b.nodes) {
		return fmt.Errorf("sitegraph: edge endpoint out of range (from=%d to=%d, n=%d)", from, to, len(b.nodes))
	}
	b.edges = append(b.edges, pendingEdge{From: from, To: to, Type: typ, Weight: weight, Flags: flags})
	if typ == EdgeNavigation || typ == EdgeContentLink {
		b.edges = append(b.edges, pendingEdge{From: to, To: from, Type: typ, Weight: weight, Flags: flags})
	}
	return nil
}

// AddAction registers an action bound to a node.
func (b *Builder) AddAction(node uint32, a Action) error {
	if int(node) >= len(b.nodes) {
		return fmt.Errorf("sitegraph: action node %d out of range", node)
	}
	b.actions = append(b.actions, pendingAction{Node: node, Action: a})
	return nil
}

// NodeCount returns the number of nodes added so far.
func (b *Builder) NodeCount() int { return len(b.nodes) }

// addInferredEdges implements spec §4.4's URL-derived edge inference:
// every non-root node gets a low-weight navigation edge back to root,
// and nodes whose URL paths share a >=2-segment non-root prefix get a
// bidirectional "related" edge.
func (b *Builder) addInferredEdges() {
	n := len(b.nodes)
	if n == 0 {
		return
	}

	for i := 1; i < n; i++ {
		b.edges = append(b.edges, pendingEdge{
			From: uint32(i), To: 0, Type: EdgeNavigation, Weight: 10,
			Flags: EdgeFlagInferred,
		})
	}

	prefixes := make([][]string, n)
	for i, node := range b.nodes {
		prefixes[i] = pathSegments(node.URL)
	}

	for i := 1; i < n; i++ {
		for j := i + 1; j < n; j++ {
			shared := sharedNonRootPrefix(prefixes[i], prefixes[j])
			if shared >= 2 {
				b.edges = append(b.edges,
					pendingEdge{From: uint32(i), To: uint32(j), Type: EdgeRelated, Weight: 50, Flags: EdgeFlagInferred},
					pendingEdge{From: uint32(j), To: uint32(i), Type: EdgeRelated, Weight: 50, Flags: EdgeFlagInferred},
				)
			}
		}
	}
}

func pathSegments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sharedNonRootPrefix(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// BuildOptions controls whether the Builder's URL-inference pass runs.
// Spec §4.4 gates it on "many nodes discovered but only a few rendered";
// the caller (internal/acquire) decides whether that condition held.
type BuildOptions struct {
	InferEdges bool
	MappedAt   int64
}

// Build finalizes the graph: computes CSR arrays, fills inbound_count,
// sets feature_norm for every node, runs k-means, and deduplicates the
// URL table (the URL table itself is just Node.URL; dedup already holds
// via AddNode's uniqueness check).
func (b *Builder) Build(opts BuildOptions) (*SiteMap, error) {
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("sitegraph: cannot build an empty SiteMap")
	}

	if opts.InferEdges {
		b.addInferredEdges()
	}

	n := len(b.nodes)

	outDegree := make([]int, n)
	for _, e := range b.edges {
		outDegree[e.From]++
	}
	edgeIndex := make([]uint32, n+1)
	for i := 0; i < n; i++ {
		edgeIndex[i+1] = edgeIndex[i] + uint32(outDegree[i])
	}

	edges := make([]Edge, len(b.edges))
	cursor := append([]uint32(nil), edgeIndex...)
	for _, e := range b.edges {
		pos := cursor[e.From]
		edges[pos] = Edge{Target: e.To, Type: e.Type, Weight: e.Weight, Flags: e.Flags}
		cursor[e.From]++
	}

	inbound := make([]int, n)
	for _, e := range edges {
		inbound[e.Target]++
	}

	actionOutDegree := make([]int, n)
	for _, a := range b.actions {
		actionOutDegree[a.Node]++
	}
	actionIndex := make([]uint32, n+1)
	for i := 0; i < n; i++ {
		actionIndex[i+1] = actionIndex[i] + uint32(actionOutDegree[i])
	}
	actions := make([]Action, len(b.actions))
	actionCursor := append([]uint32(nil), actionIndex...)
	for _, a := range b.actions {
		pos := actionCursor[a.Node]
		actions[pos] = a.Action
		actionCursor[a.Node]++
	}

	features := make([]float32, n*FeatureDims)
	for i, row := range b.featureRows {
		copy(features[i*FeatureDims:(i+1)*FeatureDims], row)
	}

	for i := range b.nodes {
		b.nodes[i].OutboundCount = outDegree[i]
		b.nodes[i].InboundCount = inbound[i]
		b.nodes[i].FeatureNorm = l2norm(b.featureRows[i])
		if b.nodes[i].Depth < 0 {
			b.nodes[i].Depth = 0
		}
	}
	b.nodes[0].Depth = 0

	k := cluster.K(n)
	result := cluster.Run(b.featureRows, k, b.domain)

	clusters := make([]Cluster, len(result.Centroids))
	typeVotes := make([]map[PageType]int, len(clusters))
	for i := range typeVotes {
		typeVotes[i] = make(map[PageType]int)
	}
	for i, c := range result.Assignments {
		typeVotes[c][b.nodes[i].PageType]++
	}
	for c, centroid := range result.Centroids {
		copy(clusters[c].Centroid[:], centroid)
		best := PageUnknown
		bestCount := -1
		for t, count := range typeVotes[c] {
			if count > bestCount {
				best, bestCount = t, count
			}
		}
		clusters[c].DominantPageType = best
	}

	for i := range b.nodes {
		b.nodes[i].ClusterID = result.Assignments[i]
	}

	m := &SiteMap{
		Domain:              b.domain,
		MappedAt:            opts.MappedAt,
		Nodes:               b.nodes,
		Edges:               edges,
		EdgeIndex:           edgeIndex,
		Actions:             actions,
		ActionIndex:         actionIndex,
		Features:            features,
		Clusters:            clusters,
		ClusterAssignments:  result.Assignments,
	}

	if b.enablePricePercentile {
		applyPricePercentile(m)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("sitegraph: built an invalid SiteMap: %w", err)
	}
	return m, nil
}

func l2norm(row []float32) float32 {
	var sum float64
	for _, v := range row {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}
