// internal/query/pathfind.go
//
// Pathfind implements spec §4.6: Dijkstra over the CSR graph with
// non-negative integer edge costs under one of three minimisation
// modes, returning the required actions inferred from form_submit/
// action_result edges along the path, or a nil Path when none exists
// (not-found is a result, not an error).
package query

import (
	"container/heap"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Minimize selects which Dijkstra edge-cost function Pathfind uses.
type Minimize int

const (
	MinimizeHops Minimize = iota
	MinimizeWeight
	MinimizeStateChanges
)

// PathfindQuery is the full Pathfind input (spec §4.6).
type PathfindQuery struct {
	From, To   int
	AvoidFlags sitegraph.NodeFlags
	Minimize   Minimize
}

// Path is a successful Pathfind result.
type Path struct {
	Nodes           []int
	TotalCost       int
	Hops            int
	RequiredActions []sitegraph.Action
}

// edgeCost returns an edge's cost under the given minimisation mode
// and, for MinimizeStateChanges, the weight used to break ties.
func edgeCost(e sitegraph.Edge, mode Minimize) (cost, tiebreak int) {
	switch mode {
	case MinimizeWeight:
		return int(e.Weight), 0
	case MinimizeStateChanges:
		if e.Flags.Has(sitegraph.EdgeFlagChangesState) {
			return 1, int(e.Weight)
		}
		return 0, int(e.Weight)
	default:
		return 1, 0
	}
}

type pqItem struct {
	node        int
	dist, tieDist int
	index       int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].tieDist < pq[j].tieDist
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// Pathfind runs Dijkstra from 'from' to 'to'. Nodes whose flags
// intersect AvoidFlags are skipped entirely (including as endpoints).
// Returns (nil, nil) when no path exists.
func Pathfind(m *sitegraph.SiteMap, q PathfindQuery) (*Path, error) {
	m.RLock()
	defer m.RUnlock()

	n := len(m.Nodes)
	if q.From < 0 || q.From >= n || q.To < 0 || q.To >= n {
		return nil, nil
	}
	if q.AvoidFlags != 0 {
		if m.Nodes[q.From].Flags.Has(q.AvoidFlags) || m.Nodes[q.To].Flags.Has(q.AvoidFlags) {
			return nil, nil
		}
	}

	const unvisited = -1
	dist := make([]int, n)
	tieDist := make([]int, n)
	prev := make([]int, n)
	prevEdge := make([]int, n) // index into m.Edges of the edge used to reach this node, -1 if none
	// viaNode is the predecessor node index that produced the current
	// best (dist, tieDist) for each target. When a later relaxation
	// ties on both, the lower predecessor index wins, so the winning
	// route is deterministic regardless of edge-insertion order (spec
	// S4: "lowest middle-node-index wins on equal-hop ties").
	viaNode := make([]int, n)
	for i := range dist {
		dist[i] = -1
		prev[i] = unvisited
		prevEdge[i] = -1
		viaNode[i] = n // sentinel: no node index is this large
	}
	dist[q.From] = 0

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{node: q.From, dist: 0, tieDist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem)
		if cur.dist != dist[cur.node] || cur.tieDist != tieDist[cur.node] {
			continue // stale entry
		}
		if cur.node == q.To {
			break
		}

		base := m.EdgeIndex[cur.node]
		end := m.EdgeIndex[cur.node+1]
		for ei := base; ei < end; ei++ {
			e := m.Edges[ei]
			target := int(e.Target)
			if q.AvoidFlags != 0 && m.Nodes[target].Flags.Has(q.AvoidFlags) {
				continue
			}
			cost, tie := edgeCost(e, q.Minimize)
			nd := cur.dist + cost
			nt := cur.tieDist + tie
			improves := dist[target] == -1 || nd < dist[target] ||
				(nd == dist[target] && nt < tieDist[target]) ||
				(nd == dist[target] && nt == tieDist[target] && cur.node < viaNode[target])
			if improves {
				dist[target] = nd
				tieDist[target] = nt
				viaNode[target] = cur.node
				prev[target] = cur.node
				prevEdge[target] = int(ei)
				heap.Push(pq, &pqItem{node: target, dist: nd, tieDist: nt})
			}
		}
	}

	if dist[q.To] == -1 {
		return nil, nil
	}

	var nodes []int
	var edges []int
	for at := q.To; at != q.From; at = prev[at] {
		nodes = append(nodes, at)
		edges = append(edges, prevEdge[at])
		if prev[at] == unvisited {
			return nil, nil // unreachable guard, should not happen given dist check above
		}
	}
	nodes = append(nodes, q.From)
	reverseInts(nodes)
	reverseInts(edges)

	var required []sitegraph.Action
	for _, ei := range edges {
		e := m.Edges[ei]
		if e.Type == sitegraph.EdgeFormSubmit || e.Type == sitegraph.EdgeActionResult {
			required = append(required, actionsForNode(m, int(e.Target))...)
		}
	}

	return &Path{
		Nodes:           nodes,
		TotalCost:       dist[q.To],
		Hops:            len(nodes) - 1,
		RequiredActions: required,
	}, nil
}

func actionsForNode(m *sitegraph.SiteMap, node int) []sitegraph.Action {
	base := m.ActionIndex[node]
	end := m.ActionIndex[node+1]
	return m.Actions[base:end]
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
