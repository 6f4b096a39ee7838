// internal/query/nearest.go
//
// NearestNeighbour implements spec §4.6: cosine similarity between a
// query vector and every node row, using the precomputed feature_norm,
// returning the top-k by similarity with ties broken by lower index.
package query

import (
	"math"
	"sort"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Neighbour is one NearestNeighbour result row.
type Neighbour struct {
	Index      int
	URL        string
	Similarity float64
}

// NearestNeighbour returns the top-k nodes by cosine similarity to q.
// k >= node_count returns every node sorted by similarity.
func NearestNeighbour(m *sitegraph.SiteMap, q []float32, k int) []Neighbour {
	m.RLock()
	defer m.RUnlock()

	var qNorm float64
	for _, v := range q {
		qNorm += float64(v) * float64(v)
	}
	qNorm = math.Sqrt(qNorm)

	n := len(m.Nodes)
	out := make([]Neighbour, 0, n)
	for i := 0; i < n; i++ {
		row := m.FeatureRow(i)
		sim := cosineSimilarity(q, row, qNorm, float64(m.Nodes[i].FeatureNorm))
		out = append(out, Neighbour{Index: i, URL: m.Nodes[i].URL, Similarity: sim})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Index < out[j].Index
	})

	if k < 0 {
		k = 0
	}
	if k < len(out) {
		out = out[:k]
	}
	return out
}

func cosineSimilarity(q, row []float32, qNorm, rowNorm float64) float64 {
	if qNorm == 0 || rowNorm == 0 {
		return 0
	}
	n := len(q)
	if len(row) < n {
		n = len(row)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(q[i]) * float64(row[i])
	}
	return dot / (qNorm * rowNorm)
}
