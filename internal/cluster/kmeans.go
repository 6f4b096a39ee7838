// internal/cluster/kmeans.go
//
// Package cluster implements the deterministic k-means grouping the
// Builder runs over a finished feature matrix (spec §4.4).
//
// Determinism requirement: identical inputs (same domain, same feature
// rows) must produce identical cluster assignments and centroids, so
// seeding uses a PRNG seeded from an FNV-1a hash of the domain string
// rather than time or crypto/rand.
package cluster

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// Result holds the output of a k-means run.
type Result struct {
	Assignments []int
	Centroids   [][]float32
}

// K computes the spec's cluster count formula: max(3, round(sqrt(n/10))).
// Degenerate sites (node_count <= k*2) collapse to a single cluster.
func K(nodeCount int) int {
	if nodeCount <= 0 {
		return 1
	}
	k := int(math.Round(math.Sqrt(float64(nodeCount) / 10.0)))
	if k < 3 {
		k = 3
	}
	if nodeCount <= k*2 {
		return 1
	}
	return k
}

// seedFromDomain derives a deterministic PRNG seed from the domain name.
func seedFromDomain(domain string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(domain))
	return int64(h.Sum64())
}

// Run clusters the given rows (node_count x dims, row-major) into k
// clusters. centroid 0 is the feature-norm-weighted median node;
// subsequent centroids are chosen by k-means++ using a PRNG seeded from
// domain, guaranteeing reproducible output for identical inputs.
func Run(rows [][]float32, k int, domain string) Result {
	n := len(rows)
	if n == 0 {
		return Result{}
	}
	if k <= 0 {
		k = 1
	}
	if k > n {
		k = n
	}
	dims := len(rows[0])

	rng := rand.New(rand.NewSource(seedFromDomain(domain)))

	centroids := make([][]float32, 0, k)
	centroids = append(centroids, append([]float32(nil), medianByNorm(rows)...))

	for len(centroids) < k {
		next := kmeansPlusPlusNext(rows, centroids, rng)
		centroids = append(centroids, append([]float32(nil), rows[next]...))
	}

	assignments := make([]int, n)
	const maxIters = 25

	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for i, row := range rows {
			best := nearestCentroid(row, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, row := range rows {
			c := assignments[i]
			counts[c]++
			for d, v := range row {
				sums[c][d] += float64(v)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	return Result{Assignments: assignments, Centroids: centroids}
}

func medianByNorm(rows [][]float32) []float32 {
	type scored struct {
		idx  int
		norm float64
	}
	scores := make([]scored, len(rows))
	for i, row := range rows {
		var sum float64
		for _, v := range row {
			sum += float64(v) * float64(v)
		}
		scores[i] = scored{i, math.Sqrt(sum)}
	}
	// Selection of the median by norm, stable on ties (lower index wins).
	for i := 1; i < len(scores); i++ {
		for j := i; j > 0 && scores[j].norm < scores[j-1].norm; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
		}
	}
	mid := len(scores) / 2
	return rows[scores[mid].idx]
}

func nearestCentroid(row []float32, centroids [][]float32) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		d := sqDist(row, centroid)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func sqDist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum
}

// kmeansPlusPlusNext picks the next centroid with probability proportional
// to squared distance from the nearest existing centroid.
func kmeansPlusPlusNext(rows [][]float32, centroids [][]float32, rng *rand.Rand) int {
	weights := make([]float64, len(rows))
	var total float64
	for i, row := range rows {
		best := math.Inf(1)
		for _, c := range centroids {
			d := sqDist(row, c)
			if d < best {
				best = d
			}
		}
		weights[i] = best
		total += best
	}
	if total == 0 {
		return rng.Intn(len(rows))
	}
	target := rng.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += w
		if acc >= target {
			return i
		}
	}
	return len(rows) - 1
}
