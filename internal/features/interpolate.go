// internal/features/interpolate.go
//
// Interpolation for nodes whose pages were never rendered (spec §4.3):
// the encoder produces a feature row by averaging the rows of rendered
// pages sharing the same PageType. Fewer than two such samples means
// the row stays zero apart from the URL-derived dimensions copied in
// first, and the caller must set FlagEstimated with
// confidence <= 0.5 and freshness 0.
package features

import "github.com/cortexlabs/cortex/internal/sitegraph"

// urlDerivedDims must never be overwritten by interpolation: their
// source is the URL or HEAD response, not rendered content (spec
// §4.3's "never overwrite URL- or HEAD-derived dimensions" rule).
var urlDerivedDims = []int{
	dimHTTPS, dimPathDepth, dimHasQuery, dimHasFragment, dimDepth,
}

// Sample is one rendered node's (PageType, feature row) pair, the
// input Interpolate needs without depending on the full SiteMap type.
type Sample struct {
	PageType sitegraph.PageType
	Row      []float32
}

// Interpolate averages the rows of rendered samples sharing target's
// PageType. ok is false when fewer than two samples match, in which
// case row is all zeros except the preserved URL-derived dimensions.
func Interpolate(target sitegraph.PageType, samples []Sample, urlDerived []float32) (row []float32, ok bool) {
	var matching [][]float32
	for _, s := range samples {
		if s.PageType == target {
			matching = append(matching, s.Row)
		}
	}

	row = make([]float32, Dims)
	if urlDerived != nil {
		for _, d := range urlDerivedDims {
			row[d] = urlDerived[d]
		}
	}

	if len(matching) < 2 {
		return row, false
	}

	for _, m := range matching {
		for i, v := range m {
			row[i] += v
		}
	}
	n := float32(len(matching))
	for i := range row {
		row[i] /= n
	}
	if urlDerived != nil {
		for _, d := range urlDerivedDims {
			row[d] = urlDerived[d]
		}
	}
	return row, true
}
