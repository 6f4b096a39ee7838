// cortex/refresh.go
//
// Refresh implements the REFRESH RPC (spec §4.7/§6): re-fetches a node
// subset, reruns Extraction and Encoder, and writes the updated rows
// under mapcache.Manager.Refresh's exclusive lock, reporting each
// changed field (spec S6: "Response reports one change: {node: N,
// field: 'features.48', old: X, new: Y}").
package cortex

import (
	"context"
	"fmt"
	"time"

	"github.com/cortexlabs/cortex/internal/classify"
	"github.com/cortexlabs/cortex/internal/detect"
	cerrors "github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/extract"
	"github.com/cortexlabs/cortex/internal/features"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// RefreshRequest selects the node subset to re-fetch (spec §4.7: "a
// subset of nodes (explicit list, cluster id, or freshness < threshold)").
// Zero or more selectors may be combined; a node matching any of them
// is refreshed once.
type RefreshRequest struct {
	NodeIndices        []int
	ClusterID          *int
	FreshnessThreshold *float64
}

// FieldChange is one field's before/after value from a REFRESH.
type FieldChange struct {
	Node  int
	Field string
	Old   string
	New   string
}

// RefreshResult is REFRESH's reply.
type RefreshResult struct {
	Changes []FieldChange
}

// Refresh re-acquires req's selected nodes in mapPath's SiteMap.
func (d *Daemon) Refresh(ctx context.Context, mapPath string, req RefreshRequest) (*RefreshResult, error) {
	h, ok := d.handles.resolve(mapPath)
	if !ok {
		return nil, cerrors.New(cerrors.KindMapNotFound, "unknown map_path", nil)
	}

	var changes []FieldChange
	err := d.cache.Refresh(h.domain, h.params, func(m *sitegraph.SiteMap) error {
		for _, idx := range selectRefreshIndices(m, req) {
			if idx < 0 || idx >= len(m.Nodes) {
				continue
			}
			c, err := d.refreshNode(ctx, m, idx)
			if err != nil {
				d.logger.Warnf("cortex: refresh node %d (%s) failed: %v", idx, m.Nodes[idx].URL, err)
				continue
			}
			changes = append(changes, c...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Changes: changes}, nil
}

// ProgressiveRefresh runs REFRESH against mapPath on a fixed interval,
// selecting nodes below threshold each tick, until ctx is cancelled
// (Open Question 2: "background REFRESH loop driven by freshness
// threshold"). It is an opt-in ticker owned by the caller through ctx,
// not a goroutine Daemon starts on its own, so callers that never
// invoke it pay nothing and callers that do control its lifetime with
// the same context they'd use for any other cancellable call. The
// returned channel is closed when the loop exits.
func (d *Daemon) ProgressiveRefresh(ctx context.Context, mapPath string, interval time.Duration, threshold float64) <-chan *RefreshResult {
	out := make(chan *RefreshResult)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := d.Refresh(ctx, mapPath, RefreshRequest{FreshnessThreshold: &threshold})
				if err != nil {
					d.logger.Warnf("cortex: progressive refresh %s failed: %v", mapPath, err)
					continue
				}
				select {
				case out <- res:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// selectRefreshIndices resolves a RefreshRequest's explicit-list,
// cluster-id and freshness-threshold selectors into a deduplicated
// index set, under the caller's lock.
func selectRefreshIndices(m *sitegraph.SiteMap, req RefreshRequest) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}

	for _, i := range req.NodeIndices {
		add(i)
	}
	if req.ClusterID != nil {
		for i, n := range m.Nodes {
			if n.ClusterID == *req.ClusterID {
				add(i)
			}
		}
	}
	if req.FreshnessThreshold != nil {
		for i, n := range m.Nodes {
			if n.Freshness < *req.FreshnessThreshold {
				add(i)
			}
		}
	}
	return out
}

// refreshNode re-fetches one node's URL, reruns Extraction/Classify/
// Encode, writes the result in place and reports every changed field.
func (d *Daemon) refreshNode(ctx context.Context, m *sitegraph.SiteMap, idx int) ([]FieldChange, error) {
	node := &m.Nodes[idx]
	url := node.URL

	resp, err := d.http.Fetch(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("refetch %q: %w", url, err)
	}

	doc, err := ihtml.ParseDocument(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", url, err)
	}
	sd := extract.BuildStructuredData(doc, url)
	hint := detect.Detect(resp.Body, resp.Header).SubType

	class := classify.Classify(sd, url, hint)
	newRow := features.Encode(sd, class, features.Context{
		Depth:      node.Depth,
		HTTPStatus: resp.StatusCode,
		IsHTTPS:    isHTTPS(url),
	})
	oldRow := m.FeatureRow(idx)

	var changes []FieldChange
	for dim := range newRow {
		if newRow[dim] != oldRow[dim] {
			changes = append(changes, FieldChange{
				Node:  idx,
				Field: fmt.Sprintf("features.%d", dim),
				Old:   fmt.Sprintf("%v", oldRow[dim]),
				New:   fmt.Sprintf("%v", newRow[dim]),
			})
		}
	}
	copy(oldRow, newRow)

	newHash := contentHash(sd)
	if newHash != node.ContentHash {
		changes = append(changes, FieldChange{
			Node: idx, Field: "content_hash",
			Old: fmt.Sprintf("%d", node.ContentHash), New: fmt.Sprintf("%d", newHash),
		})
		node.ContentHash = newHash
	}
	if node.HTTPStatus != resp.StatusCode {
		changes = append(changes, FieldChange{
			Node: idx, Field: "http_status",
			Old: fmt.Sprintf("%d", node.HTTPStatus), New: fmt.Sprintf("%d", resp.StatusCode),
		})
		node.HTTPStatus = resp.StatusCode
	}
	node.Freshness = 1.0

	return changes, nil
}
