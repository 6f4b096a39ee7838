// cortex/pathfind.go
package cortex

import (
	cerrors "github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/query"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// PathfindOptions carries the PATHFIND call's params (spec §6). From
// and To are graph node indices, the numeric handles QUERY results and
// MAP's node table hand out.
type PathfindOptions struct {
	From, To   int
	AvoidFlags sitegraph.NodeFlags
	Minimize   query.Minimize
}

// PathfindResult is PATHFIND's reply (spec §6).
type PathfindResult struct {
	Path            []int
	TotalWeight     int
	Hops            int
	RequiresActions []sitegraph.Action
}

// Pathfind runs Dijkstra over mapPath's SiteMap (spec §6/§4.6).
func (d *Daemon) Pathfind(mapPath string, opts PathfindOptions) (*PathfindResult, error) {
	entry, err := d.resolveHandle(mapPath)
	if err != nil {
		return nil, err
	}
	defer entry.Release()

	path, err := query.Pathfind(entry.Map, query.PathfindQuery{
		From:       opts.From,
		To:         opts.To,
		AvoidFlags: opts.AvoidFlags,
		Minimize:   opts.Minimize,
	})
	if err != nil {
		return nil, cerrors.New(cerrors.KindPathInvalid, "pathfind failed", err)
	}
	if path == nil {
		return &PathfindResult{}, nil
	}

	return &PathfindResult{
		Path:            path.Nodes,
		TotalWeight:     path.TotalCost,
		Hops:            path.Hops,
		RequiresActions: path.RequiredActions,
	}, nil
}
