// cmd/cortexmap is a minimal diagnostic entrypoint for exercising the
// cortex package end to end: MAP a domain, print its shape, then QUERY
// and PATHFIND against the result. It is not the CLI product; see
// SPEC_FULL.md for the daemon/RPC surface this exercises.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cortexlabs/cortex/cortex"
)

func main() {
	domain := flag.String("domain", "example.com", "domain to map")
	timeout := flag.Duration("timeout", 20*time.Second, "overall CLI timeout")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	d, err := cortex.New(
		cortex.WithDebugLogging(*debug),
		cortex.WithDefaultBudgets(2000, 20, int(*timeout/time.Millisecond)),
	)
	if err != nil {
		log.Fatalf("cortex.New: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("=== MAP %s ===\n", *domain)
	mapRes, err := d.Map(ctx, *domain, cortex.MapOptions{})
	if err != nil {
		log.Fatalf("Map: %v", err)
	}
	fmt.Printf("map_path:   %s\n", mapRes.MapPath)
	fmt.Printf("node_count: %d\n", mapRes.NodeCount)
	fmt.Printf("edge_count: %d\n", mapRes.EdgeCount)
	fmt.Printf("rendered:   %d\n", mapRes.Rendered)
	fmt.Printf("estimated:  %d\n", mapRes.Estimated)
	fmt.Printf("duration:   %dms\n", mapRes.DurationMS)
	if mapRes.ProgressiveActive {
		fmt.Println("note: deadline elapsed before every layer finished (progressive_active)")
	}
	fmt.Println()

	fmt.Println("=== QUERY first 5 nodes ===")
	queryRes, err := d.Query(mapRes.MapPath, cortex.QueryOptions{Limit: 5})
	if err != nil {
		log.Fatalf("Query: %v", err)
	}
	for _, n := range queryRes.Nodes {
		fmt.Printf("  [%d] %s (%s, confidence=%.2f)\n", n.Index, n.URL, n.PageType, n.Confidence)
	}
	fmt.Printf("total_matches: %d\n", queryRes.TotalMatches)
	fmt.Println()

	if len(queryRes.Nodes) >= 2 {
		from, to := queryRes.Nodes[0].Index, queryRes.Nodes[1].Index
		fmt.Printf("=== PATHFIND %d -> %d ===\n", from, to)
		pathRes, err := d.Pathfind(mapRes.MapPath, cortex.PathfindOptions{From: from, To: to})
		if err != nil {
			log.Fatalf("Pathfind: %v", err)
		}
		if len(pathRes.Path) == 0 {
			fmt.Println("no path found")
		} else {
			fmt.Printf("path: %v (hops=%d, total_weight=%d)\n", pathRes.Path, pathRes.Hops, pathRes.TotalWeight)
		}
	}
}
