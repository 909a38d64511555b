package track

import (
	"fmt"
	"math"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Prune builds the pruned graph: for each unvisited root it keeps the
// cheapest of the longest shortest paths, provided that path spans at least
// minLength nodes. Edge weights are copied from full.
func Prune(full *Graph, minLength int) (*Graph, error) {
	pruned := NewGraph()
	visited := make(map[domain.CEID]bool)
	view := ordered{full.g}
	nodes := full.Nodes()

	for _, root := range nodes {
		if visited[root] {
			continue
		}
		best := representativePath(path.DijkstraFrom(simple.Node(nodeID(root)), view), nodes)
		if len(best) < minLength {
			continue
		}

		for i, id := range best {
			pruned.AddNode(id)
			visited[id] = true
			if i == 0 {
				continue
			}
			prev := best[i-1]
			if pruned.HasEdge(prev, id) {
				continue
			}
			w, ok := full.Weight(prev, id)
			if !ok {
				return nil, fmt.Errorf("copy edge %s->%s: %w", prev, id, domain.ErrNodeNotFound)
			}
			pruned.SetEdge(prev, id, w)
		}
	}
	return pruned, nil
}

// representativePath picks, among the shortest paths from the root, the one
// with the most nodes, breaking ties by lower distance and then by earlier
// target id.
func representativePath(sp path.Shortest, targets []domain.CEID) []domain.CEID {
	var best []domain.CEID
	bestDist := math.Inf(1)
	for _, target := range targets {
		nodes, dist := sp.To(nodeID(target))
		if len(nodes) == 0 {
			continue
		}
		if len(nodes) > len(best) || (len(nodes) == len(best) && dist < bestDist) {
			best = best[:0]
			for _, n := range nodes {
				best = append(best, ceID(n.ID()))
			}
			bestDist = dist
		}
	}
	return best
}
