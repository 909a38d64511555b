package track

import (
	"fmt"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

// Lineage is one weakly connected component of the pruned graph.
type Lineage struct {
	Nodes []domain.CEID // sorted
	Order []domain.CEID // traversal order, input to classification
}

// Lineages linearizes every component of pruned holding at least minNodes
// nodes.
func Lineages(pruned *Graph, minNodes int) ([]Lineage, error) {
	var out []Lineage
	for _, comp := range pruned.WeakComponents() {
		if len(comp) < minNodes {
			continue
		}
		order, err := Traverse(pruned, comp)
		if err != nil {
			return nil, err
		}
		out = append(out, Lineage{Nodes: comp, Order: order})
	}
	return out, nil
}

// Traverse walks one component starting at its earliest node with a modified
// depth-first search over the directed edges. Unvisited predecessors go to the
// front of the work list after the current node's unvisited successors, so a
// merge branch is walked before forward progress resumes. Successors go to the
// front when they are merge points or the current node is already visited,
// otherwise to the back. The next node is the frontmost unvisited entry.
//
// The result lists every node of comp exactly once.
func Traverse(g *Graph, comp []domain.CEID) ([]domain.CEID, error) {
	if len(comp) == 0 {
		return nil, nil
	}
	inComp := make(map[domain.CEID]bool, len(comp))
	for _, id := range comp {
		inComp[id] = true
	}

	visited := make(map[domain.CEID]bool, len(comp))
	queued := make(map[domain.CEID]bool, len(comp))
	var work deque
	order := make([]domain.CEID, 0, len(comp))

	current := comp[0]
	for {
		visited[current] = true
		order = append(order, current)
		if len(order) == len(comp) {
			return order, nil
		}

		preds, err := g.Predecessors(current)
		if err != nil {
			return nil, err
		}
		succs, err := g.Successors(current)
		if err != nil {
			return nil, err
		}

		pending := func(id domain.CEID) bool {
			return inComp[id] && !visited[id] && !queued[id]
		}
		for _, parent := range preds {
			if !pending(parent) {
				continue
			}
			for _, child := range succs {
				if pending(child) {
					work.pushFront(child)
					queued[child] = true
				}
			}
			work.pushFront(parent)
			queued[parent] = true
		}
		for _, child := range succs {
			if !pending(child) {
				continue
			}
			childPreds, err := g.Predecessors(child)
			if err != nil {
				return nil, err
			}
			if len(childPreds) > 1 || visited[current] {
				work.pushFront(child)
			} else {
				work.pushBack(child)
			}
			queued[child] = true
		}

		next, ok := work.popUnvisited(visited)
		if !ok {
			return nil, fmt.Errorf("traverse component at %s: %d of %d nodes reachable", comp[0], len(order), len(comp))
		}
		current = next
	}
}

// deque is a double-ended work list of node ids.
type deque struct {
	items []domain.CEID
}

func (d *deque) pushFront(id domain.CEID) {
	d.items = append(d.items, domain.CEID{})
	copy(d.items[1:], d.items)
	d.items[0] = id
}

func (d *deque) pushBack(id domain.CEID) {
	d.items = append(d.items, id)
}

// popUnvisited removes and returns the frontmost entry not yet visited.
func (d *deque) popUnvisited(visited map[domain.CEID]bool) (domain.CEID, bool) {
	for len(d.items) > 0 {
		id := d.items[0]
		d.items = d.items[1:]
		if !visited[id] {
			return id, true
		}
	}
	return domain.CEID{}, false
}
