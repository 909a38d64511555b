package track

import (
	"math"
	"slices"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Edge is a weighted link between cloud elements in consecutive frames.
type Edge struct {
	From   domain.CEID `json:"from"`
	To     domain.CEID `json:"to"`
	Weight float64     `json:"weight"`
}

// Graph is a directed weighted graph keyed by cloud element id. Neighbour
// queries always return ids in sorted order.
type Graph struct {
	g *simple.WeightedDirectedGraph
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{g: simple.NewWeightedDirectedGraph(0, math.Inf(1))}
}

func nodeID(id domain.CEID) int64 {
	return int64(id.Frame)<<32 | int64(id.Seq)
}

func ceID(n int64) domain.CEID {
	return domain.CEID{Frame: int(n >> 32), Seq: int(n & 0xffffffff)}
}

// AddNode adds id if it is not already present.
func (g *Graph) AddNode(id domain.CEID) {
	if g.g.Node(nodeID(id)) == nil {
		g.g.AddNode(simple.Node(nodeID(id)))
	}
}

// Has reports whether id is a node.
func (g *Graph) Has(id domain.CEID) bool {
	return g.g.Node(nodeID(id)) != nil
}

// SetEdge adds or replaces the edge from→to, adding missing nodes.
func (g *Graph) SetEdge(from, to domain.CEID, weight float64) {
	g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(nodeID(from)), simple.Node(nodeID(to)), weight))
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to domain.CEID) bool {
	return g.g.HasEdgeFromTo(nodeID(from), nodeID(to))
}

// Weight returns the weight of from→to.
func (g *Graph) Weight(from, to domain.CEID) (float64, bool) {
	e := g.g.WeightedEdge(nodeID(from), nodeID(to))
	if e == nil {
		return 0, false
	}
	return e.Weight(), true
}

// Successors returns the sorted direct successors of id.
func (g *Graph) Successors(id domain.CEID) ([]domain.CEID, error) {
	if !g.Has(id) {
		return nil, domain.NodeNotFound(id)
	}
	return sortedIDs(g.g.From(nodeID(id))), nil
}

// Predecessors returns the sorted direct predecessors of id.
func (g *Graph) Predecessors(id domain.CEID) ([]domain.CEID, error) {
	if !g.Has(id) {
		return nil, domain.NodeNotFound(id)
	}
	return sortedIDs(g.g.To(nodeID(id))), nil
}

// Degree returns the in and out degree of id.
func (g *Graph) Degree(id domain.CEID) (in, out int, err error) {
	if !g.Has(id) {
		return 0, 0, domain.NodeNotFound(id)
	}
	return g.g.To(nodeID(id)).Len(), g.g.From(nodeID(id)).Len(), nil
}

// Nodes returns every node in sorted order.
func (g *Graph) Nodes() []domain.CEID {
	return sortedIDs(g.g.Nodes())
}

// Len returns the node count.
func (g *Graph) Len() int { return g.g.Nodes().Len() }

// Edges returns every edge ordered by source then target.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, from := range g.Nodes() {
		for _, to := range sortedIDs(g.g.From(nodeID(from))) {
			w, _ := g.Weight(from, to)
			out = append(out, Edge{From: from, To: to, Weight: w})
		}
	}
	return out
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return g.g.Edges().Len()
}

// RemoveIsolated deletes nodes with no incoming or outgoing edge and returns
// their ids.
func (g *Graph) RemoveIsolated() []domain.CEID {
	var removed []domain.CEID
	for _, id := range g.Nodes() {
		n := nodeID(id)
		if g.g.From(n).Len() == 0 && g.g.To(n).Len() == 0 {
			g.g.RemoveNode(n)
			removed = append(removed, id)
		}
	}
	return removed
}

// WeakComponents returns the weakly connected components, each sorted, in
// order of their earliest node.
func (g *Graph) WeakComponents() [][]domain.CEID {
	comps := topo.ConnectedComponents(graph.Undirect{G: g.g})
	out := make([][]domain.CEID, 0, len(comps))
	for _, c := range comps {
		ids := make([]domain.CEID, len(c))
		for i, n := range c {
			ids[i] = ceID(n.ID())
		}
		domain.SortCEIDs(ids)
		out = append(out, ids)
	}
	slices.SortFunc(out, func(a, b []domain.CEID) int { return a[0].Compare(b[0]) })
	return out
}

// ordered presents the graph to gonum algorithms with successors in id order
// so shortest-path ties resolve the same way on every run.
type ordered struct {
	*simple.WeightedDirectedGraph
}

func (o ordered) From(id int64) graph.Nodes {
	nodes := graph.NodesOf(o.WeightedDirectedGraph.From(id))
	if len(nodes) == 0 {
		return graph.Empty
	}
	slices.SortFunc(nodes, func(a, b graph.Node) int { return ceID(a.ID()).Compare(ceID(b.ID())) })
	return iterator.NewOrderedNodes(nodes)
}

func sortedIDs(it graph.Nodes) []domain.CEID {
	ids := make([]domain.CEID, 0, max(it.Len(), 0))
	for it.Next() {
		ids = append(ids, ceID(it.Node().ID()))
	}
	domain.SortCEIDs(ids)
	return ids
}
