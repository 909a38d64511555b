package track

import (
	"log/slog"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

// Overlap tiers, as percentage of the smaller element covered.
const (
	tier1Overlap = 0.95
	tier2Overlap = 0.90
)

// Linker adds overlap edges between elements of consecutive frames.
type Linker struct {
	criteria domain.Criteria
	logger   *slog.Logger
}

// NewLinker creates a Linker.
func NewLinker(criteria domain.Criteria, logger *slog.Logger) *Linker {
	return &Linker{criteria: criteria, logger: logger}
}

// Link adds every element of curr as a node of g and links it to each element
// of prev it overlaps. prev must be the immediately preceding frame. It returns
// the number of edges added.
func (l *Linker) Link(g *Graph, prev, curr []*domain.CloudElement) int {
	edges := 0
	prevKeys := make([]map[domain.GridKey]struct{}, len(prev))
	for i, p := range prev {
		prevKeys[i] = pixelSet(p.Pixels)
	}

	for _, c := range curr {
		g.AddNode(c.ID)
		for i, p := range prev {
			pct, area := overlap(c.Pixels, prevKeys[i], len(p.Pixels), l.criteria.CellArea())
			weight, ok := l.Tier(pct, area)
			if !ok {
				continue
			}
			g.SetEdge(p.ID, c.ID, weight)
			edges++
		}
	}
	if len(prev) > 0 && len(curr) > 0 {
		l.logger.Debug("frame linked", "frame", curr[0].ID.Frame, "edges", edges)
	}
	return edges
}

// Tier maps an overlap to its edge weight. ok is false when the overlap is too
// small to link.
func (l *Linker) Tier(percentage, area float64) (weight float64, ok bool) {
	switch {
	case percentage >= tier1Overlap:
		return l.criteria.EdgeWeights[0], true
	case percentage >= tier2Overlap:
		return l.criteria.EdgeWeights[1], true
	case area >= l.criteria.MinOverlap:
		return l.criteria.EdgeWeights[2], true
	default:
		return 0, false
	}
}

// Overlap returns the fraction of the smaller element covered by the larger
// one and the overlapping area in km².
func Overlap(current, previous []domain.Pixel, cellArea float64) (percentage, area float64) {
	return overlap(current, pixelSet(previous), len(previous), cellArea)
}

func overlap(current []domain.Pixel, previous map[domain.GridKey]struct{}, previousLen int, cellArea float64) (float64, float64) {
	if len(current) == 0 || previousLen == 0 {
		return 0, 0
	}
	shared := 0
	for _, p := range current {
		if _, ok := previous[p.Key()]; ok {
			shared++
		}
	}
	n := float64(shared)
	pct := max(n/float64(len(current)), n/float64(previousLen))
	return pct, n * cellArea
}

func pixelSet(pixels []domain.Pixel) map[domain.GridKey]struct{} {
	set := make(map[domain.GridKey]struct{}, len(pixels))
	for _, p := range pixels {
		set[p.Key()] = struct{}{}
	}
	return set
}
