package classify

import (
	"slices"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

// entry is a node recorded in a candidate with the stage it had on arrival.
type entry struct {
	ID    domain.CEID
	Stage domain.Stage
}

// Candidate is a possible MCC inside one lineage.
type Candidate struct {
	Mature       []entry // nodes meeting both shield criteria
	Full         []entry // every node attached to the candidate
	DurationAB   int     // distinct frames meeting both criteria
	CountA       int     // nodes meeting criterion A
	HighestNode  domain.CEID
	HighestFrame int
}

func newCandidate(e entry, a, b bool) *Candidate {
	c := &Candidate{Full: []entry{e}}
	if a {
		c.CountA = 1
	}
	if a && b {
		c.Mature = []entry{e}
		c.DurationAB = 1
		c.HighestNode = e.ID
		c.HighestFrame = e.ID.Frame
	}
	return c
}

func (c *Candidate) hasMature(id domain.CEID) bool {
	return slices.ContainsFunc(c.Mature, func(e entry) bool { return e.ID == id })
}

func (c *Candidate) hasFull(id domain.CEID) bool {
	return slices.ContainsFunc(c.Full, func(e entry) bool { return e.ID == id })
}

func (c *Candidate) hasMatureFrame(frame int) bool {
	return slices.ContainsFunc(c.Mature, func(e entry) bool { return e.ID.Frame == frame })
}

// attach records e in the candidate according to which criteria it met.
func (c *Candidate) attach(e entry, a, b bool) {
	switch {
	case a && b:
		newFrame := !c.hasMatureFrame(e.ID.Frame)
		c.Mature = append(c.Mature, e)
		c.Full = append(c.Full, e)
		if newFrame {
			c.DurationAB++
			c.CountA++
		}
		if e.ID.Frame > c.HighestFrame {
			c.HighestFrame = e.ID.Frame
			c.HighestNode = e.ID
		}
	case a:
		c.Full = append(c.Full, e)
		c.CountA++
	default:
		c.Full = append(c.Full, e)
	}
}

// absorb appends other's nodes and counters to c.
func (c *Candidate) absorb(other *Candidate) {
	c.Mature = append(c.Mature, other.Mature...)
	c.Full = append(c.Full, other.Full...)
	c.DurationAB += other.DurationAB
	c.CountA += other.CountA
	if other.HighestFrame >= c.HighestFrame {
		c.HighestFrame = other.HighestFrame
		c.HighestNode = other.HighestNode
	}
}

// MatureIDs returns the sorted, de-duplicated ids of the mature span.
func (c *Candidate) MatureIDs() []domain.CEID {
	return entryIDs(c.Mature)
}

// FullIDs returns the sorted, de-duplicated ids of every attached node.
func (c *Candidate) FullIDs() []domain.CEID {
	return entryIDs(c.Full)
}

func entryIDs(entries []entry) []domain.CEID {
	ids := make([]domain.CEID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return domain.UniqueSortedCEIDs(ids)
}
