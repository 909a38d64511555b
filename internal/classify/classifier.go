// Package classify decides which lineages are mesoscale convective complexes
// using the Laurent et al. (1998) shield, duration and shape criteria.
package classify

import (
	"log/slog"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/labeling"
	"github.com/couchcryptid/storm-mcc-search/internal/track"
)

// Elements looks up cloud elements by id.
type Elements interface {
	Get(id domain.CEID) (*domain.CloudElement, error)
}

// Topology answers neighbour queries on the pruned graph.
type Topology interface {
	Predecessors(id domain.CEID) ([]domain.CEID, error)
	Successors(id domain.CEID) ([]domain.CEID, error)
	Degree(id domain.CEID) (in, out int, err error)
}

// Links reports edge weights of the full link graph.
type Links interface {
	Weight(from, to domain.CEID) (float64, bool)
}

// Result is the classification of one lineage.
type Result struct {
	MCS        []domain.CEID   // every node of the lineage, sorted
	MCC        [][]domain.CEID // confirmed complexes, each sorted
	Candidates []*Candidate    // candidates after consolidation
}

// Classifier runs the lifecycle state machine over a lineage.
type Classifier struct {
	criteria domain.Criteria
	logger   *slog.Logger
}

// New creates a Classifier.
func New(criteria domain.Criteria, logger *slog.Logger) *Classifier {
	return &Classifier{criteria: criteria, logger: logger}
}

// Classify evaluates one lineage. Behavior and lifecycle tags are written to
// the elements; existing tags are kept.
func (c *Classifier) Classify(lin track.Lineage, elems Elements, pruned Topology, full Links) (Result, error) {
	res := Result{MCS: lin.Nodes}

	for _, id := range lin.Nodes {
		ce, err := elems.Get(id)
		if err != nil {
			return res, nodeError(id, err)
		}
		in, out, err := pruned.Degree(id)
		if err != nil {
			return res, nodeError(id, err)
		}
		ce.SetBehavior(domain.BehaviorFromDegree(in, out))
	}

	candidates, err := c.candidates(lin.Order, elems, pruned)
	if err != nil {
		return res, err
	}
	candidates = Consolidate(candidates, full)
	res.Candidates = candidates

	for _, cand := range candidates {
		if !c.DurationOK(cand.DurationAB) {
			continue
		}
		if err := tagLifecycle(cand, lin.Nodes, elems); err != nil {
			return res, err
		}
		ok, maxNode, err := c.extentOK(cand.FullIDs(), elems)
		if err != nil {
			return res, err
		}
		if !ok {
			c.logger.Debug("candidate failed eccentricity gate",
				"lineage", lin.Nodes[0].String(),
				"candidate", cand.FullIDs()[0].String(),
				"max_extent_node", maxNode.String())
			continue
		}
		res.MCC = append(res.MCC, cand.FullIDs())
	}

	// Nodes not covered by a confirmed complex keep the stage they had on arrival.
	for _, cand := range candidates {
		for _, e := range cand.Full {
			ce, err := elems.Get(e.ID)
			if err != nil {
				return res, nodeError(e.ID, err)
			}
			ce.SetStage(e.Stage)
		}
	}
	return res, nil
}

// candidates walks the traversal order and attaches each node to a candidate.
func (c *Classifier) candidates(order []domain.CEID, elems Elements, pruned Topology) ([]*Candidate, error) {
	var cands []*Candidate
	state := domain.StageUnset

	for _, id := range order {
		ce, err := elems.Get(id)
		if err != nil {
			return nil, nodeError(id, err)
		}
		a, b := c.Evaluate(ce)
		var stage domain.Stage
		stage, state = Transition(state, a, b)
		e := entry{ID: id, Stage: stage}

		idx, err := locate(cands, id, pruned)
		if err != nil {
			return nil, nodeError(id, err)
		}
		if idx < 0 {
			cands = append(cands, newCandidate(e, a, b))
			continue
		}
		cands[idx].attach(e, a, b)
	}
	return cands, nil
}

// Evaluate tests the outer (A) and inner (B) cold-shield criteria and records
// the inner shield on the element whenever it is measured.
func (c *Classifier) Evaluate(ce *domain.CloudElement) (a, b bool) {
	if ce.Area < c.criteria.OuterShieldArea {
		return false, false
	}
	cell := c.criteria.CellArea()
	areaA, _ := labeling.Shield(ce.Pixels, c.criteria.OuterShieldTemp, cell)
	if areaA < c.criteria.OuterShieldArea {
		return false, false
	}
	areaB, coldB := labeling.Shield(ce.Pixels, c.criteria.InnerShieldTemp, cell)
	ce.SetCriteriaB(areaB, coldB)
	return true, areaB >= c.criteria.InnerShieldArea
}

// DurationOK applies the total mature duration gate in hours.
func (c *Classifier) DurationOK(durationAB int) bool {
	hours := float64(durationAB) * c.criteria.TRes
	return hours >= c.criteria.MinimumDuration && hours <= c.criteria.MaximumDuration
}

// locate finds the candidate a node joins: a predecessor in a mature span, a
// predecessor anywhere in a candidate, then the same for successors. It
// returns -1 when the node starts a new candidate.
func locate(cands []*Candidate, id domain.CEID, pruned Topology) (int, error) {
	if len(cands) == 0 {
		return -1, nil
	}
	preds, err := pruned.Predecessors(id)
	if err != nil {
		return -1, err
	}
	succs, err := pruned.Successors(id)
	if err != nil {
		return -1, err
	}

	checks := []struct {
		neighbours []domain.CEID
		matureOnly bool
	}{
		{preds, true},
		{preds, false},
		{succs, true},
		{succs, false},
	}
	for _, chk := range checks {
		for _, n := range chk.neighbours {
			for i, cand := range cands {
				if chk.matureOnly && cand.hasMature(n) || !chk.matureOnly && cand.hasFull(n) {
					return i, nil
				}
			}
		}
	}
	return -1, nil
}

// Consolidate folds each candidate into the one before it when the earlier
// candidate's last mature node links directly to the later one's first mature
// node in the full graph. The list is rebuilt rather than edited in place and
// the fold repeats until stable.
func Consolidate(cands []*Candidate, full Links) []*Candidate {
	for {
		merged := false
		out := make([]*Candidate, 0, len(cands))
		for _, cand := range cands {
			if n := len(out); n > 0 && contiguous(out[n-1], cand, full) {
				out[n-1].absorb(cand)
				merged = true
				continue
			}
			out = append(out, cand)
		}
		cands = out
		if !merged {
			return cands
		}
	}
}

func contiguous(prev, next *Candidate, full Links) bool {
	prevIDs, nextIDs := prev.MatureIDs(), next.MatureIDs()
	if len(prevIDs) == 0 || len(nextIDs) == 0 {
		return false
	}
	_, ok := full.Weight(prevIDs[len(prevIDs)-1], nextIDs[0])
	return ok
}

// tagLifecycle marks nodes before the mature span as initiation, mature nodes
// as maturity and nodes after it, in the candidate or anywhere in the
// lineage, as decay.
func tagLifecycle(cand *Candidate, lineage []domain.CEID, elems Elements) error {
	mature := cand.MatureIDs()
	if len(mature) == 0 {
		return nil
	}
	first, last := mature[0], mature[len(mature)-1]

	arrival := make(map[domain.CEID]domain.Stage, len(cand.Full))
	for _, e := range cand.Full {
		if _, ok := arrival[e.ID]; !ok {
			arrival[e.ID] = e.Stage
		}
	}

	set := func(id domain.CEID, s domain.Stage) error {
		ce, err := elems.Get(id)
		if err != nil {
			return nodeError(id, err)
		}
		ce.SetStage(s)
		return nil
	}

	for _, id := range cand.FullIDs() {
		var s domain.Stage
		switch {
		case id.Less(first):
			s = domain.StageInitiation
		case last.Less(id):
			s = domain.StageDecay
		case cand.hasMature(id):
			s = domain.StageMaturity
		default:
			s = arrival[id]
		}
		if err := set(id, s); err != nil {
			return err
		}
	}
	for _, id := range lineage {
		if last.Less(id) {
			if err := set(id, domain.StageDecay); err != nil {
				return err
			}
		}
	}
	return nil
}

// extentOK finds the largest maturity or decay node and checks its
// eccentricity.
func (c *Classifier) extentOK(ids []domain.CEID, elems Elements) (bool, domain.CEID, error) {
	var best *domain.CloudElement
	for _, id := range ids {
		ce, err := elems.Get(id)
		if err != nil {
			return false, domain.CEID{}, nodeError(id, err)
		}
		if ce.Stage != domain.StageMaturity && ce.Stage != domain.StageDecay {
			continue
		}
		if best == nil || ce.Area > best.Area {
			best = ce
		}
	}
	if best == nil {
		return false, domain.CEID{}, nil
	}
	ecc := best.Eccentricity
	return ecc >= c.criteria.EccentricityMin && ecc <= c.criteria.EccentricityMax, best.ID, nil
}

// nodeError attributes a lookup failure to the node that triggered it.
func nodeError(id domain.CEID, err error) error {
	return &domain.StageError{Stage: domain.StageClassification, Node: id, Err: err}
}
