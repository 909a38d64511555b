package pipeline

import (
	"time"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/summary"
	"github.com/couchcryptid/storm-mcc-search/internal/track"
)

// Run owns everything produced by one search: the element repository, both
// graphs and the classified features.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Criteria   domain.Criteria
	Grid       domain.Grid
	Times      []time.Time

	Repo     *track.Repository
	Full     *track.Graph // cleaned link graph
	Pruned   *track.Graph
	Lineages []track.Lineage

	MCC [][]domain.CEID // confirmed complexes, each sorted
	MCS [][]domain.CEID // every classified lineage, each sorted

	Features []domain.Feature
	Period   summary.Period
}

// MCCFeatures returns the confirmed complexes among the run's features.
func (r *Run) MCCFeatures() []domain.Feature {
	return r.featuresOf(domain.FeatureMCC)
}

// MCSFeatures returns the lineage features.
func (r *Run) MCSFeatures() []domain.Feature {
	return r.featuresOf(domain.FeatureMCS)
}

func (r *Run) featuresOf(kind domain.FeatureKind) []domain.Feature {
	var out []domain.Feature
	for _, f := range r.Features {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
