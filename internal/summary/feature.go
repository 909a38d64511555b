// Package summary turns node sets into feature records and period statistics.
package summary

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Elements looks up cloud elements by id.
type Elements interface {
	Get(id domain.CEID) (*domain.CloudElement, error)
}

// Successors answers forward neighbour queries on the pruned graph.
type Successors interface {
	Successors(id domain.CEID) ([]domain.CEID, error)
}

// Builder computes feature attributes from cloud elements.
type Builder struct {
	criteria domain.Criteria
}

// NewBuilder creates a Builder.
func NewBuilder(criteria domain.Criteria) *Builder {
	return &Builder{criteria: criteria}
}

// Build summarizes nodes as a feature of the given kind. Identity and
// processing fields are left for the caller.
func (b *Builder) Build(kind domain.FeatureKind, nodes []domain.CEID, elems Elements, graph Successors) (domain.Feature, error) {
	if len(nodes) == 0 {
		return domain.Feature{}, fmt.Errorf("build %s feature: no nodes", kind)
	}
	ids := domain.UniqueSortedCEIDs(nodes)
	f := domain.Feature{Kind: kind, Nodes: ids, Elements: make([]domain.CloudElement, 0, len(ids))}

	areas := make([]float64, 0, len(ids))
	var largest *domain.CloudElement
	for _, id := range ids {
		ce, err := elems.Get(id)
		if err != nil {
			return domain.Feature{}, fmt.Errorf("build %s feature: %w", kind, err)
		}
		if f.StartTime.IsZero() || ce.Time.Before(f.StartTime) {
			f.StartTime = ce.Time
		}
		if ce.Time.After(f.EndTime) {
			f.EndTime = ce.Time
		}
		if largest == nil || ce.Area > largest.Area {
			largest = ce
		}
		areas = append(areas, ce.Area)
		f.Elements = append(f.Elements, *ce)
	}

	f.DurationHours = f.EndTime.Sub(f.StartTime).Hours() + b.criteria.TRes
	f.MaxArea = floats.Max(areas)
	f.MeanArea = stat.Mean(areas, nil)
	f.MaxExtentNode = largest.ID
	f.CenterLat, f.CenterLon = largest.CenterLat, largest.CenterLon

	speed, err := b.minSpeed(ids, elems, graph)
	if err != nil {
		return domain.Feature{}, fmt.Errorf("build %s feature: %w", kind, err)
	}
	f.MinSpeed = speed
	f.Precip = featurePrecip(f.Elements)
	return f, nil
}

// Speed returns the propagation speed in m/s between two centroids one time
// step apart. A zero displacement on either axis counts as one degree.
func (b *Builder) Speed(from, to *domain.CloudElement) float64 {
	dlat := (from.CenterLat + 90) - (to.CenterLat + 90)
	dlon := (from.CenterLon + 360) - (to.CenterLon + 360)
	if dlat == 0 {
		dlat = 1
	}
	if dlon == 0 {
		dlon = 1
	}
	return math.Abs(dlat / dlon * b.criteria.LatDistance * 1000 / (b.criteria.TRes * 3600))
}

// minSpeed is the slowest CE-to-successor speed inside the feature, or zero
// when no node has a successor in it.
func (b *Builder) minSpeed(ids []domain.CEID, elems Elements, graph Successors) (float64, error) {
	var speeds []float64
	for _, id := range ids {
		succs, err := graph.Successors(id)
		if err != nil {
			return 0, err
		}
		for _, s := range succs {
			if _, found := slices.BinarySearchFunc(ids, s, domain.CEID.Compare); !found {
				continue
			}
			from, err := elems.Get(id)
			if err != nil {
				return 0, err
			}
			to, err := elems.Get(s)
			if err != nil {
				return 0, err
			}
			speeds = append(speeds, b.Speed(from, to))
		}
	}
	if len(speeds) == 0 {
		return 0, nil
	}
	return floats.Min(speeds), nil
}

// featurePrecip sums CE totals per time step. It returns nil when no element
// carries precipitation.
func featurePrecip(elements []domain.CloudElement) *domain.FeaturePrecip {
	var p *domain.FeaturePrecip
	var last time.Time
	for _, ce := range elements {
		if ce.Precip == nil {
			continue
		}
		if p == nil {
			p = &domain.FeaturePrecip{}
		}
		if len(p.HourlyRate) == 0 || !ce.Time.Equal(last) {
			p.HourlyRate = append(p.HourlyRate, 0)
			last = ce.Time
		}
		p.HourlyRate[len(p.HourlyRate)-1] += ce.Precip.Total
		p.Total += ce.Precip.Total
		p.MaxRate = max(p.MaxRate, ce.Precip.Max)
	}
	return p
}
