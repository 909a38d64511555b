package summary

import (
	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Period aggregates the features found in one run.
type Period struct {
	Count            int     `json:"count"`
	LongestHours     float64 `json:"longest_hours"`
	ShortestHours    float64 `json:"shortest_hours"`
	AverageHours     float64 `json:"average_hours"`
	AverageSize      float64 `json:"average_size"` // mean of per-feature mean areas, km²
	TotalPrecip      float64 `json:"total_precip"`
	LargestFeatureID string  `json:"largest_feature_id,omitempty"`
}

// Summarize computes period statistics over features. An empty input yields
// a zero Period.
func Summarize(features []domain.Feature) Period {
	if len(features) == 0 {
		return Period{}
	}
	durations := make([]float64, len(features))
	sizes := make([]float64, len(features))
	p := Period{Count: len(features)}
	largest := 0
	for i, f := range features {
		durations[i] = f.DurationHours
		sizes[i] = f.MeanArea
		if f.Precip != nil {
			p.TotalPrecip += f.Precip.Total
		}
		if f.MaxArea > features[largest].MaxArea {
			largest = i
		}
	}
	p.LongestHours = floats.Max(durations)
	p.ShortestHours = floats.Min(durations)
	p.AverageHours = stat.Mean(durations, nil)
	p.AverageSize = stat.Mean(sizes, nil)
	p.LargestFeatureID = features[largest].ID
	return p
}
