package summary

import (
	"testing"
	"time"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/track"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2006, 9, 11, 0, 0, 0, 0, time.UTC)

func id(frame, seq int) domain.CEID {
	return domain.CEID{Frame: frame, Seq: seq}
}

func element(ceid domain.CEID, area, lat, lon float64, precip *domain.Precipitation) *domain.CloudElement {
	return &domain.CloudElement{
		ID:        ceid,
		Time:      t0.Add(time.Duration(ceid.Frame-1) * time.Hour),
		Area:      area,
		CenterLat: lat,
		CenterLon: lon,
		Precip:    precip,
	}
}

func fixture(t *testing.T) (*track.Repository, *track.Graph) {
	t.Helper()
	repo := track.NewRepository()
	require.NoError(t, repo.AddFrame(1, []*domain.CloudElement{
		element(id(1, 1), 90000, 10, 2, &domain.Precipitation{Total: 5, Max: 2}),
	}))
	require.NoError(t, repo.AddFrame(2, []*domain.CloudElement{
		element(id(2, 1), 120000, 11, 3, &domain.Precipitation{Total: 7, Max: 4}),
		element(id(2, 2), 30000, 8, 0, &domain.Precipitation{Total: 1, Max: 1}),
	}))
	require.NoError(t, repo.AddFrame(3, []*domain.CloudElement{
		element(id(3, 1), 60000, 12, 5, nil),
	}))

	g := track.NewGraph()
	g.SetEdge(id(1, 1), id(2, 1), 1)
	g.SetEdge(id(1, 1), id(2, 2), 2)
	g.SetEdge(id(2, 1), id(3, 1), 1)
	return repo, g
}

func TestBuild(t *testing.T) {
	repo, g := fixture(t)
	b := NewBuilder(domain.DefaultCriteria())

	f, err := b.Build(domain.FeatureMCC, []domain.CEID{id(3, 1), id(1, 1), id(2, 1), id(1, 1)}, repo, g)
	require.NoError(t, err)

	if diff := cmp.Diff([]domain.CEID{id(1, 1), id(2, 1), id(3, 1)}, f.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.FeatureMCC, f.Kind)
	assert.Equal(t, t0, f.StartTime)
	assert.Equal(t, t0.Add(2*time.Hour), f.EndTime)
	assert.Equal(t, 3.0, f.DurationHours)
	assert.Equal(t, 120000.0, f.MaxArea)
	assert.Equal(t, 90000.0, f.MeanArea)
	assert.Equal(t, id(2, 1), f.MaxExtentNode)
	assert.Equal(t, 11.0, f.CenterLat)
	assert.Equal(t, 3.0, f.CenterLon)
	assert.Len(t, f.Elements, 3)

	// 1->2: dlat/dlon = 1, 2->3: 1/2.
	assert.InDelta(t, 0.5*111*1000/3600, f.MinSpeed, 1e-9)

	require.NotNil(t, f.Precip)
	assert.Equal(t, 12.0, f.Precip.Total)
	assert.Equal(t, 4.0, f.Precip.MaxRate)
	assert.Equal(t, []float64{5, 7}, f.Precip.HourlyRate)
}

func TestBuild_UnknownNode(t *testing.T) {
	repo, g := fixture(t)
	_, err := NewBuilder(domain.DefaultCriteria()).Build(domain.FeatureMCS, []domain.CEID{id(9, 9)}, repo, g)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestBuild_NoNodes(t *testing.T) {
	repo, g := fixture(t)
	_, err := NewBuilder(domain.DefaultCriteria()).Build(domain.FeatureMCS, nil, repo, g)
	assert.Error(t, err)
}

func TestSpeed_ZeroDisplacement(t *testing.T) {
	b := NewBuilder(domain.DefaultCriteria())
	a := &domain.CloudElement{CenterLat: 10, CenterLon: 2}
	c := &domain.CloudElement{CenterLat: 10, CenterLon: 4}

	assert.InDelta(t, 0.5*111*1000/3600, b.Speed(a, c), 1e-9)
	assert.InDelta(t, 111*1000/3600.0, b.Speed(a, a), 1e-9)
}

func TestSummarize(t *testing.T) {
	features := []domain.Feature{
		{ID: "a", DurationHours: 6, MeanArea: 100000, MaxArea: 150000, Precip: &domain.FeaturePrecip{Total: 10}},
		{ID: "b", DurationHours: 12, MeanArea: 200000, MaxArea: 250000},
		{ID: "c", DurationHours: 9, MeanArea: 90000, MaxArea: 95000, Precip: &domain.FeaturePrecip{Total: 2.5}},
	}

	got := Summarize(features)

	want := Period{
		Count:            3,
		LongestHours:     12,
		ShortestHours:    6,
		AverageHours:     9,
		AverageSize:      130000,
		TotalPrecip:      12.5,
		LargestFeatureID: "b",
	}
	assert.Equal(t, want, got)
	assert.Equal(t, Period{}, Summarize(nil))
}
