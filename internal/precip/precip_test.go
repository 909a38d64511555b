package precip

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBilinear_Midpoint(t *testing.T) {
	src := domain.Grid{Lats: []float64{0, 1}, Lons: []float64{0, 1}}
	field := mat.NewDense(2, 2, []float64{0, 1, 2, 3})
	dst := domain.Grid{Lats: []float64{0, 0.5, 1}, Lons: []float64{0.5}}

	out := Bilinear{}.Regrid(src, field, dst)

	assert.InDelta(t, 0.5, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.5, out.At(1, 0), 1e-12)
	assert.InDelta(t, 2.5, out.At(2, 0), 1e-12)
}

func TestBilinear_MasksOutsideDomain(t *testing.T) {
	src := domain.Grid{Lats: []float64{0, 1}, Lons: []float64{0, 1}}
	field := mat.NewDense(2, 2, []float64{0, 1, 2, 3})
	dst := domain.Grid{Lats: []float64{-5, 0.5, 1, 7}, Lons: []float64{1, 5}}

	out := Bilinear{}.Regrid(src, field, dst)

	tests := []struct {
		name     string
		row, col int
		want     float64
	}{
		{"south of domain", 0, 0, math.NaN()},
		{"east of domain", 1, 1, math.NaN()},
		{"north of domain", 3, 0, math.NaN()},
		{"on east edge", 1, 0, 2},
		{"on north-east corner", 2, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := out.At(tt.row, tt.col)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestBilinear_MasksMissingData(t *testing.T) {
	src := domain.Grid{Lats: []float64{0, 1, 2}, Lons: []float64{0, 1, 2}}
	field := mat.NewDense(3, 3, []float64{
		math.NaN(), 1, 1,
		1, 1, 1,
		1, 1, -1,
	})
	dst := domain.Grid{Lats: []float64{0.5, 1, 1.5}, Lons: []float64{0.5, 1, 1.5}}

	out := Bilinear{}.Regrid(src, field, dst)

	assert.True(t, math.IsNaN(out.At(0, 0)), "touches the NaN corner")
	assert.True(t, math.IsNaN(out.At(2, 2)), "touches the negative corner")
	assert.Equal(t, 1.0, out.At(1, 1))
	assert.InDelta(t, 1.0, out.At(0, 2), 1e-12)
}

func TestSummarize(t *testing.T) {
	field := mat.NewDense(2, 3, []float64{
		0, 2, 5,
		math.NaN(), 1, 0,
	})
	pixels := []domain.Pixel{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 9, Col: 9}}

	got := Summarize(field, pixels, 16)

	assert.Equal(t, &domain.Precipitation{Total: 8, Max: 5, Min: 1, Area: 48}, got)
	assert.Equal(t, &domain.Precipitation{}, Summarize(field, nil, 16))
}

func TestEnricher_Enrich(t *testing.T) {
	repo := track.NewRepository()
	ce := &domain.CloudElement{ID: domain.CEID{Frame: 1, Seq: 1}, Pixels: []domain.Pixel{{Row: 0, Col: 0}, {Row: 1, Col: 1}}}
	require.NoError(t, repo.AddFrame(1, []*domain.CloudElement{ce}))
	require.NoError(t, repo.AddFrame(2, nil))

	grid := domain.Grid{Lats: []float64{0, 1}, Lons: []float64{0, 1}}
	series := &domain.PrecipSeries{
		Grid:   grid,
		Frames: []*mat.Dense{mat.NewDense(2, 2, []float64{4, 0, 0, 6}), mat.NewDense(2, 2, nil)},
	}
	e := NewEnricher(Bilinear{}, domain.DefaultCriteria(), discardLogger())

	n, err := e.Enrich(context.Background(), grid, series, repo)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NotNil(t, ce.Precip)
	assert.Equal(t, 10.0, ce.Precip.Total)
	assert.Equal(t, 32.0, ce.Precip.Area)
}

func TestEnricher_RejectsShortSeries(t *testing.T) {
	repo := track.NewRepository()
	require.NoError(t, repo.AddFrame(1, nil))
	e := NewEnricher(Bilinear{}, domain.DefaultCriteria(), discardLogger())

	_, err := e.Enrich(context.Background(), domain.Grid{}, &domain.PrecipSeries{}, repo)
	assert.ErrorIs(t, err, domain.ErrInvalidDataset)
}
