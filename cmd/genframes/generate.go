package main

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

const (
	coreTemp     = 195.0 // K at the cloud centre
	edgeTemp     = 243.0 // K at the cloud edge
	clearSkyTemp = 290.0
	rainFreeTemp = 233.0

	gridStep   = 0.1
	precipStep = 0.25
)

// Options shapes the synthetic cloud.
type Options struct {
	Start     time.Time
	Frames    int
	CenterLat float64
	StartLon  float64
	Drift     float64 // degrees per frame, westward
	SemiLat   float64 // peak semi-axis, degrees
	SemiLon   float64
	Precip    bool
	Seed      uint64
}

func defaultOptions() Options {
	return Options{
		Start:     time.Date(2006, time.September, 1, 0, 0, 0, 0, time.UTC),
		Frames:    24,
		CenterLat: 12,
		StartLon:  4.5,
		Drift:     gridStep,
		SemiLat:   6.0,
		SemiLon:   4.8,
		Seed:      1,
	}
}

// cloud is the analytic temperature field of one frame.
type cloud struct {
	lat, lon float64
	semiLat  float64
	semiLon  float64
	visible  bool
}

// cloudAt sizes the cloud along a half-sine life cycle so it peaks mid-series.
func cloudAt(opts Options, frame int) cloud {
	scale := math.Sin(math.Pi * float64(frame+1) / float64(opts.Frames+1))
	return cloud{
		lat:     opts.CenterLat,
		lon:     opts.StartLon - opts.Drift*float64(frame),
		semiLat: opts.SemiLat * scale,
		semiLon: opts.SemiLon * scale,
		visible: scale > 0,
	}
}

// temp returns the cloud-top temperature at a point, or false outside the cloud.
func (c cloud) temp(lat, lon float64) (float64, bool) {
	if !c.visible {
		return 0, false
	}
	dy := (lat - c.lat) / c.semiLat
	dx := (lon - c.lon) / c.semiLon
	r2 := dy*dy + dx*dx
	if r2 > 1 {
		return 0, false
	}
	return coreTemp + (edgeTemp-coreTemp)*r2, true
}

// Generate builds the synthetic dataset over the default search domain.
func Generate(opts Options) (domain.Dataset, error) {
	if opts.Frames < 1 {
		return domain.Dataset{}, errors.New("frames must be at least 1")
	}
	if opts.SemiLat <= 0 || opts.SemiLon <= 0 {
		return domain.Dataset{}, errors.New("cloud semi-axes must be positive")
	}

	c := domain.DefaultCriteria()
	grid := domain.Grid{
		Lats: axis(c.LatMin, c.LatMax, gridStep),
		Lons: axis(c.LonMin, c.LonMax, gridStep),
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	ds := domain.Dataset{Grid: grid}
	for n := range opts.Frames {
		cl := cloudAt(opts, n)
		frame := mat.NewDense(grid.Rows(), grid.Cols(), nil)
		for i, lat := range grid.Lats {
			for j, lon := range grid.Lons {
				if t, ok := cl.temp(lat, lon); ok {
					frame.Set(i, j, t)
					continue
				}
				frame.Set(i, j, clearSkyTemp+rng.NormFloat64()*2)
			}
		}
		ds.Frames = append(ds.Frames, frame)
		ds.Times = append(ds.Times, opts.Start.Add(time.Duration(n)*time.Hour))
	}

	if opts.Precip {
		ds.Precip = precipitation(opts, c)
	}
	return ds, nil
}

// precipitation rains under the cloud where it is colder than rainFreeTemp,
// at one mm/h per four kelvin.
func precipitation(opts Options, c domain.Criteria) *domain.PrecipSeries {
	grid := domain.Grid{
		Lats: axis(c.LatMin, c.LatMax, precipStep),
		Lons: axis(c.LonMin, c.LonMax, precipStep),
	}
	ps := &domain.PrecipSeries{Grid: grid}
	for n := range opts.Frames {
		cl := cloudAt(opts, n)
		field := mat.NewDense(grid.Rows(), grid.Cols(), nil)
		for i, lat := range grid.Lats {
			for j, lon := range grid.Lons {
				if t, ok := cl.temp(lat, lon); ok && t < rainFreeTemp {
					field.Set(i, j, (rainFreeTemp-t)/4)
				}
			}
		}
		ps.Frames = append(ps.Frames, field)
	}
	return ps
}

func axis(lo, hi, step float64) []float64 {
	n := int(math.Round((hi-lo)/step)) + 1
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = lo + float64(i)*step
	}
	return xs
}
