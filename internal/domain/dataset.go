package domain

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Grid is a rectilinear lat/lon grid. Row i lies at Lats[i], column j at Lons[j].
type Grid struct {
	Lats []float64 `json:"lats" msgpack:"lats"`
	Lons []float64 `json:"lons" msgpack:"lons"`
}

// Rows returns the number of latitude rows.
func (g Grid) Rows() int { return len(g.Lats) }

// Cols returns the number of longitude columns.
func (g Grid) Cols() int { return len(g.Lons) }

// Validate requires a non-empty grid with strictly increasing coordinates.
func (g Grid) Validate() error {
	if len(g.Lats) == 0 || len(g.Lons) == 0 {
		return fmt.Errorf("%w: empty grid", ErrInvalidDataset)
	}
	if !strictlyIncreasing(g.Lats) {
		return fmt.Errorf("%w: latitudes must be strictly increasing", ErrInvalidDataset)
	}
	if !strictlyIncreasing(g.Lons) {
		return fmt.Errorf("%w: longitudes must be strictly increasing", ErrInvalidDataset)
	}
	return nil
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}

// PrecipSeries is a precipitation-rate series on its own grid, one frame per
// temperature frame. Negative or NaN cells are missing data.
type PrecipSeries struct {
	Grid   Grid
	Frames []*mat.Dense
}

// Dataset is the search input: brightness-temperature frames on a fixed grid
// and their valid times.
type Dataset struct {
	Grid   Grid
	Times  []time.Time
	Frames []*mat.Dense
	Precip *PrecipSeries
}

// Validate checks frame count, shapes and time ordering.
func (d Dataset) Validate() error {
	if len(d.Frames) == 0 {
		return ErrNoFrames
	}
	if err := d.Grid.Validate(); err != nil {
		return err
	}
	if len(d.Times) != len(d.Frames) {
		return fmt.Errorf("%w: %d times for %d frames", ErrInvalidDataset, len(d.Times), len(d.Frames))
	}
	for i, f := range d.Frames {
		r, c := f.Dims()
		if r != d.Grid.Rows() || c != d.Grid.Cols() {
			return fmt.Errorf("%w: frame %d is %dx%d, grid is %dx%d", ErrInvalidDataset, i+1, r, c, d.Grid.Rows(), d.Grid.Cols())
		}
		if i > 0 && !d.Times[i].After(d.Times[i-1]) {
			return fmt.Errorf("%w: frame %d time is not after frame %d", ErrInvalidDataset, i+1, i)
		}
	}
	if d.Precip != nil {
		if err := d.Precip.Grid.Validate(); err != nil {
			return fmt.Errorf("precipitation %w", err)
		}
		if len(d.Precip.Frames) != len(d.Frames) {
			return fmt.Errorf("%w: %d precipitation frames for %d frames", ErrInvalidDataset, len(d.Precip.Frames), len(d.Frames))
		}
		for i, f := range d.Precip.Frames {
			r, c := f.Dims()
			if r != d.Precip.Grid.Rows() || c != d.Precip.Grid.Cols() {
				return fmt.Errorf("%w: precipitation frame %d does not match its grid", ErrInvalidDataset, i+1)
			}
		}
	}
	return nil
}

// Subset clips every temperature frame to the criteria bounding box
// (inclusive). The precipitation series is left on its own grid.
func (d Dataset) Subset(c Criteria) (Dataset, error) {
	r0, r1 := indexRange(d.Grid.Lats, c.LatMin, c.LatMax)
	c0, c1 := indexRange(d.Grid.Lons, c.LonMin, c.LonMax)
	if r0 >= r1 || c0 >= c1 {
		return Dataset{}, fmt.Errorf("%w: bounding box [%g,%g]x[%g,%g] does not intersect the grid",
			ErrInvalidDataset, c.LatMin, c.LatMax, c.LonMin, c.LonMax)
	}

	out := Dataset{
		Grid: Grid{
			Lats: append([]float64(nil), d.Grid.Lats[r0:r1]...),
			Lons: append([]float64(nil), d.Grid.Lons[c0:c1]...),
		},
		Times:  append([]time.Time(nil), d.Times...),
		Frames: make([]*mat.Dense, len(d.Frames)),
		Precip: d.Precip,
	}
	for i, f := range d.Frames {
		out.Frames[i] = mat.DenseCopyOf(f.Slice(r0, r1, c0, c1))
	}
	return out, nil
}

// indexRange returns the half-open index range of sorted xs within [lo, hi].
func indexRange(xs []float64, lo, hi float64) (int, int) {
	start, end := len(xs), len(xs)
	for i, x := range xs {
		if x >= lo {
			start = i
			break
		}
	}
	for i := start; i < len(xs); i++ {
		if xs[i] > hi {
			end = i
			break
		}
	}
	return start, end
}

// MaskWarm returns a copy whose frames hold zero wherever the temperature is
// above tbbMax, missing, or non-positive. Labeling treats zero as background.
func (d Dataset) MaskWarm(tbbMax float64) Dataset {
	out := d
	out.Frames = make([]*mat.Dense, len(d.Frames))
	for i, f := range d.Frames {
		m := mat.DenseCopyOf(f)
		r, c := m.Dims()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				v := m.At(row, col)
				if math.IsNaN(v) || v > tbbMax || v <= 0 {
					m.Set(row, col, 0)
				}
			}
		}
		out.Frames[i] = m
	}
	return out
}
