// Package precip samples precipitation rates under cloud elements.
package precip

import (
	"math"
	"sort"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Regridder moves a field from one grid onto another.
type Regridder interface {
	Regrid(src domain.Grid, field mat.Matrix, dst domain.Grid) *mat.Dense
}

// Bilinear interpolates on rectilinear grids. Destination points outside the
// source domain are NaN; points on its boundary take the edge values. A
// destination cell is also NaN when any source cell contributing to it is
// missing (NaN or negative).
type Bilinear struct{}

// Regrid implements Regridder.
func (Bilinear) Regrid(src domain.Grid, field mat.Matrix, dst domain.Grid) *mat.Dense {
	rows, cols := field.Dims()
	data := mat.NewDense(rows, cols, nil)
	missing := mat.NewDense(rows, cols, nil)

	var valid []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := field.At(i, j)
			if math.IsNaN(v) || v < 0 {
				missing.Set(i, j, 1)
				continue
			}
			data.Set(i, j, v)
			valid = append(valid, v)
		}
	}
	// Missing cells take the mean so interpolation near them stays smooth.
	fill := 0.0
	if len(valid) > 0 {
		fill = floats.Sum(valid) / float64(len(valid))
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if missing.At(i, j) == 1 {
				data.Set(i, j, fill)
			}
		}
	}

	out := mat.NewDense(dst.Rows(), dst.Cols(), nil)
	for i, lat := range dst.Lats {
		y := fractionalIndex(src.Lats, lat)
		for j, lon := range dst.Lons {
			x := fractionalIndex(src.Lons, lon)
			if outside(src.Lats, lat) || outside(src.Lons, lon) || interpolate(missing, y, x) > 0 {
				out.Set(i, j, math.NaN())
				continue
			}
			out.Set(i, j, interpolate(data, y, x))
		}
	}
	return out
}

func outside(xs []float64, v float64) bool {
	return v < xs[0] || v > xs[len(xs)-1]
}

// fractionalIndex locates v in the increasing coordinates xs, clamped to the
// ends.
func fractionalIndex(xs []float64, v float64) float64 {
	n := len(xs)
	if n == 1 || v <= xs[0] {
		return 0
	}
	if v >= xs[n-1] {
		return float64(n - 1)
	}
	j := sort.SearchFloat64s(xs, v)
	return float64(j-1) + (v-xs[j-1])/(xs[j]-xs[j-1])
}

func interpolate(m mat.Matrix, y, x float64) float64 {
	rows, cols := m.Dims()
	y0, x0 := int(math.Floor(y)), int(math.Floor(x))
	y1, x1 := min(y0+1, rows-1), min(x0+1, cols-1)
	fy, fx := y-float64(y0), x-float64(x0)

	top := m.At(y0, x0)*(1-fx) + m.At(y0, x1)*fx
	bottom := m.At(y1, x0)*(1-fx) + m.At(y1, x1)*fx
	return top*(1-fy) + bottom*fy
}
