package labeling

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var frameTime = time.Date(2006, 9, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unitGrid(rows, cols int) domain.Grid {
	g := domain.Grid{Lats: make([]float64, rows), Lons: make([]float64, cols)}
	for i := range g.Lats {
		g.Lats[i] = 5 + 0.04*float64(i)
	}
	for j := range g.Lons {
		g.Lons[j] = -5 + 0.04*float64(j)
	}
	return g
}

// fill sets the block [r0,r1)x[c0,c1) to temp.
func fill(m *mat.Dense, r0, r1, c0, c1 int, temp float64) {
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			m.Set(r, c, temp)
		}
	}
}

func TestComponents_FourConnectivity(t *testing.T) {
	m := mat.NewDense(4, 4, []float64{
		1, 0, 0, 1,
		0, 1, 0, 1,
		0, 0, 0, 0,
		1, 1, 0, 0,
	})
	regions := Components(m)

	// Diagonal neighbours are separate regions under the cross element.
	require.Len(t, regions, 4)
	assert.Equal(t, []Cell{{0, 0, 1}}, regions[0].Cells)
	assert.Equal(t, []Cell{{0, 3, 1}, {1, 3, 1}}, regions[1].Cells)
	assert.Equal(t, []Cell{{1, 1, 1}}, regions[2].Cells)
	assert.Equal(t, []Cell{{3, 0, 1}, {3, 1, 1}}, regions[3].Cells)
	assert.Equal(t, 3, regions[3].MaxRow)
	assert.Equal(t, 1, regions[3].MaxCol)
}

func TestLabel_IsDeterministic(t *testing.T) {
	m := mat.NewDense(30, 30, nil)
	fill(m, 2, 14, 2, 14, 220)
	fill(m, 18, 29, 16, 28, 230)
	grid := unitGrid(30, 30)
	l := New(domain.DefaultCriteria(), discardLogger())

	first := l.Label(1, frameTime, grid, m)
	second := l.Label(1, frameTime, grid, m)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("labeling is not deterministic (-first +second):\n%s", diff)
	}
}

func TestLabel_AreaAndIDs(t *testing.T) {
	m := mat.NewDense(30, 30, nil)
	fill(m, 0, 20, 20, 28, 225) // 160 cells = 2560 km², accepted on area
	fill(m, 2, 14, 2, 14, 220)  // 144 cells = 2304 km², rescued by convective fraction
	m.Set(2, 2, 190)            // 190/220 < 0.90
	fill(m, 22, 30, 0, 18, 230) // 144 cells, uniform, rejected
	grid := unitGrid(30, 30)
	l := New(domain.DefaultCriteria(), discardLogger())

	res := l.Label(3, frameTime, grid, m)

	require.Len(t, res.Elements, 2)
	assert.Equal(t, 3, res.Regions)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 0, res.Skipped)

	// Regions are numbered in raster order of their first cell.
	big, small := res.Elements[0], res.Elements[1]
	assert.Equal(t, domain.CEID{Frame: 3, Seq: 1}, big.ID)
	assert.Equal(t, domain.CEID{Frame: 3, Seq: 2}, small.ID)

	assert.Equal(t, 160*16.0, big.Area)
	assert.Equal(t, 144*16.0, small.Area)
	assert.Equal(t, frameTime, big.Time)
	assert.Equal(t, 190.0, small.TempMin)
	assert.Equal(t, 220.0, small.TempMax)
	assert.Equal(t, 225.0, big.TempMean)
	assert.Zero(t, big.TempVariance)
}

func TestLabel_CentreOfMass(t *testing.T) {
	m := mat.NewDense(10, 10, nil)
	fill(m, 2, 5, 3, 8, 200) // rows 2-4, cols 3-7
	grid := unitGrid(10, 10)
	c := domain.DefaultCriteria()
	c.AreaMin = 1
	l := New(c, discardLogger())

	res := l.Label(1, frameTime, grid, m)

	require.Len(t, res.Elements, 1)
	ce := res.Elements[0]
	assert.Equal(t, grid.Lats[3], ce.CenterLat)
	assert.Equal(t, grid.Lons[5], ce.CenterLon)
	assert.Len(t, ce.Pixels, 15)
	assert.Equal(t, domain.Pixel{Row: 2, Col: 3, Lat: grid.Lats[2], Lon: grid.Lons[3], Temp: 200}, ce.Pixels[0])
}

func TestLabel_SkipsRegionsOutsideGrid(t *testing.T) {
	m := mat.NewDense(10, 10, nil)
	fill(m, 0, 3, 0, 3, 200)
	fill(m, 7, 10, 7, 10, 200)
	c := domain.DefaultCriteria()
	c.AreaMin = 1
	l := New(c, discardLogger())

	// The grid covers only the first eight rows and columns.
	res := l.Label(1, frameTime, unitGrid(8, 8), m)

	assert.Len(t, res.Elements, 1)
	assert.Equal(t, 1, res.Skipped)
}

func TestEccentricity(t *testing.T) {
	square := blockCells(0, 10, 0, 10)
	line := blockCells(0, 1, 0, 20)
	rect := blockCells(0, 27, 0, 34)

	tests := []struct {
		name  string
		cells []Cell
		want  float64
	}{
		{"square", square, 10 / 10.001},
		{"line", line, 1 / 20.001},
		{"rectangle", rect, 27 / 34.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Eccentricity(tt.cells)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Greater(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func blockCells(r0, r1, c0, c1 int) []Cell {
	var cells []Cell
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			cells = append(cells, Cell{Row: r, Col: c, Value: 200})
		}
	}
	return cells
}

func TestShield(t *testing.T) {
	pixels := []domain.Pixel{{Temp: 200}, {Temp: 213}, {Temp: 212.9}, {Temp: 240}}

	area, cold := Shield(pixels, 213, 16)
	assert.Equal(t, 32.0, area)
	assert.Len(t, cold, 2)

	area, cold = Shield(pixels, 150, 16)
	assert.Zero(t, area)
	assert.Empty(t, cold)
}
