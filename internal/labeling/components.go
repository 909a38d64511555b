package labeling

import "gonum.org/v1/gonum/mat"

// Region is one 4-connected group of non-zero cells.
type Region struct {
	Label  int // 1-based, in raster order of each region's first cell
	Cells  []Cell
	MinRow int
	MaxRow int
	MinCol int
	MaxCol int
}

// Cell is a grid index with its value.
type Cell struct {
	Row, Col int
	Value    float64
}

// cross is the 4-connectivity structuring element.
var cross = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Components labels the 4-connected regions of non-zero cells in m. Regions
// are numbered in the raster order of their first cell and cells within a
// region are listed in raster order, so the output is deterministic.
func Components(m mat.Matrix) []Region {
	rows, cols := m.Dims()
	labels := make([]int, rows*cols)
	var regions []Region
	queue := make([]int, 0, 64)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if m.At(r, c) == 0 || labels[r*cols+c] != 0 {
				continue
			}
			label := len(regions) + 1
			labels[r*cols+c] = label
			queue = append(queue[:0], r*cols+c)
			for head := 0; head < len(queue); head++ {
				cr, cc := queue[head]/cols, queue[head]%cols
				for _, d := range cross {
					nr, nc := cr+d[0], cc+d[1]
					if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
						continue
					}
					idx := nr*cols + nc
					if labels[idx] != 0 || m.At(nr, nc) == 0 {
						continue
					}
					labels[idx] = label
					queue = append(queue, idx)
				}
			}
			regions = append(regions, Region{Label: label, MinRow: r, MaxRow: r, MinCol: c, MaxCol: c})
		}
	}

	// Second raster pass collects cells so each region lists them in order.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			label := labels[r*cols+c]
			if label == 0 {
				continue
			}
			reg := &regions[label-1]
			reg.Cells = append(reg.Cells, Cell{Row: r, Col: c, Value: m.At(r, c)})
			reg.MinRow = min(reg.MinRow, r)
			reg.MaxRow = max(reg.MaxRow, r)
			reg.MinCol = min(reg.MinCol, c)
			reg.MaxCol = max(reg.MaxCol, c)
		}
	}
	return regions
}

// Eccentricity compares the number of occupied rows and columns of a region.
// Values near 1 are round, values near 0 are elongated. The result is always
// in (0, 1) for a non-empty region.
func Eccentricity(cells []Cell) float64 {
	if len(cells) == 0 {
		return 0
	}
	rowSeen := make(map[int]struct{})
	colSeen := make(map[int]struct{})
	for _, c := range cells {
		rowSeen[c.Row] = struct{}{}
		colSeen[c.Col] = struct{}{}
	}
	nonEmptyLats := float64(len(rowSeen))
	nonEmptyLons := float64(len(colSeen))

	lonRatio := nonEmptyLats / (nonEmptyLons + 0.001)
	latRatio := nonEmptyLons / (nonEmptyLats + 0.001)
	return min(lonRatio, latRatio)
}
