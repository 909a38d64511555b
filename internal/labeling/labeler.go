// Package labeling extracts cloud elements from masked brightness-temperature
// frames.
package labeling

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Labeler turns one masked frame into accepted cloud elements.
type Labeler struct {
	criteria domain.Criteria
	logger   *slog.Logger
}

// New creates a Labeler for the given criteria.
func New(criteria domain.Criteria, logger *slog.Logger) *Labeler {
	return &Labeler{criteria: criteria, logger: logger}
}

// FrameResult is the outcome of labeling a single frame.
type FrameResult struct {
	Elements []*domain.CloudElement
	Regions  int // regions found before acceptance
	Rejected int // regions failing the area and convective fraction test
	Skipped  int // regions that could not be mapped to the grid
}

// Label extracts and measures every accepted region of frame. frameNum is the
// 1-based frame number used in element ids. Masked cells must hold zero.
func (l *Labeler) Label(frameNum int, at time.Time, grid domain.Grid, frame mat.Matrix) FrameResult {
	regions := Components(frame)
	res := FrameResult{Regions: len(regions)}
	seq := 0

	for _, reg := range regions {
		if reg.MaxRow >= grid.Rows() || reg.MaxCol >= grid.Cols() {
			l.logger.Warn("region outside grid, skipping",
				"frame", frameNum, "label", reg.Label,
				"max_row", reg.MaxRow, "max_col", reg.MaxCol)
			res.Skipped++
			continue
		}

		temps := make([]float64, len(reg.Cells))
		for i, c := range reg.Cells {
			temps[i] = c.Value
		}
		tmin, tmax := floats.Min(temps), floats.Max(temps)
		area := float64(len(reg.Cells)) * l.criteria.CellArea()

		if !l.accept(area, tmin, tmax) {
			res.Rejected++
			continue
		}

		ce, err := l.measure(reg, temps, area, tmin, tmax, grid)
		if err != nil {
			l.logger.Warn("measure region failed, skipping", "frame", frameNum, "label", reg.Label, "error", err)
			res.Skipped++
			continue
		}
		seq++
		ce.ID = domain.CEID{Frame: frameNum, Seq: seq}
		ce.Time = at
		res.Elements = append(res.Elements, ce)
	}

	l.logger.Debug("frame labeled",
		"frame", frameNum, "regions", res.Regions,
		"accepted", len(res.Elements), "rejected", res.Rejected, "skipped", res.Skipped)
	return res
}

// accept keeps large regions, and small regions whose coldest-to-warmest ratio
// shows a convective core.
func (l *Labeler) accept(area, tmin, tmax float64) bool {
	if area >= l.criteria.AreaMin {
		return true
	}
	return tmax > 0 && tmin/tmax < l.criteria.ConvectiveFraction
}

func (l *Labeler) measure(reg Region, temps []float64, area, tmin, tmax float64, grid domain.Grid) (*domain.CloudElement, error) {
	rows := make([]float64, len(reg.Cells))
	cols := make([]float64, len(reg.Cells))
	pixels := make([]domain.Pixel, len(reg.Cells))
	for i, c := range reg.Cells {
		rows[i] = float64(c.Row)
		cols[i] = float64(c.Col)
		pixels[i] = domain.Pixel{
			Row:  c.Row,
			Col:  c.Col,
			Lat:  grid.Lats[c.Row],
			Lon:  grid.Lons[c.Col],
			Temp: c.Value,
		}
	}

	// Temperature-weighted centre of mass, snapped to the nearest cell.
	centerRow := int(math.Round(stat.Mean(rows, temps)))
	centerCol := int(math.Round(stat.Mean(cols, temps)))
	if centerRow < reg.MinRow || centerRow > reg.MaxRow || centerCol < reg.MinCol || centerCol > reg.MaxCol {
		return nil, fmt.Errorf("centre of mass (%d,%d) outside bounding box", centerRow, centerCol)
	}

	mean, variance := stat.PopMeanVariance(temps, nil)

	return &domain.CloudElement{
		Pixels:       pixels,
		CenterLat:    grid.Lats[centerRow],
		CenterLon:    grid.Lons[centerCol],
		Area:         area,
		Eccentricity: Eccentricity(reg.Cells),
		TempMin:      tmin,
		TempMax:      tmax,
		TempMean:     mean,
		TempVariance: variance,
	}, nil
}

// Shield returns the pixels strictly colder than threshold and their area.
// A region with no such pixels yields zero area and no error.
func Shield(pixels []domain.Pixel, threshold, cellArea float64) (float64, []domain.Pixel) {
	var cold []domain.Pixel
	for _, p := range pixels {
		if p.Temp < threshold {
			cold = append(cold, p)
		}
	}
	return float64(len(cold)) * cellArea, cold
}
