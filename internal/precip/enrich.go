package precip

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Frames gives access to the cloud elements of each frame.
type Frames interface {
	Frames() int
	Frame(n int) []*domain.CloudElement
}

// Enricher attaches precipitation summaries to cloud elements.
type Enricher struct {
	regridder Regridder
	cellArea  float64
	logger    *slog.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(r Regridder, criteria domain.Criteria, logger *slog.Logger) *Enricher {
	return &Enricher{regridder: r, cellArea: criteria.CellArea(), logger: logger}
}

// Enrich samples series under every element and returns how many elements
// were enriched. grid is the temperature grid the pixels refer to.
func (e *Enricher) Enrich(ctx context.Context, grid domain.Grid, series *domain.PrecipSeries, frames Frames) (int, error) {
	if series == nil {
		return 0, nil
	}
	if len(series.Frames) < frames.Frames() {
		return 0, fmt.Errorf("%w: %d precipitation frames for %d frames",
			domain.ErrInvalidDataset, len(series.Frames), frames.Frames())
	}

	sameGrid := slices.Equal(series.Grid.Lats, grid.Lats) && slices.Equal(series.Grid.Lons, grid.Lons)
	n := 0
	for f := 1; f <= frames.Frames(); f++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		elements := frames.Frame(f)
		if len(elements) == 0 {
			continue
		}

		var field mat.Matrix = series.Frames[f-1]
		if !sameGrid {
			field = e.regridder.Regrid(series.Grid, field, grid)
		}
		for _, ce := range elements {
			ce.Precip = Summarize(field, ce.Pixels, e.cellArea)
			n++
		}
		e.logger.Debug("frame precipitation sampled", "frame", f, "elements", len(elements))
	}
	return n, nil
}

// Summarize aggregates the non-zero rates of field under pixels.
func Summarize(field mat.Matrix, pixels []domain.Pixel, cellArea float64) *domain.Precipitation {
	rows, cols := field.Dims()
	var rates []float64
	for _, p := range pixels {
		if p.Row >= rows || p.Col >= cols {
			continue
		}
		v := field.At(p.Row, p.Col)
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		rates = append(rates, v)
	}
	if len(rates) == 0 {
		return &domain.Precipitation{}
	}
	return &domain.Precipitation{
		Total: floats.Sum(rates),
		Max:   floats.Max(rates),
		Min:   floats.Min(rates),
		Area:  float64(len(rates)) * cellArea,
	}
}
