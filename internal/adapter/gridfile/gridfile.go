// Package gridfile reads and writes brightness-temperature frame archives as
// JSON or MessagePack.
package gridfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

// Format is an archive encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

const archiveVersion = 1

// ErrUnknownFormat is returned for unrecognized file extensions.
var ErrUnknownFormat = errors.New("unknown archive format")

type archive struct {
	Version int         `json:"version"`
	Lats    []float64   `json:"lats"`
	Lons    []float64   `json:"lons"`
	Times   []time.Time `json:"times"`
	Frames  [][]float64 `json:"frames"` // row-major, 0 for masked cells
	Precip  *series     `json:"precip,omitempty"`
}

type series struct {
	Lats   []float64   `json:"lats"`
	Lons   []float64   `json:"lons"`
	Frames [][]float64 `json:"frames"` // row-major, -1 for missing data
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Read loads and validates the archive at path.
func Read(path string) (domain.Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return domain.Dataset{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("open frames: %w", err)
	}
	defer file.Close()
	return Decode(file, format)
}

// Write stores ds at path in the format implied by its extension.
func Write(path string, ds domain.Dataset) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frames: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close frames: %w", cerr)
		}
	}()
	return Encode(file, format, ds)
}

// Decode reads an archive from r and validates it.
func Decode(r io.Reader, format Format) (domain.Dataset, error) {
	var a archive
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&a); err != nil {
			return domain.Dataset{}, fmt.Errorf("decode json frames: %w", err)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&a); err != nil {
			return domain.Dataset{}, fmt.Errorf("decode msgpack frames: %w", err)
		}
	default:
		return domain.Dataset{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if a.Version != archiveVersion {
		return domain.Dataset{}, fmt.Errorf("%w: archive version %d, expected %d", domain.ErrInvalidDataset, a.Version, archiveVersion)
	}

	ds := domain.Dataset{Grid: domain.Grid{Lats: a.Lats, Lons: a.Lons}, Times: a.Times}
	var err error
	if ds.Frames, err = toMatrices(a.Frames, len(a.Lats), len(a.Lons)); err != nil {
		return domain.Dataset{}, err
	}
	if a.Precip != nil {
		ps := &domain.PrecipSeries{Grid: domain.Grid{Lats: a.Precip.Lats, Lons: a.Precip.Lons}}
		if ps.Frames, err = toMatrices(a.Precip.Frames, len(a.Precip.Lats), len(a.Precip.Lons)); err != nil {
			return domain.Dataset{}, fmt.Errorf("precipitation %w", err)
		}
		ds.Precip = ps
	}
	if err := ds.Validate(); err != nil {
		return domain.Dataset{}, err
	}
	return ds, nil
}

// Encode writes ds to w. NaN temperatures are stored as 0 and NaN
// precipitation as -1.
func Encode(w io.Writer, format Format, ds domain.Dataset) error {
	a := archive{
		Version: archiveVersion,
		Lats:    ds.Grid.Lats,
		Lons:    ds.Grid.Lons,
		Times:   ds.Times,
		Frames:  fromMatrices(ds.Frames, 0),
	}
	if ds.Precip != nil {
		a.Precip = &series{
			Lats:   ds.Precip.Grid.Lats,
			Lons:   ds.Precip.Grid.Lons,
			Frames: fromMatrices(ds.Precip.Frames, -1),
		}
	}

	switch format {
	case FormatJSON:
		if err := json.NewEncoder(w).Encode(a); err != nil {
			return fmt.Errorf("encode json frames: %w", err)
		}
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encode msgpack frames: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

func toMatrices(frames [][]float64, rows, cols int) ([]*mat.Dense, error) {
	out := make([]*mat.Dense, len(frames))
	for i, data := range frames {
		if rows == 0 || cols == 0 || len(data) != rows*cols {
			return nil, fmt.Errorf("%w: frame %d has %d values for a %dx%d grid", domain.ErrInvalidDataset, i+1, len(data), rows, cols)
		}
		out[i] = mat.NewDense(rows, cols, data)
	}
	return out, nil
}

func fromMatrices(frames []*mat.Dense, missing float64) [][]float64 {
	out := make([][]float64, len(frames))
	for i, m := range frames {
		r, c := m.Dims()
		data := make([]float64, 0, r*c)
		for row := 0; row < r; row++ {
			for _, v := range m.RawRowView(row) {
				if math.IsNaN(v) {
					v = missing
				}
				data = append(data, v)
			}
		}
		out[i] = data
	}
	return out
}
