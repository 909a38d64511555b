package domain

import (
	"fmt"
	"time"
)

// Pixel is one cell of a cloud element: its grid index, its coordinates and its
// brightness temperature in Kelvin.
type Pixel struct {
	Row  int     `json:"row" msgpack:"row"`
	Col  int     `json:"col" msgpack:"col"`
	Lat  float64 `json:"lat" msgpack:"lat"`
	Lon  float64 `json:"lon" msgpack:"lon"`
	Temp float64 `json:"temp" msgpack:"temp"`
}

// Key returns the pixel's grid index packed into one comparable value.
func (p Pixel) Key() GridKey {
	return GridKey{Row: p.Row, Col: p.Col}
}

// GridKey is a (row, col) grid index. On a fixed grid it is one-to-one with a
// (lat, lon) pair.
type GridKey struct {
	Row, Col int
}

// Stage is the lifecycle tag assigned to a node of a confirmed MCC.
type Stage int

const (
	StageUnset Stage = iota
	StageInitiation
	StageMaturity
	StageDecay
)

func (s Stage) String() string {
	switch s {
	case StageInitiation:
		return "I"
	case StageMaturity:
		return "M"
	case StageDecay:
		return "D"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(b []byte) error {
	switch string(b) {
	case "I":
		*s = StageInitiation
	case "M":
		*s = StageMaturity
	case "D":
		*s = StageDecay
	case "":
		*s = StageUnset
	default:
		return fmt.Errorf("unknown lifecycle stage %q", b)
	}
	return nil
}

// Behavior describes a node's merge/split topology in the pruned graph.
type Behavior int

const (
	BehaviorUnset Behavior = iota
	BehaviorNeutral
	BehaviorMerge
	BehaviorSplit
	BehaviorBoth
)

func (b Behavior) String() string {
	switch b {
	case BehaviorNeutral:
		return "N"
	case BehaviorMerge:
		return "M"
	case BehaviorSplit:
		return "S"
	case BehaviorBoth:
		return "B"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Behavior) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Behavior) UnmarshalText(text []byte) error {
	switch string(text) {
	case "N":
		*b = BehaviorNeutral
	case "M":
		*b = BehaviorMerge
	case "S":
		*b = BehaviorSplit
	case "B":
		*b = BehaviorBoth
	case "":
		*b = BehaviorUnset
	default:
		return fmt.Errorf("unknown behavior %q", text)
	}
	return nil
}

// BehaviorFromDegree maps in/out degree to a behavior tag.
func BehaviorFromDegree(in, out int) Behavior {
	switch {
	case in > 1 && out > 1:
		return BehaviorBoth
	case in > 1:
		return BehaviorMerge
	case out > 1:
		return BehaviorSplit
	default:
		return BehaviorNeutral
	}
}

// Precipitation summarizes the regridded rain rates under a cloud element.
type Precipitation struct {
	Total float64 `json:"total"` // sum of rates over the CE footprint
	Max   float64 `json:"max"`   // largest non-zero rate
	Min   float64 `json:"min"`   // smallest non-zero rate
	Area  float64 `json:"area"`  // km² of footprint with non-zero rate
}

// CloudElement is one accepted cold-cloud region in a single frame.
type CloudElement struct {
	ID           CEID      `json:"id"`
	Time         time.Time `json:"time"`
	Pixels       []Pixel   `json:"-"`
	CenterLat    float64   `json:"center_lat"`
	CenterLon    float64   `json:"center_lon"`
	Area         float64   `json:"area"`
	Eccentricity float64   `json:"eccentricity"`
	TempMin      float64   `json:"temp_min"`
	TempMax      float64   `json:"temp_max"`
	TempMean     float64   `json:"temp_mean"`
	TempVariance float64   `json:"temp_variance"`

	Precip *Precipitation `json:"precip,omitempty"`

	Behavior        Behavior `json:"behavior,omitempty"`
	Stage           Stage    `json:"stage,omitempty"`
	CriteriaBArea   float64  `json:"criteria_b_area,omitempty"`
	CriteriaBPixels []Pixel  `json:"-"`
}

// SetStage records the lifecycle tag unless one is already present. It reports
// whether the tag was written.
func (ce *CloudElement) SetStage(s Stage) bool {
	if ce.Stage != StageUnset || s == StageUnset {
		return false
	}
	ce.Stage = s
	return true
}

// SetBehavior records the behavior tag unless one is already present.
func (ce *CloudElement) SetBehavior(b Behavior) bool {
	if ce.Behavior != BehaviorUnset || b == BehaviorUnset {
		return false
	}
	ce.Behavior = b
	return true
}

// SetCriteriaB records the inner cold-shield measurement.
func (ce *CloudElement) SetCriteriaB(area float64, pixels []Pixel) {
	ce.CriteriaBArea = area
	ce.CriteriaBPixels = pixels
}
