package domain

import (
	"errors"
	"fmt"
)

// Criteria holds every threshold the search reads. Field names follow the
// TOML keys accepted by config.LoadCriteria.
type Criteria struct {
	LatMin float64 `toml:"lat_min"`
	LatMax float64 `toml:"lat_max"`
	LonMin float64 `toml:"lon_min"`
	LonMax float64 `toml:"lon_max"`

	XRes float64 `toml:"x_res"` // km per column
	YRes float64 `toml:"y_res"` // km per row
	TRes float64 `toml:"t_res"` // hours per frame

	TBBMax             float64 `toml:"t_bb_max"` // warmest temperature kept, K
	TBBMin             float64 `toml:"t_bb_min"`
	ConvectiveFraction float64 `toml:"convective_fraction"`
	AreaMin            float64 `toml:"area_min"`         // km²
	MinOverlap         float64 `toml:"min_overlap"`      // km²
	MinMCSDuration     int     `toml:"min_mcs_duration"` // frames

	EccentricityMin float64 `toml:"eccentricity_min"`
	EccentricityMax float64 `toml:"eccentricity_max"`

	OuterShieldArea float64 `toml:"outer_shield_area"`
	OuterShieldTemp float64 `toml:"outer_shield_temp"`
	InnerShieldArea float64 `toml:"inner_shield_area"`
	InnerShieldTemp float64 `toml:"inner_shield_temp"`

	MinimumDuration float64 `toml:"minimum_duration"` // hours
	MaximumDuration float64 `toml:"maximum_duration"` // hours

	EdgeWeights [3]float64 `toml:"edge_weights"`
	LatDistance float64    `toml:"lat_distance"` // km per degree
}

// DefaultCriteria returns the Laurent et al. thresholds for 4 km hourly MERG data.
func DefaultCriteria() Criteria {
	return Criteria{
		LatMin: 5.0, LatMax: 19.0,
		LonMin: -5.0, LonMax: 9.0,

		XRes: 4.0, YRes: 4.0, TRes: 1,

		TBBMax:             243,
		TBBMin:             218,
		ConvectiveFraction: 0.90,
		AreaMin:            2400.0,
		MinOverlap:         10000.00,
		MinMCSDuration:     3,

		EccentricityMin: 0.5,
		EccentricityMax: 1.0,

		OuterShieldArea: 80000.0,
		OuterShieldTemp: 233.0,
		InnerShieldArea: 30000.0,
		InnerShieldTemp: 213.0,

		MinimumDuration: 6,
		MaximumDuration: 24,

		EdgeWeights: [3]float64{1, 2, 3},
		LatDistance: 111.0,
	}
}

// CellArea returns the area of one grid cell in km².
func (c Criteria) CellArea() float64 {
	return c.XRes * c.YRes
}

// Validate checks internal consistency of the thresholds.
func (c Criteria) Validate() error {
	var errs []error
	if c.LatMin >= c.LatMax {
		errs = append(errs, errors.New("lat_min must be below lat_max"))
	}
	if c.LonMin >= c.LonMax {
		errs = append(errs, errors.New("lon_min must be below lon_max"))
	}
	if c.XRes <= 0 || c.YRes <= 0 {
		errs = append(errs, errors.New("x_res and y_res must be positive"))
	}
	if c.TRes <= 0 {
		errs = append(errs, errors.New("t_res must be positive"))
	}
	if c.MinMCSDuration < 1 {
		errs = append(errs, errors.New("min_mcs_duration must be at least 1"))
	}
	if c.ConvectiveFraction <= 0 || c.ConvectiveFraction > 1 {
		errs = append(errs, errors.New("convective_fraction must be in (0, 1]"))
	}
	if c.EccentricityMin < 0 || c.EccentricityMax > 1 || c.EccentricityMin > c.EccentricityMax {
		errs = append(errs, errors.New("eccentricity bounds must satisfy 0 <= min <= max <= 1"))
	}
	if c.InnerShieldTemp > c.OuterShieldTemp {
		errs = append(errs, errors.New("inner_shield_temp must not exceed outer_shield_temp"))
	}
	if c.MinimumDuration > c.MaximumDuration {
		errs = append(errs, errors.New("minimum_duration must not exceed maximum_duration"))
	}
	for i, w := range c.EdgeWeights {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("edge_weights[%d] must be positive", i))
		}
	}
	if c.LatDistance <= 0 {
		errs = append(errs, errors.New("lat_distance must be positive"))
	}
	return errors.Join(errs...)
}
