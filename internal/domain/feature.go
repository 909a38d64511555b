package domain

import "time"

// FeatureKind distinguishes confirmed MCCs from the wider MCS lineages.
type FeatureKind string

const (
	FeatureMCC FeatureKind = "MCC"
	FeatureMCS FeatureKind = "MCS"
)

// Feature is one tracked system as published to sinks.
type Feature struct {
	ID            string         `json:"id"`
	RunID         string         `json:"run_id"`
	Kind          FeatureKind    `json:"kind"`
	Nodes         []CEID         `json:"nodes"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	DurationHours float64        `json:"duration_hours"`
	MaxArea       float64        `json:"max_area"`
	MeanArea      float64        `json:"mean_area"`
	MaxExtentNode CEID           `json:"max_extent_node"`
	CenterLat     float64        `json:"center_lat"`
	CenterLon     float64        `json:"center_lon"`
	PlaceName     string         `json:"place_name,omitempty"`
	Address       string         `json:"formatted_address,omitempty"`
	GeoConfidence float64        `json:"geo_confidence,omitempty"`
	GeoSource     string         `json:"geo_source,omitempty"` // reverse, failed or original
	MinSpeed      float64        `json:"min_speed_ms"`         // slowest CE propagation speed, m/s
	Precip        *FeaturePrecip `json:"precip,omitempty"`
	Elements      []CloudElement `json:"elements"`
	ProcessedAt   time.Time      `json:"processed_at"`
}

// FeaturePrecip aggregates CE precipitation over a feature's lifetime.
type FeaturePrecip struct {
	Total      float64   `json:"total"`
	MaxRate    float64   `json:"max_rate"`
	HourlyRate []float64 `json:"hourly_rate"` // per time step, in node time order
}
