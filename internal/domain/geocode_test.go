package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
	lat    float64
	lon    float64
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (GeocodingResult, error) {
	m.calls++
	m.lat, m.lon = lat, lon
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleFeature() Feature {
	return Feature{
		ID:            "feat-1",
		Kind:          FeatureMCC,
		MaxExtentNode: CEID{Frame: 4, Seq: 2},
		CenterLat:     12.5,
		CenterLon:     3.25,
	}
}

// --- tests ---

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	result := EnrichWithGeocoding(context.Background(), sampleFeature(), nil, discardLogger())

	assert.Empty(t, result.GeoSource)
	assert.Empty(t, result.PlaceName)
}

func TestEnrichWithGeocoding_Reverse(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{
		FormattedAddress: "Kano, Nigeria",
		PlaceName:        "Kano",
		Confidence:       0.8,
	}}

	result := EnrichWithGeocoding(context.Background(), sampleFeature(), geo, discardLogger())

	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 12.5, geo.lat)
	assert.Equal(t, 3.25, geo.lon)
	assert.Equal(t, "Kano", result.PlaceName)
	assert.Equal(t, "Kano, Nigeria", result.Address)
	assert.Equal(t, 0.8, result.GeoConfidence)
	assert.Equal(t, "reverse", result.GeoSource)
}

func TestEnrichWithGeocoding_Failure(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("api down")}

	result := EnrichWithGeocoding(context.Background(), sampleFeature(), geo, discardLogger())

	assert.Equal(t, "failed", result.GeoSource)
	assert.Empty(t, result.PlaceName)
}

func TestEnrichWithGeocoding_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}

	result := EnrichWithGeocoding(context.Background(), sampleFeature(), geo, discardLogger())

	assert.Equal(t, "original", result.GeoSource)
}
