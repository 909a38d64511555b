package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding names the place under a feature's largest-extent
// centroid. If geocoder is nil the feature is returned unchanged; a failed
// lookup only sets GeoSource.
func EnrichWithGeocoding(ctx context.Context, f Feature, geocoder Geocoder, logger *slog.Logger) Feature {
	if geocoder == nil {
		return f
	}

	result, err := geocoder.ReverseGeocode(ctx, f.CenterLat, f.CenterLon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"feature_id", f.ID,
			"node", f.MaxExtentNode.String(),
			"lat", f.CenterLat,
			"lon", f.CenterLon,
			"error", err,
		)
		f.GeoSource = "failed"
		return f
	}
	if result.PlaceName == "" && result.FormattedAddress == "" {
		f.GeoSource = "original"
		return f
	}
	f.PlaceName = result.PlaceName
	f.Address = result.FormattedAddress
	f.GeoConfidence = result.Confidence
	f.GeoSource = "reverse"
	return f
}
