package model

import "github.com/venicegeo/geojson-go/geojson"

// TidesData is a mixin containing optional tides data from bf-tideprediction
type TidesData struct {
	Current float64
	Min24h  float64
	Max24h  float64
}

// Apply implements the GeoJSONFeatureMixin interface
func (td TidesData) Apply(feature *geojson.Feature) error {
	feature.Properties["currentTide"] = td.Current
	feature.Properties["minimumTide24Hours"] = td.Min24h
	feature.Properties["maximumTide24Hours"] = td.Max24h
	return nil
}

// WaterExtentData is a mixin describing the outcome of thresholding one scene
type WaterExtentData struct {
	Threshold   float64
	Fallback    FallbackPolicy
	WaterPixels int
	ValidPixels int
	// WaterArea is in square map units
	WaterArea float64
}

// Skipped reports whether the scene produced no water mask
func (wed WaterExtentData) Skipped() bool {
	return wed.Fallback == FallbackSkip
}

// WaterFraction is the share of valid pixels classified as water
func (wed WaterExtentData) WaterFraction() float64 {
	if wed.ValidPixels == 0 {
		return 0
	}
	return float64(wed.WaterPixels) / float64(wed.ValidPixels)
}

// Apply implements the GeoJSONFeatureMixin interface
func (wed WaterExtentData) Apply(feature *geojson.Feature) error {
	if wed.Fallback != FallbackNone {
		feature.Properties["fallback"] = string(wed.Fallback)
	}
	if wed.Skipped() {
		feature.Properties["skipped"] = true
		return nil
	}
	feature.Properties["threshold"] = wed.Threshold
	feature.Properties["waterPixels"] = wed.WaterPixels
	feature.Properties["validPixels"] = wed.ValidPixels
	feature.Properties["waterArea"] = wed.WaterArea
	feature.Properties["waterFraction"] = wed.WaterFraction()
	return nil
}
