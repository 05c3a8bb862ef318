package model

import (
	"time"

	"github.com/venicegeo/geojson-go/geojson"
)

// BasicDetectionResult holds the scene fields common to every detection
type BasicDetectionResult struct {
	ID           string
	Geometry     interface{}
	AcquiredDate time.Time
	SensorName   string
	Polarisation string
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (br BasicDetectionResult) GeoJSONFeature() (*geojson.Feature, error) {
	f := geojson.NewFeature(br.Geometry, br.ID, map[string]interface{}{
		"acquiredDate": br.AcquiredDate.Format(StandardTimeLayout),
		"sensorName":   br.SensorName,
		"polarisation": br.Polarisation,
	})
	f.Bbox = f.ForceBbox()
	return f, nil
}

// DetectionResult is one scene's flood detection, plus optional tides data.
// Extent holds the vectorised water polygons and is served separately from
// the scene feature.
type DetectionResult struct {
	BasicDetectionResult
	WaterExtentData
	*TidesData
	Extent *geojson.FeatureCollection
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (result DetectionResult) GeoJSONFeature() (*geojson.Feature, error) {
	feature, err := result.BasicDetectionResult.GeoJSONFeature()
	if err != nil {
		return nil, err
	}

	err = result.WaterExtentData.Apply(feature)
	if err != nil {
		return nil, err
	}

	if result.TidesData != nil {
		err = result.TidesData.Apply(feature)
		if err != nil {
			return nil, err
		}
	}

	return feature, nil
}

// MultiResult is a container type for bundling multiple results together,
// e.g. as results from a search endpoint
type MultiResult struct {
	FeatureCreators []GeoJSONFeatureCreator
}

// GeoJSONFeatureCollection implements the GeoJSONFeatureCollectionCreator interface
func (result MultiResult) GeoJSONFeatureCollection() (*geojson.FeatureCollection, error) {
	var err error
	features := make([]*geojson.Feature, len(result.FeatureCreators))
	for i, creator := range result.FeatureCreators {
		features[i], err = creator.GeoJSONFeature()
		if err != nil {
			return nil, err
		}
	}

	return geojson.NewFeatureCollection(features), nil
}
