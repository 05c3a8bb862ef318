package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/venicegeo/geojson-go/geojson"
)

// DetectionRecord is one row of the detections table
type DetectionRecord struct {
	SceneID      string
	Acquired     time.Time
	Sensor       string
	Polarisation string
	// Threshold is NULL for skipped scenes
	Threshold   sql.NullFloat64
	Fallback    string
	WaterPixels int
	ValidPixels int
	WaterArea   float64
	Bounds      *geojson.Polygon
	MinX        float64
	MinY        float64
	MaxX        float64
	MaxY        float64
}

// RecordFromResult flattens a detection result into a row
func RecordFromResult(result model.DetectionResult) (*DetectionRecord, error) {
	bounds, ok := result.Geometry.(*geojson.Polygon)
	if !ok {
		return nil, fmt.Errorf("detection %s: bounds must be a polygon, got %T", result.ID, result.Geometry)
	}
	rec := &DetectionRecord{
		SceneID:      result.ID,
		Acquired:     result.AcquiredDate,
		Sensor:       result.SensorName,
		Polarisation: result.Polarisation,
		Fallback:     string(result.Fallback),
		WaterPixels:  result.WaterPixels,
		ValidPixels:  result.ValidPixels,
		WaterArea:    result.WaterArea,
		Bounds:       bounds,
	}
	if !result.Skipped() {
		rec.Threshold = sql.NullFloat64{Float64: result.Threshold, Valid: true}
	}
	rec.MinX, rec.MinY, rec.MaxX, rec.MaxY = math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for _, ring := range bounds.Coordinates {
		for _, point := range ring {
			rec.MinX = math.Min(rec.MinX, point[0])
			rec.MinY = math.Min(rec.MinY, point[1])
			rec.MaxX = math.Max(rec.MaxX, point[0])
			rec.MaxY = math.Max(rec.MaxY, point[1])
		}
	}
	if rec.MinX > rec.MaxX {
		return nil, fmt.Errorf("detection %s: bounds polygon is empty", result.ID)
	}
	return rec, nil
}

// Result rebuilds the detection result, without its extent
func (rec DetectionRecord) Result() model.DetectionResult {
	result := model.DetectionResult{
		BasicDetectionResult: model.BasicDetectionResult{
			ID:           rec.SceneID,
			Geometry:     rec.Bounds,
			AcquiredDate: rec.Acquired,
			SensorName:   rec.Sensor,
			Polarisation: rec.Polarisation,
		},
		WaterExtentData: model.WaterExtentData{
			Fallback:    model.FallbackPolicy(rec.Fallback),
			WaterPixels: rec.WaterPixels,
			ValidPixels: rec.ValidPixels,
			WaterArea:   rec.WaterArea,
		},
	}
	if rec.Threshold.Valid {
		result.Threshold = rec.Threshold.Float64
	}
	return result
}

func marshalExtent(extent *geojson.FeatureCollection) ([]byte, error) {
	if extent == nil {
		extent = geojson.NewFeatureCollection(nil)
	}
	return json.Marshal(extent)
}

// ParseExtent decodes a stored extent_json value
func ParseExtent(raw []byte) (*geojson.FeatureCollection, error) {
	parsed, err := geojson.Parse(raw)
	if err != nil {
		return nil, err
	}
	fc, ok := parsed.(*geojson.FeatureCollection)
	if !ok {
		return nil, fmt.Errorf("Expected a FeatureCollection and got %T", parsed)
	}
	return fc, nil
}
