package detection

import (
	"database/sql"
	"time"

	"github.com/raviraj-dave96/Compoundflood-road-damage/db"
	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/tides"
	"github.com/venicegeo/geojson-go/geojson"
)

func discoverDetections(tx *sql.Tx, ctx Context, bbox geojson.BoundingBox,
	minAcquiredDate time.Time, maxAcquiredDate time.Time, withTides bool) (model.GeoJSONFeatureCollectionCreator, error) {
	records, err := db.SearchDetections(tx, bbox, minAcquiredDate, maxAcquiredDate)
	if err != nil {
		return nil, err
	}

	results := make([]model.DetectionResult, len(records))
	for i, record := range records {
		results[i] = record.Result()
	}

	if withTides {
		tidesContext := &tides.Context{TidesURL: ctx.BaseTidesURL}
		if err = tides.AddTidesToResults(tidesContext, results); err != nil {
			return nil, err
		}
	}

	multiResult := model.MultiResult{
		FeatureCreators: make([]model.GeoJSONFeatureCreator, len(results)),
	}
	for i, result := range results {
		multiResult.FeatureCreators[i] = result
	}

	return multiResult, nil
}

func getDetection(tx *sql.Tx, ctx Context, sceneID string, withTides bool) (model.GeoJSONFeatureCreator, error) {
	record, err := db.GetDetectionByID(tx, sceneID)
	if err != nil {
		return nil, err
	}

	result := record.Result()
	if withTides {
		tidesContext := &tides.Context{TidesURL: ctx.BaseTidesURL}
		if result.TidesData, err = tides.GetSingleTidesData(tidesContext, result.BasicDetectionResult); err != nil {
			return nil, err
		}
	}
	return result, nil
}
