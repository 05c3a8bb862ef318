package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/venicegeo/geojson-go/geojson"
)

const upsertDetectionSQL = `
	INSERT INTO public.detections
		(scene_id, acquired, sensor, polarisation, threshold, fallback,
		water_pixels, valid_pixels, water_area, bounds_json, extent_json,
		min_x, min_y, max_x, max_y, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
	ON CONFLICT (scene_id) DO UPDATE SET
		acquired = EXCLUDED.acquired,
		sensor = EXCLUDED.sensor,
		polarisation = EXCLUDED.polarisation,
		threshold = EXCLUDED.threshold,
		fallback = EXCLUDED.fallback,
		water_pixels = EXCLUDED.water_pixels,
		valid_pixels = EXCLUDED.valid_pixels,
		water_area = EXCLUDED.water_area,
		bounds_json = EXCLUDED.bounds_json,
		extent_json = EXCLUDED.extent_json,
		min_x = EXCLUDED.min_x,
		min_y = EXCLUDED.min_y,
		max_x = EXCLUDED.max_x,
		max_y = EXCLUDED.max_y,
		created_at = now()`

const selectDetectionColumns = `
	SELECT scene_id, acquired, sensor, polarisation, threshold, fallback,
		water_pixels, valid_pixels, water_area, bounds_json,
		min_x, min_y, max_x, max_y
	FROM public.detections`

const getDetectionSQL = selectDetectionColumns + `
	WHERE scene_id=$1
	LIMIT 1`

const searchDetectionsSQL = selectDetectionColumns + `
	WHERE acquired >= $1 AND acquired <= $2
	ORDER BY acquired DESC, scene_id`

const searchDetectionsBboxSQL = selectDetectionColumns + `
	WHERE acquired >= $1 AND acquired <= $2
	AND max_x >= $3 AND min_x <= $5 AND max_y >= $4 AND min_y <= $6
	ORDER BY acquired DESC, scene_id`

const getExtentSQL = `
	SELECT extent_json FROM public.detections
	WHERE scene_id=$1
	LIMIT 1`

// InsertDetection stores a detection, replacing any previous run of the scene
func InsertDetection(tx *sql.Tx, rec *DetectionRecord, extent *geojson.FeatureCollection) error {
	boundsJSON, err := json.Marshal(rec.Bounds)
	if err != nil {
		return err
	}
	extentJSON, err := marshalExtent(extent)
	if err != nil {
		return err
	}
	_, err = tx.Exec(upsertDetectionSQL,
		rec.SceneID, rec.Acquired, rec.Sensor, rec.Polarisation, rec.Threshold, rec.Fallback,
		rec.WaterPixels, rec.ValidPixels, rec.WaterArea, string(boundsJSON), string(extentJSON),
		rec.MinX, rec.MinY, rec.MaxX, rec.MaxY,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDetection(row rowScanner) (*DetectionRecord, error) {
	var boundsBytes []byte
	rec := DetectionRecord{}
	err := row.Scan(&rec.SceneID, &rec.Acquired, &rec.Sensor, &rec.Polarisation, &rec.Threshold, &rec.Fallback,
		&rec.WaterPixels, &rec.ValidPixels, &rec.WaterArea, &boundsBytes,
		&rec.MinX, &rec.MinY, &rec.MaxX, &rec.MaxY)
	if err != nil {
		return nil, err
	}
	rec.Bounds, err = geojson.PolygonFromBytes(boundsBytes)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetDetectionByID returns sql.ErrNoRows when the scene was never detected
func GetDetectionByID(tx *sql.Tx, sceneID string) (*DetectionRecord, error) {
	rows, err := tx.Query(getDetectionSQL, sceneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanDetection(rows)
}

// GetDetectionExtent returns the stored water polygons of a scene, or
// sql.ErrNoRows
func GetDetectionExtent(tx *sql.Tx, sceneID string) (*geojson.FeatureCollection, error) {
	var raw []byte
	if err := tx.QueryRow(getExtentSQL, sceneID).Scan(&raw); err != nil {
		return nil, err
	}
	return ParseExtent(raw)
}

// SearchDetections finds detections acquired within [minAcquired, maxAcquired],
// newest first. A bbox of four values (x1,y1,x2,y2) limits the search to
// scenes whose bounds overlap it; an empty bbox does not.
func SearchDetections(tx *sql.Tx, bbox geojson.BoundingBox, minAcquired, maxAcquired time.Time) ([]DetectionRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(bbox) >= 4 {
		rows, err = tx.Query(searchDetectionsBboxSQL, minAcquired, maxAcquired, bbox[0], bbox[1], bbox[2], bbox[3])
	} else {
		rows, err = tx.Query(searchDetectionsSQL, minAcquired, maxAcquired)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []DetectionRecord{}
	for rows.Next() {
		rec, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
