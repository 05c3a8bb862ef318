package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/raviraj-dave96/Compoundflood-road-damage/flood"
	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/geojson-go/geojson"
	"gonum.org/v1/gonum/mat"
)

var mockAcquired = time.Date(2021, 7, 14, 17, 45, 2, 0, time.UTC)

const mockBoundsJSON = `{"type":"Polygon","coordinates":[[[500000,4000000],[500000,3999900],[500100,3999900],[500100,4000000],[500000,4000000]]]}`

var detectionColumns = []string{"scene_id", "acquired", "sensor", "polarisation", "threshold", "fallback",
	"water_pixels", "valid_pixels", "water_area", "bounds_json", "min_x", "min_y", "max_x", "max_y"}

func mockResult() model.DetectionResult {
	return model.DetectionResult{
		BasicDetectionResult: model.BasicDetectionResult{
			ID: "S1A_TEST",
			Geometry: geojson.NewPolygon([][][]float64{{
				{500000, 4000000}, {500000, 3999900}, {500100, 3999900}, {500100, 4000000}, {500000, 4000000},
			}}),
			AcquiredDate: mockAcquired,
			SensorName:   "Sentinel-1A",
			Polarisation: "VH",
		},
		WaterExtentData: model.WaterExtentData{Threshold: -7, WaterPixels: 50, ValidPixels: 100, WaterArea: 5000},
	}
}

func TestRecordFromResult(t *testing.T) {
	rec, err := RecordFromResult(mockResult())

	require.NoError(t, err)
	assert.Equal(t, "S1A_TEST", rec.SceneID)
	assert.Equal(t, sql.NullFloat64{Float64: -7, Valid: true}, rec.Threshold)
	assert.Equal(t, 500000.0, rec.MinX)
	assert.Equal(t, 3999900.0, rec.MinY)
	assert.Equal(t, 500100.0, rec.MaxX)
	assert.Equal(t, 4000000.0, rec.MaxY)

	back := rec.Result()
	assert.Equal(t, "S1A_TEST", back.ID)
	assert.Equal(t, -7.0, back.Threshold)
	assert.Equal(t, 50, back.WaterPixels)
}

func TestRecordFromResult_Skipped(t *testing.T) {
	result := mockResult()
	result.Fallback = model.FallbackSkip

	rec, err := RecordFromResult(result)

	require.NoError(t, err)
	assert.False(t, rec.Threshold.Valid)
	assert.Equal(t, "skip", rec.Fallback)
	assert.True(t, rec.Result().Skipped())
}

func TestRecordFromResult_BadGeometry(t *testing.T) {
	result := mockResult()
	result.Geometry = geojson.NewPoint([]float64{1, 2})

	_, err := RecordFromResult(result)

	assert.Error(t, err)
}

func TestInsertDetection(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	rec, err := RecordFromResult(mockResult())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.detections")).
		WithArgs("S1A_TEST", mockAcquired, "Sentinel-1A", "VH", -7.0, "", 50, 100, 5000.0,
			sqlmock.AnyArg(), sqlmock.AnyArg(), 500000.0, 3999900.0, 500100.0, 4000000.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := database.Begin()
	require.NoError(t, err)
	require.NoError(t, InsertDetection(tx, rec, nil))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDetectionByID(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM public.detections")).
		WithArgs("S1A_TEST").
		WillReturnRows(sqlmock.NewRows(detectionColumns).
			AddRow("S1A_TEST", mockAcquired, "Sentinel-1A", "VH", -7.0, "", 50, 100, 5000.0, []byte(mockBoundsJSON),
				500000.0, 3999900.0, 500100.0, 4000000.0))
	mock.ExpectCommit()

	tx, err := database.Begin()
	require.NoError(t, err)
	rec, err := GetDetectionByID(tx, "S1A_TEST")
	require.NoError(t, tx.Commit())

	require.NoError(t, err)
	assert.Equal(t, "S1A_TEST", rec.SceneID)
	assert.Equal(t, 50, rec.WaterPixels)
	assert.True(t, rec.Threshold.Valid)
	assert.Equal(t, 500100.0, rec.Bounds.Coordinates[0][2][0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDetectionByID_NotFound(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM public.detections")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(detectionColumns))

	tx, err := database.Begin()
	require.NoError(t, err)
	_, err = GetDetectionByID(tx, "nope")

	assert.Equal(t, sql.ErrNoRows, err)
}

func TestGetDetectionExtent(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	extent := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"1","geometry":{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]},"properties":{"label":1}}]}`

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT extent_json")).
		WithArgs("S1A_TEST").
		WillReturnRows(sqlmock.NewRows([]string{"extent_json"}).AddRow([]byte(extent)))

	tx, err := database.Begin()
	require.NoError(t, err)
	fc, err := GetDetectionExtent(tx, "S1A_TEST")

	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
}

func TestSearchDetections_Bbox(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	minDate := time.Unix(0, 0)
	maxDate := mockAcquired.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("AND max_x >= $3")).
		WithArgs(minDate, maxDate, 1.0, 2.0, 3.0, 4.0).
		WillReturnRows(sqlmock.NewRows(detectionColumns).
			AddRow("S1A_TEST", mockAcquired, "Sentinel-1A", "VH", nil, "skip", 0, 0, 0.0, []byte(mockBoundsJSON),
				500000.0, 3999900.0, 500100.0, 4000000.0))

	tx, err := database.Begin()
	require.NoError(t, err)
	records, err := SearchDetections(tx, geojson.BoundingBox{1, 2, 3, 4}, minDate, maxDate)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Threshold.Valid)
	assert.True(t, records[0].Result().Skipped())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchDetections_NoBbox(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	minDate := time.Unix(0, 0)
	maxDate := mockAcquired

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE acquired >= $1 AND acquired <= $2\n\tORDER BY")).
		WithArgs(minDate, maxDate).
		WillReturnRows(sqlmock.NewRows(detectionColumns))

	tx, err := database.Begin()
	require.NoError(t, err)
	records, err := SearchDetections(tx, nil, minDate, maxDate)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func writeScene(t *testing.T, dir, id string) {
	transform := raster.GeoTransform{500000, 10, 0, 4000000, 0, -10}
	data := mat.NewDense(2, 2, []float64{-22, -7, -22, -7})
	require.NoError(t, raster.WriteNpyFile(filepath.Join(dir, id+".npy"), &raster.Band{Name: "VH", Data: data, Transform: transform}))
	raw, err := json.Marshal(map[string]interface{}{
		"id": id, "acquired": "2021-07-14T17:45:02Z", "sensor": "Sentinel-1A", "polarisation": "VH", "geoTransform": transform,
	})
	require.NoError(t, err)
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, id+".json"), raw, 0644))
}

func newTestImporter(t *testing.T, dir string, database *sql.DB) *Importer {
	cfg := flood.DefaultConfig()
	cfg.SpeckleRadius = 0
	detector, err := flood.NewDetector(cfg)
	require.NoError(t, err)
	return NewImporter(dir, detector, func(util.LogContext) (*sql.DB, error) {
		return database, nil
	})
}

func TestImporter_Import(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "a")
	writeScene(t, dir, "b")
	database, mock, err := sqlmock.New()
	require.NoError(t, err)

	for _, id := range []string{"a", "b"} {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.detections")).
			WithArgs(id, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
	}
	mock.ExpectClose()

	status := newTestImporter(t, dir, database).Import(make(chan string))

	assert.Contains(t, status, "Scenes found: 2")
	assert.Contains(t, status, "Stored: 2")
	assert.Contains(t, status, "Aborted: false")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_Import_MissingDirectory(t *testing.T) {
	status := newTestImporter(t, filepath.Join(t.TempDir(), "missing"), nil).Import(make(chan string))

	assert.Contains(t, status, "Failed listing")
}

func TestImporter_ImportWhile_Status(t *testing.T) {
	imp := newTestImporter(t, t.TempDir(), nil)
	messages := make(chan string)
	done := make(chan struct{})
	go func() {
		imp.ImportWhile(messages, time.Hour)
		close(done)
	}()

	status := imp.GetStatus()
	close(messages)
	<-done

	assert.Contains(t, status, "Status: Sleeping until")
	assert.Contains(t, status, "None")
}

func TestImporter_StatusWhileJobRuns(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "a")
	cfg := flood.DefaultConfig()
	cfg.SpeckleRadius = 0
	detector, err := flood.NewDetector(cfg)
	require.NoError(t, err)
	opening := make(chan struct{})
	release := make(chan struct{})
	imp := NewImporter(dir, detector, func(util.LogContext) (*sql.DB, error) {
		close(opening)
		<-release
		return nil, errors.New("database unavailable")
	})

	messages := make(chan string, 5)
	done := make(chan struct{})
	go func() {
		imp.ImportWhile(messages, time.Hour)
		close(done)
	}()
	messages <- BeginIngestJobMessage
	<-opening
	messages <- BeginIngestJobMessage

	statusChan := make(chan string, 1)
	go func() { statusChan <- imp.GetStatus() }()
	select {
	case status := <-statusChan:
		assert.Contains(t, status, "Status: Running since")
		assert.Contains(t, status, "Scenes found: 1")
	case <-time.After(5 * time.Second):
		t.Fatal("status request blocked while a job was running")
	}
	assert.Eventually(t, func() bool {
		return strings.Contains(imp.GetStatus(), "Ignored start requests: 1")
	}, 5*time.Second, 10*time.Millisecond)

	close(release)
	assert.Eventually(t, func() bool {
		return strings.Contains(imp.GetStatus(), "Status: Sleeping until")
	}, 5*time.Second, 10*time.Millisecond)
	status := imp.GetStatus()
	assert.Contains(t, status, "Failed opening database")

	close(messages)
	<-done
}
