package detection

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/raviraj-dave96/Compoundflood-road-damage/db"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
	"github.com/venicegeo/geojson-go/geojson"
)

// DiscoverHandler is a handler for /detections
// @Title detectionDiscoverHandler
// @Description searches stored flood detections
// @Accept  plain
// @Param   bbox            query   string  false        "The bounding box, as a GeoJSON Bounding box (x1,y1,x2,y2)"
// @Param   acquiredDate    query   string  false        "The minimum (earliest) acquired date, as RFC 3339"
// @Param   maxAcquiredDate query   string  false        "The maximum acquired date, as RFC 3339"
// @Param   tides           query   bool    false        "True: incorporate tide prediction in the output"
// @Success 200 {object}  geojson.FeatureCollection
// @Failure 400 {object}  string
// @Router /detections [get]
type DiscoverHandler struct {
	Context Context
}

// NewDiscoverHandler creates a new handler using configuration
// from environment variables
func NewDiscoverHandler(connectionProvider db.ConnectionProvider) (*DiscoverHandler, error) {
	tidesURL := util.GetTidesURL()

	database, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return nil, err
	}

	return &DiscoverHandler{
		Context: Context{
			DB:           database,
			BaseTidesURL: tidesURL,
		},
	}, nil
}

// ServeHTTP implements the http.Handler interface for the DiscoverHandler type
func (h DiscoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("discover"))
	defer timer.ObserveDuration()

	var (
		bbox geojson.BoundingBox
		err  error
	)
	if r.FormValue("bbox") != "" {
		if bbox, err = geojson.NewBoundingBox(r.FormValue("bbox")); err != nil {
			message := fmt.Sprintf("The bbox value of %v is invalid", r.FormValue("bbox"))
			util.LogSimpleErr(&h.Context, message, err)
			util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
			return
		}
	}
	minAcquiredDate := time.Unix(0, 0)
	if r.FormValue("acquiredDate") != "" {
		if minAcquiredDate, err = time.Parse(time.RFC3339, r.FormValue("acquiredDate")); err != nil {
			message := fmt.Sprintf("Acquired date value of %v is invalid.", r.FormValue("acquiredDate"))
			util.LogSimpleErr(&h.Context, message, err)
			util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
			return
		}
	}
	maxAcquiredDate := time.Now()
	if r.FormValue("maxAcquiredDate") != "" {
		if maxAcquiredDate, err = time.Parse(time.RFC3339, r.FormValue("maxAcquiredDate")); err != nil {
			message := fmt.Sprintf("Acquired date value of %v is invalid.", r.FormValue("maxAcquiredDate"))
			util.LogSimpleErr(&h.Context, message, err)
			util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
			return
		}
	}
	tides, _ := strconv.ParseBool(r.FormValue("tides"))

	tx, err := h.Context.DB.Begin()
	if err != nil {
		queryErrors.WithLabelValues("discover").Inc()
		message := fmt.Sprintf("Could not begin DB transaction: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	defer tx.Commit()

	multiResult, err := discoverDetections(tx, h.Context, bbox, minAcquiredDate, maxAcquiredDate, tides)
	if err != nil {
		queryErrors.WithLabelValues("discover").Inc()
		message := fmt.Sprintf("Error searching for detections: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}

	featureCollection, err := multiResult.GeoJSONFeatureCollection()
	if err != nil {
		message := fmt.Sprintf("Error converting to feature collection: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(featureCollection.String()))
}

// MetadataHandler is a handler for /detections/{id}
// @Title detectionMetadataHandler
// @Description returns one scene's flood detection
// @Accept  plain
// @Param   id            path   string  false        "The ID of the requested scene"
// @Param   tides           query   bool    false        "True: incorporate tide prediction in the output"
// @Success 200 {object}  geojson.Feature
// @Failure 404 {object}  string
// @Router /detections/{id} [get]
type MetadataHandler struct {
	Context Context
}

// NewMetadataHandler creates a new handler using the environment and given DB
func NewMetadataHandler(connectionProvider db.ConnectionProvider) (*MetadataHandler, error) {
	tidesURL := util.GetTidesURL()

	database, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return nil, err
	}

	return &MetadataHandler{
		Context: Context{
			DB:           database,
			BaseTidesURL: tidesURL,
		},
	}, nil
}

func (h MetadataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("metadata"))
	defer timer.ObserveDuration()

	sceneID, ok := mux.Vars(r)["id"]
	if !ok {
		message := "No scene ID found in URL"
		util.LogAlert(&h.Context, message)
		util.HTTPError(r, w, &h.Context, message, http.StatusNotFound)
		return
	}

	tx, err := h.Context.DB.Begin()
	if err != nil {
		queryErrors.WithLabelValues("metadata").Inc()
		message := fmt.Sprintf("Could not begin DB transaction: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	defer tx.Commit()

	tides, _ := strconv.ParseBool(r.FormValue("tides"))

	detection, err := getDetection(tx, h.Context, sceneID, tides)
	if err == sql.ErrNoRows {
		message := fmt.Sprintf("Detection not found: %s", sceneID)
		util.LogInfo(&h.Context, message)
		util.HTTPError(r, w, &h.Context, message, http.StatusNotFound)
		return
	}
	if err != nil {
		queryErrors.WithLabelValues("metadata").Inc()
		message := fmt.Sprintf("Server error searching for detection: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}

	feature, err := detection.GeoJSONFeature()
	if err != nil {
		message := fmt.Sprintf("Error converting detection to geojson: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(feature.String()))
}

// ExtentHandler is a handler for /detections/{id}/extent
// @Title detectionExtentHandler
// @Description returns the water polygons of one scene
// @Accept  plain
// @Param   id            path   string  false        "The ID of the requested scene"
// @Success 200 {object}  geojson.FeatureCollection
// @Failure 404 {object}  string
// @Router /detections/{id}/extent [get]
type ExtentHandler struct {
	Context Context
}

// NewExtentHandler creates a new handler using the given DB
func NewExtentHandler(connectionProvider db.ConnectionProvider) (*ExtentHandler, error) {
	database, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return nil, err
	}

	return &ExtentHandler{
		Context: Context{
			DB: database,
		},
	}, nil
}

func (h ExtentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("extent"))
	defer timer.ObserveDuration()

	sceneID, ok := mux.Vars(r)["id"]
	if !ok {
		message := "No scene ID found in URL"
		util.LogAlert(&h.Context, message)
		util.HTTPError(r, w, &h.Context, message, http.StatusNotFound)
		return
	}

	tx, err := h.Context.DB.Begin()
	if err != nil {
		queryErrors.WithLabelValues("extent").Inc()
		message := fmt.Sprintf("Could not begin DB transaction: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	defer tx.Commit()

	extent, err := db.GetDetectionExtent(tx, sceneID)
	if err == sql.ErrNoRows {
		message := fmt.Sprintf("Detection not found: %s", sceneID)
		util.LogInfo(&h.Context, message)
		util.HTTPError(r, w, &h.Context, message, http.StatusNotFound)
		return
	}
	if err != nil {
		queryErrors.WithLabelValues("extent").Inc()
		message := fmt.Sprintf("Server error reading detection extent: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(extent.String()))
}
