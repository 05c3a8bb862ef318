package tides

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/geojson-go/geojson"
)

var mockResult = model.BasicDetectionResult{
	ID: "S1A_TEST",
	Geometry: geojson.NewPolygon([][][]float64{{
		{10, 20}, {12, 20}, {12, 22}, {10, 22}, {10, 20},
	}}),
	AcquiredDate: time.Date(2020, 1, 2, 3, 4, 0, 0, time.UTC),
	SensorName:   "Sentinel-1A",
}

func mockTidesServer(t *testing.T, received *Input) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(received))
		out := Output{}
		for i, loc := range received.Locations {
			out.Locations = append(out.Locations, OutputLocation{
				Lat: loc.Lat, Lon: loc.Lon, Dtg: loc.Dtg,
				Results: OutputData{CurrTide: float64(i) + 0.5, MinTide: -1, MaxTide: 2},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}))
}

func TestInputForBasicResults(t *testing.T) {
	later := mockResult
	later.ID = "S1B_TEST"
	later.AcquiredDate = mockResult.AcquiredDate.Add(90 * time.Minute)

	input, err := InputForBasicResults([]model.BasicDetectionResult{mockResult, later})

	require.NoError(t, err)
	require.Len(t, input.Locations, 2)
	assert.Equal(t, InputLocation{Lat: 21, Lon: 11, Dtg: "2020-01-02-03-04"}, input.Locations[0])
	assert.Equal(t, "2020-01-02-04-34", input.Locations[1].Dtg)
}

func TestInputForBasicResults_ProjectedFootprint(t *testing.T) {
	projected := mockResult
	projected.Geometry = geojson.NewPolygon([][][]float64{{
		{500000, 4000000}, {500100, 4000000}, {500100, 3999900}, {500000, 3999900}, {500000, 4000000},
	}})

	_, err := InputForBasicResults([]model.BasicDetectionResult{mockResult, projected})

	assert.Error(t, err)
}

func TestAddTidesToResults(t *testing.T) {
	var received Input
	server := mockTidesServer(t, &received)
	defer server.Close()
	second := mockResult
	second.ID = "S1B_TEST"
	results := []model.DetectionResult{
		{BasicDetectionResult: mockResult},
		{BasicDetectionResult: second},
	}

	err := AddTidesToResults(&Context{TidesURL: server.URL}, results)

	require.NoError(t, err)
	assert.Len(t, received.Locations, 2)
	require.NotNil(t, results[0].TidesData)
	assert.Equal(t, 0.5, results[0].TidesData.Current)
	assert.Equal(t, 1.5, results[1].TidesData.Current)
	assert.Equal(t, 2.0, results[1].TidesData.Max24h)
}

func TestAddTidesToResults_Empty(t *testing.T) {
	assert.NoError(t, AddTidesToResults(&Context{TidesURL: "http://invalid.localdomain"}, nil))
}

func TestAddTidesToResults_LengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"locations":[]}`))
	}))
	defer server.Close()
	results := []model.DetectionResult{{BasicDetectionResult: mockResult}}

	err := AddTidesToResults(&Context{TidesURL: server.URL}, results)

	assert.Error(t, err)
	assert.Nil(t, results[0].TidesData)
}

func TestGetSingleTidesData(t *testing.T) {
	var received Input
	server := mockTidesServer(t, &received)
	defer server.Close()

	data, err := GetSingleTidesData(&Context{TidesURL: server.URL}, mockResult)

	require.NoError(t, err)
	assert.Equal(t, 0.5, data.Current)
	assert.Equal(t, -1.0, data.Min24h)
}

func TestGetSingleTidesData_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := GetSingleTidesData(&Context{TidesURL: server.URL}, mockResult)

	assert.Error(t, err)
}

func TestQueryMultipleTides_Batches(t *testing.T) {
	defer func(max int) { maxLocationsPerRequest = max }(maxLocationsPerRequest)
	maxLocationsPerRequest = 2
	requests := 0
	var received Input
	inner := mockTidesServer(t, &received)
	defer inner.Close()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		inner.Config.Handler.ServeHTTP(w, r)
	}))
	defer server.Close()
	input := Input{Locations: []InputLocation{
		{Lat: 1, Lon: 1, Dtg: "2020-01-02-03-04"},
		{Lat: 2, Lon: 2, Dtg: "2020-01-02-03-04"},
		{Lat: 3, Lon: 3, Dtg: "2020-01-02-03-04"},
	}}

	out, err := QueryMultipleTides(&Context{TidesURL: server.URL}, input)

	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	require.Len(t, out.Locations, 3)
	assert.Equal(t, 3.0, out.Locations[2].Lat)
	// the last batch held a single location
	assert.Equal(t, 0.5, out.Locations[2].Results.CurrTide)
}

func TestQueryMultipleTides_Empty(t *testing.T) {
	out, err := QueryMultipleTides(&Context{TidesURL: "http://invalid.localdomain"}, Input{})

	require.NoError(t, err)
	assert.Empty(t, out.Locations)
}
