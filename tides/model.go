package tides

import (
	"fmt"

	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

// Context is the context for this operation
type Context struct {
	TidesURL  string
	sessionID string
}

// AppName returns the application name
func (c *Context) AppName() string {
	return util.AppName
}

// SessionID returns a Session ID, creating one if needed
func (c *Context) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = util.PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *Context) LogRootDir() string {
	return ""
}

// DtgLayout is the date-time-group layout the tide service expects
const DtgLayout = "2006-01-02-15-04"

// InputLocation is one point and time to predict tides for
type InputLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Dtg string  `json:"dtg"`
}

// Input is the tide service request body
type Input struct {
	Locations []InputLocation `json:"locations"`
}

// OutputData is the prediction for one location
type OutputData struct {
	MinTide  float64 `json:"minimumTide24Hours"`
	MaxTide  float64 `json:"maximumTide24Hours"`
	CurrTide float64 `json:"currentTide"`
}

// OutputLocation echoes an input location with its prediction
type OutputLocation struct {
	Lat     float64    `json:"lat"`
	Lon     float64    `json:"lon"`
	Dtg     string     `json:"dtg"`
	Results OutputData `json:"results"`
}

// Output is the tide service response body
type Output struct {
	Locations []OutputLocation `json:"locations"`
}

// InputForBasicResults asks, per result and in order, for the tide at the
// centre of the scene footprint at acquisition time. The service only takes
// longitude and latitude, so footprints on a projected grid are rejected.
func InputForBasicResults(results []model.BasicDetectionResult) (*Input, error) {
	input := &Input{Locations: make([]InputLocation, 0, len(results))}
	for _, result := range results {
		feature, err := result.GeoJSONFeature()
		if err != nil {
			return nil, err
		}
		bbox := feature.ForceBbox()
		center := bbox.Centroid()
		if center == nil {
			return nil, fmt.Errorf("scene %s has no footprint to ask tides for", result.ID)
		}
		if len(bbox) != 4 || bbox[0] < -180 || bbox[2] > 180 || bbox[1] < -90 || bbox[3] > 90 {
			return nil, fmt.Errorf("scene %s footprint (%v) is not in longitude/latitude", result.ID, bbox)
		}
		input.Locations = append(input.Locations, InputLocation{
			Lon: center.Coordinates[0],
			Lat: center.Coordinates[1],
			Dtg: result.AcquiredDate.UTC().Format(DtgLayout),
		})
	}
	return input, nil
}

// OutputToTidesData converts a response into mixins, in response order
func OutputToTidesData(output Output) []model.TidesData {
	tidesData := make([]model.TidesData, len(output.Locations))
	for i, location := range output.Locations {
		tidesData[i] = model.TidesData{
			Current: location.Results.CurrTide,
			Min24h:  location.Results.MinTide,
			Max24h:  location.Results.MaxTide,
		}
	}
	return tidesData
}
