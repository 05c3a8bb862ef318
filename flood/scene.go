package flood

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"github.com/venicegeo/geojson-go/geojson"
)

// SceneMetadata is the JSON sidecar describing one backscatter band
type SceneMetadata struct {
	ID           string              `json:"id"`
	Acquired     string              `json:"acquired"`
	Sensor       string              `json:"sensor"`
	Polarisation string              `json:"polarisation"`
	GeoTransform raster.GeoTransform `json:"geoTransform"`
	NoData       *float64            `json:"noData,omitempty"`
	// Band is the .npy file, relative to the sidecar. Defaults to the
	// sidecar's name with a .npy extension.
	Band string `json:"band,omitempty"`
	// Region is an optional GeoJSON polygon limiting the detection
	Region json.RawMessage `json:"region,omitempty"`
}

// Scene is a loaded backscatter band (dB) with its metadata
type Scene struct {
	ID           string
	Acquired     time.Time
	Sensor       string
	Polarisation string
	Band         *raster.Band
	// Region is nil or a geojson polygon, multipolygon, feature or collection
	Region interface{}
}

// LoadScene reads a sidecar and the band it points at
func LoadScene(metadataPath string) (*Scene, error) {
	raw, err := ioutil.ReadFile(filepath.Clean(metadataPath))
	if err != nil {
		return nil, err
	}
	var meta SceneMetadata
	if err = json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%s: invalid scene metadata: %w", metadataPath, err)
	}
	if meta.ID == "" {
		return nil, fmt.Errorf("%s: scene metadata has no id", metadataPath)
	}
	if err = meta.GeoTransform.Valid(); err != nil {
		return nil, fmt.Errorf("%s: %w", metadataPath, err)
	}
	acquired, err := model.ParseAcquiredTime(meta.Acquired)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", metadataPath, err)
	}

	bandPath := meta.Band
	if bandPath == "" {
		bandPath = strings.TrimSuffix(filepath.Base(metadataPath), filepath.Ext(metadataPath)) + ".npy"
	}
	if !filepath.IsAbs(bandPath) {
		bandPath = filepath.Join(filepath.Dir(metadataPath), bandPath)
	}
	noData := math.NaN()
	if meta.NoData != nil {
		noData = *meta.NoData
	}
	band, err := raster.ReadNpyFile(bandPath, meta.Polarisation, meta.GeoTransform, noData)
	if err != nil {
		return nil, err
	}

	scene := &Scene{
		ID:           meta.ID,
		Acquired:     acquired,
		Sensor:       meta.Sensor,
		Polarisation: meta.Polarisation,
		Band:         band,
	}
	if len(meta.Region) > 0 && string(meta.Region) != "null" {
		if scene.Region, err = geojson.Parse(meta.Region); err != nil {
			return nil, fmt.Errorf("%s: invalid region: %w", metadataPath, err)
		}
	}
	return scene, nil
}

// FindScenes lists the scene sidecars (*.json) directly inside dir, sorted
func FindScenes(dir string) ([]string, error) {
	entries, err := ioutil.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil, err
	}
	paths := []string{}
	for _, entry := range entries {
		if entry.Mode()&os.ModeType != 0 || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Footprint is the polygon covered by the scene's grid
func (s *Scene) Footprint() *geojson.Polygon {
	rows, cols := s.Band.Dims()
	return footprint(s.Band.Transform, rows, cols)
}

func footprint(transform raster.GeoTransform, rows, cols int) *geojson.Polygon {
	corner := func(row, col int) []float64 {
		x, y := transform.Point(float64(row), float64(col))
		return []float64{x, y}
	}
	return geojson.NewPolygon([][][]float64{{
		corner(0, 0), corner(rows, 0), corner(rows, cols), corner(0, cols), corner(0, 0),
	}})
}
