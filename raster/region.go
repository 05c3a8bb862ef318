package raster

import (
	"fmt"

	"github.com/venicegeo/geojson-go/geojson"
)

// RegionMask rasterises a GeoJSON region onto a grid. A pixel is selected when
// its centre falls inside the region (even-odd rule, so holes are honoured).
// Every pixel of the result is valid.
//
// region may be a *geojson.Polygon, *geojson.MultiPolygon, *geojson.Feature
// or *geojson.FeatureCollection of those.
func RegionMask(region interface{}, rows, cols int, transform GeoTransform) (*Mask, error) {
	polygons, err := polygonRings(region)
	if err != nil {
		return nil, err
	}
	m := NewMask(rows, cols, transform)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x, y := transform.Center(r, c)
			inside := false
			for _, rings := range polygons {
				if insideRings(rings, x, y) {
					inside = true
					break
				}
			}
			m.Set(r, c, inside, true)
		}
	}
	return m, nil
}

func polygonRings(region interface{}) ([][][][]float64, error) {
	switch g := region.(type) {
	case *geojson.Polygon:
		return [][][][]float64{g.Coordinates}, nil
	case *geojson.MultiPolygon:
		return g.Coordinates, nil
	case *geojson.Feature:
		return polygonRings(g.Geometry)
	case *geojson.FeatureCollection:
		all := [][][][]float64{}
		for _, feature := range g.Features {
			polygons, err := polygonRings(feature)
			if err != nil {
				return nil, err
			}
			all = append(all, polygons...)
		}
		return all, nil
	default:
		return nil, fmt.Errorf("region must be a polygon or multipolygon, got %T", region)
	}
}

// insideRings applies the even-odd rule across the outer ring and its holes
func insideRings(rings [][][]float64, x, y float64) bool {
	inside := false
	for _, ring := range rings {
		if crossesRing(ring, x, y) {
			inside = !inside
		}
	}
	return inside
}

func crossesRing(ring [][]float64, x, y float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
