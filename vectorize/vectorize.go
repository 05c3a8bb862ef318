// Package vectorize turns raster masks into GeoJSON polygons
package vectorize

import (
	"strconv"

	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"github.com/venicegeo/geojson-go/geojson"
)

// Component is one 4-connected group of selected pixels
type Component struct {
	Label      int
	PixelCount int
	// Runs are horizontal spans of pixels, in raster order
	Runs []Run
}

// Run is a span of pixels on one row, columns [Start, End)
type Run struct {
	Row, Start, End int
}

// Components labels the 4-connected regions (no diagonals) of selected
// pixels, ordered by their first pixel in raster order. Labels start at 1.
func Components(m *raster.Mask) []Component {
	rows, cols := m.Dims()
	labels := make([]int, rows*cols)
	components := []Component{}
	queue := []int{}

	for start := range labels {
		r, c := start/cols, start%cols
		if labels[start] != 0 || !m.Selected(r, c) {
			continue
		}
		label := len(components) + 1
		labels[start] = label
		queue = append(queue[:0], start)
		count := 0
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			count++
			pr, pc := i/cols, i%cols
			for _, n := range [4][2]int{{pr - 1, pc}, {pr + 1, pc}, {pr, pc - 1}, {pr, pc + 1}} {
				nr, nc := n[0], n[1]
				if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
					continue
				}
				j := nr*cols + nc
				if labels[j] == 0 && m.Selected(nr, nc) {
					labels[j] = label
					queue = append(queue, j)
				}
			}
		}
		components = append(components, Component{Label: label, PixelCount: count})
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; {
			label := labels[r*cols+c]
			if label == 0 {
				c++
				continue
			}
			end := c + 1
			for end < cols && labels[r*cols+end] == label {
				end++
			}
			components[label-1].Runs = append(components[label-1].Runs, Run{Row: r, Start: c, End: end})
			c = end
		}
	}
	return components
}

// Geometry returns the component as a MultiPolygon of its row runs in map
// coordinates. The runs tile the component exactly.
func (comp Component) Geometry(transform raster.GeoTransform) *geojson.MultiPolygon {
	coordinates := make([][][][]float64, len(comp.Runs))
	for i, run := range comp.Runs {
		top, bottom := float64(run.Row), float64(run.Row+1)
		left, right := float64(run.Start), float64(run.End)
		coordinates[i] = [][][]float64{{
			point(transform, top, left),
			point(transform, top, right),
			point(transform, bottom, right),
			point(transform, bottom, left),
			point(transform, top, left),
		}}
	}
	return geojson.NewMultiPolygon(coordinates)
}

func point(transform raster.GeoTransform, row, col float64) []float64 {
	x, y := transform.Point(row, col)
	return []float64{x, y}
}

// Polygons vectorises the selected pixels of m into a FeatureCollection, one
// feature per 4-connected component, with label, pixelCount and area
// properties. Area is in map units squared.
func Polygons(m *raster.Mask) *geojson.FeatureCollection {
	pixelArea := m.Transform.PixelArea()
	components := Components(m)
	features := make([]*geojson.Feature, len(components))
	for i, comp := range components {
		features[i] = geojson.NewFeature(comp.Geometry(m.Transform), strconv.Itoa(comp.Label), map[string]interface{}{
			"label":      comp.Label,
			"pixelCount": comp.PixelCount,
			"area":       float64(comp.PixelCount) * pixelArea,
		})
	}
	return geojson.NewFeatureCollection(features)
}
