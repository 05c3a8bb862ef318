package vectorize

import (
	"testing"

	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tenMetre = raster.GeoTransform{500000, 10, 0, 4000000, 0, -10}

func maskFromRows(rows ...string) *raster.Mask {
	m := raster.NewMask(len(rows), len(rows[0]), tenMetre)
	for r, row := range rows {
		for c, ch := range row {
			switch ch {
			case '#':
				m.Set(r, c, true, true)
			case '.':
				m.Set(r, c, false, true)
			}
		}
	}
	return m
}

func TestComponents_FourConnected(t *testing.T) {
	m := maskFromRows(
		"##..",
		"#..#",
		"..#.",
	)

	components := Components(m)

	// diagonal neighbours are separate components
	require.Len(t, components, 3)
	assert.Equal(t, 3, components[0].PixelCount)
	assert.Equal(t, 1, components[1].PixelCount)
	assert.Equal(t, 1, components[2].PixelCount)
	assert.Equal(t, []Run{{Row: 0, Start: 0, End: 2}, {Row: 1, Start: 0, End: 1}}, components[0].Runs)
	assert.Equal(t, []Run{{Row: 1, Start: 3, End: 4}}, components[1].Runs)
	assert.Equal(t, []Run{{Row: 2, Start: 2, End: 3}}, components[2].Runs)
}

func TestComponents_IgnoresMaskedPixels(t *testing.T) {
	m := maskFromRows("#x#")

	components := Components(m)

	assert.Len(t, components, 2)
}

func TestComponents_UShape(t *testing.T) {
	m := maskFromRows(
		"#.#",
		"#.#",
		"###",
	)

	components := Components(m)

	require.Len(t, components, 1)
	assert.Equal(t, 7, components[0].PixelCount)
	assert.Len(t, components[0].Runs, 5)
}

func TestPolygons(t *testing.T) {
	m := maskFromRows(
		"##.",
		"...",
		"..#",
	)

	fc := Polygons(m)

	require.Len(t, fc.Features, 2)
	first := fc.Features[0]
	assert.Equal(t, "1", first.IDStr())
	assert.Equal(t, 200.0, first.PropertyFloat("area"))

	geometry := firstComponentCoordinates(t, m)
	assert.Equal(t, [][]float64{
		{500000, 4000000}, {500020, 4000000}, {500020, 3999990}, {500000, 3999990}, {500000, 4000000},
	}, geometry[0][0])
}

func firstComponentCoordinates(t *testing.T, m *raster.Mask) [][][][]float64 {
	components := Components(m)
	require.NotEmpty(t, components)
	return components[0].Geometry(m.Transform).Coordinates
}

func TestPolygons_Empty(t *testing.T) {
	fc := Polygons(maskFromRows("...", "..."))

	assert.Empty(t, fc.Features)
}
