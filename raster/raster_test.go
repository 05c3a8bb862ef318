package raster

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/geojson-go/geojson"
	"gonum.org/v1/gonum/mat"
)

var nan = math.NaN()

// tenMetre is a north-up 10 m grid with its top-left corner at (500000, 4000000)
var tenMetre = GeoTransform{500000, 10, 0, 4000000, 0, -10}

func bandFromRows(name string, transform GeoTransform, rows ...[]float64) *Band {
	data := mat.NewDense(len(rows), len(rows[0]), nil)
	for r, row := range rows {
		data.SetRow(r, row)
	}
	return &Band{Name: name, Data: data, Transform: transform}
}

func TestGeoTransform(t *testing.T) {
	x, y := tenMetre.Center(0, 0)
	assert.Equal(t, 500005.0, x)
	assert.Equal(t, 3999995.0, y)

	w, h := tenMetre.PixelSize()
	assert.Equal(t, 10.0, w)
	assert.Equal(t, 10.0, h)
	assert.Equal(t, 100.0, tenMetre.PixelArea())
	assert.NoError(t, tenMetre.Valid())
	assert.Error(t, GeoTransform{}.Valid())
}

func TestNewBand_NoDataBecomesNaN(t *testing.T) {
	data := mat.NewDense(1, 3, []float64{-9999, 1, 2})
	b := NewBand("VH", data, tenMetre, -9999)

	assert.False(t, b.Valid(0, 0))
	assert.True(t, b.Valid(0, 1))
	assert.Equal(t, 2, b.ValidCount())
}

func TestClassifyBelow_ShapeAndValues(t *testing.T) {
	b := bandFromRows("VH", tenMetre,
		[]float64{-20, -15, -10},
		[]float64{-16, nan, -16.5},
	)
	const threshold = -16.0

	m := ClassifyBelow(b, threshold)

	rows, cols := m.Dims()
	br, bc := b.Dims()
	assert.Equal(t, br, rows)
	assert.Equal(t, bc, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			assert.Equal(t, b.At(r, c) < threshold, m.Value(r, c), "pixel %d,%d", r, c)
			assert.Equal(t, b.Valid(r, c) && b.At(r, c) < threshold, m.Valid(r, c), "pixel %d,%d", r, c)
		}
	}
	selected, valid := m.Counts()
	assert.Equal(t, 2, selected)
	assert.Equal(t, 2, valid)
}

func TestClassifyBelow_BackgroundIsMasked(t *testing.T) {
	b := bandFromRows("VH", tenMetre, []float64{-20, -10, nan})
	m := ClassifyBelow(b, -16)

	assert.True(t, m.Valid(0, 0))
	assert.False(t, m.Valid(0, 1), "background must be masked, not zero")
	assert.False(t, m.Valid(0, 2))

	rendered := m.Band("water")
	assert.Equal(t, 1.0, rendered.At(0, 0))
	assert.True(t, math.IsNaN(rendered.At(0, 1)))
	assert.True(t, math.IsNaN(rendered.At(0, 2)))
}

func TestDataMask_CoverageInsideRegion(t *testing.T) {
	b := bandFromRows("VH", tenMetre, []float64{-20, nan, -10, -10})
	region := NewMask(1, 4, tenMetre)
	for c := 0; c < 4; c++ {
		region.Set(0, c, c < 3, true)
	}

	data := DataMask(b)
	selected, valid := data.Counts()
	assert.Equal(t, 3, selected)
	assert.Equal(t, 4, valid)

	covered, _ := data.And(region).Counts()
	assert.Equal(t, 2, covered)
}

func TestMask_Clip(t *testing.T) {
	b := bandFromRows("VH", tenMetre, []float64{-20, -20, -10})
	region := NewMask(1, 3, tenMetre)
	region.Set(0, 0, true, true)
	region.Set(0, 2, true, true)

	m := ClassifyBelow(b, -16).Clip(region)

	selected, valid := m.Counts()
	assert.Equal(t, 1, selected)
	assert.Equal(t, 1, valid)
	assert.True(t, m.Valid(0, 0))
	assert.False(t, m.Valid(0, 1))
}

func TestMask_BandRoundTrip(t *testing.T) {
	b := bandFromRows("VH", tenMetre, []float64{-20, -10, nan})
	m := ClassifyBelow(b, -16)

	back := MaskFromBand(m.Band("water"))
	for c := 0; c < 3; c++ {
		assert.Equal(t, m.Valid(0, c), back.Valid(0, c))
		assert.Equal(t, m.Selected(0, c), back.Selected(0, c))
	}
}

func TestNormalizedDifference(t *testing.T) {
	nir := bandFromRows("B8", tenMetre, []float64{0.5, 0, nan})
	red := bandFromRows("B4", tenMetre, []float64{0.1, 0, 0.2})

	ndvi, err := NormalizedDifference("NDVI", nir, red)

	require.NoError(t, err)
	assert.InDelta(t, 0.4/0.6, ndvi.At(0, 0), 1e-12)
	assert.False(t, ndvi.Valid(0, 1))
	assert.False(t, ndvi.Valid(0, 2))

	_, err = NormalizedDifference("NDVI", nir, bandFromRows("B4", tenMetre, []float64{1}))
	assert.Error(t, err)
}

func TestReduceHistogram_Layout(t *testing.T) {
	b := bandFromRows("VH", tenMetre,
		[]float64{-21, -20.5, -19, nan},
		[]float64{-12, -11, -10.2, -10},
	)

	stats, err := ReduceHistogram(b, nil, HistogramOptions{MaxBuckets: 255, MinBucketWidth: 2})

	require.NoError(t, err)
	assert.Equal(t, 2.0, stats.BucketWidth)
	assert.Equal(t, -22.0, stats.BucketMin)
	assert.Equal(t, 7, stats.Count)
	// -22..-10 at width 2 needs buckets up to the one holding -10
	require.Len(t, stats.Histogram, 7)
	assert.Equal(t, -21.0, stats.Histogram[0].Mean)
	assert.Equal(t, 2.0, stats.Histogram[0].Count)
	assert.Equal(t, 1.0, stats.Histogram[1].Count)
	assert.Equal(t, 1.0, stats.Histogram[6].Count)
	assert.Equal(t, float64(stats.Count), stats.Histogram.Total())
	for i := 1; i < len(stats.Histogram); i++ {
		assert.True(t, stats.Histogram[i].Mean > stats.Histogram[i-1].Mean)
	}
	assert.InDelta(t, (-21-20.5-19-12-11-10.2-10)/7.0, stats.Mean, 1e-9)
	assert.True(t, stats.Variance > 0)
}

func TestReduceHistogram_Region(t *testing.T) {
	b := bandFromRows("VH", tenMetre, []float64{-20, -10})
	region := NewMask(1, 2, tenMetre)
	region.Set(0, 0, true, true)
	region.Set(0, 1, false, true)

	stats, err := ReduceHistogram(b, region, HistogramOptions{MaxBuckets: 10, MinBucketWidth: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, -20.0, stats.Mean)
	assert.Equal(t, 0.0, stats.Variance)
}

func TestReduceHistogram_Errors(t *testing.T) {
	empty := bandFromRows("VH", tenMetre, []float64{nan, nan})
	_, err := ReduceHistogram(empty, nil, HistogramOptions{MaxBuckets: 10})
	assert.Equal(t, ErrEmptyRegion, err)

	b := bandFromRows("VH", tenMetre, []float64{1, 2})
	_, err = ReduceHistogram(b, nil, HistogramOptions{MaxBuckets: 0})
	assert.Error(t, err)
	_, err = ReduceHistogram(b, NewMask(2, 2, tenMetre), HistogramOptions{MaxBuckets: 10})
	assert.Error(t, err)
}

func TestFocalMedian_RemovesSpeckle(t *testing.T) {
	b := bandFromRows("VH", tenMetre,
		[]float64{-20, -20, -20},
		[]float64{-20, 5, -20},
		[]float64{-20, -20, nan},
	)

	filtered, err := b.FocalMedian("VH_Filtered", 10)

	require.NoError(t, err)
	assert.Equal(t, "VH_Filtered", filtered.Name)
	assert.Equal(t, -20.0, filtered.At(1, 1))
	// a no-data pixel with valid neighbours gets a value
	assert.Equal(t, -20.0, filtered.At(2, 2))
	// the input is untouched
	assert.Equal(t, 5.0, b.At(1, 1))
}

func TestFocalMean(t *testing.T) {
	b := bandFromRows("VV", tenMetre,
		[]float64{1, 2, 3},
	)

	filtered, err := b.FocalMean("VV_smoothed", 10)

	require.NoError(t, err)
	assert.InDelta(t, 1.5, filtered.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, filtered.At(0, 1), 1e-12)
	assert.InDelta(t, 2.5, filtered.At(0, 2), 1e-12)

	_, err = b.FocalMean("x", -1)
	assert.Error(t, err)
}

func TestFocal_RejectsOversizedKernel(t *testing.T) {
	degrees := GeoTransform{10, 0.0001, 0, 50, 0, -0.0001}
	b := bandFromRows("VH", degrees, []float64{-20, -10})

	_, err := b.FocalMedian("VH_Filtered", 100)
	assert.Error(t, err)
	_, err = b.FocalMean("VH_smoothed", 100)
	assert.Error(t, err)

	// exactly at the limit is still accepted
	_, err = bandFromRows("VH", tenMetre, []float64{-20, -10}).FocalMean("VH_smoothed", 10*MaxKernelReach)
	assert.NoError(t, err)
}

func TestCircleKernel(t *testing.T) {
	assert.Len(t, circleKernel(0), 1)
	assert.Len(t, circleKernel(1), 5)
	assert.Len(t, circleKernel(1.5), 9)
}

func TestMaskQABits(t *testing.T) {
	b := bandFromRows("B4", tenMetre, []float64{1000, 2000, 3000, 4000})
	qa := bandFromRows("pixel_qa", tenMetre, []float64{0, 1 << 3, 1 << 5, 1 << 1})

	masked, err := MaskLandsat8QA(b, qa)

	require.NoError(t, err)
	assert.True(t, masked.Valid(0, 0))
	assert.False(t, masked.Valid(0, 1))
	assert.False(t, masked.Valid(0, 2))
	assert.True(t, masked.Valid(0, 3))

	s2qa := bandFromRows("QA60", tenMetre, []float64{1 << 10, 1 << 11, 0, nan})
	masked, err = MaskSentinel2QA60(b, s2qa)
	require.NoError(t, err)
	assert.Equal(t, 1, masked.ValidCount())

	scaled := masked.Scale("B4", ReflectanceScale)
	assert.InDelta(t, 0.3, scaled.At(0, 2), 1e-12)
}

func TestRegionMask_PolygonWithHole(t *testing.T) {
	// 4x4 grid of 10 m pixels, outer ring covers everything, hole covers the
	// centre 2x2 block
	polygon := geojson.NewPolygon([][][]float64{
		{{500000, 4000000}, {500040, 4000000}, {500040, 3999960}, {500000, 3999960}, {500000, 4000000}},
		{{500010, 3999990}, {500030, 3999990}, {500030, 3999970}, {500010, 3999970}, {500010, 3999990}},
	})

	m, err := RegionMask(polygon, 4, 4, tenMetre)

	require.NoError(t, err)
	selected, valid := m.Counts()
	assert.Equal(t, 16, valid)
	assert.Equal(t, 12, selected)
	assert.False(t, m.Selected(1, 1))
	assert.True(t, m.Selected(0, 0))

	_, err = RegionMask(geojson.NewPoint([]float64{0, 0}), 4, 4, tenMetre)
	assert.Error(t, err)
}

func TestNpy_RoundTrip(t *testing.T) {
	b := bandFromRows("VH", tenMetre, []float64{-20, nan}, []float64{-10, -5})
	var buf bytes.Buffer

	require.NoError(t, WriteNpy(&buf, b))
	data, err := ReadNpy(&buf)

	require.NoError(t, err)
	rows, cols := data.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, -20.0, data.At(0, 0))
	assert.True(t, math.IsNaN(data.At(0, 1)))
	assert.Equal(t, -5.0, data.At(1, 1))
}

func TestNpy_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vh.npy")
	b := bandFromRows("VH", tenMetre, []float64{-9999, -12})

	require.NoError(t, WriteNpyFile(path, b))
	loaded, err := ReadNpyFile(path, "VH", tenMetre, -9999)

	require.NoError(t, err)
	assert.False(t, loaded.Valid(0, 0))
	assert.Equal(t, -12.0, loaded.At(0, 1))

	_, err = ReadNpyFile(filepath.Join(t.TempDir(), "missing.npy"), "VH", tenMetre, nan)
	assert.Error(t, err)
}
