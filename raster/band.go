// Package raster holds single-band grids and the pixel operations the flood
// pipeline runs on them: speckle filtering, QA masking, region statistics,
// threshold classification and .npy input/output.
//
// No-data pixels are stored as NaN.
package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GeoTransform maps pixel space to map space, in GDAL order:
// originX, pixelWidth, rowRotation, originY, columnRotation, pixelHeight.
// pixelHeight is negative for north-up images.
type GeoTransform [6]float64

// IdentityTransform maps pixel (row, col) corners straight to (col, row)
var IdentityTransform = GeoTransform{0, 1, 0, 0, 0, 1}

// Point returns the map coordinate of fractional pixel position (row, col)
func (g GeoTransform) Point(row, col float64) (x, y float64) {
	x = g[0] + col*g[1] + row*g[2]
	y = g[3] + col*g[4] + row*g[5]
	return
}

// Center returns the map coordinate of the centre of pixel (row, col)
func (g GeoTransform) Center(row, col int) (x, y float64) {
	return g.Point(float64(row)+0.5, float64(col)+0.5)
}

// PixelSize returns the absolute pixel width and height in map units
func (g GeoTransform) PixelSize() (width, height float64) {
	return math.Hypot(g[1], g[4]), math.Hypot(g[2], g[5])
}

// PixelArea returns the area covered by one pixel in map units squared
func (g GeoTransform) PixelArea() float64 {
	return math.Abs(g[1]*g[5] - g[2]*g[4])
}

// Valid reports whether the transform is invertible
func (g GeoTransform) Valid() error {
	if g.PixelArea() == 0 {
		return errors.New("geotransform has zero pixel area")
	}
	return nil
}

// Band is one named layer of a raster image
type Band struct {
	Name      string
	Data      *mat.Dense
	Transform GeoTransform
}

// NewBand wraps data as a band. Pixels equal to noData become NaN; pass NaN
// when the data has no sentinel value.
func NewBand(name string, data *mat.Dense, transform GeoTransform, noData float64) *Band {
	if !math.IsNaN(noData) {
		rows, cols := data.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if data.At(r, c) == noData {
					data.Set(r, c, math.NaN())
				}
			}
		}
	}
	return &Band{Name: name, Data: data, Transform: transform}
}

// NewEmptyBand returns a band of the given shape filled with no-data
func NewEmptyBand(name string, rows, cols int, transform GeoTransform) *Band {
	data := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data.Set(r, c, math.NaN())
		}
	}
	return &Band{Name: name, Data: data, Transform: transform}
}

// Dims returns the number of rows and columns
func (b *Band) Dims() (rows, cols int) {
	return b.Data.Dims()
}

// At returns the pixel value, NaN when no-data
func (b *Band) At(row, col int) float64 {
	return b.Data.At(row, col)
}

// Valid reports whether the pixel carries data
func (b *Band) Valid(row, col int) bool {
	return !math.IsNaN(b.Data.At(row, col))
}

// Clone returns a deep copy with a new name
func (b *Band) Clone(name string) *Band {
	return &Band{Name: name, Data: mat.DenseCopyOf(b.Data), Transform: b.Transform}
}

// ValidCount returns how many pixels carry data
func (b *Band) ValidCount() int {
	rows, cols := b.Dims()
	count := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if b.Valid(r, c) {
				count++
			}
		}
	}
	return count
}

// Scale returns a copy with every valid pixel multiplied by factor
func (b *Band) Scale(name string, factor float64) *Band {
	out := b.Clone(name)
	out.Data.Scale(factor, out.Data)
	return out
}

func sameShape(a, b *Band) error {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("band %q is %dx%d but band %q is %dx%d", a.Name, ar, ac, b.Name, br, bc)
	}
	return nil
}

// NormalizedDifference computes (a-b)/(a+b) per pixel, e.g. NDVI from NIR and
// red. Pixels where either input is no-data or the sum is zero are no-data.
func NormalizedDifference(name string, a, b *Band) (*Band, error) {
	if err := sameShape(a, b); err != nil {
		return nil, err
	}
	rows, cols := a.Dims()
	out := NewEmptyBand(name, rows, cols, a.Transform)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			va, vb := a.At(r, c), b.At(r, c)
			sum := va + vb
			if math.IsNaN(sum) || sum == 0 {
				continue
			}
			out.Data.Set(r, c, (va-vb)/sum)
		}
	}
	return out, nil
}
