package raster

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MaxKernelReach is the largest focal radius, in pixels, a filter accepts. A
// radius in metres over a geographic (degree) grid lands far above it.
const MaxKernelReach = 256

type offset struct{ dr, dc int }

// circleKernel returns the pixel offsets within radius pixels of the centre
func circleKernel(radius float64) []offset {
	reach := int(math.Floor(radius))
	kernel := []offset{}
	for dr := -reach; dr <= reach; dr++ {
		for dc := -reach; dc <= reach; dc++ {
			if float64(dr*dr+dc*dc) <= radius*radius {
				kernel = append(kernel, offset{dr, dc})
			}
		}
	}
	return kernel
}

// radiusPixels converts a radius in map units to pixels using the band's
// pixel width
func (b *Band) radiusPixels(radius float64) (float64, error) {
	if radius < 0 {
		return 0, fmt.Errorf("focal radius must not be negative, got %v", radius)
	}
	width, _ := b.Transform.PixelSize()
	if width == 0 {
		return 0, fmt.Errorf("band %q has zero pixel width", b.Name)
	}
	pixels := radius / width
	if pixels > MaxKernelReach {
		return 0, fmt.Errorf("focal radius %v over %v wide pixels of band %q reaches %.0f pixels, the limit is %d; is the grid in degrees?",
			radius, width, b.Name, pixels, MaxKernelReach)
	}
	return pixels, nil
}

func (b *Band) focal(name string, radius float64, reduce func([]float64) float64) (*Band, error) {
	pixels, err := b.radiusPixels(radius)
	if err != nil {
		return nil, err
	}
	kernel := circleKernel(pixels)
	rows, cols := b.Dims()
	out := NewEmptyBand(name, rows, cols, b.Transform)
	window := make([]float64, 0, len(kernel))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			window = window[:0]
			for _, k := range kernel {
				rr, cc := r+k.dr, c+k.dc
				if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
					continue
				}
				if v := b.At(rr, cc); !math.IsNaN(v) {
					window = append(window, v)
				}
			}
			if len(window) > 0 {
				out.Data.Set(r, c, reduce(window))
			}
		}
	}
	return out, nil
}

// FocalMedian replaces every pixel with the median of the valid pixels within
// a circle of radius map units. It is the speckle filter applied to radar
// backscatter before thresholding.
func (b *Band) FocalMedian(name string, radius float64) (*Band, error) {
	return b.focal(name, radius, median)
}

// FocalMean replaces every pixel with the mean of the valid pixels within a
// circle of radius map units.
func (b *Band) FocalMean(name string, radius float64) (*Band, error) {
	return b.focal(name, radius, func(window []float64) float64 {
		return stat.Mean(window, nil)
	})
}

// median sorts window in place
func median(window []float64) float64 {
	sort.Float64s(window)
	n := len(window)
	if n%2 == 1 {
		return window[n/2]
	}
	return (window[n/2-1] + window[n/2]) / 2
}
