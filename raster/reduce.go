package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/raviraj-dave96/Compoundflood-road-damage/otsu"
	"gonum.org/v1/gonum/stat"
)

// Defaults matching the flood workflow's histogram reducer
const (
	DefaultMaxBuckets     = 255
	DefaultMinBucketWidth = 2.0
)

// ErrEmptyRegion is returned when a reduction sees no valid pixels
var ErrEmptyRegion = errors.New("no valid pixels in region")

// HistogramOptions controls the bucket layout of ReduceHistogram
type HistogramOptions struct {
	MaxBuckets     int
	MinBucketWidth float64
}

// RegionStats is the result of reducing a band over a region
type RegionStats struct {
	Histogram   otsu.Histogram
	BucketMin   float64
	BucketWidth float64
	Mean        float64
	Variance    float64
	Count       int
}

// ReducerOutput lays the histogram out as reducer arrays
func (s *RegionStats) ReducerOutput() otsu.ReducerOutput {
	return otsu.NewReducerOutput(s.Histogram, s.BucketMin, s.BucketWidth)
}

// ReduceHistogram builds an equal-width histogram of the band's valid pixels,
// restricted to the selected pixels of region when region is non-nil.
//
// The bucket width is the larger of (max-min)/MaxBuckets and MinBucketWidth,
// and buckets are aligned to multiples of the width, so one extra bucket may
// be needed to cover the range. Bucket means are bucket midpoints.
func ReduceHistogram(b *Band, region *Mask, opts HistogramOptions) (*RegionStats, error) {
	if opts.MaxBuckets <= 0 {
		return nil, fmt.Errorf("max buckets must be positive, got %d", opts.MaxBuckets)
	}
	if opts.MinBucketWidth < 0 {
		return nil, fmt.Errorf("min bucket width must not be negative, got %v", opts.MinBucketWidth)
	}
	if region != nil {
		rr, rc := region.Dims()
		br, bc := b.Dims()
		if rr != br || rc != bc {
			return nil, fmt.Errorf("region is %dx%d but band %q is %dx%d", rr, rc, b.Name, br, bc)
		}
	}

	values := regionValues(b, region)
	if len(values) == 0 {
		return nil, ErrEmptyRegion
	}

	min, max := values[0], values[0]
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	width := math.Max((max-min)/float64(opts.MaxBuckets), opts.MinBucketWidth)
	if width == 0 {
		width = 1
	}
	bucketMin := math.Floor(min/width) * width
	n := int(math.Floor((max-bucketMin)/width)) + 1

	counts := make([]float64, n)
	for _, v := range values {
		i := int(math.Floor((v - bucketMin) / width))
		if i >= n {
			i = n - 1
		}
		counts[i]++
	}

	h := make(otsu.Histogram, n)
	for i := range counts {
		h[i] = otsu.Bucket{Mean: bucketMin + (float64(i)+0.5)*width, Count: counts[i]}
	}

	mean := stat.Mean(values, nil)
	variance := 0.0
	if len(values) > 1 {
		variance = stat.Variance(values, nil)
	}

	return &RegionStats{
		Histogram:   h,
		BucketMin:   bucketMin,
		BucketWidth: width,
		Mean:        mean,
		Variance:    variance,
		Count:       len(values),
	}, nil
}

func regionValues(b *Band, region *Mask) []float64 {
	rows, cols := b.Dims()
	values := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if region != nil && !region.Selected(r, c) {
				continue
			}
			if v := b.At(r, c); !math.IsNaN(v) {
				values = append(values, v)
			}
		}
	}
	return values
}
