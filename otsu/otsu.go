// Package otsu selects a binary threshold from a histogram by maximising
// between-class variance (Otsu's method).
//
// The histogram is a sequence of weighted buckets rather than fixed-width
// integer bins: each bucket carries its own mean, and the class means are
// count-weighted means of those bucket means.
package otsu

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Bucket is one histogram entry
type Bucket struct {
	Mean  float64 `json:"mean"`
	Count float64 `json:"count"`
}

// Histogram is an ordered sequence of buckets with strictly increasing means
type Histogram []Bucket

// DegenerateInputError is returned when a histogram has no valid binary split.
// Callers decide the fallback; the selector never retries.
type DegenerateInputError struct {
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return "degenerate histogram: " + e.Reason
}

// Total returns the sum of all bucket counts
func (h Histogram) Total() float64 {
	return floats.Sum(h.Counts())
}

// Means returns the bucket means in order
func (h Histogram) Means() []float64 {
	means := make([]float64, len(h))
	for i, b := range h {
		means[i] = b.Mean
	}
	return means
}

// Counts returns the bucket counts in order
func (h Histogram) Counts() []float64 {
	counts := make([]float64, len(h))
	for i, b := range h {
		counts[i] = b.Count
	}
	return counts
}

// Scale returns a copy of h with every count multiplied by factor
func (h Histogram) Scale(factor float64) Histogram {
	scaled := make(Histogram, len(h))
	for i, b := range h {
		scaled[i] = Bucket{Mean: b.Mean, Count: b.Count * factor}
	}
	return scaled
}

func (h Histogram) check() error {
	for i, b := range h {
		if math.IsNaN(b.Count) || math.IsInf(b.Count, 0) || b.Count < 0 {
			return &DegenerateInputError{Reason: fmt.Sprintf("bucket %d has invalid count %v", i, b.Count)}
		}
		if math.IsNaN(b.Mean) || math.IsInf(b.Mean, 0) {
			return &DegenerateInputError{Reason: fmt.Sprintf("bucket %d has invalid mean %v", i, b.Mean)}
		}
	}
	return nil
}

// BetweenClassVariance returns the between-class variance of splitting h into
// [0, split) and [split, len(h)). ok is false when either side is empty or the
// split index is out of range.
func BetweenClassVariance(h Histogram, split int) (variance float64, ok bool) {
	if split < 1 || split >= len(h) {
		return 0, false
	}
	total, sum := 0.0, 0.0
	countA, sumA := 0.0, 0.0
	for i, b := range h {
		total += b.Count
		sum += b.Mean * b.Count
		if i < split {
			countA += b.Count
			sumA += b.Mean * b.Count
		}
	}
	return betweenClass(total, sum, countA, sumA)
}

func betweenClass(total, sum, countA, sumA float64) (float64, bool) {
	countB := total - countA
	if countA <= 0 || countB <= 0 {
		return 0, false
	}
	grandMean := sum / total
	meanA := sumA / countA
	meanB := (sum - countA*meanA) / countB
	return countA*(meanA-grandMean)*(meanA-grandMean) + countB*(meanB-grandMean)*(meanB-grandMean), true
}

// Split is the outcome of a threshold search
type Split struct {
	// Index is the first bucket of the upper class
	Index int
	// Threshold is h[Index].Mean
	Threshold float64
	// Variance is the between-class variance at Index
	Variance float64
}

// Search finds the split maximising between-class variance. Ties go to the
// highest index.
func Search(h Histogram) (Split, error) {
	if err := h.check(); err != nil {
		return Split{}, err
	}
	if len(h) < 2 {
		return Split{}, &DegenerateInputError{Reason: fmt.Sprintf("need at least 2 buckets, got %d", len(h))}
	}

	total, sum := 0.0, 0.0
	for _, b := range h {
		total += b.Count
		sum += b.Mean * b.Count
	}
	if total <= 0 {
		return Split{}, &DegenerateInputError{Reason: fmt.Sprintf("total count is %v", total)}
	}

	best := Split{Index: -1}
	countA, sumA := 0.0, 0.0
	for i := 1; i < len(h); i++ {
		countA += h[i-1].Count
		sumA += h[i-1].Mean * h[i-1].Count
		variance, ok := betweenClass(total, sum, countA, sumA)
		if !ok {
			continue
		}
		if best.Index < 0 || variance >= best.Variance {
			best = Split{Index: i, Threshold: h[i].Mean, Variance: variance}
		}
	}
	if best.Index < 0 {
		return Split{}, &DegenerateInputError{Reason: "all mass lies in a single bucket"}
	}
	return best, nil
}

// Threshold returns the bucket mean that best separates h into two classes
func Threshold(h Histogram) (float64, error) {
	split, err := Search(h)
	if err != nil {
		return 0, err
	}
	return split.Threshold, nil
}
