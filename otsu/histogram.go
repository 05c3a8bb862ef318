package otsu

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ReducerOutput is the dictionary produced by a region histogram reduction:
// parallel arrays of counts and bucket means, plus the bucket layout.
type ReducerOutput struct {
	Histogram   []float64 `json:"histogram"`
	BucketMeans []float64 `json:"bucketMeans"`
	BucketMin   float64   `json:"bucketMin"`
	BucketWidth float64   `json:"bucketWidth"`
}

// Buckets converts the reducer arrays into a Histogram. The arrays must be
// the same length and the means strictly increasing.
func (r ReducerOutput) Buckets() (Histogram, error) {
	if len(r.Histogram) != len(r.BucketMeans) {
		return nil, fmt.Errorf("histogram has %d counts but %d bucket means", len(r.Histogram), len(r.BucketMeans))
	}
	h := make(Histogram, len(r.Histogram))
	for i := range r.Histogram {
		if i > 0 && !(r.BucketMeans[i] > r.BucketMeans[i-1]) {
			return nil, fmt.Errorf("bucket means are not strictly increasing at index %d", i)
		}
		h[i] = Bucket{Mean: r.BucketMeans[i], Count: r.Histogram[i]}
	}
	return h, nil
}

// NewReducerOutput lays a Histogram out as reducer arrays
func NewReducerOutput(h Histogram, bucketMin, bucketWidth float64) ReducerOutput {
	return ReducerOutput{
		Histogram:   h.Counts(),
		BucketMeans: h.Means(),
		BucketMin:   bucketMin,
		BucketWidth: bucketWidth,
	}
}

// ParseHistogram decodes reducer JSON. The dictionary may be given directly or
// nested under a band key such as "VH_histogram"; when nested, exactly one
// entry ending in "_histogram" must be present.
func ParseHistogram(data []byte) (Histogram, error) {
	var direct ReducerOutput
	if err := json.Unmarshal(data, &direct); err == nil && direct.Histogram != nil {
		return direct.Buckets()
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("could not decode histogram: %w", err)
	}
	var found json.RawMessage
	for key, value := range nested {
		if len(key) > len("_histogram") && key[len(key)-len("_histogram"):] == "_histogram" {
			if found != nil {
				return nil, errors.New("more than one band histogram in reducer output")
			}
			found = value
		}
	}
	if found == nil {
		return nil, errors.New("no histogram found in reducer output")
	}
	var inner ReducerOutput
	if err := json.Unmarshal(found, &inner); err != nil {
		return nil, fmt.Errorf("could not decode band histogram: %w", err)
	}
	return inner.Buckets()
}
